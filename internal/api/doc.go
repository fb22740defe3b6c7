// Package api handles incoming HTTP requests, request validation and
// response formatting. It adapts HTTP to the generation service, the
// admission controller and the outcome journal.
package api
