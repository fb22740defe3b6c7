// Package gemini implements generation.Generator on Google's Gemini API.
//
// Each payload kind has its own prompt template, embedded in the binary and
// optionally overridden from a directory. Responses are requested as JSON and
// decoded straight into the domain result types. Calls are paced by a token
// bucket so a burst of queued work cannot exceed the configured request rate.
//
// The generator makes exactly one model call per Generate. Retries, backoff
// and fallback content are the scheduler's responsibility.
package gemini
