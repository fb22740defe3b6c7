// Package domain contains the core entities of course generation: the kinds
// of work the generation collaborator performs, their payloads and results,
// and the priority scale shared by the admission controller and the task
// scheduler. It is independent of any infrastructure or delivery mechanism.
package domain
