// Package service contains the application use cases. GenerationService
// composes the admission gate with the task scheduler: a request is admitted
// for its submitter, run through the scheduler (retries, fallback and
// emergency content included) and its admission slot is released once the
// task resolves.
//
// Services receive their collaborators through constructor injection and
// never depend on transport or storage details.
package service
