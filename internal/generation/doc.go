// Package generation defines the boundary between the scheduler and the AI
// text-generation collaborator. Implementations (Gemini, offline, test fakes)
// live elsewhere; the scheduler only sees the Generator interface.
package generation
