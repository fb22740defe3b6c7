// Package quality keeps the outcome journal: every resolved generation task
// is recorded with where its content came from, so operators can watch how
// often learners receive fallback material instead of generated content.
package quality
