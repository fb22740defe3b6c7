// Package fallback builds course content without calling a model.
//
// Generate renders deterministic templated content from the request payload
// and is used once a task has exhausted its generation attempts. Emergency
// returns a fixed minimal result that depends on nothing but the kind; it is
// the last resort when even Generate fails.
package fallback
