// Package store defines the persistence contract of the outcome journal.
// Implementations live in quality (in memory) and platform/postgres, so the
// scheduler and the reporting endpoints stay independent of the backend.
package store
