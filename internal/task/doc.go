// Package task runs generation work with bounded concurrency.
//
// A Scheduler keeps submitted tasks in a priority queue and drives them from a
// single event loop. Failed attempts are retried after a growing delay. Once a
// task runs out of attempts it is resolved with fallback content, and if that
// fails too, with emergency content, so every Handle resolves exactly once
// with a usable result.
package task
