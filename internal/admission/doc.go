// Package admission gates access to the generation collaborator.
//
// The Controller keeps an active set bounded by a global ceiling and a
// per-submitter cap, and a priority-ordered wait queue for everything else.
// Registration never fails for lack of capacity: callers get a Ticket that
// says whether they may proceed now or where they stand in line. The ceiling
// adapts to load between configured bounds, and active entries that are never
// released are reclaimed by a periodic stale sweep.
package admission
