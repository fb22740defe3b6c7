package task

import (
	"context"
	"sync"
)

// Handle is the caller's view of an enqueued task. It resolves exactly once.
type Handle struct {
	taskID  string
	done    chan struct{}
	once    sync.Once
	outcome Outcome
}

func newHandle(taskID string) *Handle {
	return &Handle{
		taskID: taskID,
		done:   make(chan struct{}),
	}
}

// TaskID returns the id of the task behind the handle.
func (h *Handle) TaskID() string {
	return h.taskID
}

// Done returns a channel that is closed when the task resolves.
func (h *Handle) Done() <-chan struct{} {
	return h.done
}

// Outcome returns the outcome if the task has resolved.
func (h *Handle) Outcome() (Outcome, bool) {
	select {
	case <-h.done:
		return h.outcome, true
	default:
		return Outcome{}, false
	}
}

// Wait blocks until the task resolves. It only fails when ctx ends first.
func (h *Handle) Wait(ctx context.Context) (Outcome, error) {
	select {
	case <-h.done:
		return h.outcome, nil
	case <-ctx.Done():
		return Outcome{}, ctx.Err()
	}
}

func (h *Handle) resolve(o Outcome) bool {
	resolved := false
	h.once.Do(func() {
		h.outcome = o
		close(h.done)
		resolved = true
	})
	return resolved
}
