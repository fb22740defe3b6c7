package admission

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"k8s.io/utils/clock"

	"github.com/phrazzld/coursegen/internal/domain"
	"github.com/phrazzld/coursegen/internal/metrics"
	"github.com/phrazzld/coursegen/internal/queue"
)

// Controller decides which requests may call the generation collaborator.
type Controller struct {
	cfg     Config
	clock   clock.WithTicker
	metrics *metrics.Admission
	newID   func() string
	logger  *slog.Logger

	mu           sync.Mutex
	ceiling      int
	active       map[string]*Request
	perSubmitter map[string]int
	waiting      *queue.Queue[*Request]
}

// Option customises a Controller.
type Option func(*Controller)

// WithClock replaces the wall clock, mostly for tests.
func WithClock(c clock.WithTicker) Option {
	return func(ctrl *Controller) {
		ctrl.clock = c
	}
}

// WithMetrics makes the controller report to the given collectors.
func WithMetrics(m *metrics.Admission) Option {
	return func(ctrl *Controller) {
		ctrl.metrics = m
	}
}

// WithIDGenerator replaces the request id generator.
func WithIDGenerator(fn func() string) Option {
	return func(ctrl *Controller) {
		ctrl.newID = fn
	}
}

// NewController creates a Controller. Zero config fields take their defaults.
func NewController(cfg Config, logger *slog.Logger, opts ...Option) *Controller {
	cfg = cfg.withDefaults()

	c := &Controller{
		cfg:          cfg,
		clock:        clock.RealClock{},
		newID:        uuid.NewString,
		logger:       logger.With("component", "admission"),
		ceiling:      cfg.MaxConcurrentGlobal,
		active:       make(map[string]*Request),
		perSubmitter: make(map[string]int),
		waiting:      queue.New[*Request](),
	}
	for _, opt := range opts {
		opt(c)
	}

	c.metrics.SetState(0, 0, c.ceiling)
	return c
}

// RegisterRequest records a new request and reports whether it may proceed.
// Errors are returned only for invalid input, never for lack of capacity.
func (c *Controller) RegisterRequest(submitterID string, kind domain.Kind, priority domain.Priority) (Ticket, error) {
	if submitterID == "" {
		return Ticket{}, ErrEmptySubmitter
	}
	if !kind.Valid() {
		return Ticket{}, fmt.Errorf("%w: %q", domain.ErrUnknownKind, kind)
	}
	priority = priority.OrDefault()
	if !priority.Valid() {
		return Ticket{}, fmt.Errorf("%w: %d", domain.ErrInvalidPriority, priority)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.clock.Now()
	req := &Request{
		ID:          c.newID(),
		SubmitterID: submitterID,
		Kind:        kind,
		Priority:    priority,
		CreatedAt:   now,
		ready:       make(chan struct{}),
	}

	switch {
	case c.perSubmitter[submitterID] >= c.cfg.MaxConcurrentPerSubmitter:
		c.enqueue(req, "submitter_limit")
	case len(c.active) < c.ceiling:
		c.activate(req, now)
	default:
		c.enqueue(req, "capacity")
	}

	c.advance()
	c.observe()

	return c.ticketFor(req), nil
}

// CompleteRequest releases the slot of an active request. Unknown ids are ignored.
func (c *Controller) CompleteRequest(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	req, ok := c.deactivate(id)
	if !ok {
		c.logger.Debug("complete for unknown request ignored", "request_id", id)
		return
	}

	c.logger.Debug("request completed",
		"request_id", id,
		"submitter_id", req.SubmitterID,
		"active_for", c.clock.Since(req.ActiveSince))

	c.advance()
	c.observe()
}

// FailRequest releases the slot of an active request after a failure. The
// request is queued again at high priority until it reaches MaxRetries
// failures, after which it is dropped.
func (c *Controller) FailRequest(id string, cause error) FailOutcome {
	c.mu.Lock()
	defer c.mu.Unlock()

	req, ok := c.deactivate(id)
	if !ok {
		c.logger.Debug("failure for unknown request ignored", "request_id", id)
		return FailUnknown
	}

	req.Retries++
	if req.Retries >= c.cfg.MaxRetries {
		c.logger.Warn("request dropped after exhausting retries",
			"request_id", id,
			"submitter_id", req.SubmitterID,
			"kind", req.Kind,
			"retries", req.Retries,
			"error", cause)
		c.metrics.Dropped()
		c.advance()
		c.observe()
		return FailDropped
	}

	req.Priority = domain.PriorityHigh
	req.CreatedAt = c.clock.Now()
	req.ActiveSince = time.Time{}
	req.ready = make(chan struct{})

	c.logger.Info("request requeued after failure",
		"request_id", id,
		"submitter_id", req.SubmitterID,
		"retries", req.Retries,
		"error", cause)
	c.enqueue(req, "retry")

	c.advance()
	c.observe()
	return FailRequeued
}

// AbandonRequest releases an active request after a failure whose result was
// already handled elsewhere. Unlike FailRequest it never queues the request
// again. It returns false for unknown ids.
func (c *Controller) AbandonRequest(id string, cause error) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	req, ok := c.deactivate(id)
	if !ok {
		c.logger.Debug("abandon for unknown request ignored", "request_id", id)
		return false
	}

	c.logger.Info("request abandoned after failure",
		"request_id", id,
		"submitter_id", req.SubmitterID,
		"kind", req.Kind,
		"error", cause)
	c.metrics.Abandoned()

	c.advance()
	c.observe()
	return true
}

// Withdraw removes a request that is still waiting. It returns false when the
// request is not queued, including when it has already been admitted.
func (c *Controller) Withdraw(id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.waiting.Remove(id); !ok {
		return false
	}
	c.logger.Debug("queued request withdrawn", "request_id", id)
	c.observe()
	return true
}

// Await blocks until the request is active or ctx is done.
func (c *Controller) Await(ctx context.Context, id string) error {
	c.mu.Lock()
	if _, ok := c.active[id]; ok {
		c.mu.Unlock()
		return nil
	}
	req, ok := c.waiting.First(func(r *Request) bool { return r.ID == id })
	if !ok {
		c.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrUnknownRequest, id)
	}
	ready := req.ready
	c.mu.Unlock()

	select {
	case <-ready:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Acquire registers a request and blocks until it is admitted. The returned
// id must be released with CompleteRequest, FailRequest or AbandonRequest. If
// ctx ends first the request is withdrawn and the context error is returned.
func (c *Controller) Acquire(ctx context.Context, submitterID string, kind domain.Kind, priority domain.Priority) (string, error) {
	ticket, err := c.RegisterRequest(submitterID, kind, priority)
	if err != nil {
		return "", err
	}
	if ticket.CanProceed {
		return ticket.RequestID, nil
	}

	if err := c.Await(ctx, ticket.RequestID); err != nil {
		if !c.Withdraw(ticket.RequestID) {
			// Admitted while we were giving up; hand the slot back.
			c.CompleteRequest(ticket.RequestID)
		}
		return "", err
	}
	return ticket.RequestID, nil
}

// Status returns the current ticket of a tracked request, so a client that
// was queued can poll for admission.
func (c *Controller) Status(id string) (Ticket, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if req, ok := c.active[id]; ok {
		return c.ticketFor(req), nil
	}
	if req, ok := c.waiting.First(func(r *Request) bool { return r.ID == id }); ok {
		return c.ticketFor(req), nil
	}
	return Ticket{}, fmt.Errorf("%w: %s", ErrUnknownRequest, id)
}

// AdjustLimits moves the global ceiling one step according to load.
func (c *Controller) AdjustLimits() {
	c.mu.Lock()
	defer c.mu.Unlock()

	utilization := float64(len(c.active)) / float64(c.ceiling)
	queued := c.waiting.Len()
	previous := c.ceiling

	switch {
	case utilization > c.cfg.ScaleDownUtilization && queued > c.cfg.ScaleDownQueueLength:
		c.ceiling = max(c.ceiling-1, c.cfg.MinConcurrentGlobal)
	case utilization < c.cfg.ScaleUpUtilization && queued == 0:
		c.ceiling = min(c.ceiling+1, c.cfg.MaxConcurrentGlobalCeiling)
	}

	if c.ceiling == previous {
		return
	}

	// Lowering the ceiling never evicts active work; the set drains naturally.
	c.logger.Info("concurrency ceiling adjusted",
		"from", previous,
		"to", c.ceiling,
		"utilization", utilization,
		"queued", queued)

	if c.ceiling > previous {
		c.advance()
	}
	c.observe()
}

// CleanupStaleRequests removes active requests that have been held longer
// than StaleAfter and returns how many were removed.
func (c *Controller) CleanupStaleRequests() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.clock.Now()
	removed := 0
	for id, req := range c.active {
		age := now.Sub(req.ActiveSince)
		if age <= c.cfg.StaleAfter {
			continue
		}
		c.deactivate(id)
		removed++
		c.logger.Warn("removing stale active request",
			"request_id", id,
			"submitter_id", req.SubmitterID,
			"kind", req.Kind,
			"active_for", age)
	}

	if removed > 0 {
		c.metrics.Stale(removed)
		c.advance()
		c.observe()
	}
	return removed
}

// Run drives limit adjustment and stale cleanup until ctx is done.
func (c *Controller) Run(ctx context.Context) error {
	adjust := c.clock.NewTicker(c.cfg.AdjustInterval)
	defer adjust.Stop()
	cleanup := c.clock.NewTicker(c.cfg.CleanupInterval)
	defer cleanup.Stop()

	c.logger.Info("admission maintenance started",
		"adjust_interval", c.cfg.AdjustInterval,
		"cleanup_interval", c.cfg.CleanupInterval)

	for {
		select {
		case <-ctx.Done():
			c.logger.Info("admission maintenance stopped")
			return nil
		case <-adjust.C():
			c.AdjustLimits()
		case <-cleanup.C():
			c.CleanupStaleRequests()
		}
	}
}

// GetStats returns a snapshot of the controller state.
func (c *Controller) GetStats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()

	stats := Stats{
		ActiveRequests:     len(c.active),
		QueuedRequests:     c.waiting.Len(),
		TotalCapacity:      c.ceiling,
		UtilizationPercent: float64(len(c.active)) / float64(c.ceiling) * 100,
	}

	if stats.QueuedRequests > 0 {
		now := c.clock.Now()
		var total time.Duration
		for _, req := range c.waiting.Items() {
			total += now.Sub(req.CreatedAt)
		}
		stats.AverageWaitTime = total / time.Duration(stats.QueuedRequests)
	}
	return stats
}

// advance promotes queued requests while there is room. When the head belongs
// to a submitter that is already at its cap it goes back to the front and
// advancement stops, so a single pass never promotes two entries of one
// submitter past its limit.
func (c *Controller) advance() {
	now := c.clock.Now()
	for len(c.active) < c.ceiling {
		head, ok := c.waiting.Pop()
		if !ok {
			return
		}
		if c.perSubmitter[head.SubmitterID] >= c.cfg.MaxConcurrentPerSubmitter {
			// The id was just popped, so PushFront cannot collide.
			_ = c.waiting.PushFront(head)
			return
		}
		c.activate(head, now)
	}
}

func (c *Controller) activate(req *Request, now time.Time) {
	req.ActiveSince = now
	c.active[req.ID] = req
	c.perSubmitter[req.SubmitterID]++
	close(req.ready)
	c.metrics.Admitted()

	c.logger.Debug("request admitted",
		"request_id", req.ID,
		"submitter_id", req.SubmitterID,
		"kind", req.Kind,
		"priority", req.Priority,
		"waited", now.Sub(req.CreatedAt))
}

func (c *Controller) deactivate(id string) (*Request, bool) {
	req, ok := c.active[id]
	if !ok {
		return nil, false
	}
	delete(c.active, id)
	if c.perSubmitter[req.SubmitterID] <= 1 {
		delete(c.perSubmitter, req.SubmitterID)
	} else {
		c.perSubmitter[req.SubmitterID]--
	}
	return req, true
}

func (c *Controller) enqueue(req *Request, reason string) {
	if err := c.waiting.Push(req); err != nil {
		// Ids come from the generator and are never reused while tracked.
		c.logger.Error("failed to queue request", "request_id", req.ID, "error", err)
		return
	}
	c.metrics.Queued()
	c.logger.Debug("request queued",
		"request_id", req.ID,
		"submitter_id", req.SubmitterID,
		"priority", req.Priority,
		"reason", reason,
		"position", c.waiting.Position(req.ID))
}

func (c *Controller) ticketFor(req *Request) Ticket {
	if _, ok := c.active[req.ID]; ok {
		return Ticket{RequestID: req.ID, CanProceed: true, ready: req.ready}
	}

	position := c.waiting.Position(req.ID)
	rounds := (position + c.ceiling - 1) / c.ceiling
	return Ticket{
		RequestID: req.ID,
		Position:  position,
		WaitTime:  time.Duration(rounds) * c.cfg.AverageProcessingTime,
		ready:     req.ready,
	}
}

func (c *Controller) observe() {
	c.metrics.SetState(len(c.active), c.waiting.Len(), c.ceiling)
}
