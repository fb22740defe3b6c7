package task

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sourcegraph/conc"
	"github.com/sourcegraph/conc/panics"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"k8s.io/utils/clock"

	"github.com/phrazzld/coursegen/internal/domain"
	"github.com/phrazzld/coursegen/internal/events"
	"github.com/phrazzld/coursegen/internal/fallback"
	"github.com/phrazzld/coursegen/internal/generation"
	"github.com/phrazzld/coursegen/internal/metrics"
	"github.com/phrazzld/coursegen/internal/observability"
	"github.com/phrazzld/coursegen/internal/queue"
	"github.com/phrazzld/coursegen/internal/redact"
)

// FallbackFunc builds degraded content once a task is out of attempts.
type FallbackFunc func(payload domain.Payload) (domain.Result, error)

// EmergencyFunc builds last-resort content when the fallback fails.
type EmergencyFunc func(kind domain.Kind) domain.Result

// QueueStats is a point-in-time view of the scheduler.
type QueueStats struct {
	// Pending counts queued tasks that are not in flight.
	Pending int
	// Processing counts tasks with an attempt in flight.
	Processing int
	// Failed counts pending tasks that already failed at least once.
	Failed int
	// AvgWaitTime is the mean age of the queued tasks.
	AvgWaitTime time.Duration

	Completed   uint64
	Fallbacks   uint64
	Emergencies uint64
}

// Scheduler runs generation tasks with bounded concurrency, retries and
// graceful degradation.
type Scheduler struct {
	gen       generation.Generator
	cfg       SchedulerConfig
	clock     clock.WithTicker
	fallback  FallbackFunc
	emergency EmergencyFunc
	emitter   events.EventEmitter
	metrics   *metrics.Scheduler
	logger    *slog.Logger

	ctx      context.Context
	cancel   context.CancelFunc
	wake     chan struct{}
	loopDone chan struct{}
	running  conc.WaitGroup

	mu           sync.Mutex
	errHandler   func(task *Task, err error)
	tasks        *queue.Queue[*Task]
	inFlight     map[string]*Task
	perSubmitter map[string]int
	started      bool
	stopped      bool
	completed    uint64
	fallbacks    uint64
	emergencies  uint64
}

// SchedulerOption customises a Scheduler.
type SchedulerOption func(*Scheduler)

// WithClock replaces the wall clock, mostly for tests.
func WithClock(c clock.WithTicker) SchedulerOption {
	return func(s *Scheduler) {
		s.clock = c
	}
}

// WithFallback replaces the fallback content generator.
func WithFallback(fn FallbackFunc) SchedulerOption {
	return func(s *Scheduler) {
		s.fallback = fn
	}
}

// WithEmergency replaces the emergency content generator.
func WithEmergency(fn EmergencyFunc) SchedulerOption {
	return func(s *Scheduler) {
		s.emergency = fn
	}
}

// WithEmitter publishes an OutcomeEvent for every resolved task.
func WithEmitter(e events.EventEmitter) SchedulerOption {
	return func(s *Scheduler) {
		s.emitter = e
	}
}

// WithMetrics makes the scheduler report to the given collectors.
func WithMetrics(m *metrics.Scheduler) SchedulerOption {
	return func(s *Scheduler) {
		s.metrics = m
	}
}

// NewScheduler creates a Scheduler. Call Start to begin processing.
func NewScheduler(gen generation.Generator, cfg SchedulerConfig, logger *slog.Logger, opts ...SchedulerOption) *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())
	logger = logger.With("component", "task_scheduler")

	s := &Scheduler{
		gen:          gen,
		cfg:          cfg.withDefaults(),
		clock:        clock.RealClock{},
		fallback:     fallback.Generate,
		emergency:    fallback.Emergency,
		logger:       logger,
		ctx:          ctx,
		cancel:       cancel,
		wake:         make(chan struct{}, 1),
		loopDone:     make(chan struct{}),
		tasks:        queue.New[*Task](),
		inFlight:     make(map[string]*Task),
		perSubmitter: make(map[string]int),
		errHandler: func(task *Task, err error) {
			// Default error handler just logs the failure
			logger.Warn("generation attempt failed",
				"task_id", task.ID,
				"kind", task.Kind(),
				"attempt", task.Attempts,
				"error", redact.Error(err))
		},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SetErrorHandler sets the function called after every failed attempt. It is
// for observability only and cannot change what happens to the task.
func (s *Scheduler) SetErrorHandler(handler func(task *Task, err error)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.errHandler = handler
}

// Enqueue adds work to the queue and returns its handle. Errors are returned
// only for invalid input or a stopped scheduler.
func (s *Scheduler) Enqueue(spec Spec) (*Handle, error) {
	if spec.SubmitterID == "" {
		return nil, ErrEmptySubmitter
	}
	if err := domain.ValidatePayload(spec.Payload); err != nil {
		return nil, err
	}
	priority := spec.Priority.OrDefault()
	if !priority.Valid() {
		return nil, fmt.Errorf("%w: %d", domain.ErrInvalidPriority, priority)
	}
	maxAttempts := spec.MaxAttempts
	if maxAttempts < 0 {
		return nil, ErrInvalidMaxAttempts
	}
	if maxAttempts == 0 {
		maxAttempts = s.cfg.MaxAttempts
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stopped {
		return nil, ErrSchedulerStopped
	}

	now := s.clock.Now()
	kind := spec.Payload.Kind()
	t := &Task{
		ID:          newTaskID(kind, spec.SubmitterID, now),
		SubmitterID: spec.SubmitterID,
		Payload:     spec.Payload,
		Priority:    priority,
		MaxAttempts: maxAttempts,
		CreatedAt:   now,
		ScheduledAt: now,
		Status:      StatusQueued,
	}
	t.handle = newHandle(t.ID)

	if err := s.tasks.Push(t); err != nil {
		return nil, fmt.Errorf("failed to queue task %s: %w", t.ID, err)
	}
	s.observe()
	s.signal()

	s.logger.Debug("task enqueued",
		"task_id", t.ID,
		"kind", kind,
		"submitter_id", t.SubmitterID,
		"priority", t.Priority,
		"max_attempts", t.MaxAttempts,
		"queue_length", s.tasks.Len())

	return t.handle, nil
}

// Start launches the event loop.
func (s *Scheduler) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stopped {
		return ErrSchedulerStopped
	}
	if s.started {
		return nil
	}
	s.started = true

	go s.loop()
	s.logger.Info("task scheduler started",
		"concurrent_limit", s.cfg.ConcurrentLimit,
		"max_in_flight_per_submitter", s.cfg.MaxInFlightPerSubmitter,
		"max_attempts", s.cfg.MaxAttempts)
	return nil
}

// Stop shuts the scheduler down. It waits for in-flight attempts, then
// resolves every task still queued with fallback content so no waiter hangs.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return
	}
	s.stopped = true
	started := s.started
	s.mu.Unlock()

	s.cancel()
	if started {
		<-s.loopDone
	}
	s.running.Wait()

	s.mu.Lock()
	remaining := s.tasks.Items()
	for _, t := range remaining {
		t.Status = StatusFallback
	}
	s.mu.Unlock()

	for _, t := range remaining {
		s.degrade(t, ErrSchedulerStopped)
	}

	s.logger.Info("task scheduler stopped", "drained", len(remaining))
}

// GetQueueStats returns a snapshot of the scheduler state.
func (s *Scheduler) GetQueueStats() QueueStats {
	s.mu.Lock()
	defer s.mu.Unlock()

	stats := QueueStats{
		Processing:  len(s.inFlight),
		Completed:   s.completed,
		Fallbacks:   s.fallbacks,
		Emergencies: s.emergencies,
	}

	now := s.clock.Now()
	var age time.Duration
	items := s.tasks.Items()
	for _, t := range items {
		age += now.Sub(t.CreatedAt)
		if _, busy := s.inFlight[t.ID]; busy {
			continue
		}
		stats.Pending++
		if t.Attempts > 0 {
			stats.Failed++
		}
	}
	if len(items) > 0 {
		stats.AvgWaitTime = age / time.Duration(len(items))
	}
	return stats
}

// loop is the only place attempts are launched. It sleeps until woken by an
// enqueue or a finished attempt, or until the earliest retry is due.
func (s *Scheduler) loop() {
	defer close(s.loopDone)

	for {
		wait, armed := s.dispatch()

		var timer clock.Timer
		var due <-chan time.Time
		if armed {
			timer = s.clock.NewTimer(wait)
			due = timer.C()
		}

		select {
		case <-s.ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return
		case <-s.wake:
		case <-due:
		}

		if timer != nil {
			timer.Stop()
		}
	}
}

// dispatch launches every eligible task that fits and returns how long until
// the next scheduled retry becomes eligible.
func (s *Scheduler) dispatch() (time.Duration, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.clock.Now()
	for len(s.inFlight) < s.cfg.ConcurrentLimit {
		t, ok := s.tasks.First(func(t *Task) bool { return s.eligible(t, now) })
		if !ok {
			break
		}
		s.launch(t)
	}

	var next time.Time
	for _, t := range s.tasks.Items() {
		if _, busy := s.inFlight[t.ID]; busy {
			continue
		}
		if !t.ScheduledAt.After(now) {
			if t.Status == StatusRetryScheduled {
				t.Status = StatusQueued
			}
			continue
		}
		if next.IsZero() || t.ScheduledAt.Before(next) {
			next = t.ScheduledAt
		}
	}
	s.observe()

	if next.IsZero() {
		return 0, false
	}
	return next.Sub(now), true
}

func (s *Scheduler) eligible(t *Task, now time.Time) bool {
	if _, busy := s.inFlight[t.ID]; busy {
		return false
	}
	if t.ScheduledAt.After(now) {
		return false
	}
	limit := s.cfg.MaxInFlightPerSubmitter
	return limit <= 0 || s.perSubmitter[t.SubmitterID] < limit
}

func (s *Scheduler) launch(t *Task) {
	t.Attempts++
	t.Status = StatusInFlight
	s.inFlight[t.ID] = t
	s.perSubmitter[t.SubmitterID]++

	attempt := t.Attempts
	s.running.Go(func() {
		s.execute(t, attempt)
	})
}

func (s *Scheduler) execute(t *Task, attempt int) {
	kind := t.Kind()
	logger := s.logger.With(
		"task_id", t.ID,
		"kind", kind,
		"submitter_id", t.SubmitterID,
		"attempt", attempt,
	)

	ctx, cancel := context.WithTimeout(context.Background(), s.cfg.AttemptTimeout)
	defer cancel()
	ctx, span := observability.StartSpan(ctx, "generation.attempt",
		attribute.String("task.id", t.ID),
		attribute.String("task.kind", string(kind)),
		attribute.Int("task.attempt", attempt),
	)

	logger.Debug("generation attempt started")
	start := s.clock.Now()
	result, err := s.generate(ctx, t.Payload)
	took := s.clock.Since(start)

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "generation failed")
	}
	span.End()
	s.metrics.Attempt(string(kind), err, took)

	if err == nil {
		logger.Debug("generation attempt succeeded", "duration", took)
		s.succeed(t, result)
		return
	}
	s.fail(t, err, logger)
}

// generate calls the generator, turning panics and unusable results into errors.
func (s *Scheduler) generate(ctx context.Context, payload domain.Payload) (domain.Result, error) {
	var (
		result domain.Result
		err    error
		pc     panics.Catcher
	)
	pc.Try(func() {
		result, err = s.gen.Generate(ctx, payload)
	})
	if r := pc.Recovered(); r != nil {
		return nil, fmt.Errorf("%w: %v", ErrGeneratorPanic, r.Value)
	}
	if err != nil {
		return nil, err
	}
	if err := checkResult(payload.Kind(), result); err != nil {
		return nil, err
	}
	return result, nil
}

func checkResult(kind domain.Kind, result domain.Result) error {
	if err := domain.ValidateResult(result); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidResult, err)
	}
	if result.Kind() != kind {
		return fmt.Errorf("%w: got %s content for a %s task", ErrInvalidResult, result.Kind(), kind)
	}
	return nil
}

func (s *Scheduler) succeed(t *Task, result domain.Result) {
	s.mu.Lock()
	s.release(t)
	t.Status = StatusSucceeded
	s.completed++
	out := s.outcomeFor(t, result, SourceGenerated)
	s.observe()
	s.mu.Unlock()

	s.signal()
	s.resolve(t, out)
}

func (s *Scheduler) fail(t *Task, err error, logger *slog.Logger) {
	s.mu.Lock()
	t.LastError = err
	handler := s.errHandler

	if t.Attempts < t.MaxAttempts {
		delay := s.cfg.retryDelay(t.Attempts)
		t.ScheduledAt = s.clock.Now().Add(delay)
		t.Status = StatusRetryScheduled
		s.releaseSlot(t)
		snapshot := t.snapshot()
		s.observe()
		s.mu.Unlock()

		s.metrics.Retry()
		logger.Info("retry scheduled", "retry_in", delay, "error", redact.Error(err))
		handler(snapshot, err)
		s.signal()
		return
	}

	t.Status = StatusFallback
	snapshot := t.snapshot()
	s.mu.Unlock()

	logger.Warn("generation attempts exhausted, using fallback content",
		"max_attempts", t.MaxAttempts,
		"error", redact.Error(err))
	handler(snapshot, err)
	s.degrade(t, err)
}

// degrade resolves t with fallback content, or emergency content when the
// fallback fails or panics.
func (s *Scheduler) degrade(t *Task, cause error) {
	result, source := s.degradedResult(t)

	s.mu.Lock()
	s.release(t)
	t.Status = StatusSucceeded
	if t.LastError == nil {
		t.LastError = cause
	}
	if source == SourceFallback {
		s.fallbacks++
	} else {
		s.emergencies++
	}
	out := s.outcomeFor(t, result, source)
	s.observe()
	s.mu.Unlock()

	s.signal()
	s.resolve(t, out)
}

func (s *Scheduler) degradedResult(t *Task) (domain.Result, Source) {
	kind := t.Kind()

	var (
		result domain.Result
		err    error
		pc     panics.Catcher
	)
	pc.Try(func() {
		result, err = s.fallback(t.Payload)
	})
	if r := pc.Recovered(); r != nil {
		err = fmt.Errorf("fallback panicked: %v", r.Value)
	}
	if err == nil {
		err = checkResult(kind, result)
	}
	if err == nil {
		return result, SourceFallback
	}

	s.logger.Error("fallback generation failed, using emergency content",
		"task_id", t.ID,
		"kind", kind,
		"error", err)

	var emergency domain.Result
	var epc panics.Catcher
	epc.Try(func() {
		emergency = s.emergency(kind)
	})
	if epc.Recovered() != nil || checkResult(kind, emergency) != nil {
		emergency = fallback.Emergency(kind)
	}
	return emergency, SourceEmergency
}

// release removes t from the queue and frees its slot. Callers hold s.mu.
func (s *Scheduler) release(t *Task) {
	s.tasks.Remove(t.ID)
	s.releaseSlot(t)
}

// releaseSlot frees the in-flight slot of t, if it holds one. Callers hold s.mu.
func (s *Scheduler) releaseSlot(t *Task) {
	if _, ok := s.inFlight[t.ID]; !ok {
		return
	}
	delete(s.inFlight, t.ID)
	if s.perSubmitter[t.SubmitterID] <= 1 {
		delete(s.perSubmitter, t.SubmitterID)
	} else {
		s.perSubmitter[t.SubmitterID]--
	}
}

func (s *Scheduler) outcomeFor(t *Task, result domain.Result, source Source) Outcome {
	return Outcome{
		TaskID:    t.ID,
		Kind:      t.Kind(),
		Result:    result,
		Source:    source,
		Attempts:  t.Attempts,
		Duration:  s.clock.Since(t.CreatedAt),
		LastError: t.LastError,
	}
}

func (s *Scheduler) resolve(t *Task, out Outcome) {
	if !t.handle.resolve(out) {
		return
	}
	s.metrics.Outcome(string(out.Kind), string(out.Source))

	s.logger.Info("task resolved",
		"task_id", out.TaskID,
		"kind", out.Kind,
		"submitter_id", t.SubmitterID,
		"source", out.Source,
		"attempts", out.Attempts,
		"duration", out.Duration)

	if s.emitter == nil {
		return
	}
	event, err := events.NewOutcomeEvent(out.TaskID, t.SubmitterID, out.Kind, string(out.Source),
		out.Attempts, out.Duration, out.LastError, out.Result)
	if err != nil {
		s.logger.Error("failed to build outcome event", "task_id", out.TaskID, "error", err)
		return
	}
	if err := s.emitter.EmitEvent(context.Background(), event); err != nil {
		s.logger.Error("failed to emit outcome event", "task_id", out.TaskID, "error", err)
	}
}

// signal wakes the event loop without blocking.
func (s *Scheduler) signal() {
	select {
	case s.wake <- struct{}{}:
	default:
	}
}

// observe publishes queue gauges. Callers hold s.mu.
func (s *Scheduler) observe() {
	s.metrics.SetState(s.tasks.Len()-len(s.inFlight), len(s.inFlight))
}

func newTaskID(kind domain.Kind, submitterID string, now time.Time) string {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
	return fmt.Sprintf("%s_%s_%d_%s", kind, submitterID, now.UnixMilli(), suffix)
}
