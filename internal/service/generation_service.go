package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/phrazzld/coursegen/internal/admission"
	"github.com/phrazzld/coursegen/internal/domain"
	"github.com/phrazzld/coursegen/internal/platform/logger"
	"github.com/phrazzld/coursegen/internal/task"
)

// AdmissionGate is the part of the admission controller the service uses.
type AdmissionGate interface {
	Acquire(ctx context.Context, submitterID string, kind domain.Kind, priority domain.Priority) (string, error)
	CompleteRequest(id string)
	AbandonRequest(id string, cause error) bool
	GetStats() admission.Stats
}

// TaskRunner is the part of the task scheduler the service uses.
type TaskRunner interface {
	Enqueue(spec task.Spec) (*task.Handle, error)
	GetQueueStats() task.QueueStats
}

// GenerationRequest is one call to Generate.
type GenerationRequest struct {
	SubmitterID string
	Payload     domain.Payload
	Priority    domain.Priority
}

// GenerationResult is the delivered content and how it was obtained.
type GenerationResult struct {
	TaskID    string
	Kind      domain.Kind
	Source    task.Source
	Attempts  int
	Duration  time.Duration
	Result    domain.Result
	LastError error
}

// Degraded reports whether the content did not come from the model.
func (r *GenerationResult) Degraded() bool {
	return r.Source != task.SourceGenerated
}

// Stats combines the admission and scheduler views.
type Stats struct {
	Admission admission.Stats
	Scheduler task.QueueStats
}

// GenerationService generates course content for submitters.
type GenerationService interface {
	// Generate blocks until content is available or ctx ends. Once admitted a
	// request always yields content; only invalid input, a stopped scheduler
	// or the caller's own context produce an error.
	Generate(ctx context.Context, req GenerationRequest) (*GenerationResult, error)

	// Stats returns a snapshot of admission and scheduling state.
	Stats() Stats
}

type generationServiceImpl struct {
	gate   AdmissionGate
	runner TaskRunner
	logger *slog.Logger
}

// NewGenerationService creates a GenerationService.
// It returns an error if any of the required dependencies are nil.
func NewGenerationService(gate AdmissionGate, runner TaskRunner, logger *slog.Logger) (GenerationService, error) {
	if gate == nil {
		return nil, fmt.Errorf("%w: gate cannot be nil", domain.ErrValidation)
	}
	if runner == nil {
		return nil, fmt.Errorf("%w: runner cannot be nil", domain.ErrValidation)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &generationServiceImpl{
		gate:   gate,
		runner: runner,
		logger: logger.With(slog.String("component", "generation_service")),
	}, nil
}

// Generate implements GenerationService.Generate.
func (s *generationServiceImpl) Generate(ctx context.Context, req GenerationRequest) (*GenerationResult, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if req.SubmitterID == "" {
		return nil, ErrMissingSubmitter
	}
	if err := domain.ValidatePayload(req.Payload); err != nil {
		return nil, err
	}
	priority := req.Priority.OrDefault()
	if !priority.Valid() {
		return nil, fmt.Errorf("%w: %d", domain.ErrInvalidPriority, priority)
	}
	kind := req.Payload.Kind()

	requestID, err := s.gate.Acquire(ctx, req.SubmitterID, kind, priority)
	if err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("%w: %w", ErrNotAdmitted, err)
		}
		return nil, &GenerationError{Operation: "admit", Err: err}
	}
	log = log.With("request_id", requestID, "submitter_id", req.SubmitterID, "kind", kind)
	log.Debug("request admitted")

	handle, err := s.runner.Enqueue(task.Spec{
		SubmitterID: req.SubmitterID,
		Payload:     req.Payload,
		Priority:    priority,
	})
	if err != nil {
		s.release(log, requestID, nil, err)
		return nil, &GenerationError{Operation: "enqueue", Err: err}
	}

	out, err := handle.Wait(ctx)
	if err != nil {
		// The task keeps running; its slot is released when it resolves.
		go func() {
			<-handle.Done()
			o, _ := handle.Outcome()
			s.release(log, requestID, &o, nil)
		}()
		log.Info("caller left before the task resolved", "task_id", handle.TaskID(), "error", err)
		return nil, err
	}
	s.release(log, requestID, &out, nil)

	return &GenerationResult{
		TaskID:    out.TaskID,
		Kind:      out.Kind,
		Source:    out.Source,
		Attempts:  out.Attempts,
		Duration:  out.Duration,
		Result:    out.Result,
		LastError: out.LastError,
	}, nil
}

// release hands the admission slot back. A degraded outcome or an enqueue
// failure releases the slot without an admission retry, since the content was
// already delivered or the scheduler is gone.
func (s *generationServiceImpl) release(log *slog.Logger, requestID string, out *task.Outcome, enqueueErr error) {
	if enqueueErr == nil && out != nil && !out.Degraded() {
		s.gate.CompleteRequest(requestID)
		return
	}

	cause := enqueueErr
	if cause == nil && out != nil {
		cause = out.LastError
	}
	if cause == nil {
		cause = errors.New("content degraded")
	}

	if !s.gate.AbandonRequest(requestID, cause) {
		log.Warn("admission request was no longer active")
	}
}

// Stats implements GenerationService.Stats.
func (s *generationServiceImpl) Stats() Stats {
	return Stats{
		Admission: s.gate.GetStats(),
		Scheduler: s.runner.GetQueueStats(),
	}
}
