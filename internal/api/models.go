package api

import (
	"encoding/json"

	"github.com/phrazzld/coursegen/internal/domain"
)

// MetadataGenerationRequest is the body of POST /api/generations/metadata.
type MetadataGenerationRequest struct {
	Prompt      string `json:"prompt"                 validate:"required,max=4000"`
	Audience    string `json:"audience,omitempty"     validate:"max=500"`
	ModuleCount int    `json:"module_count,omitempty" validate:"min=0,max=20"`
	Priority    string `json:"priority,omitempty"     validate:"omitempty,oneof=high medium low"`
}

// ModuleGenerationRequest is the body of POST /api/generations/module.
type ModuleGenerationRequest struct {
	CourseTitle       string `json:"course_title"                 validate:"required,max=300"`
	ModuleTitle       string `json:"module_title"                 validate:"required,max=300"`
	ModuleDescription string `json:"module_description,omitempty" validate:"max=2000"`
	ModuleIndex       int    `json:"module_index"                 validate:"min=0"`
	Priority          string `json:"priority,omitempty"           validate:"omitempty,oneof=high medium low"`
}

// GenerationResponse is the content delivered for a generation request.
type GenerationResponse struct {
	TaskID     string        `json:"task_id"`
	Kind       domain.Kind   `json:"kind"`
	Source     string        `json:"source"`
	Degraded   bool          `json:"degraded"`
	Attempts   int           `json:"attempts"`
	DurationMS int64         `json:"duration_ms"`
	Result     domain.Result `json:"result"`
}

// AdmissionRequest is the body of POST /api/admission/requests.
type AdmissionRequest struct {
	Kind     string `json:"kind"               validate:"required,oneof=metadata module"`
	Priority string `json:"priority,omitempty" validate:"omitempty,oneof=high medium low"`
}

// TicketResponse describes where an admission request stands.
type TicketResponse struct {
	RequestID  string `json:"request_id"`
	CanProceed bool   `json:"can_proceed"`
	Position   int    `json:"position,omitempty"`
	WaitTimeMS int64  `json:"wait_time_ms,omitempty"`
}

// FailRequestBody is the optional body of POST /api/admission/requests/{id}/fail.
type FailRequestBody struct {
	Reason string `json:"reason,omitempty" validate:"max=1000"`
}

// FailResponse reports what happened to a failed admission request.
type FailResponse struct {
	RequestID string `json:"request_id"`
	Outcome   string `json:"outcome"`
}

// StatsResponse is the body of GET /api/stats.
type StatsResponse struct {
	Admission AdmissionStats `json:"admission"`
	Scheduler SchedulerStats `json:"scheduler"`
}

// AdmissionStats mirrors admission.Stats.
type AdmissionStats struct {
	ActiveRequests     int     `json:"active_requests"`
	QueuedRequests     int     `json:"queued_requests"`
	TotalCapacity      int     `json:"total_capacity"`
	UtilizationPercent float64 `json:"utilization_percent"`
	AverageWaitTimeMS  int64   `json:"average_wait_time_ms"`
}

// SchedulerStats mirrors task.QueueStats.
type SchedulerStats struct {
	Pending       int    `json:"pending"`
	Processing    int    `json:"processing"`
	Failed        int    `json:"failed"`
	AvgWaitTimeMS int64  `json:"avg_wait_time_ms"`
	Completed     uint64 `json:"completed"`
	Fallbacks     uint64 `json:"fallbacks"`
	Emergencies   uint64 `json:"emergencies"`
}

// OutcomeResponse is one journal entry.
type OutcomeResponse struct {
	ID          string          `json:"id"`
	TaskID      string          `json:"task_id"`
	SubmitterID string          `json:"submitter_id"`
	Kind        domain.Kind     `json:"kind"`
	Source      string          `json:"source"`
	Attempts    int             `json:"attempts"`
	DurationMS  int64           `json:"duration_ms"`
	LastError   string          `json:"last_error,omitempty"`
	Result      json.RawMessage `json:"result,omitempty"`
	CreatedAt   string          `json:"created_at"`
}

// OutcomeSummaryResponse is the body of GET /api/outcomes/summary.
type OutcomeSummaryResponse struct {
	Total        int64   `json:"total"`
	Generated    int64   `json:"generated"`
	Fallback     int64   `json:"fallback"`
	Emergency    int64   `json:"emergency"`
	FallbackRate float64 `json:"fallback_rate"`
}
