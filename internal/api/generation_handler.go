package api

import (
	"net/http"

	"github.com/phrazzld/coursegen/internal/api/shared"
	"github.com/phrazzld/coursegen/internal/domain"
	"github.com/phrazzld/coursegen/internal/platform/logger"
	"github.com/phrazzld/coursegen/internal/service"
)

// GenerationHandler serves content generation and scheduler statistics.
type GenerationHandler struct {
	svc service.GenerationService
}

// NewGenerationHandler creates a new GenerationHandler.
func NewGenerationHandler(svc service.GenerationService) *GenerationHandler {
	return &GenerationHandler{svc: svc}
}

// GenerateMetadata handles POST /api/generations/metadata.
func (h *GenerationHandler) GenerateMetadata(w http.ResponseWriter, r *http.Request) {
	var req MetadataGenerationRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	h.generate(w, r, req.Priority, domain.MetadataRequest{
		Prompt:      req.Prompt,
		Audience:    req.Audience,
		ModuleCount: req.ModuleCount,
	})
}

// GenerateModule handles POST /api/generations/module.
func (h *GenerationHandler) GenerateModule(w http.ResponseWriter, r *http.Request) {
	var req ModuleGenerationRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	h.generate(w, r, req.Priority, domain.ModuleRequest{
		CourseTitle:       req.CourseTitle,
		ModuleTitle:       req.ModuleTitle,
		ModuleDescription: req.ModuleDescription,
		ModuleIndex:       req.ModuleIndex,
	})
}

func (h *GenerationHandler) generate(w http.ResponseWriter, r *http.Request, rawPriority string, payload domain.Payload) {
	submitterID, ok := shared.SubmitterID(r.Context())
	if !ok {
		HandleAPIError(w, r, service.ErrMissingSubmitter, "")
		return
	}
	priority, err := domain.ParsePriority(rawPriority)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	res, err := h.svc.Generate(r.Context(), service.GenerationRequest{
		SubmitterID: submitterID,
		Payload:     payload,
		Priority:    priority,
	})
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	if res.Degraded() {
		logger.FromContext(r.Context()).Info("served degraded content",
			"task_id", res.TaskID,
			"source", res.Source,
			"attempts", res.Attempts)
	}

	shared.RespondWithJSON(w, r, http.StatusOK, GenerationResponse{
		TaskID:     res.TaskID,
		Kind:       res.Kind,
		Source:     string(res.Source),
		Degraded:   res.Degraded(),
		Attempts:   res.Attempts,
		DurationMS: res.Duration.Milliseconds(),
		Result:     res.Result,
	})
}

// GetStats handles GET /api/stats.
func (h *GenerationHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	stats := h.svc.Stats()
	shared.RespondWithJSON(w, r, http.StatusOK, StatsResponse{
		Admission: AdmissionStats{
			ActiveRequests:     stats.Admission.ActiveRequests,
			QueuedRequests:     stats.Admission.QueuedRequests,
			TotalCapacity:      stats.Admission.TotalCapacity,
			UtilizationPercent: stats.Admission.UtilizationPercent,
			AverageWaitTimeMS:  stats.Admission.AverageWaitTime.Milliseconds(),
		},
		Scheduler: SchedulerStats{
			Pending:       stats.Scheduler.Pending,
			Processing:    stats.Scheduler.Processing,
			Failed:        stats.Scheduler.Failed,
			AvgWaitTimeMS: stats.Scheduler.AvgWaitTime.Milliseconds(),
			Completed:     stats.Scheduler.Completed,
			Fallbacks:     stats.Scheduler.Fallbacks,
			Emergencies:   stats.Scheduler.Emergencies,
		},
	})
}

// decodeAndValidate decodes the JSON body into v and validates it, writing a
// 400 response and returning false on failure.
func decodeAndValidate(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := shared.DecodeJSON(r, v); err != nil {
		shared.RespondWithErrorAndLog(w, r, http.StatusBadRequest, "Invalid request format", err)
		return false
	}
	if err := shared.ValidateRequest(v); err != nil {
		handleValidationError(w, r, err)
		return false
	}
	return true
}
