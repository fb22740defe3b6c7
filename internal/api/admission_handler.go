package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/phrazzld/coursegen/internal/admission"
	"github.com/phrazzld/coursegen/internal/api/shared"
	"github.com/phrazzld/coursegen/internal/domain"
	"github.com/phrazzld/coursegen/internal/service"
)

// AdmissionRegistry is the part of the admission controller exposed over HTTP
// for clients that run their own generation and only need the gate.
type AdmissionRegistry interface {
	RegisterRequest(submitterID string, kind domain.Kind, priority domain.Priority) (admission.Ticket, error)
	Status(id string) (admission.Ticket, error)
	CompleteRequest(id string)
	FailRequest(id string, cause error) admission.FailOutcome
	Withdraw(id string) bool
}

// errClientFailure is the cause recorded when a client reports a failure
// without a reason.
var errClientFailure = errors.New("client reported failure")

// AdmissionHandler serves the admission endpoints.
type AdmissionHandler struct {
	registry AdmissionRegistry
}

// NewAdmissionHandler creates a new AdmissionHandler.
func NewAdmissionHandler(registry AdmissionRegistry) *AdmissionHandler {
	return &AdmissionHandler{registry: registry}
}

// RegisterRequest handles POST /api/admission/requests. It answers 201 when
// the request may proceed immediately and 202 when it was queued.
func (h *AdmissionHandler) RegisterRequest(w http.ResponseWriter, r *http.Request) {
	submitterID, ok := shared.SubmitterID(r.Context())
	if !ok {
		HandleAPIError(w, r, service.ErrMissingSubmitter, "")
		return
	}

	var req AdmissionRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	kind, err := domain.ParseKind(req.Kind)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}
	priority, err := domain.ParsePriority(req.Priority)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	ticket, err := h.registry.RegisterRequest(submitterID, kind, priority)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	status := http.StatusAccepted
	if ticket.CanProceed {
		status = http.StatusCreated
	}
	shared.RespondWithJSON(w, r, status, newTicketResponse(ticket))
}

// GetRequest handles GET /api/admission/requests/{id}. A queued client polls
// it to learn when it has been admitted.
func (h *AdmissionHandler) GetRequest(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Request id is required")
		return
	}

	ticket, err := h.registry.Status(id)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, newTicketResponse(ticket))
}

// CancelRequest handles DELETE /api/admission/requests/{id}. A queued request
// is withdrawn; one that was admitted in the meantime gives its slot back.
func (h *AdmissionHandler) CancelRequest(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Request id is required")
		return
	}

	if _, err := h.registry.Status(id); err != nil {
		HandleAPIError(w, r, err, "")
		return
	}
	if !h.registry.Withdraw(id) {
		h.registry.CompleteRequest(id)
	}
	w.WriteHeader(http.StatusNoContent)
}

func newTicketResponse(ticket admission.Ticket) TicketResponse {
	return TicketResponse{
		RequestID:  ticket.RequestID,
		CanProceed: ticket.CanProceed,
		Position:   ticket.Position,
		WaitTimeMS: ticket.WaitTime.Milliseconds(),
	}
}

// CompleteRequest handles POST /api/admission/requests/{id}/complete.
func (h *AdmissionHandler) CompleteRequest(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Request id is required")
		return
	}
	h.registry.CompleteRequest(id)
	w.WriteHeader(http.StatusNoContent)
}

// FailRequest handles POST /api/admission/requests/{id}/fail.
func (h *AdmissionHandler) FailRequest(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Request id is required")
		return
	}

	var body FailRequestBody
	if r.ContentLength != 0 && !decodeAndValidate(w, r, &body) {
		return
	}
	cause := errClientFailure
	if body.Reason != "" {
		cause = fmt.Errorf("%w: %s", errClientFailure, body.Reason)
	}

	outcome := h.registry.FailRequest(id, cause)
	if outcome == admission.FailUnknown {
		HandleAPIError(w, r, fmt.Errorf("%w: %s", admission.ErrUnknownRequest, id), "")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, FailResponse{RequestID: id, Outcome: outcome.String()})
}
