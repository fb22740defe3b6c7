package api

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/phrazzld/coursegen/internal/api/shared"
	"github.com/phrazzld/coursegen/internal/domain"
	"github.com/phrazzld/coursegen/internal/store"
)

// OutcomeJournal reads the recorded generation outcomes.
type OutcomeJournal interface {
	Summary(ctx context.Context) (store.OutcomeSummary, error)
	Recent(ctx context.Context, filter store.OutcomeFilter) ([]*store.OutcomeRecord, error)
	Get(ctx context.Context, id uuid.UUID) (*store.OutcomeRecord, error)
}

// OutcomeHandler serves the outcome journal.
type OutcomeHandler struct {
	journal OutcomeJournal
}

// NewOutcomeHandler creates a new OutcomeHandler.
func NewOutcomeHandler(journal OutcomeJournal) *OutcomeHandler {
	return &OutcomeHandler{journal: journal}
}

// ListOutcomes handles GET /api/outcomes?kind=&submitter=&degraded=&limit=.
func (h *OutcomeHandler) ListOutcomes(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	var filter store.OutcomeFilter

	if raw := q.Get("kind"); raw != "" {
		kind, err := domain.ParseKind(raw)
		if err != nil {
			HandleAPIError(w, r, err, "")
			return
		}
		filter.Kind = kind
	}
	filter.SubmitterID = q.Get("submitter")
	if raw := q.Get("degraded"); raw != "" {
		degraded, err := strconv.ParseBool(raw)
		if err != nil {
			shared.RespondWithErrorAndLog(w, r, http.StatusBadRequest, "Invalid degraded flag", err)
			return
		}
		filter.DegradedOnly = degraded
	}
	if raw := q.Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 0 {
			shared.RespondWithErrorAndLog(w, r, http.StatusBadRequest, "Invalid limit", err)
			return
		}
		filter.Limit = limit
	}

	records, err := h.journal.Recent(r.Context(), filter)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to list outcomes")
		return
	}

	out := make([]OutcomeResponse, 0, len(records))
	for _, rec := range records {
		out = append(out, toOutcomeResponse(rec, false))
	}
	shared.RespondWithJSON(w, r, http.StatusOK, out)
}

// GetOutcome handles GET /api/outcomes/{id}. The full result is included.
func (h *OutcomeHandler) GetOutcome(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, http.StatusBadRequest, "Invalid outcome id", err)
		return
	}

	rec, err := h.journal.Get(r.Context(), id)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, toOutcomeResponse(rec, true))
}

// GetSummary handles GET /api/outcomes/summary.
func (h *OutcomeHandler) GetSummary(w http.ResponseWriter, r *http.Request) {
	sum, err := h.journal.Summary(r.Context())
	if err != nil {
		HandleAPIError(w, r, err, "Failed to summarize outcomes")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, OutcomeSummaryResponse{
		Total:        sum.Total,
		Generated:    sum.Generated,
		Fallback:     sum.Fallback,
		Emergency:    sum.Emergency,
		FallbackRate: sum.FallbackRate(),
	})
}

func toOutcomeResponse(rec *store.OutcomeRecord, withResult bool) OutcomeResponse {
	resp := OutcomeResponse{
		ID:          rec.ID.String(),
		TaskID:      rec.TaskID,
		SubmitterID: rec.SubmitterID,
		Kind:        rec.Kind,
		Source:      rec.Source,
		Attempts:    rec.Attempts,
		DurationMS:  rec.Duration.Milliseconds(),
		LastError:   rec.LastError,
		CreatedAt:   rec.CreatedAt.UTC().Format(time.RFC3339),
	}
	if withResult {
		resp.Result = rec.Result
	}
	return resp
}
