package handlers

import (
	stderrors "errors"
	"io"
	"net/http"

	"go.uber.org/zap"

	"github.com/dietcompass/planner/internal/domain/generation"
	"github.com/dietcompass/planner/internal/domain/mealplan"
	"github.com/dietcompass/planner/internal/ports/inbound"
	"github.com/dietcompass/planner/pkg/errors"
)

// PlanningHandlers handles the meal plan endpoints
type PlanningHandlers struct {
	planning inbound.PlanningService
	logger   *zap.Logger
}

// NewPlanningHandlers creates the meal plan handlers
func NewPlanningHandlers(planning inbound.PlanningService, logger *zap.Logger) *PlanningHandlers {
	return &PlanningHandlers{planning: planning, logger: logger.Named("planning-api")}
}

// generateRequest is the body of the generation endpoints
type generateRequest struct {
	ChatHistory       []generation.ChatMessage `json:"chatHistory"`
	BaseSpecification string                   `json:"baseSpecification"`
	RegenerateDate    string                   `json:"regenerateDate,omitempty"`
}

func (g generateRequest) command(householdID string) inbound.BuildRequestCommand {
	return inbound.BuildRequestCommand{
		HouseholdID:       householdID,
		ChatHistory:       g.ChatHistory,
		BaseSpecification: g.BaseSpecification,
		RegenerateDate:    g.RegenerateDate,
	}
}

// mergeMode reads the mode and date query parameters. A date without a
// mode selects single-day mode.
func mergeMode(r *http.Request) (mealplan.MergeMode, string) {
	mode := mealplan.MergeMode(r.URL.Query().Get("mode"))
	date := r.URL.Query().Get("date")
	if mode == "" && date != "" {
		mode = mealplan.ModeSingleDay
	}
	return mode, date
}

// Reconcile handles POST /plans/reconcile with a raw generator plan body
func (h *PlanningHandlers) Reconcile(w http.ResponseWriter, r *http.Request) {
	raw, err := io.ReadAll(r.Body)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if stderrors.As(err, &tooLarge) {
			writeJSON(w, h.logger, http.StatusRequestEntityTooLarge, errors.ToErrorResponse(
				errors.NewBadRequestError("request body too large"), ""))
			return
		}
		writeError(w, r, h.logger, errors.NewBadRequestError("failed to read request body"))
		return
	}

	mode, date := mergeMode(r)
	outcome, err := h.planning.Reconcile(r.Context(), inbound.ReconcileCommand{
		HouseholdID: household(r),
		RawPlan:     raw,
		Mode:        mode,
		Date:        date,
	})
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeData(w, h.logger, http.StatusOK, outcome)
}

// Stream handles POST /plans/stream with a generator frame stream body.
// Clients accepting text/event-stream receive progress events.
func (h *PlanningHandlers) Stream(w http.ResponseWriter, r *http.Request) {
	mode, date := mergeMode(r)
	cmd := inbound.StreamCommand{HouseholdID: household(r), Mode: mode, Date: date}

	h.respond(w, r, func(onProgress inbound.ProgressFunc) (*inbound.ReconcileOutcome, error) {
		return h.planning.ConsumeStream(r.Context(), cmd, r.Body, onProgress)
	})
}

// Generate handles POST /plans/generate
func (h *PlanningHandlers) Generate(w http.ResponseWriter, r *http.Request) {
	var body generateRequest
	if err := decodeJSON(r, &body); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	cmd := inbound.GenerateCommand{BuildRequestCommand: body.command(household(r))}

	h.respond(w, r, func(onProgress inbound.ProgressFunc) (*inbound.ReconcileOutcome, error) {
		return h.planning.Generate(r.Context(), cmd, onProgress)
	})
}

// BuildRequest handles POST /plans/request and returns the payload that
// would be sent to the generator
func (h *PlanningHandlers) BuildRequest(w http.ResponseWriter, r *http.Request) {
	var body generateRequest
	if err := decodeJSON(r, &body); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	req, err := h.planning.BuildRequest(r.Context(), body.command(household(r)))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeData(w, h.logger, http.StatusOK, req)
}

// CurrentPlan handles GET /plans/current
func (h *PlanningHandlers) CurrentPlan(w http.ResponseWriter, r *http.Request) {
	view, err := h.planning.CurrentPlan(r.Context(), household(r))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeData(w, h.logger, http.StatusOK, view)
}

// History handles GET /plans/history
func (h *PlanningHandlers) History(w http.ResponseWriter, r *http.Request) {
	history, err := h.planning.History(r.Context(), household(r))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeData(w, h.logger, http.StatusOK, history)
}

// respond runs a streaming use case and answers either with one JSON
// document or with progress, complete and error events
func (h *PlanningHandlers) respond(w http.ResponseWriter, r *http.Request, run func(inbound.ProgressFunc) (*inbound.ReconcileOutcome, error)) {
	if !wantsEventStream(r) {
		outcome, err := run(nil)
		if err != nil {
			writeError(w, r, h.logger, err)
			return
		}
		writeData(w, h.logger, http.StatusOK, outcome)
		return
	}

	events, ok := newEventStream(w, h.logger)
	if !ok {
		writeError(w, r, h.logger, errors.NewBadRequestError("streaming is not supported by this connection"))
		return
	}
	outcome, err := run(func(progress int, message string) {
		events.send("progress", progressEvent{Progress: progress, Message: message})
	})
	if err != nil {
		events.fail(r, err)
		return
	}
	events.send("complete", outcome)
}
