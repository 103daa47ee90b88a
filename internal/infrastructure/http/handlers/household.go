package handlers

import (
	"context"
	"net/http"

	"go.uber.org/zap"

	domainhousehold "github.com/dietcompass/planner/internal/domain/household"
	"github.com/dietcompass/planner/internal/infrastructure/persistence/collections"
	"github.com/dietcompass/planner/internal/ports/inbound"
)

// Seeder loads the bundled reference data
type Seeder interface {
	Seed(ctx context.Context, householdID string) (*collections.SeedReport, error)
}

// HouseholdHandlers handles eaters, schedule, profiles and seeding
type HouseholdHandlers struct {
	households inbound.HouseholdService
	seeder     Seeder
	logger     *zap.Logger
}

// NewHouseholdHandlers creates the household handlers. seeder may be nil,
// which disables POST /seed.
func NewHouseholdHandlers(households inbound.HouseholdService, seeder Seeder, logger *zap.Logger) *HouseholdHandlers {
	return &HouseholdHandlers{households: households, seeder: seeder, logger: logger.Named("household-api")}
}

// Groups handles GET /household/groups
func (h *HouseholdHandlers) Groups(w http.ResponseWriter, r *http.Request) {
	view, err := h.households.Groups(r.Context(), household(r))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeData(w, h.logger, http.StatusOK, view)
}

// Eaters handles GET /household/eaters
func (h *HouseholdHandlers) Eaters(w http.ResponseWriter, r *http.Request) {
	eaters, err := h.households.Eaters(r.Context(), household(r))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	if eaters == nil {
		eaters = domainhousehold.Eaters{}
	}
	writeData(w, h.logger, http.StatusOK, eaters)
}

// SaveEaters handles PUT /household/eaters
func (h *HouseholdHandlers) SaveEaters(w http.ResponseWriter, r *http.Request) {
	var eaters domainhousehold.Eaters
	if err := decodeJSON(r, &eaters); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	if err := h.households.SaveEaters(r.Context(), household(r), eaters); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeData(w, h.logger, http.StatusOK, eaters)
}

// Schedule handles GET /household/schedule
func (h *HouseholdHandlers) Schedule(w http.ResponseWriter, r *http.Request) {
	schedule, err := h.households.Schedule(r.Context(), household(r))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	if schedule == nil {
		schedule = domainhousehold.Schedule{}
	}
	writeData(w, h.logger, http.StatusOK, schedule)
}

// SaveSchedule handles PUT /household/schedule
func (h *HouseholdHandlers) SaveSchedule(w http.ResponseWriter, r *http.Request) {
	var schedule domainhousehold.Schedule
	if err := decodeJSON(r, &schedule); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	if err := h.households.SaveSchedule(r.Context(), household(r), schedule); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, h.logger, http.StatusOK, APIResponse{Success: true, Message: "Schedule saved"})
}

// Profiles handles GET /profiles
func (h *HouseholdHandlers) Profiles(w http.ResponseWriter, r *http.Request) {
	profiles, err := h.households.Profiles(r.Context())
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeData(w, h.logger, http.StatusOK, profiles)
}

// Seed handles POST /seed. Stored collections are left untouched.
func (h *HouseholdHandlers) Seed(w http.ResponseWriter, r *http.Request) {
	if h.seeder == nil {
		http.NotFound(w, r)
		return
	}
	report, err := h.seeder.Seed(r.Context(), household(r))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeData(w, h.logger, http.StatusOK, report)
}
