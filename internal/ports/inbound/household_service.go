package inbound

import (
	"context"

	"github.com/dietcompass/planner/internal/domain/household"
)

// HouseholdService defines the household data use cases
type HouseholdService interface {
	Groups(ctx context.Context, householdID string) (*GroupsView, error)
	Eaters(ctx context.Context, householdID string) (household.Eaters, error)
	SaveEaters(ctx context.Context, householdID string, eaters household.Eaters) error
	Schedule(ctx context.Context, householdID string) (household.Schedule, error)
	SaveSchedule(ctx context.Context, householdID string, schedule household.Schedule) error
	Profiles(ctx context.Context) ([]household.DietProfile, error)
}

// GroupsView is the diet-group partition of a household
type GroupsView struct {
	Groups      []household.DietGroup `json:"groups"`
	MultiRecipe bool                  `json:"multiRecipe"`
}
