package collections

import (
	"context"

	"github.com/dietcompass/planner/internal/domain/household"
)

// Eaters returns the household's eaters
func (r *Repository) Eaters(ctx context.Context, householdID string) (household.Eaters, error) {
	eaters := household.Eaters{}
	if _, err := r.load(ctx, r.HouseholdKey(householdID, Eaters), &eaters); err != nil {
		return nil, err
	}
	return eaters, nil
}

// SaveEaters replaces the household's eaters
func (r *Repository) SaveEaters(ctx context.Context, householdID string, eaters household.Eaters) error {
	if eaters == nil {
		eaters = household.Eaters{}
	}
	return r.save(ctx, r.HouseholdKey(householdID, Eaters), eaters)
}

// Schedule returns the household's meal schedule
func (r *Repository) Schedule(ctx context.Context, householdID string) (household.Schedule, error) {
	schedule := household.Schedule{}
	if _, err := r.load(ctx, r.HouseholdKey(householdID, MealSchedule), &schedule); err != nil {
		return nil, err
	}
	return schedule, nil
}

// SaveSchedule replaces the household's meal schedule
func (r *Repository) SaveSchedule(ctx context.Context, householdID string, schedule household.Schedule) error {
	if schedule == nil {
		schedule = household.Schedule{}
	}
	return r.save(ctx, r.HouseholdKey(householdID, MealSchedule), schedule)
}

// Profiles returns the shared diet profile table
func (r *Repository) Profiles(ctx context.Context) (household.ProfileTable, error) {
	var profiles []household.DietProfile
	if _, err := r.load(ctx, r.Key(DietProfiles), &profiles); err != nil {
		return nil, err
	}
	return household.NewProfileTable(profiles), nil
}

// SaveProfiles replaces the diet profile table
func (r *Repository) SaveProfiles(ctx context.Context, profiles []household.DietProfile) error {
	if profiles == nil {
		profiles = []household.DietProfile{}
	}
	return r.save(ctx, r.Key(DietProfiles), profiles)
}
