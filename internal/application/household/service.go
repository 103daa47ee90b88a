package household

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/dietcompass/planner/internal/domain/household"
	"github.com/dietcompass/planner/internal/domain/mealplan"
	"github.com/dietcompass/planner/internal/ports/inbound"
	"github.com/dietcompass/planner/internal/ports/outbound"
	"github.com/dietcompass/planner/pkg/errors"
)

// Service implements the household use cases
type Service struct {
	repo     outbound.HouseholdRepository
	resolver *Resolver
	logger   *zap.Logger
}

// NewService creates a household service
func NewService(repo outbound.HouseholdRepository, resolver *Resolver, logger *zap.Logger) *Service {
	return &Service{
		repo:     repo,
		resolver: resolver,
		logger:   logger.Named("household-service"),
	}
}

// Groups partitions the household's eaters into diet groups
func (s *Service) Groups(ctx context.Context, householdID string) (*inbound.GroupsView, error) {
	eaters, err := s.repo.Eaters(ctx, householdID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to load eaters")
	}
	profiles, err := s.repo.Profiles(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to load diet profiles")
	}

	groups := s.resolver.Partition(eaters, profiles)
	return &inbound.GroupsView{
		Groups:      groups,
		MultiRecipe: NeedsMultipleRecipes(groups),
	}, nil
}

// Eaters returns the household's eaters
func (s *Service) Eaters(ctx context.Context, householdID string) (household.Eaters, error) {
	eaters, err := s.repo.Eaters(ctx, householdID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to load eaters")
	}
	return eaters, nil
}

// SaveEaters replaces the household's eaters
func (s *Service) SaveEaters(ctx context.Context, householdID string, eaters household.Eaters) error {
	seen := make(map[string]bool, len(eaters))
	for i, e := range eaters {
		if strings.TrimSpace(e.ID) == "" {
			return errors.NewValidationError(fmt.Sprintf("eater %d has no id", i))
		}
		if seen[e.ID] {
			return errors.NewValidationError(fmt.Sprintf("duplicate eater id %s", e.ID))
		}
		if e.PortionMultiplier < 0 {
			return errors.NewValidationError(fmt.Sprintf("eater %s has a negative portion multiplier", e.ID))
		}
		seen[e.ID] = true
	}

	if err := s.repo.SaveEaters(ctx, householdID, eaters); err != nil {
		return errors.NewPersistenceError("save eaters", err)
	}
	s.logger.Info("Eaters saved",
		zap.String("household", householdID),
		zap.Int("count", len(eaters)),
	)
	return nil
}

// Schedule returns the household's weekly schedule
func (s *Service) Schedule(ctx context.Context, householdID string) (household.Schedule, error) {
	schedule, err := s.repo.Schedule(ctx, householdID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to load schedule")
	}
	return schedule, nil
}

// SaveSchedule replaces the household's weekly schedule. Weekday and meal
// type keys are stored lower-case.
func (s *Service) SaveSchedule(ctx context.Context, householdID string, schedule household.Schedule) error {
	normalized := make(household.Schedule, len(schedule))
	for day, slots := range schedule {
		day = strings.ToLower(strings.TrimSpace(day))
		if !isWeekday(day) {
			return errors.NewValidationError(fmt.Sprintf("unknown weekday %q", day))
		}
		out := make(map[string]household.SlotSchedule, len(slots))
		for mealType, slot := range slots {
			mt := mealplan.MealType(strings.ToLower(strings.TrimSpace(mealType)))
			if !mt.IsValid() {
				return errors.NewValidationError(fmt.Sprintf("unknown meal type %q", mealType))
			}
			if slot.Servings < 0 {
				return errors.NewValidationError(fmt.Sprintf("negative servings on %s %s", day, mt))
			}
			out[string(mt)] = slot
		}
		normalized[day] = out
	}

	if err := s.repo.SaveSchedule(ctx, householdID, normalized); err != nil {
		return errors.NewPersistenceError("save schedule", err)
	}
	return nil
}

// Profiles returns the diet profiles ordered by id
func (s *Service) Profiles(ctx context.Context) ([]household.DietProfile, error) {
	profiles, err := s.repo.Profiles(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to load diet profiles")
	}
	return profiles.Sorted(), nil
}

var weekdays = []string{"monday", "tuesday", "wednesday", "thursday", "friday", "saturday", "sunday"}

func isWeekday(day string) bool {
	for _, d := range weekdays {
		if d == day {
			return true
		}
	}
	return false
}
