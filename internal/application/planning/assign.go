// Package planning turns resolved generator output into meals, merges them
// into the household's active plan and publishes the result.
package planning

import (
	"math"
	"slices"

	"go.uber.org/zap"

	"github.com/dietcompass/planner/internal/domain/generation"
	"github.com/dietcompass/planner/internal/domain/household"
	"github.com/dietcompass/planner/internal/domain/mealplan"
	"github.com/dietcompass/planner/internal/domain/recipe"
	"github.com/dietcompass/planner/internal/domain/shared"
	"github.com/dietcompass/planner/pkg/errors"
)

// Household is the household data meal assignment reads
type Household struct {
	Eaters   household.Eaters
	Schedule household.Schedule
	Profiles household.ProfileTable
}

// Assigner decides who eats each generated slot and how many servings to cook
type Assigner struct {
	logger *zap.Logger
}

// NewAssigner creates an assigner
func NewAssigner(logger *zap.Logger) *Assigner {
	return &Assigner{logger: logger.Named("meal-assigner")}
}

// Assign builds one meal per slot. recipeIDs is aligned with slots and
// recipes holds every referenced record.
//
// Eaters come from the slot's explicit targets when any resolve, otherwise
// from the weekday schedule, otherwise every household member is assumed.
func (a *Assigner) Assign(slots []generation.Slot, recipeIDs []string, hh Household, recipes map[string]recipe.Recipe) ([]mealplan.Meal, shared.Warnings) {
	var (
		meals    []mealplan.Meal
		warnings shared.Warnings
	)

	for i, slot := range slots {
		if i >= len(recipeIDs) || recipeIDs[i] == "" {
			continue
		}
		rec := recipes[recipeIDs[i]]
		meal := mealplan.Meal{
			ID:       mealplan.MealID(slot.Date, slot.MealType, slot.Index, recipeIDs[i]),
			RecipeID: recipeIDs[i],
			MealType: slot.MealType,
			Date:     slot.Date,
			Slot:     slot.Index,
		}

		assigned := false
		if len(slot.TargetEaters) > 0 {
			var ws shared.Warnings
			assigned, ws = a.assignTargets(&meal, slot, hh)
			warnings = append(warnings, ws...)
		}
		if !assigned {
			assigned = a.assignSchedule(&meal, slot, hh)
		}
		if !assigned {
			warnings = append(warnings, a.assignEveryone(&meal, slot, rec, hh))
		}

		warnings = append(warnings, exclusionWarnings(meal, rec, hh.Eaters)...)
		meals = append(meals, meal)
	}

	mealplan.SortMeals(meals)
	return meals, warnings
}

func (a *Assigner) assignTargets(meal *mealplan.Meal, slot generation.Slot, hh Household) (bool, shared.Warnings) {
	var (
		resolved household.Eaters
		warnings shared.Warnings
	)
	for _, ref := range slot.TargetEaters {
		e, ok := hh.Eaters.Resolve(ref)
		if !ok {
			warnings = append(warnings, shared.NewWarning(errors.NewUnknownEaterError(ref), slot.Date+" "+string(slot.MealType)))
			continue
		}
		if !slices.ContainsFunc(resolved, func(x household.Eater) bool { return x.ID == e.ID }) {
			resolved = append(resolved, e)
		}
	}
	if len(resolved) == 0 {
		a.logger.Warn("No target eater resolved, falling back to schedule",
			zap.String("date", slot.Date),
			zap.String("meal_type", string(slot.MealType)),
			zap.Strings("targets", slot.TargetEaters),
		)
		return false, warnings
	}

	meal.EaterIDs = resolved.IDs()
	meal.Servings = portionServings(resolved)
	meal.TargetEaters = slices.Clone(slot.TargetEaters)
	meal.DietProfileTags = profileTags(slot.DietProfiles, resolved)
	return true, warnings
}

func (a *Assigner) assignSchedule(meal *mealplan.Meal, slot generation.Slot, hh Household) bool {
	entry, ok := hh.Schedule.Lookup(slot.Date, string(slot.MealType))
	if !ok {
		return false
	}
	var eaters household.Eaters
	for _, id := range entry.EaterIDs {
		if e, known := hh.Eaters.ByID(id); known {
			eaters = append(eaters, e)
		}
	}
	if len(eaters) == 0 {
		return false
	}

	meal.EaterIDs = eaters.IDs()
	meal.Servings = entry.Servings
	if meal.Servings <= 0 {
		meal.Servings = portionServings(eaters)
	}
	return true
}

func (a *Assigner) assignEveryone(meal *mealplan.Meal, slot generation.Slot, rec recipe.Recipe, hh Household) shared.Warning {
	weekday, _ := household.Weekday(slot.Date)
	appErr := errors.NewScheduleMissError(weekday, string(slot.MealType))
	a.logger.Warn("No schedule entry for slot, assigning every eater",
		zap.String("date", slot.Date),
		zap.String("meal_type", string(slot.MealType)),
		zap.String("code", string(appErr.Code)),
	)

	payloadServings := slot.Servings
	if payloadServings <= 0 {
		payloadServings = rec.Servings
	}
	meal.EaterIDs = hh.Eaters.IDs()
	meal.Servings = max(len(hh.Eaters), payloadServings, 1)
	return shared.NewWarning(appErr, slot.Date+" "+string(slot.MealType))
}

// portionServings is the rounded-up sum of the eaters' portion multipliers,
// at least one
func portionServings(eaters household.Eaters) int {
	total := 0.0
	for _, e := range eaters {
		total += e.Portion()
	}
	return max(int(math.Ceil(total)), 1)
}

func profileTags(declared []string, eaters household.Eaters) []string {
	var tags []string
	add := func(tag string) {
		if tag != "" && !slices.Contains(tags, tag) {
			tags = append(tags, tag)
		}
	}
	for _, t := range declared {
		add(t)
	}
	if len(tags) == 0 {
		for _, e := range eaters {
			add(e.DietProfileID)
		}
	}
	return tags
}

func exclusionWarnings(meal mealplan.Meal, rec recipe.Recipe, eaters household.Eaters) shared.Warnings {
	var warnings shared.Warnings
	for _, id := range meal.EaterIDs {
		e, ok := eaters.ByID(id)
		if !ok {
			continue
		}
		for _, ing := range rec.Ingredients {
			if e.Excludes(ing.Name) {
				warnings = append(warnings, shared.NewWarning(
					errors.NewExclusionViolationError(e.ID, rec.Name, ing.Name), meal.Date+" "+string(meal.MealType)))
			}
		}
	}
	return warnings
}
