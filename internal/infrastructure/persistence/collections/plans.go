package collections

import (
	"context"

	"go.uber.org/zap"

	"github.com/dietcompass/planner/internal/domain/mealplan"
	"github.com/dietcompass/planner/internal/domain/recipe"
	"github.com/dietcompass/planner/internal/ports/outbound"
	"github.com/dietcompass/planner/pkg/errors"
)

func (r *Repository) stateKeys(householdID string) []string {
	return []string{
		r.HouseholdKey(householdID, CurrentMealPlan),
		r.HouseholdKey(householdID, Recipes),
		r.HouseholdKey(householdID, Meals),
		r.HouseholdKey(householdID, MealPlanHistory),
	}
}

// LoadState reads the recipes, meals, plan and history of a household as
// one consistent view
func (r *Repository) LoadState(ctx context.Context, householdID string) (mealplan.State, error) {
	keys := r.stateKeys(householdID)
	var state mealplan.State

	err := r.store.Update(ctx, keys, func(tx outbound.KVTx) error {
		state = mealplan.State{}
		// The plan goes first: any document read after it that is newer
		// implies a newer plan, which fails the version check on publish.
		var plan mealplan.MealPlan
		found, err := get(tx, keys[0], &plan)
		if err != nil {
			return err
		}
		if found {
			state.Plan = &plan
		}
		if _, err := get(tx, keys[1], &state.Recipes); err != nil {
			return err
		}
		if _, err := get(tx, keys[2], &state.Meals); err != nil {
			return err
		}
		_, err = get(tx, keys[3], &state.History)
		return err
	})
	if err != nil {
		return mealplan.State{}, errors.Wrap(err, "failed to load plan state")
	}

	if state.Recipes == nil {
		state.Recipes = []recipe.Recipe{}
	}
	if state.Meals == nil {
		state.Meals = []mealplan.Meal{}
	}
	if state.History == nil {
		state.History = mealplan.History{}
	}
	return state, nil
}

// PublishState writes every state document in one update, after checking
// that the stored plan is still at expectedVersion
func (r *Repository) PublishState(ctx context.Context, householdID string, state mealplan.State, expectedVersion int64) error {
	keys := r.stateKeys(householdID)

	err := r.store.Update(ctx, keys, func(tx outbound.KVTx) error {
		var stored mealplan.MealPlan
		found, err := get(tx, keys[0], &stored)
		if err != nil {
			return err
		}
		actual := int64(0)
		if found {
			actual = stored.Version
		}
		if actual != expectedVersion {
			return errors.NewVersionConflictError("meal plan", expectedVersion, actual)
		}

		if state.Plan != nil {
			if err := put(tx, keys[0], state.Plan); err != nil {
				return err
			}
		} else if err := tx.Delete(keys[0]); err != nil {
			return err
		}
		if err := put(tx, keys[1], nonNilRecipes(state.Recipes)); err != nil {
			return err
		}
		if err := put(tx, keys[2], nonNilMeals(state.Meals)); err != nil {
			return err
		}
		history := state.History
		if history == nil {
			history = mealplan.History{}
		}
		return put(tx, keys[3], history)
	})
	if err != nil {
		return err
	}

	r.logger.Debug("Plan state published",
		zap.String("household", householdID),
		zap.Int64("version", state.Version()),
		zap.Int("recipes", len(state.Recipes)),
		zap.Int("meals", len(state.Meals)),
	)
	return nil
}

func nonNilRecipes(rs []recipe.Recipe) []recipe.Recipe {
	if rs == nil {
		return []recipe.Recipe{}
	}
	return rs
}

func nonNilMeals(ms []mealplan.Meal) []mealplan.Meal {
	if ms == nil {
		return []mealplan.Meal{}
	}
	return ms
}
