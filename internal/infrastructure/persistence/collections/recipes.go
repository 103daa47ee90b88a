package collections

import (
	"context"

	"github.com/dietcompass/planner/internal/domain/mealplan"
	"github.com/dietcompass/planner/internal/domain/recipe"
	"github.com/dietcompass/planner/internal/ports/outbound"
)

// Recipes returns the stored recipes of a household
func (r *Repository) Recipes(ctx context.Context, householdID string) ([]recipe.Recipe, error) {
	recipes := []recipe.Recipe{}
	if _, err := r.load(ctx, r.HouseholdKey(householdID, Recipes), &recipes); err != nil {
		return nil, err
	}
	return recipes, nil
}

// UpdateRecipes applies fn to the stored recipes and writes the result in
// the same update. The active plan version moves with it, so a plan state
// loaded before the change fails to publish over it.
func (r *Repository) UpdateRecipes(ctx context.Context, householdID string, fn func([]recipe.Recipe) ([]recipe.Recipe, error)) error {
	planKey := r.HouseholdKey(householdID, CurrentMealPlan)
	key := r.HouseholdKey(householdID, Recipes)
	return r.store.Update(ctx, []string{planKey, key}, func(tx outbound.KVTx) error {
		recipes := []recipe.Recipe{}
		if _, err := get(tx, key, &recipes); err != nil {
			return err
		}
		updated, err := fn(recipes)
		if err != nil {
			return err
		}
		if err := put(tx, key, nonNilRecipes(updated)); err != nil {
			return err
		}

		var plan mealplan.MealPlan
		found, err := get(tx, planKey, &plan)
		if err != nil || !found {
			return err
		}
		plan.Version++
		return put(tx, planKey, plan)
	})
}
