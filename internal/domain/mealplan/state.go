package mealplan

import (
	"github.com/dietcompass/planner/internal/domain/recipe"
)

// State is everything a household's active plan consists of. It is loaded
// and published as one unit.
type State struct {
	Recipes []recipe.Recipe `json:"recipes"`
	Meals   []Meal          `json:"meals"`
	// Plan is nil before the first plan is published
	Plan    *MealPlan `json:"plan"`
	History History   `json:"history"`
}

// Version returns the version of the active plan, zero when there is none
func (s State) Version() int64 {
	if s.Plan == nil {
		return 0
	}
	return s.Plan.Version
}

// RecipeByID finds a recipe of the state by id
func (s State) RecipeByID(id string) (recipe.Recipe, bool) {
	for _, r := range s.Recipes {
		if r.ID == id {
			return r, true
		}
	}
	return recipe.Recipe{}, false
}

// Clone returns a deep copy of the state
func (s State) Clone() State {
	out := State{
		Recipes: make([]recipe.Recipe, len(s.Recipes)),
		Meals:   make([]Meal, len(s.Meals)),
		History: make(History, len(s.History)),
	}
	for i, r := range s.Recipes {
		out.Recipes[i] = r.Clone()
	}
	for i, m := range s.Meals {
		out.Meals[i] = m.Clone()
	}
	copy(out.History, s.History)
	if s.Plan != nil {
		plan := s.Plan.Clone()
		out.Plan = &plan
	}
	return out
}

// MergeMode selects how new generator output is merged into the state
type MergeMode string

const (
	// ModeFullWeek replaces the active plan
	ModeFullWeek MergeMode = "week"
	// ModeSingleDay replaces the meals of one date only
	ModeSingleDay MergeMode = "day"
)

// IsValid checks if the mode is known
func (m MergeMode) IsValid() bool {
	return m == ModeFullWeek || m == ModeSingleDay
}
