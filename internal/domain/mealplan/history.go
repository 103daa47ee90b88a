package mealplan

import (
	"time"

	"github.com/dietcompass/planner/internal/domain/recipe"
)

// ArchivedPlan is an immutable snapshot of a replaced plan
type ArchivedPlan struct {
	Plan       MealPlan        `json:"plan"`
	Meals      []Meal          `json:"meals"`
	Recipes    []recipe.Recipe `json:"recipes"`
	ArchivedAt time.Time       `json:"archivedAt"`
}

// History is the archive of replaced plans, most recent last
type History []ArchivedPlan

// Push appends a snapshot and trims the oldest entries beyond limit.
// A limit of zero or less keeps everything.
func (h History) Push(entry ArchivedPlan, limit int) History {
	out := append(h, entry)
	if limit > 0 && len(out) > limit {
		out = out[len(out)-limit:]
	}
	return out
}
