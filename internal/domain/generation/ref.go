// Package generation decodes the output of the upstream meal generator into
// typed slots and defines the request sent to it.
package generation

import (
	"github.com/dietcompass/planner/internal/domain/mealplan"
	"github.com/dietcompass/planner/internal/domain/recipe"
)

// UntitledRecipe is the name given to a payload without a usable name
const UntitledRecipe = "Untitled Recipe"

// RecipeRef is what a generated slot points at: either a catalog reference
// or an inline recipe. The set of implementations is closed.
type RecipeRef interface {
	RefName() string
	isRecipeRef()
}

// CatalogRef references a catalog recipe by name. Partial holds whatever
// inline fields came along and is used only when the catalog has no match.
type CatalogRef struct {
	Name    string
	Partial recipe.Recipe
}

// RefName returns the referenced name
func (c CatalogRef) RefName() string { return c.Name }

func (CatalogRef) isRecipeRef() {}

// InlineRecipe carries a full generated recipe. MatchCatalog is set for
// payloads that did not say where they came from; those are matched
// against the catalog opportunistically before being minted.
type InlineRecipe struct {
	Recipe       recipe.Recipe
	MatchCatalog bool
}

// RefName returns the recipe name
func (i InlineRecipe) RefName() string { return i.Recipe.Name }

func (InlineRecipe) isRecipeRef() {}

// Slot is one recipe reference scheduled for a date and meal type
type Slot struct {
	Date     string
	MealType mealplan.MealType
	// Index orders several references within one slot, from zero
	Index        int
	Ref          RecipeRef
	TargetEaters []string
	DietProfiles []string
	// Servings is the payload's own servings count, zero when absent
	Servings int
}

// Plan is a decoded generator output
type Plan struct {
	WeekOf string
	// Budget is nil when the payload carried none
	Budget *mealplan.Budget
	Dates  []string
	Slots  []Slot
}

// SlotsOn returns the slots scheduled on date
func (p *Plan) SlotsOn(date string) []Slot {
	var out []Slot
	for _, s := range p.Slots {
		if s.Date == date {
			out = append(out, s)
		}
	}
	return out
}

// Refs returns the recipe reference of every slot, aligned with Slots
func (p *Plan) Refs() []RecipeRef {
	refs := make([]RecipeRef, 0, len(p.Slots))
	for _, s := range p.Slots {
		refs = append(refs, s.Ref)
	}
	return refs
}
