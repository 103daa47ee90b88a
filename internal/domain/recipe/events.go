package recipe

import "time"

// RecipeFavoritedEvent is raised when a recipe is marked or unmarked as a favorite
type RecipeFavoritedEvent struct {
	RecipeID  string
	Favorite  bool
	ChangedAt time.Time
}

func (e RecipeFavoritedEvent) EventName() string {
	return "recipe.favorited"
}

func (e RecipeFavoritedEvent) OccurredAt() time.Time {
	return e.ChangedAt
}

// RecipeRatedEvent is raised when the household rates a recipe
type RecipeRatedEvent struct {
	RecipeID string
	Rating   int
	RatedAt  time.Time
}

func (e RecipeRatedEvent) EventName() string {
	return "recipe.rated"
}

func (e RecipeRatedEvent) OccurredAt() time.Time {
	return e.RatedAt
}

// RecipeCookedEvent is raised when a recipe is marked as cooked
type RecipeCookedEvent struct {
	RecipeID    string
	TimesCooked int
	CookedAt    time.Time
}

func (e RecipeCookedEvent) EventName() string {
	return "recipe.cooked"
}

func (e RecipeCookedEvent) OccurredAt() time.Time {
	return e.CookedAt
}

// VariationLinkedEvent is raised when a recipe is linked as a variation of another
type VariationLinkedEvent struct {
	ParentID string
	ChildID  string
	LinkedAt time.Time
}

func (e VariationLinkedEvent) EventName() string {
	return "recipe.variation.linked"
}

func (e VariationLinkedEvent) OccurredAt() time.Time {
	return e.LinkedAt
}
