package inbound

import (
	"context"

	"github.com/dietcompass/planner/internal/domain/recipe"
)

// RecipeService defines the household's actions on stored recipes and the
// scoring queries
type RecipeService interface {
	SetFavorite(ctx context.Context, cmd FavoriteCommand) (*recipe.Recipe, error)
	Rate(ctx context.Context, cmd RateRecipeCommand) (*recipe.Recipe, error)
	MarkCooked(ctx context.Context, householdID, recipeID string) (*recipe.Recipe, error)
	LinkVariation(ctx context.Context, cmd LinkVariationCommand) (*recipe.Recipe, error)

	// Score returns the stored scores of a recipe, computing them when the
	// record is unrated
	Score(ctx context.Context, householdID, recipeID string) (*ScoreView, error)
	ScoreIngredients(ctx context.Context, ingredients []recipe.Ingredient) (*ScoreView, error)
}

// FavoriteCommand marks or unmarks a favorite
type FavoriteCommand struct {
	HouseholdID string `validate:"required,household_id"`
	RecipeID    string `validate:"required"`
	Favorite    bool
}

// RateRecipeCommand contains data for rating a recipe
type RateRecipeCommand struct {
	HouseholdID string `validate:"required,household_id"`
	RecipeID    string `validate:"required"`
	Rating      int    `validate:"min=0,max=5"`
}

// LinkVariationCommand links ChildID as a variation of ParentID
type LinkVariationCommand struct {
	HouseholdID string `validate:"required,household_id"`
	ParentID    string `validate:"required"`
	ChildID     string `validate:"required,nefield=ParentID"`
}

// ScoreView is a score with its per-ingredient breakdown
type ScoreView struct {
	RecipeID    string              `json:"recipeId,omitempty"`
	Scores      *recipe.Scores      `json:"scores"`
	Ingredients []recipe.Ingredient `json:"ingredients"`
	Missing     []string            `json:"missing,omitempty"`
}
