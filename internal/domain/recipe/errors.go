package recipe

import "errors"

// Domain errors for recipe operations

var (
	ErrInvalidRating    = errors.New("rating must be between 0 and 5")
	ErrSelfVariation    = errors.New("a recipe cannot be a variation of itself")
	ErrVariationCycle   = errors.New("variation link would create a cycle")
	ErrAlreadyVariation = errors.New("recipe is already a variation of another recipe")
	ErrRecipeNotFound   = errors.New("recipe not found")
)
