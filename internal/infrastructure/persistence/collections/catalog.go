package collections

import (
	"context"

	"github.com/dietcompass/planner/internal/domain/recipe"
)

// Catalog returns the curated recipe catalog
func (r *Repository) Catalog(ctx context.Context) ([]recipe.Recipe, error) {
	recipes := []recipe.Recipe{}
	if _, err := r.load(ctx, r.Key(RecipeCatalog), &recipes); err != nil {
		return nil, err
	}
	return recipes, nil
}

// SaveCatalog replaces the recipe catalog
func (r *Repository) SaveCatalog(ctx context.Context, recipes []recipe.Recipe) error {
	return r.save(ctx, r.Key(RecipeCatalog), nonNilRecipes(recipes))
}

// Index returns the catalog index
func (r *Repository) Index(ctx context.Context) ([]recipe.IndexEntry, error) {
	entries := []recipe.IndexEntry{}
	if _, err := r.load(ctx, r.Key(RecipeIndex), &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

// SaveIndex replaces the catalog index
func (r *Repository) SaveIndex(ctx context.Context, entries []recipe.IndexEntry) error {
	if entries == nil {
		entries = []recipe.IndexEntry{}
	}
	return r.save(ctx, r.Key(RecipeIndex), entries)
}

// HealthTable returns the ingredient health table
func (r *Repository) HealthTable(ctx context.Context) ([]recipe.HealthEntry, error) {
	entries := []recipe.HealthEntry{}
	if _, err := r.load(ctx, r.Key(IngredientHealthTable), &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

// SaveHealthTable replaces the ingredient health table
func (r *Repository) SaveHealthTable(ctx context.Context, entries []recipe.HealthEntry) error {
	if entries == nil {
		entries = []recipe.HealthEntry{}
	}
	return r.save(ctx, r.Key(IngredientHealthTable), entries)
}
