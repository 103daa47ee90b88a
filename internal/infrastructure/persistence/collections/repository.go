// Package collections maps the named document collections of the planner
// onto a key-value store. Household collections live under
// "<namespace>:<household>:<Collection>", shared reference data under
// "<namespace>:<Collection>". Absent collections read as empty.
package collections

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/dietcompass/planner/internal/ports/outbound"
)

// Collection names a stored document
type Collection string

// Household collections
const (
	Eaters          Collection = "Eaters"
	Recipes         Collection = "Recipes"
	Meals           Collection = "Meals"
	CurrentMealPlan Collection = "CurrentMealPlan"
	MealPlanHistory Collection = "MealPlanHistory"
	MealSchedule    Collection = "MealSchedule"
)

// Shared collections
const (
	RecipeCatalog         Collection = "RecipeCatalog"
	RecipeIndex           Collection = "RecipeIndex"
	DietProfiles          Collection = "DietProfiles"
	IngredientHealthTable Collection = "IngredientHealthTable"
)

// Repository implements the outbound repositories over one store
type Repository struct {
	store     outbound.KeyValueStore
	namespace string
	logger    *zap.Logger
}

// NewRepository creates a repository in the given key namespace
func NewRepository(store outbound.KeyValueStore, namespace string, logger *zap.Logger) *Repository {
	return &Repository{
		store:     store,
		namespace: namespace,
		logger:    logger.Named("collections"),
	}
}

// Key returns the key of a shared collection
func (r *Repository) Key(c Collection) string {
	return r.namespace + ":" + string(c)
}

// HouseholdKey returns the key of a household collection
func (r *Repository) HouseholdKey(householdID string, c Collection) string {
	return r.namespace + ":" + householdID + ":" + string(c)
}

// Store returns the underlying store
func (r *Repository) Store() outbound.KeyValueStore {
	return r.store
}

// load decodes one document into v. It reports false for an absent key.
func (r *Repository) load(ctx context.Context, key string, v interface{}) (bool, error) {
	data, err := r.store.Get(ctx, key)
	if errors.Is(err, outbound.ErrKeyNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return false, fmt.Errorf("failed to decode %s: %w", key, err)
	}
	return true, nil
}

// save writes one document in its own update
func (r *Repository) save(ctx context.Context, key string, v interface{}) error {
	return r.store.Update(ctx, []string{key}, func(tx outbound.KVTx) error {
		return put(tx, key, v)
	})
}

func get(tx outbound.KVTx, key string, v interface{}) (bool, error) {
	data, err := tx.Get(key)
	if errors.Is(err, outbound.ErrKeyNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return false, fmt.Errorf("failed to decode %s: %w", key, err)
	}
	return true, nil
}

func put(tx outbound.KVTx, key string, v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", key, err)
	}
	return tx.Put(key, data)
}

var (
	_ outbound.PlanRepository      = (*Repository)(nil)
	_ outbound.RecipeRepository    = (*Repository)(nil)
	_ outbound.HouseholdRepository = (*Repository)(nil)
	_ outbound.CatalogRepository   = (*Repository)(nil)
)
