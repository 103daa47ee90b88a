// Package outbound defines the interfaces for outbound ports (secondary/driven adapters)
// These are the interfaces that the application uses to interact with external systems
package outbound

import (
	"context"
	"errors"

	"github.com/dietcompass/planner/internal/domain/household"
	"github.com/dietcompass/planner/internal/domain/mealplan"
	"github.com/dietcompass/planner/internal/domain/recipe"
)

// ErrKeyNotFound is returned by key-value reads of absent keys
var ErrKeyNotFound = errors.New("key not found")

// KeyValueStore is the document store every collection lives in. Update
// runs fn in one atomic unit: either every write made through the
// transaction is published or none is.
type KeyValueStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	// Update runs fn atomically. keys names the documents fn reads, which
	// stores with optimistic transactions watch for concurrent changes.
	Update(ctx context.Context, keys []string, fn func(tx KVTx) error) error
	Close() error
}

// KVTx is the view of the store inside one atomic update
type KVTx interface {
	Get(key string) ([]byte, error)
	Put(key string, value []byte) error
	Delete(key string) error
}

// PlanRepository loads and publishes the plan state of a household
type PlanRepository interface {
	LoadState(ctx context.Context, householdID string) (mealplan.State, error)
	// PublishState writes recipes, meals, plan and history in one atomic
	// unit. It fails with a conflict when the stored plan version differs
	// from expectedVersion.
	PublishState(ctx context.Context, householdID string, state mealplan.State, expectedVersion int64) error
}

// RecipeRepository accesses the stored recipes of a household
type RecipeRepository interface {
	Recipes(ctx context.Context, householdID string) ([]recipe.Recipe, error)
	// UpdateRecipes applies fn to the stored recipes and writes the result
	// atomically, bumping the version of the active plan if there is one.
	UpdateRecipes(ctx context.Context, householdID string, fn func([]recipe.Recipe) ([]recipe.Recipe, error)) error
}

// HouseholdRepository accesses eaters, schedule and diet profiles
type HouseholdRepository interface {
	Eaters(ctx context.Context, householdID string) (household.Eaters, error)
	SaveEaters(ctx context.Context, householdID string, eaters household.Eaters) error
	Schedule(ctx context.Context, householdID string) (household.Schedule, error)
	SaveSchedule(ctx context.Context, householdID string, schedule household.Schedule) error
	Profiles(ctx context.Context) (household.ProfileTable, error)
	SaveProfiles(ctx context.Context, profiles []household.DietProfile) error
}

// CatalogRepository accesses the shared reference data
type CatalogRepository interface {
	Catalog(ctx context.Context) ([]recipe.Recipe, error)
	SaveCatalog(ctx context.Context, recipes []recipe.Recipe) error
	Index(ctx context.Context) ([]recipe.IndexEntry, error)
	SaveIndex(ctx context.Context, entries []recipe.IndexEntry) error
	HealthTable(ctx context.Context) ([]recipe.HealthEntry, error)
	SaveHealthTable(ctx context.Context, entries []recipe.HealthEntry) error
}
