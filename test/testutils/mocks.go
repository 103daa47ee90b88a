// Package testutils provides mock implementations for testing
package testutils

import (
	"context"
	"io"
	"sync"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/dietcompass/planner/internal/domain/generation"
	"github.com/dietcompass/planner/internal/domain/household"
	"github.com/dietcompass/planner/internal/domain/mealplan"
	"github.com/dietcompass/planner/internal/domain/recipe"
	"github.com/dietcompass/planner/internal/domain/shared"
)

// MockPlanRepository provides a mock implementation of PlanRepository
type MockPlanRepository struct {
	mock.Mock
}

// LoadState loads the plan state
func (m *MockPlanRepository) LoadState(ctx context.Context, householdID string) (mealplan.State, error) {
	args := m.Called(ctx, householdID)
	return args.Get(0).(mealplan.State), args.Error(1)
}

// PublishState publishes the plan state
func (m *MockPlanRepository) PublishState(ctx context.Context, householdID string, state mealplan.State, expectedVersion int64) error {
	args := m.Called(ctx, householdID, state, expectedVersion)
	return args.Error(0)
}

// MockRecipeRepository provides a mock implementation of RecipeRepository.
// UpdateRecipes applies fn to the recipes returned by the Recipes
// expectation and records the result in Updated.
type MockRecipeRepository struct {
	mock.Mock
	mu      sync.Mutex
	Updated []recipe.Recipe
}

// Recipes returns the stored recipes
func (m *MockRecipeRepository) Recipes(ctx context.Context, householdID string) ([]recipe.Recipe, error) {
	args := m.Called(ctx, householdID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]recipe.Recipe), args.Error(1)
}

// UpdateRecipes applies fn atomically
func (m *MockRecipeRepository) UpdateRecipes(ctx context.Context, householdID string, fn func([]recipe.Recipe) ([]recipe.Recipe, error)) error {
	args := m.Called(ctx, householdID)
	if err := args.Error(1); err != nil {
		return err
	}
	current, _ := args.Get(0).([]recipe.Recipe)
	copied := make([]recipe.Recipe, len(current))
	for i, r := range current {
		copied[i] = r.Clone()
	}
	out, err := fn(copied)
	if err != nil {
		return err
	}
	m.mu.Lock()
	m.Updated = out
	m.mu.Unlock()
	return nil
}

// MockHouseholdRepository provides a mock implementation of HouseholdRepository
type MockHouseholdRepository struct {
	mock.Mock
}

// Eaters returns the household's eaters
func (m *MockHouseholdRepository) Eaters(ctx context.Context, householdID string) (household.Eaters, error) {
	args := m.Called(ctx, householdID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(household.Eaters), args.Error(1)
}

// SaveEaters saves the household's eaters
func (m *MockHouseholdRepository) SaveEaters(ctx context.Context, householdID string, eaters household.Eaters) error {
	args := m.Called(ctx, householdID, eaters)
	return args.Error(0)
}

// Schedule returns the household's schedule
func (m *MockHouseholdRepository) Schedule(ctx context.Context, householdID string) (household.Schedule, error) {
	args := m.Called(ctx, householdID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(household.Schedule), args.Error(1)
}

// SaveSchedule saves the household's schedule
func (m *MockHouseholdRepository) SaveSchedule(ctx context.Context, householdID string, schedule household.Schedule) error {
	args := m.Called(ctx, householdID, schedule)
	return args.Error(0)
}

// Profiles returns the diet profiles
func (m *MockHouseholdRepository) Profiles(ctx context.Context) (household.ProfileTable, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(household.ProfileTable), args.Error(1)
}

// SaveProfiles saves the diet profiles
func (m *MockHouseholdRepository) SaveProfiles(ctx context.Context, profiles []household.DietProfile) error {
	args := m.Called(ctx, profiles)
	return args.Error(0)
}

// MockCatalogRepository provides a mock implementation of CatalogRepository
type MockCatalogRepository struct {
	mock.Mock
}

// Catalog returns the recipe catalog
func (m *MockCatalogRepository) Catalog(ctx context.Context) ([]recipe.Recipe, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]recipe.Recipe), args.Error(1)
}

// SaveCatalog saves the recipe catalog
func (m *MockCatalogRepository) SaveCatalog(ctx context.Context, recipes []recipe.Recipe) error {
	args := m.Called(ctx, recipes)
	return args.Error(0)
}

// Index returns the recipe index
func (m *MockCatalogRepository) Index(ctx context.Context) ([]recipe.IndexEntry, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]recipe.IndexEntry), args.Error(1)
}

// SaveIndex saves the recipe index
func (m *MockCatalogRepository) SaveIndex(ctx context.Context, entries []recipe.IndexEntry) error {
	args := m.Called(ctx, entries)
	return args.Error(0)
}

// HealthTable returns the ingredient health table
func (m *MockCatalogRepository) HealthTable(ctx context.Context) ([]recipe.HealthEntry, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]recipe.HealthEntry), args.Error(1)
}

// SaveHealthTable saves the ingredient health table
func (m *MockCatalogRepository) SaveHealthTable(ctx context.Context, entries []recipe.HealthEntry) error {
	args := m.Called(ctx, entries)
	return args.Error(0)
}

// MockGenerationClient provides a mock implementation of GenerationClient
type MockGenerationClient struct {
	mock.Mock
}

// Stream returns the response stream
func (m *MockGenerationClient) Stream(ctx context.Context, req generation.Request) (io.ReadCloser, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(io.ReadCloser), args.Error(1)
}

// MockMetrics records pipeline metrics calls
type MockMetrics struct {
	mock.Mock
}

// ObserveReconcile records one pipeline run
func (m *MockMetrics) ObserveReconcile(mode mealplan.MergeMode, result string, duration time.Duration) {
	m.Called(mode, result, duration)
}

// ObserveWarnings records the warnings of a run
func (m *MockMetrics) ObserveWarnings(warnings shared.Warnings) {
	m.Called(warnings)
}

// ObserveResolution records catalog resolution counts
func (m *MockMetrics) ObserveResolution(hits, misses, minted int) {
	m.Called(hits, misses, minted)
}

// RecordingDispatcher collects dispatched events
type RecordingDispatcher struct {
	mu     sync.Mutex
	events []shared.DomainEvent
}

// Dispatch records the event
func (d *RecordingDispatcher) Dispatch(event shared.DomainEvent) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.events = append(d.events, event)
	return nil
}

// Register is a no-op
func (d *RecordingDispatcher) Register(string, shared.EventHandler) {}

// Names returns the names of the dispatched events in order
func (d *RecordingDispatcher) Names() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	names := make([]string, 0, len(d.events))
	for _, e := range d.events {
		names = append(names, e.EventName())
	}
	return names
}
