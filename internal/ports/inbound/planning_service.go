// Package inbound defines the interfaces for inbound ports (primary/driving adapters)
// These are the interfaces that the application exposes to the outside world
package inbound

import (
	"context"
	"io"

	"github.com/dietcompass/planner/internal/domain/generation"
	"github.com/dietcompass/planner/internal/domain/household"
	"github.com/dietcompass/planner/internal/domain/mealplan"
	"github.com/dietcompass/planner/internal/domain/recipe"
	"github.com/dietcompass/planner/internal/domain/shared"
)

// ProgressFunc receives progress frames while a generation is streaming
type ProgressFunc func(progress int, message string)

// PlanningService defines the meal plan reconciliation use cases
type PlanningService interface {
	// Reconcile runs the pipeline on a complete raw plan. When storage
	// rejects the publish, the computed outcome is returned together with a
	// PersistenceFailure error.
	Reconcile(ctx context.Context, cmd ReconcileCommand) (*ReconcileOutcome, error)
	// ConsumeStream reads generator frames and reconciles the plan carried
	// by the complete frame. Nothing is reconciled on an incomplete stream.
	ConsumeStream(ctx context.Context, cmd StreamCommand, frames io.Reader, onProgress ProgressFunc) (*ReconcileOutcome, error)
	// Generate builds a generation request, calls the generator and
	// consumes its stream.
	Generate(ctx context.Context, cmd GenerateCommand, onProgress ProgressFunc) (*ReconcileOutcome, error)
	BuildRequest(ctx context.Context, cmd BuildRequestCommand) (*generation.Request, error)

	CurrentPlan(ctx context.Context, householdID string) (*PlanView, error)
	History(ctx context.Context, householdID string) (mealplan.History, error)
}

// ReconcileCommand contains a raw generator plan and how to merge it
type ReconcileCommand struct {
	HouseholdID string             `validate:"required,household_id"`
	RawPlan     []byte             `validate:"required"`
	Mode        mealplan.MergeMode `validate:"omitempty,oneof=week day"`
	// Date is the regenerated date in single-day mode
	Date string `validate:"required_if=Mode day,omitempty,plan_date"`
}

// StreamCommand describes how a streamed plan is merged
type StreamCommand struct {
	HouseholdID string             `validate:"required,household_id"`
	Mode        mealplan.MergeMode `validate:"omitempty,oneof=week day"`
	Date        string             `validate:"required_if=Mode day,omitempty,plan_date"`
}

// BuildRequestCommand contains the inputs of a generation request
type BuildRequestCommand struct {
	HouseholdID       string                   `validate:"required,household_id"`
	ChatHistory       []generation.ChatMessage `validate:"dive"`
	BaseSpecification string
	// RegenerateDate selects single-day regeneration when set
	RegenerateDate string `validate:"omitempty,plan_date"`
}

// GenerateCommand asks for a new plan or a regenerated day
type GenerateCommand struct {
	BuildRequestCommand
}

// ReconcileReport describes what one pass did
type ReconcileReport struct {
	Mode            mealplan.MergeMode    `json:"mode"`
	Date            string                `json:"date,omitempty"`
	Warnings        shared.Warnings       `json:"warnings"`
	CatalogHits     int                   `json:"catalogHits"`
	CatalogMisses   int                   `json:"catalogMisses"`
	MintedRecipes   int                   `json:"mintedRecipes"`
	Archived        bool                  `json:"archived"`
	NoOp            bool                  `json:"noOp"`
	PrunedRecipeIDs []string              `json:"prunedRecipeIds,omitempty"`
	DietGroups      []household.DietGroup `json:"dietGroups,omitempty"`
	MultiRecipe     bool                  `json:"multiRecipe"`
}

// ReconcileOutcome is the reconciled state plus its report
type ReconcileOutcome struct {
	Plan      mealplan.MealPlan `json:"plan"`
	Meals     []mealplan.Meal   `json:"meals"`
	Recipes   []recipe.Recipe   `json:"recipes"`
	Report    ReconcileReport   `json:"report"`
	Persisted bool              `json:"persisted"`
}

// PlanView is the active plan with its meals and recipes
type PlanView struct {
	Plan    mealplan.MealPlan `json:"plan"`
	Meals   []mealplan.Meal   `json:"meals"`
	Recipes []recipe.Recipe   `json:"recipes"`
}
