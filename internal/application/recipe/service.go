// Package recipe provides the application layer for the household's recipe
// actions and the scoring queries.
// This implements the use cases defined in the inbound ports
package recipe

import (
	"context"
	stderrors "errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/dietcompass/planner/internal/application/scoring"
	"github.com/dietcompass/planner/internal/domain/recipe"
	"github.com/dietcompass/planner/internal/domain/shared"
	"github.com/dietcompass/planner/internal/ports/inbound"
	"github.com/dietcompass/planner/internal/ports/outbound"
	"github.com/dietcompass/planner/pkg/errors"
	"github.com/dietcompass/planner/pkg/validation"
)

// RecipeService implements the recipe use cases
type RecipeService struct {
	recipes    outbound.RecipeRepository
	catalog    outbound.CatalogRepository
	dispatcher shared.EventDispatcher
	scoring    scoring.Config
	validator  *validation.Validator
	clock      func() time.Time
	logger     *zap.Logger
}

// NewRecipeService creates a new recipe service. dispatcher may be nil.
func NewRecipeService(
	recipes outbound.RecipeRepository,
	catalog outbound.CatalogRepository,
	dispatcher shared.EventDispatcher,
	config scoring.Config,
	logger *zap.Logger,
) *RecipeService {
	return &RecipeService{
		recipes:    recipes,
		catalog:    catalog,
		dispatcher: dispatcher,
		scoring:    config,
		validator:  validation.New(),
		clock:      time.Now,
		logger:     logger.Named("recipe-service"),
	}
}

// SetFavorite marks or unmarks a stored recipe as a favorite. Favorites
// survive plan replacement and pruning.
func (s *RecipeService) SetFavorite(ctx context.Context, cmd inbound.FavoriteCommand) (*recipe.Recipe, error) {
	if err := s.validator.Struct(cmd); err != nil {
		return nil, err
	}

	updated, err := s.update(ctx, cmd.HouseholdID, cmd.RecipeID, func(r *recipe.Recipe) error {
		r.SetFavorite(cmd.Favorite)
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publish(recipe.RecipeFavoritedEvent{RecipeID: updated.ID, Favorite: cmd.Favorite, ChangedAt: s.clock()})
	s.logger.Info("Recipe favorite updated",
		zap.String("household", cmd.HouseholdID),
		zap.String("recipe_id", updated.ID),
		zap.Bool("favorite", cmd.Favorite),
	)
	return updated, nil
}

// Rate sets the household rating of a stored recipe
func (s *RecipeService) Rate(ctx context.Context, cmd inbound.RateRecipeCommand) (*recipe.Recipe, error) {
	if err := s.validator.Struct(cmd); err != nil {
		return nil, err
	}

	updated, err := s.update(ctx, cmd.HouseholdID, cmd.RecipeID, func(r *recipe.Recipe) error {
		return r.Rate(cmd.Rating)
	})
	if err != nil {
		return nil, err
	}

	s.publish(recipe.RecipeRatedEvent{RecipeID: updated.ID, Rating: cmd.Rating, RatedAt: s.clock()})
	s.logger.Info("Recipe rated",
		zap.String("household", cmd.HouseholdID),
		zap.String("recipe_id", updated.ID),
		zap.Int("rating", cmd.Rating),
	)
	return updated, nil
}

// MarkCooked increments the cooked counter of a stored recipe
func (s *RecipeService) MarkCooked(ctx context.Context, householdID, recipeID string) (*recipe.Recipe, error) {
	if err := s.validator.Var(householdID, "required,household_id"); err != nil {
		return nil, err
	}

	updated, err := s.update(ctx, householdID, recipeID, func(r *recipe.Recipe) error {
		r.MarkCooked()
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publish(recipe.RecipeCookedEvent{RecipeID: updated.ID, TimesCooked: updated.User.TimesCooked, CookedAt: s.clock()})
	return updated, nil
}

// LinkVariation records ChildID as a variation of ParentID. Both recipes
// must be stored for the household. The parent is returned.
func (s *RecipeService) LinkVariation(ctx context.Context, cmd inbound.LinkVariationCommand) (*recipe.Recipe, error) {
	if err := s.validator.Struct(cmd); err != nil {
		return nil, err
	}

	var parent recipe.Recipe
	err := s.recipes.UpdateRecipes(ctx, cmd.HouseholdID, func(rs []recipe.Recipe) ([]recipe.Recipe, error) {
		p, c := indexOf(rs, cmd.ParentID), indexOf(rs, cmd.ChildID)
		if p < 0 {
			return nil, errors.NewRecipeNotFoundError(cmd.ParentID)
		}
		if c < 0 {
			return nil, errors.NewRecipeNotFoundError(cmd.ChildID)
		}
		if err := rs[p].LinkVariation(&rs[c]); err != nil {
			return nil, domainError(err)
		}
		parent = rs[p].Clone()
		return rs, nil
	})
	if err != nil {
		return nil, storeError("link variation", err)
	}

	s.publish(recipe.VariationLinkedEvent{ParentID: cmd.ParentID, ChildID: cmd.ChildID, LinkedAt: s.clock()})
	s.logger.Info("Recipe variation linked",
		zap.String("household", cmd.HouseholdID),
		zap.String("parent_id", cmd.ParentID),
		zap.String("child_id", cmd.ChildID),
	)
	return &parent, nil
}

// Score returns the scores of a stored or catalog recipe. Unrated records
// are scored against the current health table.
func (s *RecipeService) Score(ctx context.Context, householdID, recipeID string) (*inbound.ScoreView, error) {
	if err := s.validator.Var(householdID, "required,household_id"); err != nil {
		return nil, err
	}

	r, err := s.find(ctx, householdID, recipeID)
	if err != nil {
		return nil, err
	}

	engine, err := s.engine(ctx)
	if err != nil {
		return nil, err
	}
	result := engine.Evaluate(r.Ingredients)
	view := &inbound.ScoreView{
		RecipeID:    r.ID,
		Scores:      r.DietCompassScores,
		Ingredients: engine.Annotate(r.Ingredients),
		Missing:     result.Missing,
	}
	if view.Scores == nil {
		view.Scores = result.Scores
	}
	return view, nil
}

// ScoreIngredients scores a free ingredient list
func (s *RecipeService) ScoreIngredients(ctx context.Context, ingredients []recipe.Ingredient) (*inbound.ScoreView, error) {
	if len(ingredients) == 0 {
		return nil, errors.NewValidationError("at least one ingredient is required")
	}
	normalized := make([]recipe.Ingredient, len(ingredients))
	for i, ing := range ingredients {
		if err := s.validator.Var(ing.Name, "ingredient"); err != nil {
			return nil, errors.NewValidationError(fmt.Sprintf("ingredient %d has an invalid name", i))
		}
		ing.Normalize()
		normalized[i] = ing
	}

	engine, err := s.engine(ctx)
	if err != nil {
		return nil, err
	}
	result := engine.Evaluate(normalized)
	return &inbound.ScoreView{
		Scores:      result.Scores,
		Ingredients: engine.Annotate(normalized),
		Missing:     result.Missing,
	}, nil
}

// update applies fn to one stored recipe atomically and returns its new
// state
func (s *RecipeService) update(ctx context.Context, householdID, recipeID string, fn func(*recipe.Recipe) error) (*recipe.Recipe, error) {
	var updated recipe.Recipe
	err := s.recipes.UpdateRecipes(ctx, householdID, func(rs []recipe.Recipe) ([]recipe.Recipe, error) {
		i := indexOf(rs, recipeID)
		if i < 0 {
			return nil, errors.NewRecipeNotFoundError(recipeID)
		}
		if err := fn(&rs[i]); err != nil {
			return nil, domainError(err)
		}
		updated = rs[i].Clone()
		return rs, nil
	})
	if err != nil {
		return nil, storeError("update recipe", err)
	}
	return &updated, nil
}

// find looks a recipe up in the household's recipes, then in the catalog
func (s *RecipeService) find(ctx context.Context, householdID, recipeID string) (recipe.Recipe, error) {
	stored, err := s.recipes.Recipes(ctx, householdID)
	if err != nil {
		return recipe.Recipe{}, errors.Wrap(err, "failed to load recipes")
	}
	if i := indexOf(stored, recipeID); i >= 0 {
		return stored[i], nil
	}

	catalog, err := s.catalog.Catalog(ctx)
	if err != nil {
		return recipe.Recipe{}, errors.Wrap(err, "failed to load recipe catalog")
	}
	if i := indexOf(catalog, recipeID); i >= 0 {
		return catalog[i], nil
	}
	return recipe.Recipe{}, errors.NewRecipeNotFoundError(recipeID)
}

func (s *RecipeService) engine(ctx context.Context) (*scoring.Engine, error) {
	health, err := s.catalog.HealthTable(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to load ingredient health table")
	}
	return scoring.NewEngine(scoring.NewTable(health), s.scoring, s.logger), nil
}

func (s *RecipeService) publish(event shared.DomainEvent) {
	if s.dispatcher == nil {
		return
	}
	if err := s.dispatcher.Dispatch(event); err != nil {
		s.logger.Error("Failed to publish event",
			zap.String("event", event.EventName()),
			zap.Error(err),
		)
	}
}

func indexOf(rs []recipe.Recipe, id string) int {
	for i, r := range rs {
		if r.ID == id {
			return i
		}
	}
	return -1
}

// domainError maps recipe rule violations onto application errors
func domainError(err error) error {
	switch {
	case stderrors.Is(err, recipe.ErrInvalidRating), stderrors.Is(err, recipe.ErrSelfVariation):
		return errors.NewValidationError(err.Error())
	case stderrors.Is(err, recipe.ErrVariationCycle), stderrors.Is(err, recipe.ErrAlreadyVariation):
		return errors.NewConflictError(err.Error())
	}
	return err
}

// storeError keeps application errors raised inside an update and wraps
// storage failures
func storeError(operation string, err error) error {
	var appErr *errors.AppError
	if stderrors.As(err, &appErr) {
		return appErr
	}
	return errors.NewPersistenceError(operation, err)
}

var _ inbound.RecipeService = (*RecipeService)(nil)
