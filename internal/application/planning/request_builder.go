package planning

import (
	"slices"

	"go.uber.org/zap"

	"github.com/dietcompass/planner/internal/domain/generation"
	"github.com/dietcompass/planner/internal/domain/household"
	"github.com/dietcompass/planner/internal/domain/mealplan"
	"github.com/dietcompass/planner/internal/domain/recipe"
)

// RequestInput is everything a generation request is assembled from
type RequestInput struct {
	ChatHistory       []generation.ChatMessage
	BaseSpecification string
	Eaters            household.Eaters
	Groups            []household.DietGroup
	MultiRecipe       bool
	Index             []recipe.IndexEntry
	State             mealplan.State
	// RegenerateDate selects single-day regeneration when set
	RegenerateDate string
}

// RequestBuilder assembles generation requests
type RequestBuilder struct {
	sliceSize int
	logger    *zap.Logger
}

// NewRequestBuilder creates a builder that offers at most sliceSize catalog
// entries per request. Zero or less offers the whole index.
func NewRequestBuilder(sliceSize int, logger *zap.Logger) *RequestBuilder {
	return &RequestBuilder{sliceSize: sliceSize, logger: logger.Named("request-builder")}
}

// Build assembles the request
func (b *RequestBuilder) Build(in RequestInput) generation.Request {
	req := generation.Request{
		ChatHistory:       slices.Clone(in.ChatHistory),
		Eaters:            slices.Clone(in.Eaters),
		BaseSpecification: in.BaseSpecification,
		CatalogSlice:      b.catalogSlice(in.Index, in.Eaters),
		DietGroups:        in.Groups,
		MultiRecipe:       in.MultiRecipe,
	}
	if req.ChatHistory == nil {
		req.ChatHistory = []generation.ChatMessage{}
	}

	if in.RegenerateDate != "" {
		weekday, _ := household.Weekday(in.RegenerateDate)
		req.RegenerateDay = weekday
		req.DateForDay = in.RegenerateDate
		req.ExistingMeals = existingMeals(in.State, in.RegenerateDate)
	}

	b.logger.Debug("Generation request built",
		zap.Int("eaters", len(req.Eaters)),
		zap.Int("catalog_slice", len(req.CatalogSlice)),
		zap.Int("groups", len(req.DietGroups)),
		zap.String("regenerate_date", in.RegenerateDate),
	)
	return req
}

// catalogSlice keeps the index entries no eater excludes, in index order
func (b *RequestBuilder) catalogSlice(index []recipe.IndexEntry, eaters household.Eaters) []recipe.IndexEntry {
	out := make([]recipe.IndexEntry, 0, min(len(index), max(b.sliceSize, 0)))
	for _, entry := range index {
		if b.sliceSize > 0 && len(out) >= b.sliceSize {
			break
		}
		if excludedByAny(entry, eaters) {
			continue
		}
		out = append(out, entry)
	}
	return out
}

func excludedByAny(entry recipe.IndexEntry, eaters household.Eaters) bool {
	for _, e := range eaters {
		for _, ing := range entry.DominantIngredients {
			if e.Excludes(ing) {
				return true
			}
		}
	}
	return false
}

// existingMeals lists the plan's meals on dates other than date
func existingMeals(state mealplan.State, date string) []generation.ExistingMeal {
	var out []generation.ExistingMeal
	for _, m := range state.Meals {
		if m.Date == date {
			continue
		}
		name := m.RecipeID
		if r, ok := state.RecipeByID(m.RecipeID); ok {
			name = r.Name
		}
		out = append(out, generation.ExistingMeal{
			Date:       m.Date,
			MealType:   string(m.MealType),
			RecipeName: name,
		})
	}
	return out
}
