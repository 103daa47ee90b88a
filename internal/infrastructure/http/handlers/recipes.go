package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/dietcompass/planner/internal/domain/recipe"
	"github.com/dietcompass/planner/internal/ports/inbound"
)

// RecipeHandlers handles the recipe action and scoring endpoints
type RecipeHandlers struct {
	recipes inbound.RecipeService
	logger  *zap.Logger
}

// NewRecipeHandlers creates the recipe handlers
func NewRecipeHandlers(recipes inbound.RecipeService, logger *zap.Logger) *RecipeHandlers {
	return &RecipeHandlers{recipes: recipes, logger: logger.Named("recipe-api")}
}

// Favorite handles PUT /recipes/{id}/favorite
func (h *RecipeHandlers) Favorite(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Favorite bool `json:"favorite"`
	}
	if err := decodeJSON(r, &body); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	updated, err := h.recipes.SetFavorite(r.Context(), inbound.FavoriteCommand{
		HouseholdID: household(r),
		RecipeID:    chi.URLParam(r, "id"),
		Favorite:    body.Favorite,
	})
	h.answer(w, r, updated, err)
}

// Rate handles PUT /recipes/{id}/rating
func (h *RecipeHandlers) Rate(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Rating int `json:"rating"`
	}
	if err := decodeJSON(r, &body); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	updated, err := h.recipes.Rate(r.Context(), inbound.RateRecipeCommand{
		HouseholdID: household(r),
		RecipeID:    chi.URLParam(r, "id"),
		Rating:      body.Rating,
	})
	h.answer(w, r, updated, err)
}

// Cooked handles POST /recipes/{id}/cooked
func (h *RecipeHandlers) Cooked(w http.ResponseWriter, r *http.Request) {
	updated, err := h.recipes.MarkCooked(r.Context(), household(r), chi.URLParam(r, "id"))
	h.answer(w, r, updated, err)
}

// LinkVariation handles POST /recipes/{id}/variations
func (h *RecipeHandlers) LinkVariation(w http.ResponseWriter, r *http.Request) {
	var body struct {
		ChildID string `json:"childId"`
	}
	if err := decodeJSON(r, &body); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	parent, err := h.recipes.LinkVariation(r.Context(), inbound.LinkVariationCommand{
		HouseholdID: household(r),
		ParentID:    chi.URLParam(r, "id"),
		ChildID:     body.ChildID,
	})
	h.answer(w, r, parent, err)
}

// Score handles GET /recipes/{id}/score
func (h *RecipeHandlers) Score(w http.ResponseWriter, r *http.Request) {
	view, err := h.recipes.Score(r.Context(), household(r), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeData(w, h.logger, http.StatusOK, view)
}

// ScoreIngredients handles POST /scores
func (h *RecipeHandlers) ScoreIngredients(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Ingredients []recipe.Ingredient `json:"ingredients"`
	}
	if err := decodeJSON(r, &body); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	view, err := h.recipes.ScoreIngredients(r.Context(), body.Ingredients)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeData(w, h.logger, http.StatusOK, view)
}

func (h *RecipeHandlers) answer(w http.ResponseWriter, r *http.Request, updated *recipe.Recipe, err error) {
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeData(w, h.logger, http.StatusOK, updated)
}
