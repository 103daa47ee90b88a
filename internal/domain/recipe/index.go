package recipe

import (
	"sort"
	"strings"
)

// DominantIngredientCount is how many ingredients an index entry carries
const DominantIngredientCount = 8

// gramsPerUnit converts common recipe units to an approximate mass. Volumes
// are taken at the density of water.
var gramsPerUnit = map[string]float64{
	"g": 1, "gram": 1, "grams": 1,
	"kg": 1000, "kilogram": 1000, "kilograms": 1000,
	"mg": 0.001,
	"ml": 1, "milliliter": 1, "milliliters": 1,
	"l": 1000, "liter": 1000, "liters": 1000,
	"cup": 240, "cups": 240,
	"tbsp": 15, "tablespoon": 15, "tablespoons": 15,
	"tsp": 5, "teaspoon": 5, "teaspoons": 5,
	"oz": 28.35, "ounce": 28.35, "ounces": 28.35,
	"lb": 453.6, "lbs": 453.6, "pound": 453.6, "pounds": 453.6,
	"pinch": 0.5, "clove": 5, "cloves": 5,
}

// pieceGrams is assumed for counted items and unknown units
const pieceGrams = 100

// EstimatedGrams approximates the mass of an ingredient quantity
func EstimatedGrams(ing Ingredient) float64 {
	if ing.Quantity <= 0 {
		return 0
	}
	unit := strings.ToLower(strings.TrimSpace(ing.Unit))
	if g, ok := gramsPerUnit[unit]; ok {
		return ing.Quantity * g
	}
	return ing.Quantity * pieceGrams
}

// NewIndexEntry projects a catalog recipe onto its index entry. The dominant
// ingredients are the heaviest by estimated mass, ties kept in recipe order.
func NewIndexEntry(r Recipe) IndexEntry {
	type weighed struct {
		name  string
		grams float64
	}
	candidates := make([]weighed, 0, len(r.Ingredients))
	for _, ing := range r.Ingredients {
		name := strings.ToLower(strings.TrimSpace(ing.Name))
		if name != "" {
			candidates = append(candidates, weighed{name: name, grams: EstimatedGrams(ing)})
		}
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].grams > candidates[j].grams
	})
	if len(candidates) > DominantIngredientCount {
		candidates = candidates[:DominantIngredientCount]
	}

	dominant := make([]string, 0, len(candidates))
	for _, c := range candidates {
		dominant = append(dominant, c.name)
	}

	entry := IndexEntry{
		ID:                  r.ID,
		Name:                r.Name,
		PrepTime:            r.PrepTime,
		CookTime:            r.CookTime,
		Tags:                r.Tags.Clone(),
		DominantIngredients: dominant,
	}
	if r.DietCompassScores != nil {
		scores := *r.DietCompassScores
		entry.Scores = &scores
	}
	return entry
}

// BuildIndex projects every recipe of a catalog
func BuildIndex(catalog []Recipe) []IndexEntry {
	entries := make([]IndexEntry, 0, len(catalog))
	for _, r := range catalog {
		entries = append(entries, NewIndexEntry(r))
	}
	return entries
}
