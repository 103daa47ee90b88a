package recipe

import (
	"slices"
	"strings"
)

// Category is an ingredient's grocery category
type Category string

const (
	CategoryProduce Category = "produce"
	CategoryMeat    Category = "meat"
	CategoryDairy   Category = "dairy"
	CategoryPantry  Category = "pantry"
	CategoryOther   Category = "other"
)

// IsValid checks if the category is one of the known categories
func (c Category) IsValid() bool {
	switch c {
	case CategoryProduce, CategoryMeat, CategoryDairy, CategoryPantry, CategoryOther:
		return true
	}
	return false
}

// HealthImpact classifies an ingredient's effect on the diet scores
type HealthImpact string

const (
	ImpactProtective HealthImpact = "protective"
	ImpactNeutral    HealthImpact = "neutral"
	ImpactHarmful    HealthImpact = "harmful"
)

// IsValid checks if the impact is one of the known classifications
func (h HealthImpact) IsValid() bool {
	switch h {
	case ImpactProtective, ImpactNeutral, ImpactHarmful:
		return true
	}
	return false
}

// Source records where a recipe record came from
type Source string

const (
	SourceCatalog   Source = "catalog"
	SourceGenerated Source = "generated"
	SourceImported  Source = "imported"
	SourceUser      Source = "user"
)

// DefaultUnit is used when an ingredient arrives without a unit
const DefaultUnit = "whole"

// Ingredient is one line of a recipe
type Ingredient struct {
	Name         string       `json:"name"`
	Quantity     float64      `json:"quantity"`
	Unit         string       `json:"unit"`
	Category     Category     `json:"category"`
	HealthImpact HealthImpact `json:"healthImpact"`
}

// Normalize applies ingredient defaults in place
func (i *Ingredient) Normalize() {
	i.Name = strings.TrimSpace(i.Name)
	if i.Quantity < 0 {
		i.Quantity = 0
	}
	i.Unit = strings.ToLower(strings.TrimSpace(i.Unit))
	if i.Unit == "" {
		i.Unit = DefaultUnit
	}
	if !i.Category.IsValid() {
		i.Category = CategoryOther
	}
	if !i.HealthImpact.IsValid() {
		i.HealthImpact = ImpactNeutral
	}
}

// Tags groups the recipe's descriptive labels
type Tags struct {
	Cuisines  []string `json:"cuisines,omitempty"`
	Diets     []string `json:"diets,omitempty"`
	MealTypes []string `json:"mealTypes,omitempty"`
	Effort    string   `json:"effort,omitempty"`
	Extra     []string `json:"extra,omitempty"`
}

// Clone returns a deep copy of the tags
func (t Tags) Clone() Tags {
	return Tags{
		Cuisines:  slices.Clone(t.Cuisines),
		Diets:     slices.Clone(t.Diets),
		MealTypes: slices.Clone(t.MealTypes),
		Effort:    t.Effort,
		Extra:     slices.Clone(t.Extra),
	}
}

// HasDiet reports whether the recipe is tagged with the diet, ignoring case
func (t Tags) HasDiet(diet string) bool {
	for _, d := range t.Diets {
		if strings.EqualFold(d, diet) {
			return true
		}
	}
	return false
}

// Scores holds the diet-compass scores, each in [0,100]
type Scores struct {
	Overall         int `json:"overall"`
	NutrientDensity int `json:"nutrientDensity"`
	AntiAging       int `json:"antiAging"`
	WeightLoss      int `json:"weightLoss"`
	HeartHealth     int `json:"heartHealth"`
}

// IndexEntry is the lightweight catalog projection used in generation
// prompts. It is built offline from the catalog and only read here.
type IndexEntry struct {
	ID                  string   `json:"id"`
	Name                string   `json:"name"`
	PrepTime            int      `json:"prepTime"`
	CookTime            int      `json:"cookTime"`
	Scores              *Scores  `json:"nutrition,omitempty"`
	Tags                Tags     `json:"tags"`
	DominantIngredients []string `json:"dominantIngredients"`
}
