// Package testutils provides test data factories for consistent test data generation
package testutils

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/brianvoe/gofakeit/v6"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/dietcompass/planner/internal/domain/household"
	"github.com/dietcompass/planner/internal/domain/recipe"
)

var title = cases.Title(language.English)

// RecipeBuilder provides a fluent interface for building test recipes
type RecipeBuilder struct {
	faker  *gofakeit.Faker
	recipe recipe.Recipe
}

// NewRecipeBuilder creates a new recipe builder with default values. The
// seed keeps generated names reproducible.
func NewRecipeBuilder(seed int64) *RecipeBuilder {
	faker := gofakeit.New(seed)
	return &RecipeBuilder{
		faker: faker,
		recipe: recipe.Recipe{
			Name: title.String(faker.Adjective() + " " + faker.Noun()),
			Ingredients: []recipe.Ingredient{
				{Name: "olive oil", Quantity: 15, Unit: "ml", Category: recipe.CategoryPantry},
				{Name: "garlic", Quantity: 2, Unit: "whole", Category: recipe.CategoryProduce},
			},
			Instructions: []string{faker.Sentence(6), faker.Sentence(8)},
			PrepTime:     faker.Number(5, 20),
			CookTime:     faker.Number(10, 45),
			Servings:     faker.Number(1, 6),
			Source:       recipe.SourceGenerated,
		},
	}
}

// WithID sets the recipe id
func (rb *RecipeBuilder) WithID(id string) *RecipeBuilder {
	rb.recipe.ID = id
	return rb
}

// WithName sets the recipe name
func (rb *RecipeBuilder) WithName(name string) *RecipeBuilder {
	rb.recipe.Name = name
	return rb
}

// WithIngredient appends an ingredient
func (rb *RecipeBuilder) WithIngredient(name string, quantity float64, unit string) *RecipeBuilder {
	rb.recipe.Ingredients = append(rb.recipe.Ingredients, recipe.Ingredient{Name: name, Quantity: quantity, Unit: unit})
	return rb
}

// WithIngredients replaces the ingredient list
func (rb *RecipeBuilder) WithIngredients(ingredients ...recipe.Ingredient) *RecipeBuilder {
	rb.recipe.Ingredients = ingredients
	return rb
}

// WithServings sets the servings
func (rb *RecipeBuilder) WithServings(servings int) *RecipeBuilder {
	rb.recipe.Servings = servings
	return rb
}

// WithDiets sets the diet tags
func (rb *RecipeBuilder) WithDiets(diets ...string) *RecipeBuilder {
	rb.recipe.Tags.Diets = diets
	return rb
}

// AsCatalog marks the recipe as a catalog record
func (rb *RecipeBuilder) AsCatalog() *RecipeBuilder {
	rb.recipe.Source = recipe.SourceCatalog
	return rb
}

// AsFavorite marks the recipe as a household favorite
func (rb *RecipeBuilder) AsFavorite() *RecipeBuilder {
	rb.recipe.User.Favorite = true
	return rb
}

// Build returns the recipe. Without an explicit id the identity-derived id
// is used, as for a minted record.
func (rb *RecipeBuilder) Build() recipe.Recipe {
	r := rb.recipe.Clone()
	r.Normalize()
	if r.ID == "" {
		r.ID = recipe.MintID(r.Identity())
	}
	return r
}

// EaterBuilder provides a fluent interface for building test eaters
type EaterBuilder struct {
	eater household.Eater
}

// NewEaterBuilder creates an eater with a generated name
func NewEaterBuilder(seed int64) *EaterBuilder {
	faker := gofakeit.New(seed)
	name := faker.FirstName()
	return &EaterBuilder{eater: household.Eater{
		ID:                strings.ToLower(name) + "-" + faker.DigitN(4),
		Name:              name,
		PortionMultiplier: 1,
	}}
}

// WithID sets the eater id
func (eb *EaterBuilder) WithID(id string) *EaterBuilder {
	eb.eater.ID = id
	return eb
}

// WithName sets the eater name
func (eb *EaterBuilder) WithName(name string) *EaterBuilder {
	eb.eater.Name = name
	return eb
}

// WithProfile sets the diet profile
func (eb *EaterBuilder) WithProfile(profileID string) *EaterBuilder {
	eb.eater.DietProfileID = profileID
	return eb
}

// WithPortion sets the portion multiplier
func (eb *EaterBuilder) WithPortion(multiplier float64) *EaterBuilder {
	eb.eater.PortionMultiplier = multiplier
	return eb
}

// Excluding adds excluded ingredients
func (eb *EaterBuilder) Excluding(ingredients ...string) *EaterBuilder {
	eb.eater.ExcludeIngredients = append(eb.eater.ExcludeIngredients, ingredients...)
	return eb
}

// Build returns the eater
func (eb *EaterBuilder) Build() household.Eater {
	return eb.eater
}

// Eater builds a named eater with a profile
func Eater(id, profileID string) household.Eater {
	return household.Eater{ID: id, Name: title.String(id), DietProfileID: profileID, PortionMultiplier: 1}
}

// Profiles returns the diet profile table used across tests: keto and
// vegan conflict, kid-friendly and mediterranean are broadly compatible.
func Profiles() household.ProfileTable {
	return household.NewProfileTable([]household.DietProfile{
		{ID: "keto", Name: "Keto", ConflictsWith: []string{"vegan", "vegetarian"}},
		{ID: "vegan", Name: "Vegan", Avoid: []string{"meat", "dairy", "eggs"}},
		{ID: "vegetarian", Name: "Vegetarian", Avoid: []string{"meat"}},
		{ID: "paleo", Name: "Paleo", ConflictsWith: []string{"vegan"}},
		{ID: "mediterranean", Name: "Mediterranean", BroadlyCompatible: true},
		{ID: "kid-friendly", Name: "Kid Friendly", BroadlyCompatible: true},
	})
}

// HealthTable returns a small ingredient health table
func HealthTable() []recipe.HealthEntry {
	return []recipe.HealthEntry{
		{Name: "spinach", HealthPoints: recipe.HealthPoints{NutrientDensity: 9, AntiAging: 8, WeightLoss: 9, HeartHealth: 8}},
		{Name: "lentil", HealthPoints: recipe.HealthPoints{NutrientDensity: 8, AntiAging: 6, WeightLoss: 7, HeartHealth: 8}},
		{Name: "olive oil", HealthPoints: recipe.HealthPoints{NutrientDensity: 5, AntiAging: 7, WeightLoss: 3, HeartHealth: 9}},
		{Name: "garlic", HealthPoints: recipe.HealthPoints{NutrientDensity: 6, AntiAging: 7, WeightLoss: 5, HeartHealth: 7}},
		{Name: "bacon", HealthPoints: recipe.HealthPoints{NutrientDensity: -3, AntiAging: -5, WeightLoss: -6, HeartHealth: -8}},
	}
}

// RawSlot is one recipe object of a raw generator plan
type RawSlot map[string]interface{}

// CatalogSlot references a catalog recipe by name
func CatalogSlot(name string) RawSlot {
	return RawSlot{"fromCatalog": true, "name": name}
}

// InlineSlot is a generated recipe using 100 g of each named ingredient
func InlineSlot(name string, ingredients ...string) RawSlot {
	items := make([]map[string]interface{}, 0, len(ingredients))
	for _, ing := range ingredients {
		items = append(items, map[string]interface{}{"name": ing, "quantity": 100, "unit": "g"})
	}
	return RawSlot{
		"fromCatalog":  false,
		"name":         name,
		"ingredients":  items,
		"instructions": []string{"Cook it."},
		"prepTime":     10,
		"cookTime":     20,
		"servings":     2,
	}
}

// RawPlanBuilder builds raw generator plans as JSON
type RawPlanBuilder struct {
	weekOf string
	budget map[string]float64
	days   map[string]map[string]interface{}
	order  []string
}

// NewRawPlanBuilder starts a plan for the week of weekOf
func NewRawPlanBuilder(weekOf string) *RawPlanBuilder {
	return &RawPlanBuilder{weekOf: weekOf, days: make(map[string]map[string]interface{})}
}

// WithBudget sets the budget
func (pb *RawPlanBuilder) WithBudget(target, estimated float64) *RawPlanBuilder {
	pb.budget = map[string]float64{"target": target, "estimated": estimated}
	return pb
}

// Meal sets one slot of a day. Several recipes make a multi-profile slot.
func (pb *RawPlanBuilder) Meal(date, mealType string, slots ...RawSlot) *RawPlanBuilder {
	day, ok := pb.days[date]
	if !ok {
		day = map[string]interface{}{"date": date}
		pb.days[date] = day
		pb.order = append(pb.order, date)
	}
	if len(slots) == 1 {
		day[mealType] = slots[0]
	} else {
		day[mealType] = slots
	}
	return pb
}

// JSON returns the encoded plan
func (pb *RawPlanBuilder) JSON() []byte {
	days := make([]map[string]interface{}, 0, len(pb.order))
	for _, date := range pb.order {
		days = append(days, pb.days[date])
	}
	plan := map[string]interface{}{"days": days}
	if pb.weekOf != "" {
		plan["weekOf"] = pb.weekOf
	}
	if pb.budget != nil {
		plan["budget"] = pb.budget
	}
	data, err := json.Marshal(plan)
	if err != nil {
		panic(fmt.Sprintf("encode raw plan: %v", err))
	}
	return data
}
