package generation

import (
	"github.com/dietcompass/planner/internal/domain/household"
	"github.com/dietcompass/planner/internal/domain/recipe"
)

// ChatMessage is one turn of the planning conversation
type ChatMessage struct {
	Role    string `json:"role" validate:"required,oneof=user assistant system"`
	Content string `json:"content"`
}

// ExistingMeal tells the generator what is already planned on other days
type ExistingMeal struct {
	Date       string `json:"date"`
	MealType   string `json:"mealType"`
	RecipeName string `json:"recipeName"`
}

// Request is the payload sent to the meal generator
type Request struct {
	ChatHistory       []ChatMessage         `json:"chatHistory"`
	Eaters            []household.Eater     `json:"eaters"`
	BaseSpecification string                `json:"baseSpecification"`
	CatalogSlice      []recipe.IndexEntry   `json:"catalogSlice"`
	RegenerateDay     string                `json:"regenerateDay,omitempty"`
	DateForDay        string                `json:"dateForDay,omitempty"`
	ExistingMeals     []ExistingMeal        `json:"existingMeals,omitempty"`
	DietGroups        []household.DietGroup `json:"dietGroups,omitempty"`
	MultiRecipe       bool                  `json:"multiRecipe"`
}
