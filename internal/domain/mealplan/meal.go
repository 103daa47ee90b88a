// Package mealplan holds the scheduled meals of a week and the plan that
// groups them, plus the archived snapshots kept in history.
package mealplan

import (
	"slices"
	"sort"
	"strconv"

	"github.com/google/uuid"
)

// MealType is one of the three daily slots
type MealType string

const (
	Breakfast MealType = "breakfast"
	Lunch     MealType = "lunch"
	Dinner    MealType = "dinner"
)

// MealTypes lists the slots in day order
var MealTypes = []MealType{Breakfast, Lunch, Dinner}

// IsValid checks if the meal type is a known slot
func (m MealType) IsValid() bool {
	return slices.Contains(MealTypes, m)
}

// order returns the slot's position within a day
func (m MealType) order() int {
	return slices.Index(MealTypes, m)
}

// MealIDNamespace is the UUIDv5 namespace meal ids are minted in
var MealIDNamespace = uuid.MustParse("0b9e4d7a-2f61-4c83-8e15-a4d2c6f90b37")

// Meal is one recipe scheduled for one slot on one date
type Meal struct {
	ID              string   `json:"id"`
	RecipeID        string   `json:"recipeId"`
	MealType        MealType `json:"mealType"`
	Date            string   `json:"date"`
	// Slot orders several recipes served in one date and meal type
	Slot            int      `json:"slot,omitempty"`
	EaterIDs        []string `json:"eaterIds"`
	Servings        int      `json:"servings"`
	TargetEaters    []string `json:"targetEaters,omitempty"`
	DietProfileTags []string `json:"dietProfileTags,omitempty"`
}

// MealID derives the deterministic id of a meal from its slot position and
// recipe. index distinguishes several recipes served in one slot.
func MealID(date string, mealType MealType, index int, recipeID string) string {
	name := date + "|" + string(mealType) + "|" + strconv.Itoa(index) + "|" + recipeID
	return uuid.NewSHA1(MealIDNamespace, []byte(name)).String()
}

// Repoint moves the meal to another recipe and rederives its id
func (m *Meal) Repoint(recipeID string) {
	m.RecipeID = recipeID
	m.ID = MealID(m.Date, m.MealType, m.Slot, recipeID)
}

// Clone returns a deep copy of the meal
func (m Meal) Clone() Meal {
	out := m
	out.EaterIDs = slices.Clone(m.EaterIDs)
	out.TargetEaters = slices.Clone(m.TargetEaters)
	out.DietProfileTags = slices.Clone(m.DietProfileTags)
	return out
}

// SortMeals orders meals by date, meal type and slot index, with the id
// breaking ties
func SortMeals(meals []Meal) {
	sort.SliceStable(meals, func(i, j int) bool {
		a, b := meals[i], meals[j]
		if a.Date != b.Date {
			return a.Date < b.Date
		}
		if a.MealType != b.MealType {
			return a.MealType.order() < b.MealType.order()
		}
		if a.Slot != b.Slot {
			return a.Slot < b.Slot
		}
		return a.ID < b.ID
	})
}
