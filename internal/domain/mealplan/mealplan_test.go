package mealplan

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestMealID_IsDeterministicPerSlot(t *testing.T) {
	a := MealID("2024-06-03", Dinner, 0, "r-1")

	assert.Equal(t, a, MealID("2024-06-03", Dinner, 0, "r-1"))
	assert.NotEqual(t, a, MealID("2024-06-03", Dinner, 1, "r-1"))
	assert.NotEqual(t, a, MealID("2024-06-04", Dinner, 0, "r-1"))
	assert.NotEqual(t, a, MealID("2024-06-03", Lunch, 0, "r-1"))
}

func TestSortMeals(t *testing.T) {
	meals := []Meal{
		{ID: "c", Date: "2024-06-04", MealType: Breakfast},
		{ID: "b", Date: "2024-06-03", MealType: Dinner},
		{ID: "a", Date: "2024-06-03", MealType: Breakfast},
		{ID: "d", Date: "2024-06-03", MealType: Lunch},
	}

	SortMeals(meals)

	var ids []string
	for _, m := range meals {
		ids = append(ids, m.ID)
	}
	assert.Equal(t, []string{"a", "d", "b", "c"}, ids)
}

func TestPlanID_IgnoresMealOrder(t *testing.T) {
	assert.Equal(t, PlanID("2024-06-03", []string{"x", "y"}), PlanID("2024-06-03", []string{"y", "x"}))
	assert.NotEqual(t, PlanID("2024-06-03", []string{"x"}), PlanID("2024-06-10", []string{"x"}))
}

func TestWeekEnd(t *testing.T) {
	assert.Equal(t, "2024-06-09", WeekEnd("2024-06-03"))
	assert.Equal(t, "", WeekEnd("junk"))
}

func TestMealPlan_Equivalent(t *testing.T) {
	a := MealPlan{ID: "p", WeekOf: "2024-06-03", MealIDs: []string{"m1"}, Version: 3}
	b := a.Clone()
	b.Version = 7

	assert.True(t, a.Equivalent(b))

	b.Budget.Target = 100
	assert.False(t, a.Equivalent(b))

	empty := MealPlan{ID: "p", MealIDs: []string{}}
	assert.True(t, empty.Equivalent(MealPlan{ID: "p"}))
}

func TestMealPlan_MarkRegenerated(t *testing.T) {
	var p MealPlan
	p.MarkRegenerated("2024-06-05")
	p.MarkRegenerated("2024-06-04")
	p.MarkRegenerated("2024-06-05")

	assert.Equal(t, []string{"2024-06-04", "2024-06-05"}, p.RegeneratedDates)
}

func TestNewCatalogUsage(t *testing.T) {
	meals := []Meal{
		{RecipeID: "cat"}, {RecipeID: "cat"}, {RecipeID: "gen"}, {RecipeID: "missing"},
	}
	sources := map[string]bool{"cat": true, "gen": false}

	usage := NewCatalogUsage(meals, func(id string) (bool, bool) {
		catalog, ok := sources[id]
		return catalog, ok
	})

	assert.Equal(t, CatalogUsage{
		CatalogRecipes:   1,
		GeneratedRecipes: 1,
		CatalogMeals:     2,
		TotalMeals:       4,
		CatalogShare:     0.5,
	}, usage)
}

func TestHistory_PushTrims(t *testing.T) {
	var h History
	for i := 0; i < 4; i++ {
		h = h.Push(ArchivedPlan{Plan: MealPlan{ID: string(rune('a' + i))}, ArchivedAt: time.Unix(int64(i), 0)}, 3)
	}

	assert.Len(t, h, 3)
	assert.Equal(t, "b", h[0].Plan.ID)
	assert.Equal(t, "d", h[2].Plan.ID)
}
