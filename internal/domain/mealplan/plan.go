package mealplan

import (
	"math"
	"reflect"
	"slices"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
)

// PlanIDNamespace is the UUIDv5 namespace plan ids are minted in
var PlanIDNamespace = uuid.MustParse("c3a85f21-7d0e-4b96-b1f4-58e2a9d6c017")

// Budget is the weekly grocery budget
type Budget struct {
	Target    float64 `json:"target"`
	Estimated float64 `json:"estimated"`
}

// CatalogUsage summarizes how much of the plan came from the catalog
type CatalogUsage struct {
	CatalogRecipes   int     `json:"catalogRecipes"`
	GeneratedRecipes int     `json:"generatedRecipes"`
	CatalogMeals     int     `json:"catalogMeals"`
	TotalMeals       int     `json:"totalMeals"`
	CatalogShare     float64 `json:"catalogShare"`
}

// MealPlan is the active plan of a week
type MealPlan struct {
	ID               string       `json:"id"`
	WeekOf           string       `json:"weekOf"`
	WeekEnd          string       `json:"weekEnd"`
	MealIDs          []string     `json:"mealIds"`
	Budget           Budget       `json:"budget"`
	CatalogUsage     CatalogUsage `json:"catalogUsage"`
	RegeneratedDates []string     `json:"regeneratedDates,omitempty"`
	// Version increases by one on every published change
	Version int64 `json:"version"`
}

// PlanID derives the deterministic id of a full-week plan
func PlanID(weekOf string, mealIDs []string) string {
	ids := slices.Clone(mealIDs)
	sort.Strings(ids)
	return uuid.NewSHA1(PlanIDNamespace, []byte(weekOf+"|"+strings.Join(ids, ","))).String()
}

// WeekEnd returns the date six days after weekOf, or the empty string when
// weekOf is not a date.
func WeekEnd(weekOf string) string {
	t, err := time.Parse("2006-01-02", weekOf)
	if err != nil {
		return ""
	}
	return t.AddDate(0, 0, 6).Format("2006-01-02")
}

// SyncMealIDs sets MealIDs to exactly the ids of meals, in meal order
func (p *MealPlan) SyncMealIDs(meals []Meal) {
	ids := make([]string, 0, len(meals))
	for _, m := range meals {
		ids = append(ids, m.ID)
	}
	p.MealIDs = ids
}

// MarkRegenerated records a single-day regeneration of date
func (p *MealPlan) MarkRegenerated(date string) {
	if !slices.Contains(p.RegeneratedDates, date) {
		p.RegeneratedDates = append(p.RegeneratedDates, date)
		sort.Strings(p.RegeneratedDates)
	}
}

// Equivalent reports whether two plans have the same id and content,
// ignoring the version counter.
func (p MealPlan) Equivalent(other MealPlan) bool {
	p.Version, other.Version = 0, 0
	return reflect.DeepEqual(normalizedPlan(p), normalizedPlan(other))
}

func normalizedPlan(p MealPlan) MealPlan {
	if len(p.MealIDs) == 0 {
		p.MealIDs = nil
	}
	if len(p.RegeneratedDates) == 0 {
		p.RegeneratedDates = nil
	}
	return p
}

// Clone returns a deep copy of the plan
func (p MealPlan) Clone() MealPlan {
	out := p
	out.MealIDs = slices.Clone(p.MealIDs)
	out.RegeneratedDates = slices.Clone(p.RegeneratedDates)
	return out
}

// NewCatalogUsage computes catalog usage from the final meals and the
// source of each referenced recipe.
func NewCatalogUsage(meals []Meal, fromCatalog func(recipeID string) (catalog bool, known bool)) CatalogUsage {
	var usage CatalogUsage
	seen := make(map[string]bool)
	for _, m := range meals {
		catalog, known := fromCatalog(m.RecipeID)
		usage.TotalMeals++
		if catalog {
			usage.CatalogMeals++
		}
		if !known || seen[m.RecipeID] {
			continue
		}
		seen[m.RecipeID] = true
		if catalog {
			usage.CatalogRecipes++
		} else {
			usage.GeneratedRecipes++
		}
	}
	if usage.TotalMeals > 0 {
		usage.CatalogShare = math.Round(float64(usage.CatalogMeals)/float64(usage.TotalMeals)*100) / 100
	}
	return usage
}
