package planning

import (
	"encoding/json"
	"slices"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/dietcompass/planner/internal/domain/generation"
	"github.com/dietcompass/planner/internal/domain/mealplan"
	"github.com/dietcompass/planner/internal/domain/recipe"
	"github.com/dietcompass/planner/internal/domain/shared"
	"github.com/dietcompass/planner/pkg/errors"
)

// Incoming is the reconciled output of one generation pass
type Incoming struct {
	Plan    *generation.Plan
	Recipes []recipe.Recipe
	Meals   []mealplan.Meal
}

// MergeResult is the state to publish and what the merge did
type MergeResult struct {
	State mealplan.State
	// Mode is the mode actually applied, which differs from the requested
	// one when a single-day merge had no plan to merge into
	Mode     mealplan.MergeMode
	NoOp     bool
	Archived bool
	Pruned   []string
	Warnings shared.Warnings
	Events   []shared.DomainEvent
}

// Merger merges reconciled output into the active plan state
type Merger struct {
	clock        func() time.Time
	historyLimit int
	logger       *zap.Logger
}

// NewMerger creates a merger. clock stamps archive entries and events.
func NewMerger(clock func() time.Time, historyLimit int, logger *zap.Logger) *Merger {
	if clock == nil {
		clock = time.Now
	}
	return &Merger{
		clock:        clock,
		historyLimit: historyLimit,
		logger:       logger.Named("plan-merger"),
	}
}

// Merge computes the next state from current and incoming. It never
// modifies current.
func (m *Merger) Merge(current mealplan.State, in Incoming, mode mealplan.MergeMode, date string) MergeResult {
	current = current.Clone()
	if mode == mealplan.ModeSingleDay && current.Plan == nil {
		m.logger.Warn("No active plan to regenerate a day of, replacing the full week",
			zap.String("date", date),
		)
		mode = mealplan.ModeFullWeek
	}

	var result MergeResult
	if mode == mealplan.ModeSingleDay {
		result = m.mergeDay(current, in, date)
	} else {
		result = m.mergeWeek(current, in)
	}
	result.Mode = mode

	sortRecipes(result.State.Recipes)
	mealplan.SortMeals(result.State.Meals)
	if result.State.Plan != nil {
		result.State.Plan.SyncMealIDs(result.State.Meals)
	}
	return result
}

func (m *Merger) mergeWeek(current mealplan.State, in Incoming) MergeResult {
	now := m.clock()

	recipes := make([]recipe.Recipe, 0, len(in.Recipes))
	for _, r := range in.Recipes {
		r = r.Clone()
		if prev, ok := current.RecipeByID(r.ID); ok {
			r.CarryUserState(prev)
		}
		recipes = append(recipes, r)
	}
	for _, prev := range current.Recipes {
		if prev.IsFavorite() && !containsRecipe(recipes, prev.ID) {
			recipes = append(recipes, prev)
		}
	}
	sortRecipes(recipes)

	meals := cloneMeals(in.Meals)
	mealplan.SortMeals(meals)

	plan := mealplan.MealPlan{WeekOf: in.Plan.WeekOf, WeekEnd: mealplan.WeekEnd(in.Plan.WeekOf)}
	plan.SyncMealIDs(meals)
	plan.ID = mealplan.PlanID(plan.WeekOf, plan.MealIDs)
	switch {
	case in.Plan.Budget != nil:
		plan.Budget = *in.Plan.Budget
	case current.Plan != nil:
		plan.Budget = current.Plan.Budget
	}
	plan.CatalogUsage = catalogUsage(meals, recipes)

	if current.Plan != nil && plan.Equivalent(*current.Plan) &&
		jsonEqual(meals, current.Meals) && jsonEqual(recipes, current.Recipes) {
		m.logger.Debug("Full-week output matches the active plan", zap.String("plan_id", plan.ID))
		return MergeResult{State: current, NoOp: true}
	}

	result := MergeResult{}
	history := current.History
	previousID := ""
	if current.Plan != nil {
		previousID = current.Plan.ID
		history = history.Push(mealplan.ArchivedPlan{
			Plan:       current.Plan.Clone(),
			Meals:      current.Meals,
			Recipes:    current.Recipes,
			ArchivedAt: now,
		}, m.historyLimit)
		result.Archived = true
		result.Events = append(result.Events, mealplan.PlanArchivedEvent{PlanID: previousID, ArchivedAt: now})
	}
	plan.Version = current.Version() + 1

	result.State = mealplan.State{Recipes: recipes, Meals: meals, Plan: &plan, History: history}
	result.Events = append(result.Events, mealplan.PlanReplacedEvent{
		PlanID:     plan.ID,
		PreviousID: previousID,
		WeekOf:     plan.WeekOf,
		Meals:      len(meals),
		ReplacedAt: now,
	})

	m.logger.Info("Full-week plan replaced",
		zap.String("plan_id", plan.ID),
		zap.String("previous_id", previousID),
		zap.Int("meals", len(meals)),
		zap.Int("recipes", len(recipes)),
		zap.Bool("archived", result.Archived),
	)
	return result
}

func (m *Merger) mergeDay(current mealplan.State, in Incoming, date string) MergeResult {
	now := m.clock()
	var result MergeResult

	// Existing records by identity. A new occurrence of a known identity
	// replaces the record but keeps its id and household state.
	byKey := make(map[string]int, len(current.Recipes))
	recipes := make([]recipe.Recipe, 0, len(current.Recipes)+len(in.Recipes))
	for _, r := range current.Recipes {
		byKey[r.Identity().String()] = len(recipes)
		recipes = append(recipes, r)
	}

	repoint := make(map[string]string)
	for _, r := range in.Recipes {
		r = r.Clone()
		key := r.Identity().String()
		idx, known := byKey[key]
		if !known {
			idx = slices.IndexFunc(recipes, func(x recipe.Recipe) bool { return x.ID == r.ID })
			known = idx >= 0
		}
		if !known {
			byKey[key] = len(recipes)
			recipes = append(recipes, r)
			continue
		}
		prev := recipes[idx]
		r.CarryUserState(prev)
		if prev.ID != r.ID {
			repoint[r.ID] = prev.ID
			r.ID = prev.ID
		}
		recipes[idx] = r
		byKey[key] = idx
	}

	meals := make([]mealplan.Meal, 0, len(current.Meals)+len(in.Meals))
	for _, meal := range current.Meals {
		if meal.Date != date {
			meals = append(meals, meal)
		}
	}
	replaced := 0
	for _, meal := range in.Meals {
		if meal.Date != date {
			result.Warnings = append(result.Warnings, shared.NewWarning(
				errors.NewMealOutsideDateError(meal.Date, date), meal.Date+" "+string(meal.MealType)))
			continue
		}
		meal = meal.Clone()
		if id, ok := repoint[meal.RecipeID]; ok {
			meal.Repoint(id)
		}
		meals = append(meals, meal)
		replaced++
	}
	if ignored := len(in.Meals) - replaced; ignored > 0 {
		m.logger.Warn("Ignored meals outside the regenerated date",
			zap.String("date", date),
			zap.Int("ignored", ignored),
		)
	}

	referenced := make(map[string]bool, len(meals))
	for _, meal := range meals {
		referenced[meal.RecipeID] = true
	}
	kept := recipes[:0]
	for _, r := range recipes {
		if referenced[r.ID] || r.IsFavorite() {
			kept = append(kept, r)
			continue
		}
		result.Pruned = append(result.Pruned, r.ID)
	}
	recipes = kept
	sort.Strings(result.Pruned)
	sortRecipes(recipes)
	mealplan.SortMeals(meals)

	plan := current.Plan.Clone()
	plan.SyncMealIDs(meals)
	plan.CatalogUsage = catalogUsage(meals, recipes)
	if in.Plan != nil && in.Plan.Budget != nil {
		plan.Budget = *in.Plan.Budget
	}
	plan.MarkRegenerated(date)

	if plan.Equivalent(*current.Plan) && jsonEqual(meals, current.Meals) && jsonEqual(recipes, current.Recipes) {
		m.logger.Debug("Regenerated day matches the active plan", zap.String("date", date))
		return MergeResult{State: current, NoOp: true, Warnings: result.Warnings}
	}
	plan.Version = current.Version() + 1

	result.State = mealplan.State{Recipes: recipes, Meals: meals, Plan: &plan, History: current.History}
	result.Events = append(result.Events, mealplan.DayRegeneratedEvent{
		PlanID:        plan.ID,
		Date:          date,
		Meals:         replaced,
		RegeneratedAt: now,
	})
	if len(result.Pruned) > 0 {
		result.Events = append(result.Events, mealplan.RecipesPrunedEvent{
			PlanID:    plan.ID,
			RecipeIDs: slices.Clone(result.Pruned),
			PrunedAt:  now,
		})
	}

	m.logger.Info("Day regenerated",
		zap.String("plan_id", plan.ID),
		zap.String("date", date),
		zap.Int("meals", replaced),
		zap.Int("pruned", len(result.Pruned)),
	)
	return result
}

func catalogUsage(meals []mealplan.Meal, recipes []recipe.Recipe) mealplan.CatalogUsage {
	sources := make(map[string]recipe.Source, len(recipes))
	for _, r := range recipes {
		sources[r.ID] = r.Source
	}
	return mealplan.NewCatalogUsage(meals, func(id string) (bool, bool) {
		src, ok := sources[id]
		return src == recipe.SourceCatalog, ok
	})
}

func sortRecipes(recipes []recipe.Recipe) {
	sort.SliceStable(recipes, func(i, j int) bool { return recipes[i].ID < recipes[j].ID })
}

func containsRecipe(recipes []recipe.Recipe, id string) bool {
	return slices.ContainsFunc(recipes, func(r recipe.Recipe) bool { return r.ID == id })
}

func cloneMeals(meals []mealplan.Meal) []mealplan.Meal {
	out := make([]mealplan.Meal, len(meals))
	for i, m := range meals {
		out[i] = m.Clone()
	}
	return out
}

// jsonEqual compares two values by their stored form
func jsonEqual(a, b any) bool {
	ja, errA := json.Marshal(a)
	jb, errB := json.Marshal(b)
	return errA == nil && errB == nil && string(ja) == string(jb)
}
