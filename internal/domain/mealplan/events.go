package mealplan

import "time"

// PlanReplacedEvent is raised when a full-week plan becomes the active plan
type PlanReplacedEvent struct {
	PlanID     string
	PreviousID string
	WeekOf     string
	Meals      int
	ReplacedAt time.Time
}

func (e PlanReplacedEvent) EventName() string {
	return "mealplan.replaced"
}

func (e PlanReplacedEvent) OccurredAt() time.Time {
	return e.ReplacedAt
}

// PlanArchivedEvent is raised when the previous plan is pushed to history
type PlanArchivedEvent struct {
	PlanID     string
	ArchivedAt time.Time
}

func (e PlanArchivedEvent) EventName() string {
	return "mealplan.archived"
}

func (e PlanArchivedEvent) OccurredAt() time.Time {
	return e.ArchivedAt
}

// DayRegeneratedEvent is raised when the meals of one date are replaced
type DayRegeneratedEvent struct {
	PlanID        string
	Date          string
	Meals         int
	RegeneratedAt time.Time
}

func (e DayRegeneratedEvent) EventName() string {
	return "mealplan.day.regenerated"
}

func (e DayRegeneratedEvent) OccurredAt() time.Time {
	return e.RegeneratedAt
}

// RecipesPrunedEvent is raised when unreferenced recipes are dropped
type RecipesPrunedEvent struct {
	PlanID    string
	RecipeIDs []string
	PrunedAt  time.Time
}

func (e RecipesPrunedEvent) EventName() string {
	return "mealplan.recipes.pruned"
}

func (e RecipesPrunedEvent) OccurredAt() time.Time {
	return e.PrunedAt
}
