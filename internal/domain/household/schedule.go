package household

import (
	"strings"
	"time"
)

// DateLayout is the calendar date format used across plans
const DateLayout = "2006-01-02"

// SlotSchedule says who eats one meal slot and how many servings to cook
type SlotSchedule struct {
	Servings int      `json:"servings"`
	EaterIDs []string `json:"eaterIds"`
}

// Schedule maps a lower-case weekday name and a meal type to a slot
type Schedule map[string]map[string]SlotSchedule

// Lookup finds the slot schedule for a date and meal type
func (s Schedule) Lookup(date, mealType string) (SlotSchedule, bool) {
	weekday, err := Weekday(date)
	if err != nil {
		return SlotSchedule{}, false
	}
	slots, ok := s[weekday]
	if !ok {
		return SlotSchedule{}, false
	}
	slot, ok := slots[strings.ToLower(mealType)]
	if !ok || len(slot.EaterIDs) == 0 {
		return SlotSchedule{}, false
	}
	return slot, true
}

// Weekday returns the lower-case English weekday name of a YYYY-MM-DD date
func Weekday(date string) (string, error) {
	t, err := time.Parse(DateLayout, date)
	if err != nil {
		return "", err
	}
	return strings.ToLower(t.Weekday().String()), nil
}
