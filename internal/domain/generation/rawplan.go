package generation

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/dietcompass/planner/internal/domain/mealplan"
	"github.com/dietcompass/planner/internal/domain/recipe"
	"github.com/dietcompass/planner/internal/domain/shared"
	apperrors "github.com/dietcompass/planner/pkg/errors"
)

var validate = validator.New()

type rawPlan struct {
	WeekOf string     `json:"weekOf" validate:"omitempty,datetime=2006-01-02"`
	Budget *rawBudget `json:"budget"`
	Days   []rawDay   `json:"days" validate:"required,min=1,dive"`
}

type rawBudget struct {
	Target    flexFloat `json:"target"`
	Estimated flexFloat `json:"estimated"`
}

type rawDay struct {
	Date      string          `json:"date" validate:"required,datetime=2006-01-02"`
	Breakfast json.RawMessage `json:"breakfast"`
	Lunch     json.RawMessage `json:"lunch"`
	Dinner    json.RawMessage `json:"dinner"`
}

func (d rawDay) slot(mealType mealplan.MealType) json.RawMessage {
	switch mealType {
	case mealplan.Breakfast:
		return d.Breakfast
	case mealplan.Lunch:
		return d.Lunch
	default:
		return d.Dinner
	}
}

type rawRecipe struct {
	FromCatalog  *bool           `json:"fromCatalog"`
	Name         string          `json:"name"`
	Title        string          `json:"title"`
	Ingredients  []rawIngredient `json:"ingredients"`
	Instructions flexStrings     `json:"instructions"`
	PrepTime     flexFloat       `json:"prepTime"`
	CookTime     flexFloat       `json:"cookTime"`
	Servings     flexFloat       `json:"servings"`
	Tags         rawTags         `json:"tags"`
	TargetEaters []string        `json:"targetEaters"`
	DietProfiles []string        `json:"dietProfiles"`
}

func (r rawRecipe) name() string {
	if name := strings.TrimSpace(r.Name); name != "" {
		return name
	}
	return strings.TrimSpace(r.Title)
}

func (r rawRecipe) toRecipe(name string) recipe.Recipe {
	ingredients := make([]recipe.Ingredient, 0, len(r.Ingredients))
	for _, ing := range r.Ingredients {
		if strings.TrimSpace(ing.Name) == "" {
			continue
		}
		ingredients = append(ingredients, recipe.Ingredient{
			Name:     ing.Name,
			Quantity: float64(ing.Quantity),
			Unit:     ing.Unit,
			Category: recipe.Category(strings.ToLower(strings.TrimSpace(ing.Category))),
		})
	}
	return recipe.Recipe{
		Name:         name,
		Ingredients:  ingredients,
		Instructions: []string(r.Instructions),
		PrepTime:     r.PrepTime.Int(),
		CookTime:     r.CookTime.Int(),
		Servings:     r.Servings.Int(),
		Tags:         recipe.Tags(r.Tags),
		Source:       recipe.SourceGenerated,
	}
}

type rawIngredient struct {
	Name     string    `json:"name"`
	Quantity flexFloat `json:"quantity"`
	Unit     string    `json:"unit"`
	Category string    `json:"category"`
}

// UnmarshalJSON accepts an ingredient object or a bare ingredient name
func (i *rawIngredient) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err == nil {
		*i = rawIngredient{Name: name}
		return nil
	}
	type plain rawIngredient
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	*i = rawIngredient(p)
	return nil
}

type rawTags recipe.Tags

// UnmarshalJSON accepts a tag object or a flat list of labels
func (t *rawTags) UnmarshalJSON(data []byte) error {
	var labels []string
	if err := json.Unmarshal(data, &labels); err == nil {
		*t = rawTags{Extra: labels}
		return nil
	}
	var tags recipe.Tags
	if err := json.Unmarshal(data, &tags); err != nil {
		return err
	}
	*t = rawTags(tags)
	return nil
}

// flexFloat decodes a JSON number, a numeric string such as "15 min", or a
// simple fraction such as "1/2". Anything else decodes as zero.
type flexFloat float64

func (f *flexFloat) UnmarshalJSON(data []byte) error {
	var n float64
	if err := json.Unmarshal(data, &n); err == nil {
		*f = flexFloat(n)
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		*f = 0
		return nil
	}
	*f = flexFloat(parseLooseNumber(s))
	return nil
}

// Int rounds the value to the nearest integer
func (f flexFloat) Int() int {
	return int(math.Round(float64(f)))
}

func parseLooseNumber(s string) float64 {
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return 0
	}
	token := fields[0]
	if num, den, ok := strings.Cut(token, "/"); ok {
		a, errA := strconv.ParseFloat(num, 64)
		b, errB := strconv.ParseFloat(den, 64)
		if errA != nil || errB != nil || b == 0 {
			return 0
		}
		return a / b
	}
	v, err := strconv.ParseFloat(token, 64)
	if err != nil {
		return 0
	}
	return v
}

// flexStrings decodes a list of strings or one newline-separated string
type flexStrings []string

func (f *flexStrings) UnmarshalJSON(data []byte) error {
	var list []string
	if err := json.Unmarshal(data, &list); err == nil {
		*f = list
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		*f = nil
		return nil
	}
	var out []string
	for _, line := range strings.Split(s, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			out = append(out, line)
		}
	}
	*f = out
	return nil
}

// Decode parses a raw generator plan. It fails with MalformedInput when the
// top-level shape is unusable; problems confined to one slot are returned
// as warnings and the slot is skipped.
func Decode(data []byte) (*Plan, shared.Warnings, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return nil, nil, apperrors.NewMalformedInputError("plan must be a JSON object")
	}

	var raw rawPlan
	if err := json.Unmarshal(trimmed, &raw); err != nil {
		return nil, nil, apperrors.NewMalformedInputError(err.Error()).WithCause(err)
	}
	if err := validate.Struct(raw); err != nil {
		return nil, nil, apperrors.NewMalformedInputError(describeValidation(err)).WithCause(err)
	}

	plan := &Plan{WeekOf: raw.WeekOf}
	if raw.Budget != nil {
		plan.Budget = &mealplan.Budget{
			Target:    float64(raw.Budget.Target),
			Estimated: float64(raw.Budget.Estimated),
		}
	}

	days := make([]rawDay, len(raw.Days))
	copy(days, raw.Days)
	sort.SliceStable(days, func(i, j int) bool { return days[i].Date < days[j].Date })

	var warnings shared.Warnings
	seenDates := make(map[string]bool)
	for _, day := range days {
		if !seenDates[day.Date] {
			seenDates[day.Date] = true
			plan.Dates = append(plan.Dates, day.Date)
		}
		for _, mealType := range mealplan.MealTypes {
			slots, ws := decodeSlot(day.slot(mealType), day.Date, mealType, len(plan.SlotsAt(day.Date, mealType)))
			plan.Slots = append(plan.Slots, slots...)
			warnings = append(warnings, ws...)
		}
	}
	if len(plan.Slots) == 0 {
		return nil, warnings, apperrors.NewMalformedInputError("plan has no usable meals")
	}
	if plan.WeekOf == "" {
		plan.WeekOf = plan.Dates[0]
	}

	return plan, warnings, nil
}

// SlotsAt returns the slots scheduled for date and meal type
func (p *Plan) SlotsAt(date string, mealType mealplan.MealType) []Slot {
	var out []Slot
	for _, s := range p.Slots {
		if s.Date == date && s.MealType == mealType {
			out = append(out, s)
		}
	}
	return out
}

func decodeSlot(raw json.RawMessage, date string, mealType mealplan.MealType, offset int) ([]Slot, shared.Warnings) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil, nil
	}

	subject := date + " " + string(mealType)
	var entries []json.RawMessage
	switch raw[0] {
	case '[':
		if err := json.Unmarshal(raw, &entries); err != nil {
			return nil, shared.Warnings{slotWarning(subject, err.Error())}
		}
	case '{':
		entries = []json.RawMessage{raw}
	default:
		return nil, shared.Warnings{slotWarning(subject, "slot must be an object or an array")}
	}

	var (
		slots    []Slot
		warnings shared.Warnings
	)
	for _, entry := range entries {
		var r rawRecipe
		if err := json.Unmarshal(entry, &r); err != nil {
			warnings = append(warnings, slotWarning(subject, err.Error()))
			continue
		}

		name := r.name()
		var ref RecipeRef
		switch {
		case name == "":
			warnings = append(warnings, slotWarning(subject, "recipe without a name"))
			ref = InlineRecipe{Recipe: r.toRecipe(UntitledRecipe)}
		case r.FromCatalog != nil && *r.FromCatalog:
			ref = CatalogRef{Name: name, Partial: r.toRecipe(name)}
		default:
			ref = InlineRecipe{Recipe: r.toRecipe(name), MatchCatalog: r.FromCatalog == nil}
		}

		slots = append(slots, Slot{
			Date:         date,
			MealType:     mealType,
			Index:        offset + len(slots),
			Ref:          ref,
			TargetEaters: r.TargetEaters,
			DietProfiles: r.DietProfiles,
			Servings:     r.Servings.Int(),
		})
	}
	return slots, warnings
}

func slotWarning(subject, message string) shared.Warning {
	return shared.Warning{Code: apperrors.CodeMalformedInput, Message: message, Subject: subject}
}

func describeValidation(err error) string {
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return err.Error()
	}
	parts := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		parts = append(parts, fmt.Sprintf("%s failed on %s", fe.Namespace(), fe.Tag()))
	}
	return strings.Join(parts, "; ")
}
