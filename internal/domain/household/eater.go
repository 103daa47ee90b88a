// Package household models the people a plan is cooked for, their diet
// profiles and the weekly schedule of who eats which meal.
package household

import (
	"strings"
)

// Eater is one member of the household
type Eater struct {
	ID                 string   `json:"id"`
	Name               string   `json:"name"`
	DietProfileID      string   `json:"dietProfileId,omitempty"`
	ExcludeIngredients []string `json:"excludeIngredients,omitempty"`
	PreferIngredients  []string `json:"preferIngredients,omitempty"`
	PortionMultiplier  float64  `json:"portionMultiplier"`
}

// Portion returns the eater's portion multiplier, defaulting to one
func (e Eater) Portion() float64 {
	if e.PortionMultiplier <= 0 {
		return 1
	}
	return e.PortionMultiplier
}

// HasProfile reports whether the eater follows a diet profile
func (e Eater) HasProfile() bool {
	return strings.TrimSpace(e.DietProfileID) != ""
}

// Excludes reports whether the ingredient name contains one of the eater's
// excluded ingredients, ignoring case.
func (e Eater) Excludes(ingredient string) bool {
	name := strings.ToLower(ingredient)
	for _, ex := range e.ExcludeIngredients {
		ex = strings.ToLower(strings.TrimSpace(ex))
		if ex != "" && strings.Contains(name, ex) {
			return true
		}
	}
	return false
}

// Eaters is the household's member list in its stored order
type Eaters []Eater

// IDs returns the eater ids in order
func (es Eaters) IDs() []string {
	ids := make([]string, 0, len(es))
	for _, e := range es {
		ids = append(ids, e.ID)
	}
	return ids
}

// ByID finds an eater by id
func (es Eaters) ByID(id string) (Eater, bool) {
	for _, e := range es {
		if e.ID == id {
			return e, true
		}
	}
	return Eater{}, false
}

// ByName finds an eater by name, ignoring case and surrounding whitespace
func (es Eaters) ByName(name string) (Eater, bool) {
	name = strings.TrimSpace(name)
	for _, e := range es {
		if strings.EqualFold(strings.TrimSpace(e.Name), name) {
			return e, true
		}
	}
	return Eater{}, false
}

// Resolve finds an eater by id first, then by name
func (es Eaters) Resolve(ref string) (Eater, bool) {
	if e, ok := es.ByID(ref); ok {
		return e, true
	}
	return es.ByName(ref)
}
