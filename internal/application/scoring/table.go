package scoring

import (
	"strings"

	"github.com/dietcompass/planner/internal/domain/recipe"
)

// minSignificantWord is the shortest word tried in the last-word fallback
const minSignificantWord = 3

// Table is the ingredient health table keyed by normalized name
type Table struct {
	points map[string]recipe.HealthPoints
}

// NewTable builds a lookup table from health entries. Later entries win when
// two names normalize to the same key.
func NewTable(entries []recipe.HealthEntry) *Table {
	t := &Table{points: make(map[string]recipe.HealthPoints, len(entries))}
	for _, e := range entries {
		key := Normalize(e.Name)
		if key == "" {
			continue
		}
		t.points[key] = e.HealthPoints
	}
	return t
}

// Len returns the number of distinct entries
func (t *Table) Len() int {
	return len(t.points)
}

// Lookup finds the health points of an ingredient, trying in order the exact
// normalized name, its singular or plural form, then the last significant
// word with the same inflection fallback.
func (t *Table) Lookup(name string) (recipe.HealthPoints, bool) {
	key := Normalize(name)
	if key == "" {
		return recipe.HealthPoints{}, false
	}
	if p, ok := t.match(key); ok {
		return p, true
	}

	words := strings.Fields(key)
	if len(words) < 2 {
		return recipe.HealthPoints{}, false
	}
	last := words[len(words)-1]
	if len(last) < minSignificantWord {
		return recipe.HealthPoints{}, false
	}
	return t.match(last)
}

func (t *Table) match(key string) (recipe.HealthPoints, bool) {
	if p, ok := t.points[key]; ok {
		return p, true
	}
	for _, variant := range pluralVariants(key) {
		if p, ok := t.points[variant]; ok {
			return p, true
		}
	}
	return recipe.HealthPoints{}, false
}
