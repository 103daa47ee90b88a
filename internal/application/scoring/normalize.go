// Package scoring computes diet-compass scores for recipes from a table of
// per-ingredient health points.
package scoring

import (
	"strings"
	"unicode"

	"github.com/dietcompass/planner/internal/domain/recipe"
)

// preparationWords are dropped from ingredient names before lookup
var preparationWords = map[string]bool{
	"fresh": true, "frozen": true, "chopped": true, "diced": true,
	"minced": true, "sliced": true, "grated": true, "shredded": true,
	"dried": true, "raw": true, "cooked": true, "organic": true,
	"ground": true, "peeled": true, "crushed": true, "canned": true,
	"large": true, "small": true, "medium": true, "finely": true,
	"roughly": true, "thinly": true, "boneless": true, "skinless": true,
	"whole": true, "ripe": true, "lean": true, "extra": true,
	"virgin": true, "of": true, "and": true, "or": true, "to": true,
	"taste": true, "for": true, "serving": true, "optional": true,
	"about": true, "cup": true, "cups": true, "tbsp": true, "tsp": true,
}

// Normalize reduces an ingredient name to its lookup form: accents folded,
// lower-cased, punctuation and digits removed, preparation words dropped and
// whitespace collapsed.
func Normalize(name string) string {
	folded := strings.ToLower(recipe.FoldAccents(name))
	cleaned := strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsSpace(r) {
			return r
		}
		return ' '
	}, folded)

	words := strings.Fields(cleaned)
	kept := words[:0]
	for _, w := range words {
		if !preparationWords[w] {
			kept = append(kept, w)
		}
	}
	return strings.Join(kept, " ")
}

// pluralVariants returns the singular and plural spellings to try for a
// word or phrase whose last word may be inflected.
func pluralVariants(s string) []string {
	switch {
	case strings.HasSuffix(s, "ies") && len(s) > 3:
		return []string{strings.TrimSuffix(s, "ies") + "y"}
	case strings.HasSuffix(s, "oes") || strings.HasSuffix(s, "ches") || strings.HasSuffix(s, "shes") || strings.HasSuffix(s, "xes"):
		return []string{strings.TrimSuffix(s, "es"), strings.TrimSuffix(s, "s")}
	case strings.HasSuffix(s, "ss"):
		return []string{s + "es"}
	case strings.HasSuffix(s, "s"):
		return []string{strings.TrimSuffix(s, "s")}
	case strings.HasSuffix(s, "y"):
		return []string{strings.TrimSuffix(s, "y") + "ies", s + "s"}
	case strings.HasSuffix(s, "o") || strings.HasSuffix(s, "ch") || strings.HasSuffix(s, "sh"):
		return []string{s + "es", s + "s"}
	default:
		return []string{s + "s"}
	}
}
