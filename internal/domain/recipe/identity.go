package recipe

import (
	"sort"
	"strconv"
	"strings"
	"unicode"

	"github.com/google/uuid"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// IDNamespace is the UUIDv5 namespace recipe ids are minted in
var IDNamespace = uuid.MustParse("6f1c2a0e-58b4-4d1e-9a57-3c2d1b0e7f41")

// IngredientKey is the identity-relevant part of an ingredient
type IngredientKey struct {
	Name string `json:"name"`
	Unit string `json:"unit"`
}

// IdentityKey is the structural identity of a recipe: normalized name plus
// the sorted multiset of normalized (ingredient, unit) pairs. Quantities are
// not part of it.
type IdentityKey struct {
	Name        string          `json:"name"`
	Ingredients []IngredientKey `json:"ingredients"`
}

// NewIdentityKey builds the identity key for a recipe name and its ingredients
func NewIdentityKey(name string, ingredients []Ingredient) IdentityKey {
	keys := make([]IngredientKey, 0, len(ingredients))
	for _, ing := range ingredients {
		keys = append(keys, IngredientKey{
			Name: NormalizeName(ing.Name),
			Unit: NormalizeUnit(ing.Unit),
		})
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].Name != keys[j].Name {
			return keys[i].Name < keys[j].Name
		}
		return keys[i].Unit < keys[j].Unit
	})
	return IdentityKey{Name: NormalizeName(name), Ingredients: keys}
}

// String returns the canonical form of the key, suitable as a map key
func (k IdentityKey) String() string {
	var b strings.Builder
	b.WriteString(strconv.Quote(k.Name))
	for _, ing := range k.Ingredients {
		b.WriteByte('|')
		b.WriteString(strconv.Quote(ing.Name))
		b.WriteByte('@')
		b.WriteString(strconv.Quote(ing.Unit))
	}
	return b.String()
}

// Equal reports whether two keys denote the same identity
func (k IdentityKey) Equal(other IdentityKey) bool {
	return k.String() == other.String()
}

// MintID derives the stable recipe id for an identity key
func MintID(key IdentityKey) string {
	return uuid.NewSHA1(IDNamespace, []byte(key.String())).String()
}

// NormalizeName folds accents and case, trims and collapses whitespace
func NormalizeName(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(FoldAccents(s))), " ")
}

// FoldAccents decomposes s and drops combining marks
func FoldAccents(s string) string {
	t := transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}

var unitAliases = map[string]string{
	"gram":        "g",
	"grams":       "g",
	"gr":          "g",
	"kilogram":    "kg",
	"kilograms":   "kg",
	"milligram":   "mg",
	"milligrams":  "mg",
	"tablespoon":  "tbsp",
	"tablespoons": "tbsp",
	"tbs":         "tbsp",
	"teaspoon":    "tsp",
	"teaspoons":   "tsp",
	"cups":        "cup",
	"ounce":       "oz",
	"ounces":      "oz",
	"pound":       "lb",
	"pounds":      "lb",
	"lbs":         "lb",
	"milliliter":  "ml",
	"milliliters": "ml",
	"millilitre":  "ml",
	"millilitres": "ml",
	"liter":       "l",
	"liters":      "l",
	"litre":       "l",
	"litres":      "l",
	"piece":       DefaultUnit,
	"pieces":      DefaultUnit,
	"pcs":         DefaultUnit,
	"pc":          DefaultUnit,
	"cloves":      "clove",
	"slices":      "slice",
	"cans":        "can",
	"pinches":     "pinch",
}

// NormalizeUnit normalizes a unit and maps common aliases to one spelling
func NormalizeUnit(s string) string {
	u := strings.TrimSuffix(NormalizeName(s), ".")
	if u == "" {
		return DefaultUnit
	}
	if alias, ok := unitAliases[u]; ok {
		return alias
	}
	return u
}
