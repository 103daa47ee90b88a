package recipe

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeName(t *testing.T) {
	tests := map[string]string{
		"  Crème   Brûlée ": "creme brulee",
		"JALAPEÑO":          "jalapeno",
		"Tomato\tSauce":     "tomato sauce",
		"":                  "",
	}
	for in, want := range tests {
		assert.Equal(t, want, NormalizeName(in), in)
	}
}

func TestNormalizeUnit(t *testing.T) {
	tests := map[string]string{
		"Grams":       "g",
		"gr":          "g",
		"Tablespoons": "tbsp",
		"tsp.":        "tsp",
		"":            DefaultUnit,
		"pieces":      DefaultUnit,
		"LBS":         "lb",
		"bunch":       "bunch",
	}
	for in, want := range tests {
		assert.Equal(t, want, NormalizeUnit(in), in)
	}
}

func TestIdentityKey_IgnoresOrderCaseAndQuantity(t *testing.T) {
	a := NewIdentityKey("Veggie Chili", []Ingredient{
		{Name: "Black Beans", Quantity: 400, Unit: "g"},
		{Name: "Onion", Quantity: 1, Unit: "whole"},
	})
	b := NewIdentityKey("veggie  chili", []Ingredient{
		{Name: "onion", Quantity: 2, Unit: ""},
		{Name: "black beans", Quantity: 250, Unit: "grams"},
	})

	assert.True(t, a.Equal(b))
	assert.Equal(t, MintID(a), MintID(b))
}

func TestIdentityKey_DistinguishesIngredientsAndMultiplicity(t *testing.T) {
	base := NewIdentityKey("Salad", []Ingredient{{Name: "lettuce"}})
	other := NewIdentityKey("Salad", []Ingredient{{Name: "spinach"}})
	doubled := NewIdentityKey("Salad", []Ingredient{{Name: "lettuce"}, {Name: "lettuce"}})
	otherUnit := NewIdentityKey("Salad", []Ingredient{{Name: "lettuce", Unit: "g"}})

	assert.False(t, base.Equal(other))
	assert.False(t, base.Equal(doubled))
	assert.False(t, base.Equal(otherUnit))
	assert.NotEqual(t, MintID(base), MintID(other))
}

func TestIdentityKey_CanonicalFormIsUnambiguous(t *testing.T) {
	a := NewIdentityKey("a|b", nil)
	b := NewIdentityKey("a", []Ingredient{{Name: "b"}})

	assert.NotEqual(t, a.String(), b.String())
}

func TestMintID_IsStableUUID(t *testing.T) {
	key := NewIdentityKey("Oatmeal", []Ingredient{{Name: "oats", Unit: "cup"}})

	id := MintID(key)

	assert.Len(t, id, 36)
	assert.Equal(t, id, MintID(NewIdentityKey("OATMEAL", []Ingredient{{Name: "Oats", Unit: "cups"}})))
}
