package household

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProfileTable_ConflictsIsSymmetric(t *testing.T) {
	table := NewProfileTable([]DietProfile{
		{ID: "vegan", ConflictsWith: []string{"carnivore"}},
		{ID: "carnivore"},
		{ID: "keto"},
	})

	assert.True(t, table.Conflicts("vegan", "carnivore"))
	assert.True(t, table.Conflicts("carnivore", "vegan"))
	assert.False(t, table.Conflicts("vegan", "vegan"))
	assert.False(t, table.Conflicts("vegan", "keto"))
	assert.False(t, table.Conflicts("unknown", "vegan"))
}

func TestProfileTable_IsFlexible(t *testing.T) {
	table := NewProfileTable([]DietProfile{
		{ID: "kid-friendly", BroadlyCompatible: true},
		{ID: "vegan"},
	})

	assert.True(t, table.IsFlexible("kid-friendly"))
	assert.False(t, table.IsFlexible("vegan"))
	assert.True(t, table.IsFlexible("vegan", "vegan"))
	assert.False(t, table.IsFlexible("missing"))
}

func TestEaters_Resolve(t *testing.T) {
	eaters := Eaters{
		{ID: "e1", Name: "Alice"},
		{ID: "e2", Name: " Bob "},
	}

	e, ok := eaters.Resolve("bob")
	require.True(t, ok)
	assert.Equal(t, "e2", e.ID)

	e, ok = eaters.Resolve("e1")
	require.True(t, ok)
	assert.Equal(t, "Alice", e.Name)

	_, ok = eaters.Resolve("carol")
	assert.False(t, ok)
	assert.Equal(t, []string{"e1", "e2"}, eaters.IDs())
}

func TestEater_PortionAndExcludes(t *testing.T) {
	e := Eater{ExcludeIngredients: []string{"Peanut", " "}}

	assert.Equal(t, 1.0, e.Portion())
	assert.True(t, e.Excludes("roasted peanuts"))
	assert.False(t, e.Excludes("almonds"))
	assert.False(t, e.HasProfile())
}

func TestSchedule_Lookup(t *testing.T) {
	schedule := Schedule{
		"monday": {"dinner": {Servings: 3, EaterIDs: []string{"e1", "e2"}}},
		"sunday": {"lunch": {Servings: 1}},
	}

	// 2024-06-03 is a Monday
	slot, ok := schedule.Lookup("2024-06-03", "Dinner")
	require.True(t, ok)
	assert.Equal(t, 3, slot.Servings)

	_, ok = schedule.Lookup("2024-06-03", "lunch")
	assert.False(t, ok)

	_, ok = schedule.Lookup("2024-06-09", "lunch")
	assert.False(t, ok, "slot without eaters is not usable")

	_, ok = schedule.Lookup("not-a-date", "dinner")
	assert.False(t, ok)
}
