package household

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"go.uber.org/zap"

	"github.com/dietcompass/planner/internal/domain/household"
)

type ResolverTestSuite struct {
	suite.Suite
	resolver *Resolver
	profiles household.ProfileTable
}

func (suite *ResolverTestSuite) SetupTest() {
	suite.resolver = NewResolver([]string{"child-friendly"}, zap.NewNop())
	suite.profiles = household.NewProfileTable([]household.DietProfile{
		{ID: "keto", ConflictsWith: []string{"vegan", "vegetarian"}},
		{ID: "vegan", ConflictsWith: []string{"carnivore"}},
		{ID: "vegetarian"},
		{ID: "carnivore", ConflictsWith: []string{"vegetarian"}},
		{ID: "paleo"},
		{ID: "mediterranean", BroadlyCompatible: true},
		{ID: "kid-friendly", BroadlyCompatible: true},
	})
}

func eater(id, profile string) household.Eater {
	return household.Eater{ID: id, Name: id, DietProfileID: profile}
}

func (suite *ResolverTestSuite) TestExamples() {
	suite.Run("KetoAndVegan_ShouldSplit", func() {
		groups := suite.resolver.Partition(household.Eaters{eater("a", "keto"), eater("b", "vegan")}, suite.profiles)

		require.Len(suite.T(), groups, 2)
		assert.Equal(suite.T(), []string{"a"}, groups[0].EaterIDs)
		assert.Equal(suite.T(), []string{"b"}, groups[1].EaterIDs)
		assert.True(suite.T(), NeedsMultipleRecipes(groups))
	})

	suite.Run("TwoMediterranean_ShouldShareOneGroup", func() {
		groups := suite.resolver.Partition(household.Eaters{eater("a", "mediterranean"), eater("b", "mediterranean")}, suite.profiles)

		require.Len(suite.T(), groups, 1)
		assert.Equal(suite.T(), []string{"a", "b"}, groups[0].EaterIDs)
		assert.True(suite.T(), groups[0].Shared)
		assert.False(suite.T(), NeedsMultipleRecipes(groups))
	})

	suite.Run("KidFriendly_ShouldJoinEveryGroup", func() {
		groups := suite.resolver.Partition(household.Eaters{eater("a", "keto"), eater("b", "vegan"), eater("c", "kid-friendly")}, suite.profiles)

		require.Len(suite.T(), groups, 2)
		assert.Equal(suite.T(), []string{"a", "c"}, groups[0].EaterIDs)
		assert.Equal(suite.T(), []string{"b", "c"}, groups[1].EaterIDs)
	})
}

func (suite *ResolverTestSuite) TestPartitionProperties() {
	suite.Run("CompatibleStrict_ShouldShare", func() {
		groups := suite.resolver.Partition(household.Eaters{eater("a", "keto"), eater("b", "paleo"), eater("c", "keto")}, suite.profiles)

		require.Len(suite.T(), groups, 1)
		assert.Equal(suite.T(), []string{"keto", "paleo"}, groups[0].ProfileIDs)
		assert.False(suite.T(), groups[0].Shared)
		assert.False(suite.T(), NeedsMultipleRecipes(groups))
	})

	suite.Run("AccumulatedConflicts_ShouldBeChecked", func() {
		// an eater joins the first group free of conflicts with every profile in it
		groups := suite.resolver.Partition(household.Eaters{
			eater("a", "keto"), eater("b", "vegan"), eater("c", "carnivore"), eater("d", "vegetarian"),
			eater("e", "vegan"), eater("f", "keto"),
		}, suite.profiles)

		require.Len(suite.T(), groups, 2)
		assert.Equal(suite.T(), []string{"a", "c", "f"}, groups[0].EaterIDs)
		assert.Equal(suite.T(), []string{"b", "d", "e"}, groups[1].EaterIDs)
		assert.Equal(suite.T(), "group-2", groups[1].ID)
		suite.assertNoInternalConflicts(groups)

		groups = suite.resolver.Partition(household.Eaters{
			eater("a", "vegan"), eater("b", "carnivore"), eater("c", "keto"),
		}, suite.profiles)

		require.Len(suite.T(), groups, 2)
		assert.Equal(suite.T(), []string{"a"}, groups[0].EaterIDs)
		assert.Equal(suite.T(), []string{"b", "c"}, groups[1].EaterIDs)
		suite.assertNoInternalConflicts(groups)
	})

	suite.Run("NoProfileAndConfiguredFlexible_ShouldBeFlexible", func() {
		groups := suite.resolver.Partition(household.Eaters{eater("a", ""), eater("b", "child-friendly"), eater("c", "keto")}, suite.profiles)

		require.Len(suite.T(), groups, 1)
		assert.Equal(suite.T(), []string{"c", "a", "b"}, groups[0].EaterIDs)
	})

	suite.Run("UnknownProfile_ShouldBeStrictWithoutConflicts", func() {
		groups := suite.resolver.Partition(household.Eaters{eater("a", "keto"), eater("b", "fruitarian")}, suite.profiles)

		require.Len(suite.T(), groups, 1)
		assert.Equal(suite.T(), []string{"keto", "fruitarian"}, groups[0].ProfileIDs)
	})

	suite.Run("Empty_ShouldYieldNoGroups", func() {
		assert.Empty(suite.T(), suite.resolver.Partition(nil, suite.profiles))
	})
}

func (suite *ResolverTestSuite) assertNoInternalConflicts(groups []household.DietGroup) {
	for _, g := range groups {
		for i, p := range g.ProfileIDs {
			for _, q := range g.ProfileIDs[i+1:] {
				assert.False(suite.T(), suite.profiles.Conflicts(p, q), "%s conflicts with %s in %s", p, q, g.ID)
			}
		}
	}
}

func TestResolverTestSuite(t *testing.T) {
	suite.Run(t, new(ResolverTestSuite))
}
