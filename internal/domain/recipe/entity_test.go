package recipe

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

// RecipeTestSuite provides a test suite for the Recipe record
type RecipeTestSuite struct {
	suite.Suite
}

func sampleRecipe() Recipe {
	return Recipe{
		ID:   "r-1",
		Name: "  Lentil Soup ",
		Ingredients: []Ingredient{
			{Name: " Red Lentils", Quantity: 200, Unit: "Grams", Category: CategoryPantry},
			{Name: "Carrot", Quantity: -1, Unit: ""},
		},
		Servings: 0,
		Tags:     Tags{Diets: []string{"Vegan"}},
	}
}

func (suite *RecipeTestSuite) TestNormalize() {
	suite.Run("Defaults_ShouldBeApplied", func() {
		// Arrange
		r := sampleRecipe()

		// Act
		r.Normalize()

		// Assert
		assert.Equal(suite.T(), "Lentil Soup", r.Name)
		assert.Equal(suite.T(), 1, r.Servings)
		assert.Equal(suite.T(), SourceGenerated, r.Source)
		assert.Equal(suite.T(), "Red Lentils", r.Ingredients[0].Name)
		assert.Equal(suite.T(), "grams", r.Ingredients[0].Unit)
		assert.Equal(suite.T(), float64(0), r.Ingredients[1].Quantity)
		assert.Equal(suite.T(), DefaultUnit, r.Ingredients[1].Unit)
		assert.Equal(suite.T(), CategoryOther, r.Ingredients[1].Category)
		assert.Equal(suite.T(), ImpactNeutral, r.Ingredients[1].HealthImpact)
	})
}

func (suite *RecipeTestSuite) TestClone() {
	suite.Run("Mutations_ShouldNotLeak", func() {
		r := sampleRecipe()
		r.DietCompassScores = &Scores{Overall: 50}

		c := r.Clone()
		c.Ingredients[0].Name = "changed"
		c.Tags.Diets[0] = "changed"
		c.DietCompassScores.Overall = 10

		assert.Equal(suite.T(), " Red Lentils", r.Ingredients[0].Name)
		assert.Equal(suite.T(), "Vegan", r.Tags.Diets[0])
		assert.Equal(suite.T(), 50, r.DietCompassScores.Overall)
	})
}

func (suite *RecipeTestSuite) TestUserActions() {
	suite.Run("Rate_ShouldRejectOutOfRange", func() {
		r := sampleRecipe()

		require.NoError(suite.T(), r.Rate(4))
		assert.Equal(suite.T(), 4, r.User.Rating)
		assert.ErrorIs(suite.T(), r.Rate(6), ErrInvalidRating)
		assert.ErrorIs(suite.T(), r.Rate(-1), ErrInvalidRating)
		assert.Equal(suite.T(), 4, r.User.Rating)
	})

	suite.Run("MarkCooked_ShouldIncrement", func() {
		r := sampleRecipe()
		r.MarkCooked()
		r.MarkCooked()
		assert.Equal(suite.T(), 2, r.User.TimesCooked)
	})

	suite.Run("CarryUserState_ShouldMergeLinks", func() {
		previous := Recipe{ID: "r-1", ParentID: "p", VariationIDs: []string{"a", "b"}, User: UserMeta{Favorite: true, Rating: 5}}
		next := Recipe{ID: "r-1", VariationIDs: []string{"b", "c"}}

		next.CarryUserState(previous)

		assert.True(suite.T(), next.IsFavorite())
		assert.Equal(suite.T(), 5, next.User.Rating)
		assert.Equal(suite.T(), "p", next.ParentID)
		assert.Equal(suite.T(), []string{"b", "c", "a"}, next.VariationIDs)
	})
}

func (suite *RecipeTestSuite) TestLinkVariation() {
	suite.Run("ValidLink_ShouldSetBothSides", func() {
		parent := Recipe{ID: "p"}
		child := Recipe{ID: "c"}

		require.NoError(suite.T(), parent.LinkVariation(&child))
		require.NoError(suite.T(), parent.LinkVariation(&child))

		assert.Equal(suite.T(), "p", child.ParentID)
		assert.Equal(suite.T(), []string{"c"}, parent.VariationIDs)
	})

	suite.Run("InvalidLinks_ShouldFail", func() {
		parent := Recipe{ID: "p", ParentID: "c"}
		child := Recipe{ID: "c"}
		assert.ErrorIs(suite.T(), parent.LinkVariation(&child), ErrVariationCycle)

		self := Recipe{ID: "s"}
		assert.ErrorIs(suite.T(), self.LinkVariation(&self), ErrSelfVariation)

		other := Recipe{ID: "x", ParentID: "someone"}
		fresh := Recipe{ID: "y"}
		assert.ErrorIs(suite.T(), fresh.LinkVariation(&other), ErrAlreadyVariation)
	})
}

func (suite *RecipeTestSuite) TestIndexEntry() {
	suite.Run("Dominant_ShouldRankByEstimatedMass", func() {
		// Arrange
		r := Recipe{ID: "r-2", Name: "Chili", Ingredients: []Ingredient{
			{Name: "Cumin", Quantity: 2, Unit: "tsp"},
			{Name: "Kidney Beans", Quantity: 0.5, Unit: "kg"},
			{Name: "Onion", Quantity: 1},
			{Name: "Tomato", Quantity: 400, Unit: "g"},
			{Name: "Salt"},
		}}

		// Act
		entry := NewIndexEntry(r)

		// Assert
		assert.Equal(suite.T(), []string{"kidney beans", "tomato", "onion", "cumin", "salt"}, entry.DominantIngredients)
	})

	suite.Run("Dominant_ShouldBeCapped", func() {
		r := Recipe{ID: "r-3", Name: "Stew"}
		for i := 0; i < DominantIngredientCount+3; i++ {
			r.Ingredients = append(r.Ingredients, Ingredient{Name: string(rune('a' + i)), Quantity: 1, Unit: "g"})
		}

		entry := NewIndexEntry(r)

		assert.Len(suite.T(), entry.DominantIngredients, DominantIngredientCount)
		assert.Equal(suite.T(), "a", entry.DominantIngredients[0])
	})

	suite.Run("BuildIndex_ShouldKeepCatalogOrder", func() {
		entries := BuildIndex([]Recipe{{ID: "b", Name: "B"}, {ID: "a", Name: "A"}})

		require.Len(suite.T(), entries, 2)
		assert.Equal(suite.T(), "b", entries[0].ID)
		assert.Empty(suite.T(), entries[0].DominantIngredients)
	})
}

func TestRecipeTestSuite(t *testing.T) {
	suite.Run(t, new(RecipeTestSuite))
}
