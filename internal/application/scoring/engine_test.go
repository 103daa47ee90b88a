package scoring

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"go.uber.org/zap"

	"github.com/dietcompass/planner/internal/domain/recipe"
)

func testTable() *Table {
	return NewTable([]recipe.HealthEntry{
		{Name: "Spinach", HealthPoints: recipe.HealthPoints{NutrientDensity: 9, AntiAging: 8, WeightLoss: 7, HeartHealth: 8}},
		{Name: "tomato", HealthPoints: recipe.HealthPoints{NutrientDensity: 6, AntiAging: 6, WeightLoss: 5, HeartHealth: 6}},
		{Name: "berry", HealthPoints: recipe.HealthPoints{NutrientDensity: 8, AntiAging: 9, WeightLoss: 5, HeartHealth: 7}},
		{Name: "bacon", HealthPoints: recipe.HealthPoints{NutrientDensity: -2, AntiAging: -6, WeightLoss: -5, HeartHealth: -8}},
		{Name: "white rice", HealthPoints: recipe.HealthPoints{NutrientDensity: 1, AntiAging: 0, WeightLoss: -1, HeartHealth: 0}},
		{Name: "jalapeño", HealthPoints: recipe.HealthPoints{NutrientDensity: 4, AntiAging: 3, WeightLoss: 3, HeartHealth: 2}},
	})
}

type EngineTestSuite struct {
	suite.Suite
	engine *Engine
}

func (suite *EngineTestSuite) SetupTest() {
	suite.engine = NewEngine(testTable(), DefaultConfig(), zap.NewNop())
}

func (suite *EngineTestSuite) TestLookup() {
	table := testTable()
	cases := map[string]bool{
		"Fresh Chopped Spinach": true,
		"tomatoes":              true,
		"cherry tomatoes":       true,
		"mixed berries":         true,
		"JALAPENO, diced":       true,
		"2 cups white rice":     true,
		"saffron":               false,
		"":                      false,
	}
	for name, want := range cases {
		_, ok := table.Lookup(name)
		assert.Equal(suite.T(), want, ok, name)
	}
}

func (suite *EngineTestSuite) TestScore() {
	suite.Run("NoMatches_ShouldBeUnrated", func() {
		scores := suite.engine.Score([]recipe.Ingredient{{Name: "saffron"}, {Name: "mystery powder"}})
		assert.Nil(suite.T(), scores)
		assert.Nil(suite.T(), suite.engine.Score(nil))
	})

	suite.Run("SingleIngredient_ShouldScale", func() {
		scores := suite.engine.Score([]recipe.Ingredient{{Name: "spinach", Quantity: 1, Unit: "cup"}})

		require.NotNil(suite.T(), scores)
		assert.Equal(suite.T(), 90, scores.NutrientDensity)
		assert.Equal(suite.T(), 80, scores.AntiAging)
		assert.Equal(suite.T(), 70, scores.WeightLoss)
		assert.Equal(suite.T(), 80, scores.HeartHealth)
		// 0.3*90 + 0.2*80 + 0.2*70 + 0.3*80
		assert.Equal(suite.T(), 81, scores.Overall)
	})

	suite.Run("MassWeighting_ShouldFavorHeavierIngredient", func() {
		scores := suite.engine.Score([]recipe.Ingredient{
			{Name: "spinach", Quantity: 300, Unit: "grams"},
			{Name: "bacon", Quantity: 100, Unit: "g"},
			{Name: "saffron", Quantity: 1, Unit: "g"},
		})

		require.NotNil(suite.T(), scores)
		// (9*300 + -2*100) / 400 = 6.25
		assert.Equal(suite.T(), 63, scores.NutrientDensity)
		// (8*300 + -8*100) / 400 = 4
		assert.Equal(suite.T(), 40, scores.HeartHealth)
	})

	suite.Run("HarmfulOnly_ShouldClampAtZero", func() {
		scores := suite.engine.Score([]recipe.Ingredient{{Name: "bacon", Quantity: 1, Unit: "lb"}})

		require.NotNil(suite.T(), scores)
		assert.Equal(suite.T(), recipe.Scores{}, *scores)
	})

	suite.Run("Bounds_ShouldHoldForAnyMix", func() {
		ingredients := []recipe.Ingredient{
			{Name: "spinach", Quantity: 2, Unit: "kg"},
			{Name: "berries", Quantity: 12, Unit: "oz"},
			{Name: "white rice", Quantity: 0, Unit: "g"},
		}
		scores := suite.engine.Score(ingredients)

		require.NotNil(suite.T(), scores)
		for _, v := range []int{scores.Overall, scores.NutrientDensity, scores.AntiAging, scores.WeightLoss, scores.HeartHealth} {
			assert.GreaterOrEqual(suite.T(), v, 0)
			assert.LessOrEqual(suite.T(), v, 100)
		}
	})

	suite.Run("Evaluate_ShouldReportMisses", func() {
		result := suite.engine.Evaluate([]recipe.Ingredient{{Name: "tomato"}, {Name: "saffron"}})

		assert.Equal(suite.T(), []string{"tomato"}, result.Matched)
		assert.Equal(suite.T(), []string{"saffron"}, result.Missing)
	})
}

func (suite *EngineTestSuite) TestClassify() {
	assert.Equal(suite.T(), recipe.ImpactProtective, suite.engine.Classify("baby spinach"))
	assert.Equal(suite.T(), recipe.ImpactHarmful, suite.engine.Classify("Smoked Bacon"))
	assert.Equal(suite.T(), recipe.ImpactNeutral, suite.engine.Classify("white rice"))
	assert.Equal(suite.T(), recipe.ImpactNeutral, suite.engine.Classify("unobtainium"))

	annotated := suite.engine.Annotate([]recipe.Ingredient{{Name: "tomato"}, {Name: "bacon"}})
	assert.Equal(suite.T(), recipe.ImpactProtective, annotated[0].HealthImpact)
	assert.Equal(suite.T(), recipe.ImpactHarmful, annotated[1].HealthImpact)
}

func TestEngineTestSuite(t *testing.T) {
	suite.Run(t, new(EngineTestSuite))
}

func TestNormalize(t *testing.T) {
	assert.Equal(t, "spinach", Normalize("  Fresh, CHOPPED spinach!! "))
	assert.Equal(t, "creme fraiche", Normalize("Crème-Fraîche"))
	assert.Equal(t, "olive oil", Normalize("2 tbsp extra virgin olive oil"))
	assert.Equal(t, "", Normalize("1/2 cup"))
}

func TestDefaultWeightsSumToOne(t *testing.T) {
	assert.InDelta(t, 1.0, DefaultConfig().Weights.Sum(), 1e-9)
}
