package planning

import (
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"go.uber.org/zap"

	"github.com/dietcompass/planner/internal/domain/generation"
	"github.com/dietcompass/planner/internal/domain/mealplan"
	"github.com/dietcompass/planner/internal/domain/recipe"
	"github.com/dietcompass/planner/internal/domain/shared"
	"github.com/dietcompass/planner/pkg/errors"
	"github.com/dietcompass/planner/test/testutils"
)

const tuesday = "2024-06-04"

type MergerTestSuite struct {
	suite.Suite
	now    time.Time
	merger *Merger
	soup   recipe.Recipe
	salad  recipe.Recipe
	stew   recipe.Recipe
}

func (suite *MergerTestSuite) SetupTest() {
	suite.now = time.Date(2024, 6, 2, 18, 0, 0, 0, time.UTC)
	suite.merger = NewMerger(func() time.Time { return suite.now }, 3, zap.NewNop())
	suite.soup = testutils.NewRecipeBuilder(1).WithName("Lentil Soup").Build()
	suite.salad = testutils.NewRecipeBuilder(2).WithName("Greek Salad").AsCatalog().Build()
	suite.stew = testutils.NewRecipeBuilder(3).WithName("Bean Stew").Build()
}

func meal(date string, mealType mealplan.MealType, recipeID string) mealplan.Meal {
	m := mealplan.Meal{Date: date, MealType: mealType, EaterIDs: []string{"alex"}, Servings: 2}
	m.Repoint(recipeID)
	return m
}

func weekOutput(recipes []recipe.Recipe, meals ...mealplan.Meal) Incoming {
	return Incoming{
		Plan:    &generation.Plan{WeekOf: monday},
		Recipes: recipes,
		Meals:   meals,
	}
}

func eventNames(events []shared.DomainEvent) []string {
	names := make([]string, 0, len(events))
	for _, e := range events {
		names = append(names, e.EventName())
	}
	return names
}

// active publishes a first full-week plan with soup on monday and salad on
// tuesday
func (suite *MergerTestSuite) active() mealplan.State {
	in := weekOutput(
		[]recipe.Recipe{suite.soup, suite.salad},
		meal(monday, mealplan.Dinner, suite.soup.ID),
		meal(tuesday, mealplan.Lunch, suite.salad.ID),
	)
	in.Plan.Budget = &mealplan.Budget{Target: 120, Estimated: 95}
	result := suite.merger.Merge(mealplan.State{}, in, mealplan.ModeFullWeek, "")
	suite.Require().NotNil(result.State.Plan)
	return result.State
}

func (suite *MergerTestSuite) TestFullWeek() {
	suite.Run("EmptyState_ShouldPublishFirstPlan", func() {
		// Arrange
		in := weekOutput([]recipe.Recipe{suite.soup}, meal(monday, mealplan.Dinner, suite.soup.ID))

		// Act
		result := suite.merger.Merge(mealplan.State{}, in, mealplan.ModeFullWeek, "")

		// Assert
		suite.False(result.NoOp)
		suite.False(result.Archived)
		suite.Equal(mealplan.ModeFullWeek, result.Mode)
		plan := result.State.Plan
		suite.Require().NotNil(plan)
		suite.Equal(int64(1), plan.Version)
		suite.Equal("2024-06-09", plan.WeekEnd)
		suite.Equal([]string{result.State.Meals[0].ID}, plan.MealIDs)
		suite.Equal(mealplan.PlanID(monday, plan.MealIDs), plan.ID)
		suite.Equal([]string{"mealplan.replaced"}, eventNames(result.Events))
		suite.Empty(result.State.History)
	})

	suite.Run("SameOutputTwice_ShouldBeNoOp", func() {
		// Arrange
		current := suite.active()
		in := weekOutput(
			[]recipe.Recipe{suite.soup, suite.salad},
			meal(monday, mealplan.Dinner, suite.soup.ID),
			meal(tuesday, mealplan.Lunch, suite.salad.ID),
		)
		in.Plan.Budget = &mealplan.Budget{Target: 120, Estimated: 95}

		// Act
		result := suite.merger.Merge(current, in, mealplan.ModeFullWeek, "")

		// Assert
		suite.True(result.NoOp)
		suite.Empty(result.Events)
		suite.Equal(current, result.State)
	})

	suite.Run("NewOutput_ShouldArchiveAndBumpVersion", func() {
		// Arrange
		current := suite.active()
		in := weekOutput([]recipe.Recipe{suite.stew}, meal(monday, mealplan.Dinner, suite.stew.ID))

		// Act
		result := suite.merger.Merge(current, in, mealplan.ModeFullWeek, "")

		// Assert
		suite.True(result.Archived)
		suite.Equal(int64(2), result.State.Version())
		suite.Equal([]string{"mealplan.archived", "mealplan.replaced"}, eventNames(result.Events))
		suite.Require().Len(result.State.History, 1)
		archived := result.State.History[0]
		suite.Equal(current.Plan.ID, archived.Plan.ID)
		suite.Equal(suite.now, archived.ArchivedAt)
		suite.Len(archived.Meals, 2)
		suite.Equal([]recipe.Recipe{suite.stew}, result.State.Recipes)
		suite.Len(current.Meals, 2, "current state is not modified")
	})

	suite.Run("Favorites_ShouldOutliveReplacement", func() {
		// Arrange
		current := suite.active()
		current.Recipes[0].SetFavorite(true)
		favoriteID := current.Recipes[0].ID
		in := weekOutput([]recipe.Recipe{suite.stew}, meal(monday, mealplan.Dinner, suite.stew.ID))

		// Act
		result := suite.merger.Merge(current, in, mealplan.ModeFullWeek, "")

		// Assert
		kept, ok := result.State.RecipeByID(favoriteID)
		suite.Require().True(ok)
		suite.True(kept.IsFavorite())
		suite.Len(result.State.Recipes, 2)
	})

	suite.Run("KnownRecipe_ShouldCarryUserState", func() {
		current := suite.active()
		for i := range current.Recipes {
			if current.Recipes[i].ID == suite.soup.ID {
				suite.Require().NoError(current.Recipes[i].Rate(4))
			}
		}
		in := weekOutput([]recipe.Recipe{suite.soup}, meal(tuesday, mealplan.Dinner, suite.soup.ID))

		result := suite.merger.Merge(current, in, mealplan.ModeFullWeek, "")

		soup, ok := result.State.RecipeByID(suite.soup.ID)
		suite.Require().True(ok)
		suite.Equal(4, soup.User.Rating)
	})

	suite.Run("MissingBudget_ShouldKeepPreviousBudget", func() {
		current := suite.active()
		in := weekOutput([]recipe.Recipe{suite.stew}, meal(monday, mealplan.Dinner, suite.stew.ID))

		result := suite.merger.Merge(current, in, mealplan.ModeFullWeek, "")

		suite.Equal(mealplan.Budget{Target: 120, Estimated: 95}, result.State.Plan.Budget)
	})

	suite.Run("CatalogUsage_ShouldCountSources", func() {
		state := suite.active()

		usage := state.Plan.CatalogUsage

		suite.Equal(1, usage.CatalogRecipes)
		suite.Equal(1, usage.GeneratedRecipes)
		suite.Equal(2, usage.TotalMeals)
		suite.Equal(0.5, usage.CatalogShare)
	})
}

func (suite *MergerTestSuite) TestHistoryLimit() {
	// Arrange
	state := suite.active()
	outputs := []recipe.Recipe{
		suite.stew,
		testutils.NewRecipeBuilder(4).Build(),
		testutils.NewRecipeBuilder(5).Build(),
		testutils.NewRecipeBuilder(6).Build(),
	}

	// Act
	var archivedIDs []string
	for _, r := range outputs {
		archivedIDs = append(archivedIDs, state.Plan.ID)
		result := suite.merger.Merge(state, weekOutput([]recipe.Recipe{r}, meal(monday, mealplan.Dinner, r.ID)), mealplan.ModeFullWeek, "")
		suite.Require().False(result.NoOp)
		state = result.State
	}

	// Assert
	suite.Require().Len(state.History, 3)
	suite.Equal(archivedIDs[1], state.History[0].Plan.ID, "the oldest snapshot is dropped")
	suite.Equal(archivedIDs[3], state.History[2].Plan.ID)
	suite.Equal(int64(5), state.Version())
}

func (suite *MergerTestSuite) TestSingleDay() {
	suite.Run("NoActivePlan_ShouldDegradeToFullWeek", func() {
		in := weekOutput([]recipe.Recipe{suite.stew}, meal(tuesday, mealplan.Dinner, suite.stew.ID))

		result := suite.merger.Merge(mealplan.State{}, in, mealplan.ModeSingleDay, tuesday)

		suite.Equal(mealplan.ModeFullWeek, result.Mode)
		suite.Require().NotNil(result.State.Plan)
		suite.Empty(result.State.Plan.RegeneratedDates)
	})

	suite.Run("OtherDates_ShouldBeUntouched", func() {
		// Arrange
		current := suite.active()
		in := weekOutput([]recipe.Recipe{suite.stew}, meal(tuesday, mealplan.Dinner, suite.stew.ID))

		// Act
		result := suite.merger.Merge(current, in, mealplan.ModeSingleDay, tuesday)

		// Assert
		suite.Equal(mealplan.ModeSingleDay, result.Mode)
		suite.False(result.Archived)
		suite.Require().Len(result.State.Meals, 2)
		suite.Equal(current.Meals[0], result.State.Meals[0])
		suite.Equal(suite.stew.ID, result.State.Meals[1].RecipeID)

		plan := result.State.Plan
		suite.Equal(current.Plan.ID, plan.ID)
		suite.Equal(int64(2), plan.Version)
		suite.Equal([]string{tuesday}, plan.RegeneratedDates)
		suite.Equal(current.Plan.Budget, plan.Budget)
		suite.Equal(current.History, result.State.History)
	})

	suite.Run("UnreferencedRecipes_ShouldBePruned", func() {
		current := suite.active()
		in := weekOutput([]recipe.Recipe{suite.stew}, meal(tuesday, mealplan.Dinner, suite.stew.ID))

		result := suite.merger.Merge(current, in, mealplan.ModeSingleDay, tuesday)

		suite.Equal([]string{suite.salad.ID}, result.Pruned)
		_, ok := result.State.RecipeByID(suite.salad.ID)
		suite.False(ok)
		_, ok = result.State.RecipeByID(suite.soup.ID)
		suite.True(ok, "recipes of other dates stay")
		suite.Equal([]string{"mealplan.day.regenerated", "mealplan.recipes.pruned"}, eventNames(result.Events))
	})

	suite.Run("FavoriteRecipes_ShouldNotBePruned", func() {
		current := suite.active()
		for i := range current.Recipes {
			if current.Recipes[i].ID == suite.salad.ID {
				current.Recipes[i].SetFavorite(true)
			}
		}
		in := weekOutput([]recipe.Recipe{suite.stew}, meal(tuesday, mealplan.Dinner, suite.stew.ID))

		result := suite.merger.Merge(current, in, mealplan.ModeSingleDay, tuesday)

		suite.Empty(result.Pruned)
		suite.Equal([]string{"mealplan.day.regenerated"}, eventNames(result.Events))
	})

	suite.Run("KnownIdentity_ShouldKeepStoredID", func() {
		// Arrange
		stored := testutils.NewRecipeBuilder(3).WithName("Bean Stew").WithID("stew-original").Build()
		suite.Require().NoError(stored.Rate(5))
		current := suite.active()
		current.Recipes = append(current.Recipes, stored)
		in := weekOutput([]recipe.Recipe{suite.stew}, meal(tuesday, mealplan.Dinner, suite.stew.ID))

		// Act
		result := suite.merger.Merge(current, in, mealplan.ModeSingleDay, tuesday)

		// Assert
		_, minted := result.State.RecipeByID(suite.stew.ID)
		suite.False(minted)
		kept, ok := result.State.RecipeByID("stew-original")
		suite.Require().True(ok)
		suite.Equal(5, kept.User.Rating)

		tuesdayMeal := result.State.Meals[1]
		suite.Equal("stew-original", tuesdayMeal.RecipeID)
		suite.Equal(mealplan.MealID(tuesday, mealplan.Dinner, 0, "stew-original"), tuesdayMeal.ID)
		suite.Contains(result.State.Plan.MealIDs, tuesdayMeal.ID)
	})

	suite.Run("MealOnAnotherDate_ShouldWarnAndBeIgnored", func() {
		current := suite.active()
		in := weekOutput(
			[]recipe.Recipe{suite.stew},
			meal(tuesday, mealplan.Dinner, suite.stew.ID),
			meal(monday, mealplan.Lunch, suite.stew.ID),
		)

		result := suite.merger.Merge(current, in, mealplan.ModeSingleDay, tuesday)

		suite.Equal(1, result.Warnings.Count(errors.CodeMealOutsideDate))
		suite.Len(result.State.Meals, 2)
		for _, m := range result.State.Meals {
			if m.Date == monday {
				suite.Equal(suite.soup.ID, m.RecipeID)
			}
		}
	})

	suite.Run("RepeatedDay_ShouldBeNoOp", func() {
		// Arrange
		current := suite.active()
		in := weekOutput([]recipe.Recipe{suite.stew}, meal(tuesday, mealplan.Dinner, suite.stew.ID))
		first := suite.merger.Merge(current, in, mealplan.ModeSingleDay, tuesday)

		// Act
		second := suite.merger.Merge(first.State, in, mealplan.ModeSingleDay, tuesday)

		// Assert
		suite.True(second.NoOp)
		suite.Equal(first.State, second.State)
		suite.Empty(second.Events)
	})
}

func TestMergerTestSuite(t *testing.T) {
	suite.Run(t, new(MergerTestSuite))
}
