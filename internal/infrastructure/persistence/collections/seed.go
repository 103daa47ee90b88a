package collections

import (
	"context"
	"embed"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"github.com/dietcompass/planner/internal/application/scoring"
	"github.com/dietcompass/planner/internal/domain/household"
	"github.com/dietcompass/planner/internal/domain/recipe"
)

//go:embed seed/*.json
var seedFiles embed.FS

// HouseholdSeed is the demo household written for a fresh install
type HouseholdSeed struct {
	Eaters   household.Eaters   `json:"eaters"`
	Schedule household.Schedule `json:"schedule"`
}

// SeedReport lists the collections a seed run wrote
type SeedReport struct {
	Written []Collection `json:"written"`
	Skipped []Collection `json:"skipped"`
}

// Seeder loads the bundled reference data into empty collections. Stored
// collections are never overwritten.
type Seeder struct {
	repo    *Repository
	scoring scoring.Config
	logger  *zap.Logger
}

// NewSeeder creates a seeder. Catalog scores are computed with the given
// scoring configuration.
func NewSeeder(repo *Repository, config scoring.Config, logger *zap.Logger) *Seeder {
	return &Seeder{repo: repo, scoring: config, logger: logger.Named("seeder")}
}

// Seed fills the shared collections and, when householdID is not empty,
// the demo household
func (s *Seeder) Seed(ctx context.Context, householdID string) (*SeedReport, error) {
	report := &SeedReport{}

	health, err := loadSeed[[]recipe.HealthEntry]("health_table.json")
	if err != nil {
		return nil, err
	}
	stored, err := s.repo.HealthTable(ctx)
	if err != nil {
		return nil, err
	}
	if len(stored) == 0 {
		if err := s.repo.SaveHealthTable(ctx, health); err != nil {
			return nil, fmt.Errorf("failed to seed health table: %w", err)
		}
		report.Written = append(report.Written, IngredientHealthTable)
	} else {
		health = stored
		report.Skipped = append(report.Skipped, IngredientHealthTable)
	}

	profiles, err := s.repo.Profiles(ctx)
	if err != nil {
		return nil, err
	}
	if len(profiles) == 0 {
		seeded, err := loadSeed[[]household.DietProfile]("diet_profiles.json")
		if err != nil {
			return nil, err
		}
		if err := s.repo.SaveProfiles(ctx, seeded); err != nil {
			return nil, fmt.Errorf("failed to seed diet profiles: %w", err)
		}
		report.Written = append(report.Written, DietProfiles)
	} else {
		report.Skipped = append(report.Skipped, DietProfiles)
	}

	catalog, err := s.repo.Catalog(ctx)
	if err != nil {
		return nil, err
	}
	if len(catalog) == 0 {
		seeded, err := loadSeed[[]recipe.Recipe]("recipe_catalog.json")
		if err != nil {
			return nil, err
		}
		catalog = s.prepareCatalog(seeded, health)
		if err := s.repo.SaveCatalog(ctx, catalog); err != nil {
			return nil, fmt.Errorf("failed to seed catalog: %w", err)
		}
		report.Written = append(report.Written, RecipeCatalog)
	} else {
		report.Skipped = append(report.Skipped, RecipeCatalog)
	}

	index, err := s.repo.Index(ctx)
	if err != nil {
		return nil, err
	}
	if len(index) == 0 {
		if err := s.repo.SaveIndex(ctx, recipe.BuildIndex(catalog)); err != nil {
			return nil, fmt.Errorf("failed to seed catalog index: %w", err)
		}
		report.Written = append(report.Written, RecipeIndex)
	} else {
		report.Skipped = append(report.Skipped, RecipeIndex)
	}

	if householdID != "" {
		if err := s.seedHousehold(ctx, householdID, report); err != nil {
			return nil, err
		}
	}

	s.logger.Info("Seed completed",
		zap.String("household", householdID),
		zap.Int("written", len(report.Written)),
		zap.Int("skipped", len(report.Skipped)),
	)
	return report, nil
}

func (s *Seeder) seedHousehold(ctx context.Context, householdID string, report *SeedReport) error {
	seeded, err := loadSeed[HouseholdSeed]("household.json")
	if err != nil {
		return err
	}

	eaters, err := s.repo.Eaters(ctx, householdID)
	if err != nil {
		return err
	}
	if len(eaters) == 0 {
		if err := s.repo.SaveEaters(ctx, householdID, seeded.Eaters); err != nil {
			return fmt.Errorf("failed to seed eaters: %w", err)
		}
		report.Written = append(report.Written, Eaters)
	} else {
		report.Skipped = append(report.Skipped, Eaters)
	}

	schedule, err := s.repo.Schedule(ctx, householdID)
	if err != nil {
		return err
	}
	if len(schedule) == 0 {
		if err := s.repo.SaveSchedule(ctx, householdID, seeded.Schedule); err != nil {
			return fmt.Errorf("failed to seed schedule: %w", err)
		}
		report.Written = append(report.Written, MealSchedule)
	} else {
		report.Skipped = append(report.Skipped, MealSchedule)
	}
	return nil
}

// prepareCatalog normalizes the seeded recipes, assigns identity ids and
// scores them against the health table
func (s *Seeder) prepareCatalog(recipes []recipe.Recipe, health []recipe.HealthEntry) []recipe.Recipe {
	engine := scoring.NewEngine(scoring.NewTable(health), s.scoring, s.logger)
	out := make([]recipe.Recipe, 0, len(recipes))
	for _, r := range recipes {
		r.Normalize()
		r.Source = recipe.SourceCatalog
		if r.ID == "" {
			r.ID = recipe.MintID(r.Identity())
		}
		r.Ingredients = engine.Annotate(r.Ingredients)
		r.DietCompassScores = engine.Score(r.Ingredients)
		out = append(out, r)
	}
	return out
}

func loadSeed[T any](name string) (T, error) {
	var v T
	data, err := seedFiles.ReadFile("seed/" + name)
	if err != nil {
		return v, fmt.Errorf("failed to read seed %s: %w", name, err)
	}
	if err := json.Unmarshal(data, &v); err != nil {
		return v, fmt.Errorf("failed to decode seed %s: %w", name, err)
	}
	return v, nil
}
