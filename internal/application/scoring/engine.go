package scoring

import (
	"math"

	"go.uber.org/zap"

	"github.com/dietcompass/planner/internal/domain/recipe"
	"github.com/dietcompass/planner/pkg/errors"
)

// Classification thresholds on the mean of an ingredient's four points
const (
	ProtectiveThreshold = 2.0
	HarmfulThreshold    = -2.0
)

// Weights combine the four sub-scores into the overall score
type Weights struct {
	NutrientDensity float64
	AntiAging       float64
	WeightLoss      float64
	HeartHealth     float64
}

// Sum returns the total of the weights
func (w Weights) Sum() float64 {
	return w.NutrientDensity + w.AntiAging + w.WeightLoss + w.HeartHealth
}

// Config holds scoring parameters
type Config struct {
	// ScaleFactor maps the weighted point average onto the 0-100 scale
	ScaleFactor float64
	Weights     Weights
}

// DefaultConfig returns the standard diet-compass weighting
func DefaultConfig() Config {
	return Config{
		ScaleFactor: 10,
		Weights: Weights{
			NutrientDensity: 0.30,
			AntiAging:       0.20,
			WeightLoss:      0.20,
			HeartHealth:     0.30,
		},
	}
}

// Result is a score together with the lookup outcome per ingredient
type Result struct {
	Scores  *recipe.Scores
	Matched []string
	Missing []string
}

// Engine scores ingredient lists against one health table
type Engine struct {
	table  *Table
	config Config
	logger *zap.Logger
}

// NewEngine creates a scoring engine
func NewEngine(table *Table, config Config, logger *zap.Logger) *Engine {
	if config.ScaleFactor <= 0 {
		config.ScaleFactor = DefaultConfig().ScaleFactor
	}
	if config.Weights.Sum() == 0 {
		config.Weights = DefaultConfig().Weights
	}
	return &Engine{
		table:  table,
		config: config,
		logger: logger.Named("scoring-engine"),
	}
}

// Score returns the diet-compass scores of an ingredient list, or nil when
// no ingredient is in the health table.
func (e *Engine) Score(ingredients []recipe.Ingredient) *recipe.Scores {
	return e.Evaluate(ingredients).Scores
}

// Evaluate scores an ingredient list and reports which ingredients matched.
// Each matched ingredient contributes its points weighted by its mass in
// grams when the unit allows a conversion, or by one otherwise.
func (e *Engine) Evaluate(ingredients []recipe.Ingredient) Result {
	var (
		result      Result
		totalWeight float64
		sum         recipe.HealthPoints
	)

	for _, ing := range ingredients {
		points, ok := e.table.Lookup(ing.Name)
		if !ok {
			result.Missing = append(result.Missing, ing.Name)
			e.logger.Debug("No health data for ingredient",
				zap.String("ingredient", ing.Name),
				zap.String("code", string(errors.CodeIngredientDataMiss)),
			)
			continue
		}
		result.Matched = append(result.Matched, ing.Name)

		w := weight(ing)
		totalWeight += w
		sum.NutrientDensity += points.NutrientDensity * w
		sum.AntiAging += points.AntiAging * w
		sum.WeightLoss += points.WeightLoss * w
		sum.HeartHealth += points.HeartHealth * w
	}

	if len(result.Matched) == 0 || totalWeight == 0 {
		return result
	}

	scores := &recipe.Scores{
		NutrientDensity: e.subScore(sum.NutrientDensity / totalWeight),
		AntiAging:       e.subScore(sum.AntiAging / totalWeight),
		WeightLoss:      e.subScore(sum.WeightLoss / totalWeight),
		HeartHealth:     e.subScore(sum.HeartHealth / totalWeight),
	}
	w := e.config.Weights
	scores.Overall = clamp(int(math.Round(
		w.NutrientDensity*float64(scores.NutrientDensity) +
			w.AntiAging*float64(scores.AntiAging) +
			w.WeightLoss*float64(scores.WeightLoss) +
			w.HeartHealth*float64(scores.HeartHealth),
	)))
	result.Scores = scores
	return result
}

// Classify returns the health impact of one ingredient. Ingredients absent
// from the table are neutral.
func (e *Engine) Classify(name string) recipe.HealthImpact {
	points, ok := e.table.Lookup(name)
	if !ok {
		return recipe.ImpactNeutral
	}
	mean := points.Mean()
	switch {
	case mean >= ProtectiveThreshold:
		return recipe.ImpactProtective
	case mean <= HarmfulThreshold:
		return recipe.ImpactHarmful
	default:
		return recipe.ImpactNeutral
	}
}

// Annotate returns a copy of the ingredients with their health impact set
func (e *Engine) Annotate(ingredients []recipe.Ingredient) []recipe.Ingredient {
	out := make([]recipe.Ingredient, len(ingredients))
	for i, ing := range ingredients {
		ing.HealthImpact = e.Classify(ing.Name)
		out[i] = ing
	}
	return out
}

func (e *Engine) subScore(avg float64) int {
	return clamp(int(math.Round(avg * e.config.ScaleFactor)))
}

// gramsPerUnit converts mass units to grams
var gramsPerUnit = map[string]float64{
	"g":  1,
	"kg": 1000,
	"mg": 0.001,
	"oz": 28.3495,
	"lb": 453.592,
}

func weight(ing recipe.Ingredient) float64 {
	factor, ok := gramsPerUnit[recipe.NormalizeUnit(ing.Unit)]
	if !ok || ing.Quantity <= 0 {
		return 1
	}
	return ing.Quantity * factor
}

func clamp(v int) int {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
