package matcher

import (
	"context"

	"go.uber.org/zap"

	"github.com/dietcompass/planner/internal/application/scoring"
	"github.com/dietcompass/planner/internal/domain/generation"
	"github.com/dietcompass/planner/internal/domain/recipe"
	"github.com/dietcompass/planner/internal/domain/shared"
	"github.com/dietcompass/planner/pkg/errors"
)

// Scorer scores and classifies ingredients for newly minted recipes
type Scorer interface {
	Evaluate(ingredients []recipe.Ingredient) scoring.Result
	Annotate(ingredients []recipe.Ingredient) []recipe.Ingredient
}

// Resolution is the outcome of resolving one batch of references
type Resolution struct {
	// Recipes holds one record per identity, in first-seen order
	Recipes []recipe.Recipe
	// RecipeIDs is aligned with the input references
	RecipeIDs []string
	Warnings  shared.Warnings

	CatalogHits   int
	CatalogMisses int
	Minted        int
}

// Recipe returns the resolved record with the id
func (r *Resolution) Recipe(id string) (recipe.Recipe, bool) {
	for _, rec := range r.Recipes {
		if rec.ID == id {
			return rec, true
		}
	}
	return recipe.Recipe{}, false
}

// Matcher resolves recipe references against a catalog
type Matcher struct {
	catalog *Catalog
	scorer  Scorer
	logger  *zap.Logger
}

// NewMatcher creates a matcher
func NewMatcher(catalog *Catalog, scorer Scorer, logger *zap.Logger) *Matcher {
	return &Matcher{
		catalog: catalog,
		scorer:  scorer,
		logger:  logger.Named("recipe-matcher"),
	}
}

// pass holds the identity map of one Resolve call
type pass struct {
	byKey      map[string]string
	index      map[string]int
	missWarned map[string]bool
	resolution *Resolution
}

func (p *pass) register(r recipe.Recipe) string {
	key := r.Identity().String()
	if id, ok := p.byKey[key]; ok {
		return id
	}
	if _, ok := p.index[r.ID]; ok {
		p.byKey[key] = r.ID
		return r.ID
	}
	p.byKey[key] = r.ID
	p.index[r.ID] = len(p.resolution.Recipes)
	p.resolution.Recipes = append(p.resolution.Recipes, r)
	return r.ID
}

// Resolve maps every reference to a recipe id. Catalog references use the
// full catalog record when the catalog has a match and fall back to a new
// recipe otherwise; inline recipes are minted with a deterministic id. A
// reference never aborts the batch.
func (m *Matcher) Resolve(ctx context.Context, refs []generation.RecipeRef) (*Resolution, error) {
	p := &pass{
		byKey:      make(map[string]string),
		index:      make(map[string]int),
		missWarned: make(map[string]bool),
		resolution: &Resolution{RecipeIDs: make([]string, 0, len(refs))},
	}

	for _, ref := range refs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		p.resolution.RecipeIDs = append(p.resolution.RecipeIDs, m.resolveOne(p, ref))
	}

	m.logger.Debug("Resolved recipe references",
		zap.Int("refs", len(refs)),
		zap.Int("recipes", len(p.resolution.Recipes)),
		zap.Int("catalog_hits", p.resolution.CatalogHits),
		zap.Int("catalog_misses", p.resolution.CatalogMisses),
		zap.Int("minted", p.resolution.Minted),
	)
	return p.resolution, nil
}

func (m *Matcher) resolveOne(p *pass, ref generation.RecipeRef) string {
	switch r := ref.(type) {
	case generation.CatalogRef:
		if hit, ok := m.fromCatalog(p, r.Name); ok {
			return hit
		}
		m.warnMiss(p, r.Name)
		partial := r.Partial
		if partial.Name == "" {
			partial.Name = r.Name
		}
		return m.mint(p, partial)

	case generation.InlineRecipe:
		if r.MatchCatalog {
			if hit, ok := m.fromCatalog(p, r.Recipe.Name); ok {
				return hit
			}
		}
		return m.mint(p, r.Recipe)
	}
	return ""
}

func (m *Matcher) fromCatalog(p *pass, name string) (string, bool) {
	hit, ok := m.catalog.Find(name)
	if !ok {
		return "", false
	}
	p.resolution.CatalogHits++
	hit.Source = recipe.SourceCatalog
	if hit.ID == "" {
		hit.ID = recipe.MintID(hit.Identity())
	}
	return p.register(hit), true
}

func (m *Matcher) warnMiss(p *pass, name string) {
	p.resolution.CatalogMisses++
	appErr := errors.NewCatalogMatchMissError(name)
	p.resolution.Warnings = append(p.resolution.Warnings, shared.NewWarning(appErr, name))
	m.logger.Warn("Catalog reference has no match, minting new recipe",
		zap.String("name", name),
		zap.String("code", string(appErr.Code)),
	)
}

func (m *Matcher) mint(p *pass, r recipe.Recipe) string {
	r = r.Clone()
	r.Normalize()
	if r.Name == "" {
		r.Name = generation.UntitledRecipe
	}
	r.Source = recipe.SourceGenerated

	key := r.Identity()
	if id, seen := p.byKey[key.String()]; seen {
		return id
	}
	r.ID = recipe.MintID(key)

	r.Ingredients = m.scorer.Annotate(r.Ingredients)
	result := m.scorer.Evaluate(r.Ingredients)
	r.DietCompassScores = result.Scores
	for _, missing := range result.Missing {
		key := recipe.NormalizeName(missing)
		if p.missWarned[key] {
			continue
		}
		p.missWarned[key] = true
		p.resolution.Warnings = append(p.resolution.Warnings,
			shared.NewWarning(errors.NewIngredientDataMissError(missing), r.Name))
	}

	p.resolution.Minted++
	return p.register(r)
}
