// Package matcher resolves generated recipe references to catalog records
// or newly minted recipes, guaranteeing one record per recipe identity.
package matcher

import (
	"strings"

	"github.com/dietcompass/planner/internal/domain/recipe"
)

// Catalog is the read-only recipe catalog in its stored order
type Catalog struct {
	recipes []recipe.Recipe
	names   []string
}

// NewCatalog indexes catalog recipes for name lookup
func NewCatalog(recipes []recipe.Recipe) *Catalog {
	c := &Catalog{
		recipes: make([]recipe.Recipe, 0, len(recipes)),
		names:   make([]string, 0, len(recipes)),
	}
	for _, r := range recipes {
		name := recipe.NormalizeName(r.Name)
		if name == "" {
			continue
		}
		c.recipes = append(c.recipes, r)
		c.names = append(c.names, name)
	}
	return c
}

// Len returns the number of searchable catalog recipes
func (c *Catalog) Len() int {
	return len(c.recipes)
}

// Find looks a recipe up by name: a case-insensitive exact match wins,
// otherwise the first catalog entry whose name contains the query or is
// contained in it.
func (c *Catalog) Find(name string) (recipe.Recipe, bool) {
	query := recipe.NormalizeName(name)
	if query == "" {
		return recipe.Recipe{}, false
	}
	for i, n := range c.names {
		if n == query {
			return c.recipes[i].Clone(), true
		}
	}
	for i, n := range c.names {
		if strings.Contains(n, query) || strings.Contains(query, n) {
			return c.recipes[i].Clone(), true
		}
	}
	return recipe.Recipe{}, false
}

// ByID returns the catalog recipe with the id
func (c *Catalog) ByID(id string) (recipe.Recipe, bool) {
	for _, r := range c.recipes {
		if r.ID == id {
			return r.Clone(), true
		}
	}
	return recipe.Recipe{}, false
}
