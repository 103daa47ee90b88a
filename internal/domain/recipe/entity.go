// Package recipe contains the recipe record shared by the catalog, the
// generated plans and the household's stored collection, together with the
// structural identity used to deduplicate recipes across passes.
package recipe

import (
	"slices"
	"strings"
)

// Recipe is a stored recipe document. It is plain data: every collection
// stores it as JSON and every component passes it by value.
type Recipe struct {
	ID                string       `json:"id"`
	Name              string       `json:"name"`
	Ingredients       []Ingredient `json:"ingredients"`
	Instructions      []string     `json:"instructions"`
	PrepTime          int          `json:"prepTime"`
	CookTime          int          `json:"cookTime"`
	Servings          int          `json:"servings"`
	Tags              Tags         `json:"tags"`
	Source            Source       `json:"source"`
	DietCompassScores *Scores      `json:"dietCompassScores"`
	ParentID          string       `json:"parentId,omitempty"`
	VariationIDs      []string     `json:"variationIds,omitempty"`
	User              UserMeta     `json:"user"`
}

// UserMeta is the per-household state attached to a recipe. It survives
// plan replacement and deduplication.
type UserMeta struct {
	Favorite    bool `json:"favorite"`
	Rating      int  `json:"rating"`
	TimesCooked int  `json:"timesCooked"`
}

// Identity returns the structural identity key of the recipe
func (r Recipe) Identity() IdentityKey {
	return NewIdentityKey(r.Name, r.Ingredients)
}

// TotalTime returns prep plus cook time in minutes
func (r Recipe) TotalTime() int {
	return r.PrepTime + r.CookTime
}

// IsFavorite reports whether the household marked the recipe as a favorite
func (r Recipe) IsFavorite() bool {
	return r.User.Favorite
}

// Normalize applies defaults to a recipe received from outside the store:
// trimmed name, positive servings and normalized ingredients.
func (r *Recipe) Normalize() {
	r.Name = strings.TrimSpace(r.Name)
	if r.Servings <= 0 {
		r.Servings = 1
	}
	if r.PrepTime < 0 {
		r.PrepTime = 0
	}
	if r.CookTime < 0 {
		r.CookTime = 0
	}
	if r.Source == "" {
		r.Source = SourceGenerated
	}
	for i := range r.Ingredients {
		r.Ingredients[i].Normalize()
	}
}

// Clone returns a deep copy of the recipe
func (r Recipe) Clone() Recipe {
	out := r
	out.Ingredients = slices.Clone(r.Ingredients)
	out.Instructions = slices.Clone(r.Instructions)
	out.VariationIDs = slices.Clone(r.VariationIDs)
	out.Tags = r.Tags.Clone()
	if r.DietCompassScores != nil {
		scores := *r.DietCompassScores
		out.DietCompassScores = &scores
	}
	return out
}

// CarryUserState copies household state and variation links from an
// earlier version of the same record.
func (r *Recipe) CarryUserState(previous Recipe) {
	r.User = previous.User
	if r.ParentID == "" {
		r.ParentID = previous.ParentID
	}
	for _, id := range previous.VariationIDs {
		if !slices.Contains(r.VariationIDs, id) {
			r.VariationIDs = append(r.VariationIDs, id)
		}
	}
}

// SetFavorite marks or unmarks the recipe as a favorite
func (r *Recipe) SetFavorite(favorite bool) {
	r.User.Favorite = favorite
}

// Rate sets the household rating. Zero clears it.
func (r *Recipe) Rate(rating int) error {
	if rating < 0 || rating > 5 {
		return ErrInvalidRating
	}
	r.User.Rating = rating
	return nil
}

// MarkCooked records that the recipe was cooked once more
func (r *Recipe) MarkCooked() {
	r.User.TimesCooked++
}

// LinkVariation records child as a variation of r
func (r *Recipe) LinkVariation(child *Recipe) error {
	if child.ID == r.ID {
		return ErrSelfVariation
	}
	if r.ParentID == child.ID {
		return ErrVariationCycle
	}
	if child.ParentID != "" && child.ParentID != r.ID {
		return ErrAlreadyVariation
	}
	child.ParentID = r.ID
	if !slices.Contains(r.VariationIDs, child.ID) {
		r.VariationIDs = append(r.VariationIDs, child.ID)
	}
	return nil
}
