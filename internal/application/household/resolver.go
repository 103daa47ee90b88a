// Package household partitions household members into diet groups that can
// share a recipe and serves the household's eater and schedule data.
package household

import (
	"slices"

	"go.uber.org/zap"

	"github.com/dietcompass/planner/internal/domain/household"
)

// Resolver partitions eaters into conflict-free diet groups
type Resolver struct {
	flexible []string
	logger   *zap.Logger
}

// NewResolver creates a resolver. flexibleProfiles marks profile ids as
// broadly compatible in addition to the profiles flagged in the table.
func NewResolver(flexibleProfiles []string, logger *zap.Logger) *Resolver {
	return &Resolver{
		flexible: flexibleProfiles,
		logger:   logger.Named("diet-resolver"),
	}
}

// Partition assigns strict eaters greedily, in input order, to the first
// group whose profiles do not conflict with theirs, opening a new group
// otherwise. Flexible eaters join every group; when nobody is strict they
// form one shared group.
func (r *Resolver) Partition(eaters household.Eaters, profiles household.ProfileTable) []household.DietGroup {
	var (
		groups   []household.DietGroup
		flexible []string
	)

	for _, e := range eaters {
		if r.isFlexible(e, profiles) {
			flexible = append(flexible, e.ID)
			continue
		}
		if _, known := profiles[e.DietProfileID]; !known {
			r.logger.Warn("Eater references unknown diet profile, treating as strict",
				zap.String("eater_id", e.ID),
				zap.String("profile_id", e.DietProfileID),
			)
		}

		placed := false
		for i := range groups {
			if conflictsWithGroup(profiles, groups[i].ProfileIDs, e.DietProfileID) {
				continue
			}
			groups[i].EaterIDs = append(groups[i].EaterIDs, e.ID)
			if !slices.Contains(groups[i].ProfileIDs, e.DietProfileID) {
				groups[i].ProfileIDs = append(groups[i].ProfileIDs, e.DietProfileID)
			}
			placed = true
			break
		}
		if !placed {
			groups = append(groups, household.DietGroup{
				ID:         household.GroupID(len(groups) + 1),
				ProfileIDs: []string{e.DietProfileID},
				EaterIDs:   []string{e.ID},
			})
		}
	}

	if len(groups) == 0 {
		if len(flexible) == 0 {
			return nil
		}
		return []household.DietGroup{{
			ID:         household.GroupID(1),
			ProfileIDs: []string{},
			EaterIDs:   flexible,
			Shared:     true,
		}}
	}

	for i := range groups {
		groups[i].EaterIDs = append(groups[i].EaterIDs, flexible...)
	}
	return groups
}

func (r *Resolver) isFlexible(e household.Eater, profiles household.ProfileTable) bool {
	return !e.HasProfile() || profiles.IsFlexible(e.DietProfileID, r.flexible...)
}

func conflictsWithGroup(profiles household.ProfileTable, groupProfiles []string, candidate string) bool {
	for _, p := range groupProfiles {
		if profiles.Conflicts(p, candidate) {
			return true
		}
	}
	return false
}

// NeedsMultipleRecipes reports whether one slot has to serve more than one
// recipe, which is the case iff more than one strict group exists.
func NeedsMultipleRecipes(groups []household.DietGroup) bool {
	strict := 0
	for _, g := range groups {
		if !g.Shared {
			strict++
		}
	}
	return strict > 1
}
