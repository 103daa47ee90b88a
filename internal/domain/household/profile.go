package household

import "slices"

// DietProfile is a named dietary pattern with its conflict relations
type DietProfile struct {
	ID                string   `json:"id"`
	Name              string   `json:"name"`
	Emphasize         []string `json:"emphasize,omitempty"`
	Avoid             []string `json:"avoid,omitempty"`
	CompatibleWith    []string `json:"compatibleWith,omitempty"`
	ConflictsWith     []string `json:"conflictsWith,omitempty"`
	BroadlyCompatible bool     `json:"broadlyCompatible,omitempty"`
}

// ProfileTable indexes diet profiles by id
type ProfileTable map[string]DietProfile

// NewProfileTable builds a table from a profile list
func NewProfileTable(profiles []DietProfile) ProfileTable {
	table := make(ProfileTable, len(profiles))
	for _, p := range profiles {
		table[p.ID] = p
	}
	return table
}

// Conflicts reports whether two profiles conflict. The relation is
// symmetric: a conflict declared on either side counts. A profile never
// conflicts with itself.
func (t ProfileTable) Conflicts(a, b string) bool {
	if a == b {
		return false
	}
	if p, ok := t[a]; ok && slices.Contains(p.ConflictsWith, b) {
		return true
	}
	if p, ok := t[b]; ok && slices.Contains(p.ConflictsWith, a) {
		return true
	}
	return false
}

// IsFlexible reports whether the profile is broadly compatible. Extra ids
// may mark additional profiles as flexible.
func (t ProfileTable) IsFlexible(id string, extra ...string) bool {
	if slices.Contains(extra, id) {
		return true
	}
	p, ok := t[id]
	return ok && p.BroadlyCompatible
}

// Sorted returns the profiles ordered by id
func (t ProfileTable) Sorted() []DietProfile {
	out := make([]DietProfile, 0, len(t))
	for _, p := range t {
		out = append(out, p)
	}
	slices.SortFunc(out, func(a, b DietProfile) int {
		if a.ID < b.ID {
			return -1
		}
		if a.ID > b.ID {
			return 1
		}
		return 0
	})
	return out
}
