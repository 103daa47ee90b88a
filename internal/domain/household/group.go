package household

import "strconv"

// DietGroup is a set of eaters that can share one recipe
type DietGroup struct {
	ID string `json:"id"`
	// ProfileIDs are the strict profiles accumulated in the group, in join order
	ProfileIDs []string `json:"profileIds"`
	EaterIDs   []string `json:"eaterIds"`
	// Shared is set on the single group formed when no eater is strict
	Shared bool `json:"shared,omitempty"`
}

// GroupID returns the deterministic id of the n-th group, counting from one
func GroupID(n int) string {
	return "group-" + strconv.Itoa(n)
}
