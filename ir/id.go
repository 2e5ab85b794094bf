package ir

import "strings"

// EntityID builds an entity id: ent:<kind>:<stable-id>.
func EntityID(kind, stableID string) string {
	return "ent:" + kind + ":" + stableID
}

// EdgeID builds an edge id: edge:<relation>:<from-id>:<to-id>:<tiebreaker>.
func EdgeID(relation, from, to, tiebreaker string) string {
	return "edge:" + relation + ":" + from + ":" + to + ":" + tiebreaker
}

// TypeID builds a type id: type:<kind>:<stable-id>.
func TypeID(kind TypeKind, stableID string) string {
	return "type:" + string(kind) + ":" + stableID
}

// ConstraintID builds a constraint id: c:<kind>:<stable-id>.
func ConstraintID(kind, stableID string) string {
	return "c:" + kind + ":" + stableID
}

// validateIDFormat checks that id has the form "<prefix>:<rest>" where rest
// is non-empty. It does not attempt to re-derive the original components —
// that would require reversing an arbitrary stable-id, which may itself
// contain colons (e.g. a path). Format validation is intentionally shallow;
// uniqueness and referential integrity are the load-bearing checks.
func validateIDFormat(id, prefix string) bool {
	p := prefix + ":"
	if !strings.HasPrefix(id, p) {
		return false
	}
	return len(id) > len(p)
}
