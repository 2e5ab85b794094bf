package ir

import (
	"fmt"
	"sort"

	"github.com/signia-dev/signia-core/internal/detsort"
	"github.com/signia-dev/signia-core/signiaerr"
)

// Validate runs the graph's referential-integrity and bounds checks, in
// order, returning the first violation as a signiaerr.Error with Kind
// IrInvalid and Detail fields "rule" and "locus" (a MaxNodes/MaxEdges bound
// violation instead has Kind PluginBoundsExceeded with Detail fields
// "bound", "observed" and "limit"). On success the Graph is ready for
// schema.Canonicalize and merkle.Build; Validate never mutates the Graph (canonicalization
// and re-sorting happen downstream, not here).
func Validate(g *Graph) error {
	if err := validateArtifact(g.Artifact); err != nil {
		return err
	}
	entityIDs, err := validateEntities(g.Entities)
	if err != nil {
		return err
	}
	if err := validateEdges(g.Edges, entityIDs); err != nil {
		return err
	}
	typeIDs, err := validateTypeIDs(g.Types)
	if err != nil {
		return err
	}
	if err := validateTypeRefs(g.Types, typeIDs); err != nil {
		return err
	}
	if err := validateConstraints(g.Constraints, entityIDs, typeIDs); err != nil {
		return err
	}
	if err := validateAttrs(g); err != nil {
		return err
	}
	if err := validateBounds(g); err != nil {
		return err
	}
	return nil
}

func irInvalid(rule, locus string) *signiaerr.Error {
	return signiaerr.New(signiaerr.IrInvalid).D("rule", rule).D("locus", locus)
}

func validateArtifact(a Artifact) error {
	switch a.Kind {
	case ArtifactRepo, ArtifactOpenAPI, ArtifactDataset, ArtifactWorkflow, ArtifactConfig, ArtifactSpec, ArtifactUnknown:
	default:
		return irInvalid("enum_member", "artifact.kind")
	}
	if a.Name == "" {
		return irInvalid("required_field", "artifact.name")
	}
	if !detsort.IsSorted(a.Labels, func(x, y string) bool { return x < y }) ||
		hasDuplicateStrings(a.Labels) {
		return irInvalid("set_unsorted_or_duplicate", "artifact.labels")
	}
	return nil
}

func hasDuplicateStrings(items []string) bool {
	seen := make(map[string]struct{}, len(items))
	for _, s := range items {
		if _, ok := seen[s]; ok {
			return true
		}
		seen[s] = struct{}{}
	}
	return false
}

func validateEntities(entities []Entity) (map[string]struct{}, error) {
	ids := make(map[string]struct{}, len(entities))
	for i, e := range entities {
		locus := fmt.Sprintf("entities[%d]", i)
		if e.ID == "" || e.Kind == "" || e.Name == "" {
			return nil, irInvalid("required_field", locus)
		}
		if !validateIDFormat(e.ID, "ent") {
			return nil, irInvalid("id_format", locus)
		}
		if _, dup := ids[e.ID]; dup {
			return nil, irInvalid("duplicate_id", locus).D("id", e.ID)
		}
		ids[e.ID] = struct{}{}
		if !detsort.IsSorted(e.Tags, func(x, y string) bool { return x < y }) || hasDuplicateStrings(e.Tags) {
			return nil, irInvalid("set_unsorted_or_duplicate", locus+".tags")
		}
	}
	return ids, nil
}

func validateEdges(edges []Edge, entityIDs map[string]struct{}) error {
	seen := make(map[string]struct{}, len(edges))
	for i, e := range edges {
		locus := fmt.Sprintf("edges[%d]", i)
		if e.ID == "" || e.Relation == "" || e.From == "" || e.To == "" {
			return irInvalid("required_field", locus)
		}
		if !validateIDFormat(e.ID, "edge") {
			return irInvalid("id_format", locus)
		}
		if _, dup := seen[e.ID]; dup {
			return irInvalid("duplicate_id", locus).D("id", e.ID)
		}
		seen[e.ID] = struct{}{}
		if _, ok := entityIDs[e.From]; !ok {
			return irInvalid("unresolved_reference", locus+".from").D("id", e.From)
		}
		if _, ok := entityIDs[e.To]; !ok {
			return irInvalid("unresolved_reference", locus+".to").D("id", e.To)
		}
	}
	return nil
}

func validateTypeIDs(types []TypeDef) (map[string]struct{}, error) {
	ids := make(map[string]struct{}, len(types))
	for i, t := range types {
		locus := fmt.Sprintf("types[%d]", i)
		if t.ID == "" || t.Name == "" {
			return nil, irInvalid("required_field", locus)
		}
		switch t.Kind {
		case TypeObject, TypeArray, TypeString, TypeNumber, TypeInteger, TypeBoolean, TypeNull, TypeEnum, TypeRef, TypeUnion:
		default:
			return nil, irInvalid("enum_member", locus+".kind")
		}
		if !validateIDFormat(t.ID, "type") {
			return nil, irInvalid("id_format", locus)
		}
		if _, dup := ids[t.ID]; dup {
			return nil, irInvalid("duplicate_id", locus).D("id", t.ID)
		}
		ids[t.ID] = struct{}{}
	}
	return ids, nil
}

func validateTypeRefs(types []TypeDef, typeIDs map[string]struct{}) error {
	for i, t := range types {
		locus := fmt.Sprintf("types[%d]", i)
		def := t.Definition
		switch t.Kind {
		case TypeObject:
			names := make([]string, 0, len(def.Properties))
			for _, p := range def.Properties {
				if p.Name == "" || p.Type == "" {
					return irInvalid("required_field", locus+".properties")
				}
				if _, ok := typeIDs[p.Type]; !ok {
					return irInvalid("unresolved_reference", locus+".properties."+p.Name)
				}
				names = append(names, p.Name)
			}
			sorted := append([]string(nil), names...)
			sort.Strings(sorted)
			for j := range names {
				if names[j] != sorted[j] {
					return irInvalid("collection_order", locus+".properties")
				}
			}
		case TypeArray:
			if def.Items == "" {
				return irInvalid("required_field", locus+".items")
			}
			if _, ok := typeIDs[def.Items]; !ok {
				return irInvalid("unresolved_reference", locus+".items")
			}
		case TypeEnum:
			if len(def.EnumValues) == 0 {
				return irInvalid("required_field", locus+".values")
			}
			if !def.EnumOrdered {
				if !detsort.IsSorted(def.EnumValues, func(x, y string) bool { return x < y }) ||
					hasDuplicateStrings(def.EnumValues) {
					return irInvalid("set_unsorted_or_duplicate", locus+".values")
				}
			} else if hasDuplicateStrings(def.EnumValues) {
				return irInvalid("set_unsorted_or_duplicate", locus+".values")
			}
		case TypeRef:
			if def.RefTarget == "" {
				return irInvalid("required_field", locus+".ref")
			}
			if _, ok := typeIDs[def.RefTarget]; !ok {
				return irInvalid("unresolved_reference", locus+".ref")
			}
		case TypeUnion:
			if len(def.UnionMembers) == 0 {
				return irInvalid("required_field", locus+".union")
			}
			for _, m := range def.UnionMembers {
				if _, ok := typeIDs[m]; !ok {
					return irInvalid("unresolved_reference", locus+".union")
				}
			}
		}
	}
	return nil
}

func validateConstraints(constraints []Constraint, entityIDs, typeIDs map[string]struct{}) error {
	seen := make(map[string]struct{}, len(constraints))
	for i, c := range constraints {
		locus := fmt.Sprintf("constraints[%d]", i)
		if c.ID == "" || c.Kind == "" {
			return irInvalid("required_field", locus)
		}
		if !validateIDFormat(c.ID, "c") {
			return irInvalid("id_format", locus)
		}
		if _, dup := seen[c.ID]; dup {
			return irInvalid("duplicate_id", locus).D("id", c.ID)
		}
		seen[c.ID] = struct{}{}
		switch c.Severity {
		case SeverityInfo, SeverityWarn, SeverityError:
		default:
			return irInvalid("enum_member", locus+".severity")
		}
		if !detsort.IsSorted(c.ScopeEntities, func(x, y string) bool { return x < y }) ||
			hasDuplicateStrings(c.ScopeEntities) {
			return irInvalid("set_unsorted_or_duplicate", locus+".scope.entities")
		}
		if !detsort.IsSorted(c.ScopeTypes, func(x, y string) bool { return x < y }) ||
			hasDuplicateStrings(c.ScopeTypes) {
			return irInvalid("set_unsorted_or_duplicate", locus+".scope.types")
		}
		for _, id := range c.ScopeEntities {
			if _, ok := entityIDs[id]; !ok {
				return irInvalid("unresolved_reference", locus+".scope.entities").D("id", id)
			}
		}
		for _, id := range c.ScopeTypes {
			if _, ok := typeIDs[id]; !ok {
				return irInvalid("unresolved_reference", locus+".scope.types").D("id", id)
			}
		}
	}
	return nil
}

func validateAttrs(g *Graph) error {
	for i, e := range g.Entities {
		if err := validateValueMap(e.Attrs, fmt.Sprintf("entities[%d].attrs", i)); err != nil {
			return err
		}
	}
	for i, e := range g.Edges {
		if err := validateValueMap(e.Attrs, fmt.Sprintf("edges[%d].attrs", i)); err != nil {
			return err
		}
	}
	for i, t := range g.Types {
		if err := validateValueMap(t.Attrs, fmt.Sprintf("types[%d].attrs", i)); err != nil {
			return err
		}
	}
	for i, c := range g.Constraints {
		if err := validateValueMap(c.Attrs, fmt.Sprintf("constraints[%d].attrs", i)); err != nil {
			return err
		}
		if err := validateValueMap(c.Predicate, fmt.Sprintf("constraints[%d].predicate", i)); err != nil {
			return err
		}
	}
	return nil
}

func validateValueMap(m map[string]Value, locus string) error {
	for k, v := range m {
		if err := validateValue(v, locus+"."+k); err != nil {
			return err
		}
	}
	return nil
}

func validateValue(v Value, locus string) error {
	switch t := v.(type) {
	case nil, bool, string, int, int64:
		return nil
	case float32, float64:
		return irInvalid("float_forbidden", locus)
	case []Value:
		for i, item := range t {
			if err := validateValue(item, fmt.Sprintf("%s[%d]", locus, i)); err != nil {
				return err
			}
		}
		return nil
	case map[string]Value:
		return validateValueMap(t, locus)
	default:
		return irInvalid("unsupported_value_shape", locus)
	}
}

func validateBounds(g *Graph) error {
	if g.MaxNodes > 0 && len(g.Entities) > g.MaxNodes {
		return signiaerr.New(signiaerr.PluginBoundsExceeded).
			D("bound", "max_nodes").
			D("observed", fmt.Sprintf("%d", len(g.Entities))).
			D("limit", fmt.Sprintf("%d", g.MaxNodes))
	}
	if g.MaxEdges > 0 && len(g.Edges) > g.MaxEdges {
		return signiaerr.New(signiaerr.PluginBoundsExceeded).
			D("bound", "max_edges").
			D("observed", fmt.Sprintf("%d", len(g.Edges))).
			D("limit", fmt.Sprintf("%d", g.MaxEdges))
	}
	return nil
}
