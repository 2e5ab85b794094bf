package schema

import (
	"github.com/signia-dev/signia-core/canonical"
	"github.com/signia-dev/signia-core/hashing"
	"github.com/signia-dev/signia-core/internal/detsort"
	"github.com/signia-dev/signia-core/ir"
	"github.com/signia-dev/signia-core/signiaerr"
)

// Result bundles everything schema.Canonicalize produces: the Document, its
// canonical bytes, its hash, and the ordered Leaf set merkle.Build
// consumes directly (so the Merkle leaves are always built from exactly the
// bytes that appear in the schema).
type Result struct {
	Document      *Document
	CanonicalBytes []byte
	Hash          hashing.Digest
	Leaves        []Leaf
}

// Canonicalize transforms a validated IR graph into the canonical Schema
// document. g must already have passed ir.Validate — this
// function re-sorts collections per the total orders below but does not
// re-check referential integrity.
func Canonicalize(g *ir.Graph, alg hashing.Alg) (*Result, error) {
	entities := append([]ir.Entity(nil), g.Entities...)
	detsort.ByKey(entities, func(a, b ir.Entity) bool {
		if a.Kind != b.Kind {
			return a.Kind < b.Kind
		}
		return a.ID < b.ID
	})

	edges := append([]ir.Edge(nil), g.Edges...)
	detsort.ByKey(edges, func(a, b ir.Edge) bool {
		if a.Relation != b.Relation {
			return a.Relation < b.Relation
		}
		if a.From != b.From {
			return a.From < b.From
		}
		if a.To != b.To {
			return a.To < b.To
		}
		return a.ID < b.ID
	})

	types := append([]ir.TypeDef(nil), g.Types...)
	detsort.ByKey(types, func(a, b ir.TypeDef) bool {
		if a.Kind != b.Kind {
			return a.Kind < b.Kind
		}
		return a.ID < b.ID
	})

	constraints := append([]ir.Constraint(nil), g.Constraints...)
	detsort.ByKey(constraints, func(a, b ir.Constraint) bool {
		if a.Kind != b.Kind {
			return a.Kind < b.Kind
		}
		return a.ID < b.ID
	})

	if err := checkNoTies(entities, edges, types, constraints); err != nil {
		return nil, err
	}

	doc := &Document{
		SchemaVersion: SchemaVersion,
		HashDomain:    hashing.DomainSchema,
		Root: Root{
			Artifact: ArtifactDoc{
				Kind:      string(g.Artifact.Kind),
				Name:      g.Artifact.Name,
				Namespace: g.Artifact.Namespace,
				Ref:       g.Artifact.Ref,
				Labels:    detsort.SortedUniqueStrings(g.Artifact.Labels),
			},
		},
	}

	leaves := make([]Leaf, 0, len(entities)+len(edges)+len(types)+len(constraints))

	for _, e := range entities {
		ed := EntityDoc{
			ID:     e.ID,
			Kind:   e.Kind,
			Name:   e.Name,
			Path:   e.Path,
			Digest: e.Digest,
			Attrs:  convertValueMap(e.Attrs),
			Tags:   detsort.SortedUniqueStrings(e.Tags),
		}
		doc.Root.Graph.Entities = append(doc.Root.Graph.Entities, ed)
		leaves = append(leaves, Leaf{KindTag: LeafEntity, StableID: e.ID, Projection: entityProjection(ed)})
	}

	for _, e := range edges {
		ed := EdgeDoc{ID: e.ID, Relation: e.Relation, From: e.From, To: e.To, Attrs: convertValueMap(e.Attrs)}
		doc.Root.Graph.Edges = append(doc.Root.Graph.Edges, ed)
		leaves = append(leaves, Leaf{KindTag: LeafEdge, StableID: e.ID, Projection: edgeProjection(ed)})
	}

	for _, t := range types {
		td, err := convertTypeDoc(t)
		if err != nil {
			return nil, err
		}
		doc.Root.Types.Definitions = append(doc.Root.Types.Definitions, td)
		leaves = append(leaves, Leaf{KindTag: LeafType, StableID: t.ID, Projection: typeProjection(td)})
	}

	for _, c := range constraints {
		cd := ConstraintDoc{
			ID:            c.ID,
			Kind:          c.Kind,
			ScopeEntities: detsort.SortedUniqueStrings(c.ScopeEntities),
			ScopeTypes:    detsort.SortedUniqueStrings(c.ScopeTypes),
			Predicate:     convertValueMap(c.Predicate),
			Severity:      string(c.Severity),
			Attrs:         convertValueMap(c.Attrs),
		}
		doc.Root.Constraints.Rules = append(doc.Root.Constraints.Rules, cd)
		leaves = append(leaves, Leaf{KindTag: LeafConstraint, StableID: c.ID, Projection: constraintProjection(cd)})
	}

	detsort.ByKey(leaves, func(a, b Leaf) bool {
		if a.KindTag != b.KindTag {
			return a.KindTag < b.KindTag
		}
		return a.StableID < b.StableID
	})

	value, err := documentValue(doc)
	if err != nil {
		return nil, err
	}
	bytes, err := canonical.Encode(value)
	if err != nil {
		return nil, signiaerr.New(signiaerr.CanonicalizationFailed).Wrap(err)
	}
	digest, err := hashing.H(alg, hashing.DomainSchema, bytes)
	if err != nil {
		return nil, err
	}
	doc.SchemaID = digest.Hex()

	return &Result{Document: doc, CanonicalBytes: bytes, Hash: digest, Leaves: leaves}, nil
}

// checkNoTies verifies that the full tie-breaker chains above
// leave no ties — which they cannot, since ir.Validate already enforced id
// uniqueness within each collection, but this guards the invariant
// explicitly rather than relying on that silently.
func checkNoTies(entities []ir.Entity, edges []ir.Edge, types []ir.TypeDef, constraints []ir.Constraint) error {
	for i := 1; i < len(entities); i++ {
		if entities[i].Kind == entities[i-1].Kind && entities[i].ID == entities[i-1].ID {
			return signiaerr.New(signiaerr.IrInvalid).D("rule", "duplicate_id").D("locus", "entities")
		}
	}
	for i := 1; i < len(edges); i++ {
		a, b := edges[i-1], edges[i]
		if a.Relation == b.Relation && a.From == b.From && a.To == b.To && a.ID == b.ID {
			return signiaerr.New(signiaerr.IrInvalid).D("rule", "duplicate_id").D("locus", "edges")
		}
	}
	for i := 1; i < len(types); i++ {
		if types[i].Kind == types[i-1].Kind && types[i].ID == types[i-1].ID {
			return signiaerr.New(signiaerr.IrInvalid).D("rule", "duplicate_id").D("locus", "types")
		}
	}
	for i := 1; i < len(constraints); i++ {
		if constraints[i].Kind == constraints[i-1].Kind && constraints[i].ID == constraints[i-1].ID {
			return signiaerr.New(signiaerr.IrInvalid).D("rule", "duplicate_id").D("locus", "constraints")
		}
	}
	return nil
}

func convertValueMap(m map[string]ir.Value) map[string]canonical.Value {
	if m == nil {
		return nil
	}
	out := make(map[string]canonical.Value, len(m))
	for k, v := range m {
		out[k] = convertValue(v)
	}
	return out
}

func convertValue(v ir.Value) canonical.Value {
	switch t := v.(type) {
	case []ir.Value:
		out := make([]canonical.Value, len(t))
		for i, item := range t {
			out[i] = convertValue(item)
		}
		return out
	case map[string]ir.Value:
		return canonical.Object(convertValueMap(t))
	default:
		return t
	}
}

func convertTypeDoc(t ir.TypeDef) (TypeDoc, error) {
	def := map[string]canonical.Value{}
	switch t.Kind {
	case ir.TypeObject:
		props := append([]ir.ObjectProperty(nil), t.Definition.Properties...)
		detsort.ByKey(props, func(a, b ir.ObjectProperty) bool { return a.Name < b.Name })
		arr := make([]canonical.Value, len(props))
		for i, p := range props {
			arr[i] = canonical.Object{"name": p.Name, "type": p.Type}
		}
		def["properties"] = arr
	case ir.TypeArray:
		def["items"] = t.Definition.Items
	case ir.TypeEnum:
		values := t.Definition.EnumValues
		if !t.Definition.EnumOrdered {
			values = detsort.SortedUniqueStrings(values)
		} else {
			values = dedupPreserveOrder(values)
		}
		arr := make([]canonical.Value, len(values))
		for i, v := range values {
			arr[i] = v
		}
		def["values"] = arr
		def["ordered"] = t.Definition.EnumOrdered
	case ir.TypeRef:
		def["ref"] = t.Definition.RefTarget
	case ir.TypeUnion:
		members := append([]string(nil), t.Definition.UnionMembers...)
		detsort.Strings(members)
		arr := make([]canonical.Value, len(members))
		for i, m := range members {
			arr[i] = m
		}
		def["members"] = arr
	}
	return TypeDoc{
		ID:         t.ID,
		Kind:       string(t.Kind),
		Name:       t.Name,
		Definition: def,
		Attrs:      convertValueMap(t.Attrs),
	}, nil
}

func dedupPreserveOrder(items []string) []string {
	seen := make(map[string]struct{}, len(items))
	out := make([]string, 0, len(items))
	for _, s := range items {
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}
