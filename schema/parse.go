package schema

import (
	"github.com/signia-dev/signia-core/canonical"
	"github.com/signia-dev/signia-core/ir"
	"github.com/signia-dev/signia-core/signiaerr"
)

// ParseDocument decodes schema.json's raw bytes into a Document. It is
// deliberately lenient about key order (the JSON grammar doesn't care) but
// strict about shape: missing required sections fail with
// BundleInvalidSchema. This is the entry point for the Verifier's shape
// validation (the verifier's check 1) and for rebuilding the Graph that
// drives checks 3-5.
func ParseDocument(raw []byte) (*Document, error) {
	v, err := canonical.Parse(raw)
	if err != nil {
		return nil, signiaerr.New(signiaerr.BundleInvalidSchema).D("reason", "not_json").Wrap(err)
	}
	obj, ok := v.(canonical.Object)
	if !ok {
		return nil, signiaerr.New(signiaerr.BundleInvalidSchema).D("reason", "not_object")
	}

	doc := &Document{}
	doc.SchemaVersion, _ = obj["schema_version"].(string)
	doc.HashDomain, _ = obj["hash_domain"].(string)
	doc.SchemaID, _ = obj["schema_id"].(string)
	if doc.SchemaVersion == "" || doc.HashDomain == "" {
		return nil, signiaerr.New(signiaerr.BundleInvalidSchema).D("reason", "missing_version_or_domain")
	}

	rootV, ok := obj["root"].(canonical.Object)
	if !ok {
		return nil, signiaerr.New(signiaerr.BundleInvalidSchema).D("reason", "missing_root")
	}
	root, err := parseRoot(rootV)
	if err != nil {
		return nil, err
	}
	doc.Root = *root

	if m, ok := obj["meta"].(canonical.Object); ok {
		doc.Meta = map[string]canonical.Value(m)
	}

	return doc, nil
}

func parseRoot(rootV canonical.Object) (*Root, error) {
	root := &Root{}

	artV, ok := rootV["artifact"].(canonical.Object)
	if !ok {
		return nil, signiaerr.New(signiaerr.BundleInvalidSchema).D("reason", "missing_artifact")
	}
	root.Artifact = ArtifactDoc{
		Kind:      str(artV["kind"]),
		Name:      str(artV["name"]),
		Namespace: str(artV["namespace"]),
		Ref:       str(artV["ref"]),
		Labels:    strSlice(artV["labels"]),
	}

	graphV, ok := rootV["graph"].(canonical.Object)
	if !ok {
		return nil, signiaerr.New(signiaerr.BundleInvalidSchema).D("reason", "missing_graph")
	}
	for _, ev := range arr(graphV["entities"]) {
		eo, ok := ev.(canonical.Object)
		if !ok {
			return nil, signiaerr.New(signiaerr.BundleInvalidSchema).D("reason", "invalid_entity")
		}
		root.Graph.Entities = append(root.Graph.Entities, EntityDoc{
			ID:     str(eo["id"]),
			Kind:   str(eo["kind"]),
			Name:   str(eo["name"]),
			Path:   str(eo["path"]),
			Digest: str(eo["digest"]),
			Attrs:  objMap(eo["attrs"]),
			Tags:   strSlice(eo["tags"]),
		})
	}
	for _, ev := range arr(graphV["edges"]) {
		eo, ok := ev.(canonical.Object)
		if !ok {
			return nil, signiaerr.New(signiaerr.BundleInvalidSchema).D("reason", "invalid_edge")
		}
		root.Graph.Edges = append(root.Graph.Edges, EdgeDoc{
			ID:       str(eo["id"]),
			Relation: str(eo["relation"]),
			From:     str(eo["from"]),
			To:       str(eo["to"]),
			Attrs:    objMap(eo["attrs"]),
		})
	}

	if typesV, ok := rootV["types"].(canonical.Object); ok {
		for _, tv := range arr(typesV["definitions"]) {
			to, ok := tv.(canonical.Object)
			if !ok {
				return nil, signiaerr.New(signiaerr.BundleInvalidSchema).D("reason", "invalid_type")
			}
			root.Types.Definitions = append(root.Types.Definitions, TypeDoc{
				ID:         str(to["id"]),
				Kind:       str(to["kind"]),
				Name:       str(to["name"]),
				Definition: objMap(to["definition"]),
				Attrs:      objMap(to["attrs"]),
			})
		}
	}

	if consV, ok := rootV["constraints"].(canonical.Object); ok {
		for _, cv := range arr(consV["rules"]) {
			co, ok := cv.(canonical.Object)
			if !ok {
				return nil, signiaerr.New(signiaerr.BundleInvalidSchema).D("reason", "invalid_constraint")
			}
			scopeV, _ := co["scope"].(canonical.Object)
			root.Constraints.Rules = append(root.Constraints.Rules, ConstraintDoc{
				ID:            str(co["id"]),
				Kind:          str(co["kind"]),
				ScopeEntities: strSlice(scopeV["entities"]),
				ScopeTypes:    strSlice(scopeV["types"]),
				Predicate:     objMap(co["predicate"]),
				Severity:      str(co["severity"]),
				Attrs:         objMap(co["attrs"]),
			})
		}
	}

	return root, nil
}

func str(v canonical.Value) string {
	s, _ := v.(string)
	return s
}

func arr(v canonical.Value) []canonical.Value {
	a, _ := v.([]canonical.Value)
	return a
}

func strSlice(v canonical.Value) []string {
	a := arr(v)
	if a == nil {
		return nil
	}
	out := make([]string, 0, len(a))
	for _, item := range a {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

func objMap(v canonical.Value) map[string]canonical.Value {
	o, ok := v.(canonical.Object)
	if !ok {
		return nil
	}
	return map[string]canonical.Value(o)
}

// ToGraph converts a parsed Document back into an ir.Graph so Canonicalize
// can be rerun over it. This is the core of the Verifier's "recompute
// canonical bytes" check (check 3): if the stored document's
// collections were not already in the canonical sorted/deduplicated order
// (e.g. a tampered set element now sorts differently than its stored
// position implies), re-canonicalizing produces different bytes than a
// verbatim round-trip of the stored bytes would, and the mismatch surfaces
// as BundleTampered before any hash is even computed.
func (d *Document) ToGraph() *ir.Graph {
	g := &ir.Graph{
		Artifact: ir.Artifact{
			Kind:      ir.ArtifactKind(d.Root.Artifact.Kind),
			Name:      d.Root.Artifact.Name,
			Namespace: d.Root.Artifact.Namespace,
			Ref:       d.Root.Artifact.Ref,
			Labels:    d.Root.Artifact.Labels,
		},
	}
	for _, e := range d.Root.Graph.Entities {
		g.Entities = append(g.Entities, ir.Entity{
			ID: e.ID, Kind: e.Kind, Name: e.Name, Path: e.Path, Digest: e.Digest,
			Attrs: toIRValueMap(e.Attrs), Tags: e.Tags,
		})
	}
	for _, e := range d.Root.Graph.Edges {
		g.Edges = append(g.Edges, ir.Edge{ID: e.ID, Relation: e.Relation, From: e.From, To: e.To, Attrs: toIRValueMap(e.Attrs)})
	}
	for _, t := range d.Root.Types.Definitions {
		g.Types = append(g.Types, TypeDocToIR(t))
	}
	for _, c := range d.Root.Constraints.Rules {
		g.Constraints = append(g.Constraints, ir.Constraint{
			ID: c.ID, Kind: c.Kind, ScopeEntities: c.ScopeEntities, ScopeTypes: c.ScopeTypes,
			Predicate: toIRValueMap(c.Predicate), Severity: ir.Severity(c.Severity), Attrs: toIRValueMap(c.Attrs),
		})
	}
	return g
}

// TypeDocToIR reconstructs an ir.TypeDef's kind-specific Definition from the
// generic map[string]canonical.Value a parsed TypeDoc carries.
func TypeDocToIR(t TypeDoc) ir.TypeDef {
	def := ir.TypeDefinition{}
	switch ir.TypeKind(t.Kind) {
	case ir.TypeObject:
		for _, pv := range arr(t.Definition["properties"]) {
			po, _ := pv.(canonical.Object)
			def.Properties = append(def.Properties, ir.ObjectProperty{Name: str(po["name"]), Type: str(po["type"])})
		}
	case ir.TypeArray:
		def.Items = str(t.Definition["items"])
	case ir.TypeEnum:
		def.EnumValues = strSlice(t.Definition["values"])
		if b, ok := t.Definition["ordered"].(bool); ok {
			def.EnumOrdered = b
		}
	case ir.TypeRef:
		def.RefTarget = str(t.Definition["ref"])
	case ir.TypeUnion:
		def.UnionMembers = strSlice(t.Definition["members"])
	}
	return ir.TypeDef{ID: t.ID, Kind: ir.TypeKind(t.Kind), Name: t.Name, Definition: def, Attrs: toIRValueMap(t.Attrs)}
}

func toIRValueMap(m map[string]canonical.Value) map[string]ir.Value {
	if m == nil {
		return nil
	}
	out := make(map[string]ir.Value, len(m))
	for k, v := range m {
		out[k] = toIRValue(v)
	}
	return out
}

func toIRValue(v canonical.Value) ir.Value {
	switch t := v.(type) {
	case []canonical.Value:
		out := make([]ir.Value, len(t))
		for i, item := range t {
			out[i] = toIRValue(item)
		}
		return out
	case canonical.Object:
		return toIRValueMap(map[string]canonical.Value(t))
	default:
		return t
	}
}
