package schema

import "github.com/signia-dev/signia-core/canonical"

// entityProjection, edgeProjection, typeProjection, and constraintProjection
// produce the canonical JSON projection of one schema item — identical to
// its appearance in the Schema document — which merkle.Build hashes as
// a leaf: each leaf is the canonical JSON projection of that item, identical
// to its appearance in the Schema.

func entityProjection(e EntityDoc) canonical.Value {
	obj := canonical.Object{
		"id":   e.ID,
		"kind": e.Kind,
		"name": e.Name,
	}
	if e.Path != "" {
		obj["path"] = e.Path
	}
	if e.Digest != "" {
		obj["digest"] = e.Digest
	}
	if len(e.Attrs) > 0 {
		obj["attrs"] = canonical.Object(e.Attrs)
	}
	if len(e.Tags) > 0 {
		obj["tags"] = stringValues(e.Tags)
	}
	return obj
}

func edgeProjection(e EdgeDoc) canonical.Value {
	obj := canonical.Object{
		"id":       e.ID,
		"relation": e.Relation,
		"from":     e.From,
		"to":       e.To,
	}
	if len(e.Attrs) > 0 {
		obj["attrs"] = canonical.Object(e.Attrs)
	}
	return obj
}

func typeProjection(t TypeDoc) canonical.Value {
	obj := canonical.Object{
		"id":         t.ID,
		"kind":       t.Kind,
		"name":       t.Name,
		"definition": canonical.Object(t.Definition),
	}
	if len(t.Attrs) > 0 {
		obj["attrs"] = canonical.Object(t.Attrs)
	}
	return obj
}

func constraintProjection(c ConstraintDoc) canonical.Value {
	obj := canonical.Object{
		"id":       c.ID,
		"kind":     c.Kind,
		"severity": c.Severity,
		"scope": canonical.Object{
			"entities": stringValues(c.ScopeEntities),
			"types":    stringValues(c.ScopeTypes),
		},
	}
	if len(c.Predicate) > 0 {
		obj["predicate"] = canonical.Object(c.Predicate)
	}
	if len(c.Attrs) > 0 {
		obj["attrs"] = canonical.Object(c.Attrs)
	}
	return obj
}

func stringValues(ss []string) []canonical.Value {
	out := make([]canonical.Value, len(ss))
	for i, s := range ss {
		out[i] = s
	}
	return out
}

// documentValue assembles the hashed view of the Schema document as a
// canonical.Value tree for encoding: schema_version, hash_domain and root.
// schema_id and meta are never part of it. Canonicalize hashes these bytes
// and only then sets SchemaID; DocumentWithSchemaID adds schema_id (and
// meta) for the written file. See Result.CanonicalBytes (hashed view, no
// schema_id) vs DocumentWithSchemaID, which bundle uses to write schema.json.
func documentValue(doc *Document) (canonical.Value, error) {
	root := canonical.Object{
		"artifact": canonical.Object{
			"kind":      doc.Root.Artifact.Kind,
			"name":      doc.Root.Artifact.Name,
			"namespace": doc.Root.Artifact.Namespace,
			"ref":       doc.Root.Artifact.Ref,
			"labels":    stringValues(doc.Root.Artifact.Labels),
		},
		"graph": canonical.Object{
			"entities": entityDocsValue(doc.Root.Graph.Entities),
			"edges":    edgeDocsValue(doc.Root.Graph.Edges),
		},
		"types": canonical.Object{
			"definitions": typeDocsValue(doc.Root.Types.Definitions),
		},
		"constraints": canonical.Object{
			"rules": constraintDocsValue(doc.Root.Constraints.Rules),
		},
	}
	obj := canonical.Object{
		"schema_version": doc.SchemaVersion,
		"hash_domain":    doc.HashDomain,
		"root":           root,
	}
	return obj, nil
}

func entityDocsValue(es []EntityDoc) []canonical.Value {
	out := make([]canonical.Value, len(es))
	for i, e := range es {
		out[i] = entityProjection(e)
	}
	return out
}

func edgeDocsValue(es []EdgeDoc) []canonical.Value {
	out := make([]canonical.Value, len(es))
	for i, e := range es {
		out[i] = edgeProjection(e)
	}
	return out
}

func typeDocsValue(ts []TypeDoc) []canonical.Value {
	out := make([]canonical.Value, len(ts))
	for i, t := range ts {
		out[i] = typeProjection(t)
	}
	return out
}

func constraintDocsValue(cs []ConstraintDoc) []canonical.Value {
	out := make([]canonical.Value, len(cs))
	for i, c := range cs {
		out[i] = constraintProjection(c)
	}
	return out
}

// DocumentWithSchemaIDOmitted re-derives the hash-eligible canonical.Value
// tree (schema_version, hash_domain, root — no schema_id, no meta) directly
// from doc's own stored fields, without resorting or deduplicating
// anything. It is the "what the stored document's fields would serialize
// to, verbatim" half of the Verifier's canonical-reserialization check;
// schema.Canonicalize's output is the "what they ought to serialize to
// once properly sorted" half, and the two are compared byte-for-byte.
func DocumentWithSchemaIDOmitted(doc *Document) (canonical.Value, error) {
	return documentValue(doc)
}

// DocumentWithSchemaID re-encodes doc with schema_id present at the top
// level (beside schema_version and root), for
// writing to schema.json. The Verifier's canonical-reserialization check
// (check 3) operates on this written form: it reparses
// schema.json, strips schema_id, and re-derives canonical bytes the same
// way Canonicalize would, comparing byte-for-byte.
func DocumentWithSchemaID(doc *Document) (canonical.Value, error) {
	v, err := documentValue(doc)
	if err != nil {
		return nil, err
	}
	obj := v.(canonical.Object)
	obj["schema_id"] = doc.SchemaID
	if len(doc.Meta) > 0 {
		obj["meta"] = canonical.Object(doc.Meta)
	}
	return obj, nil
}
