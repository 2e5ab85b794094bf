// Package schema implements SIGNIA's Canonicalizer: it transforms a
// validated IR graph into the canonical Schema document and its canonical
// bytes/hash.
package schema

import (
	"github.com/signia-dev/signia-core/canonical"
)

// SchemaVersion is the schema document version this package emits and
// understands. It never changes for v1; a v2 wire format would live in a
// sibling package, so older consumers keep decoding v1 bytes unchanged.
const SchemaVersion = "v1"

// Document is the in-memory form of schema.json. SchemaID is
// populated only after hashing — Canonicalize returns it filled in, but the
// zero-value Document (e.g. one freshly decoded from JSON before
// recomputation) legitimately has it set to whatever the file claims; the
// Verifier is responsible for treating that as a claim to recheck, not a
// truth.
type Document struct {
	SchemaVersion string
	HashDomain    string
	SchemaID      string // lowercase hex of the schema hash, "" until computed
	Root          Root
	Meta          map[string]canonical.Value // absent from hashed view in strict mode checks
}

// Root mirrors the schema document's root.{artifact,graph,types,constraints}.
type Root struct {
	Artifact    ArtifactDoc
	Graph       GraphDoc
	Types       TypesDoc
	Constraints ConstraintsDoc
}

type ArtifactDoc struct {
	Kind      string
	Name      string
	Namespace string
	Ref       string
	Labels    []string
}

type GraphDoc struct {
	Entities []EntityDoc
	Edges    []EdgeDoc
}

type EntityDoc struct {
	ID     string
	Kind   string
	Name   string
	Path   string
	Digest string
	Attrs  map[string]canonical.Value
	Tags   []string
}

type EdgeDoc struct {
	ID       string
	Relation string
	From     string
	To       string
	Attrs    map[string]canonical.Value
}

type TypesDoc struct {
	Definitions []TypeDoc
}

type TypeDoc struct {
	ID         string
	Kind       string
	Name       string
	Definition map[string]canonical.Value
	Attrs      map[string]canonical.Value
}

type ConstraintsDoc struct {
	Rules []ConstraintDoc
}

type ConstraintDoc struct {
	ID        string
	Kind      string
	ScopeEntities []string
	ScopeTypes    []string
	Predicate map[string]canonical.Value
	Severity  string
	Attrs     map[string]canonical.Value
}

// LeafKindTag enumerates the leaf ordering kind tags:
// 0=entity, 1=edge, 2=type, 3=constraint.
type LeafKindTag int

const (
	LeafEntity LeafKindTag = iota
	LeafEdge
	LeafType
	LeafConstraint
)

// Leaf is the canonical JSON projection of one entity/edge/type/constraint,
// identical to its appearance in Root's collections, used by both schema
// encoding and merkle.Build so the two never drift apart.
type Leaf struct {
	KindTag   LeafKindTag
	StableID  string // the item's own id, used for leaf ordering within a kind
	Projection canonical.Value
}
