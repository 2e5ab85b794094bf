// Package ir defines the Intermediate Representation — the typed
// entity/edge/type/constraint graph a plugin produces — and validates it.
//
// The IR is an arena plus opaque string ids: there are no pointer graphs
// here, only ids that Validate resolves explicitly (a deliberate choice for
// graphs that may contain cycles). Iteration order within a Graph is
// irrelevant — schema.Canonicalize re-sorts everything — but ids must be
// stable across runs of the same plugin on the same input.
package ir

// ArtifactKind enumerates the artifact kinds recognized for the top-level
// artifact descriptor; entities themselves carry a free-form Kind
// string (e.g. "module", "endpoint", "dataset-column") scoped by the
// plugin, not restricted to this enum.
type ArtifactKind string

const (
	ArtifactRepo    ArtifactKind = "repo"
	ArtifactOpenAPI ArtifactKind = "openapi"
	ArtifactDataset ArtifactKind = "dataset"
	ArtifactWorkflow ArtifactKind = "workflow"
	ArtifactConfig   ArtifactKind = "config"
	ArtifactSpec     ArtifactKind = "spec"
	ArtifactUnknown  ArtifactKind = "unknown"
)

// Artifact describes the compiled input.
type Artifact struct {
	Kind      ArtifactKind
	Name      string
	Namespace string
	Ref       string
	Labels    []string
}

// Entity is a node in the IR graph. Id must match `ent:<kind>:<stable-id>`.
type Entity struct {
	ID     string
	Kind   string
	Name   string
	Path   string // empty means absent
	Digest string // hex digest of content bytes, empty means absent
	Attrs  map[string]Value
	Tags   []string
}

// Edge connects two entities. Id must match
// `edge:<relation>:<from-id>:<to-id>:<tiebreaker>`.
type Edge struct {
	ID       string
	Relation string
	From     string
	To       string
	Attrs    map[string]Value
}

// TypeKind enumerates the recognized type-definition kinds.
type TypeKind string

const (
	TypeObject  TypeKind = "object"
	TypeArray   TypeKind = "array"
	TypeString  TypeKind = "string"
	TypeNumber  TypeKind = "number"
	TypeInteger TypeKind = "integer"
	TypeBoolean TypeKind = "boolean"
	TypeNull    TypeKind = "null"
	TypeEnum    TypeKind = "enum"
	TypeRef     TypeKind = "ref"
	TypeUnion   TypeKind = "union"
)

// TypeDef is a type definition node. Id must match `type:<kind>:<stable-id>`.
type TypeDef struct {
	ID         string
	Kind       TypeKind
	Name       string
	Definition TypeDefinition
	Attrs      map[string]Value
}

// TypeDefinition carries kind-specific structure for a TypeDef.
type TypeDefinition struct {
	// object
	Properties []ObjectProperty
	// array
	Items string // referenced type id
	// enum
	EnumValues []string
	EnumOrdered bool // if true, input order preserved (still de-duplicated)
	// ref
	RefTarget string // referenced type id
	// union
	UnionMembers []string // referenced type ids
}

// ObjectProperty is one property of an object type definition.
type ObjectProperty struct {
	Name string
	Type string // referenced type id
}

// Severity enumerates constraint severities.
type Severity string

const (
	SeverityInfo  Severity = "info"
	SeverityWarn  Severity = "warn"
	SeverityError Severity = "error"
)

// Constraint is a validation rule scoped to entities and/or types. Id must
// match `c:<kind>:<stable-id>`.
type Constraint struct {
	ID        string
	Kind      string
	ScopeEntities []string
	ScopeTypes    []string
	Predicate map[string]Value
	Severity  Severity
	Attrs     map[string]Value
}

// Graph is the full IR produced by a plugin and consumed by Validate and,
// once valid, by schema.Canonicalize and merkle.Build.
type Graph struct {
	Artifact    Artifact
	Entities    []Entity
	Edges       []Edge
	Types       []TypeDef
	Constraints []Constraint

	// Bounds declared by the plugin that produced this graph.
	// Validate enforces MaxNodes and MaxEdges before any downstream stage
	// sees the graph; MaxDepth is not checked by Validate.
	MaxNodes int // 0 means unbounded
	MaxEdges int // 0 means unbounded
	MaxDepth int // 0 means unbounded; reserved for future hierarchical types
}

// Value is a canonical-safe scalar or nested value usable in Entity/Edge
// attrs and Constraint predicates. It mirrors canonical.Value's shape
// (nil, bool, int64, string, []Value, map[string]Value) but is defined
// independently here so ir has no import-time dependency on the canonical
// package's exact type identity — schema.Canonicalize is responsible for
// the conversion. Arbitrary-precision canonical.Number values have no IR
// counterpart: validateValue rejects anything outside this shape.
type Value any
