package ir

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/signia-dev/signia-core/signiaerr"
)

func minimalGraph() *Graph {
	return &Graph{
		Artifact: Artifact{Kind: ArtifactRepo, Name: "demo"},
		Entities: []Entity{
			{ID: EntityID("module", "src/main.ts"), Kind: "module", Name: "main.ts"},
			{ID: EntityID("module", "src/util.ts"), Kind: "module", Name: "util.ts"},
		},
		Edges: []Edge{
			{
				ID:       EdgeID("imports", EntityID("module", "src/main.ts"), EntityID("module", "src/util.ts"), "0"),
				Relation: "imports",
				From:     EntityID("module", "src/main.ts"),
				To:       EntityID("module", "src/util.ts"),
			},
		},
	}
}

func TestValidate_AcceptsMinimalGraph(t *testing.T) {
	require.NoError(t, Validate(minimalGraph()))
}

func TestValidate_RejectsDuplicateEntityID(t *testing.T) {
	g := minimalGraph()
	g.Entities = append(g.Entities, Entity{ID: g.Entities[0].ID, Kind: "module", Name: "dup"})

	err := Validate(g)
	require.Error(t, err)
	e, ok := signiaerr.As(err)
	require.True(t, ok)
	assert.Equal(t, signiaerr.IrInvalid, e.Kind)
	assert.Equal(t, "duplicate_id", e.Detail["rule"])
}

func TestValidate_RejectsEdgeToMissingEntity(t *testing.T) {
	g := minimalGraph()
	g.Edges[0].To = EntityID("module", "src/missing.ts")

	err := Validate(g)
	require.Error(t, err)
	e, _ := signiaerr.As(err)
	assert.Equal(t, "unresolved_reference", e.Detail["rule"])
}

func TestValidate_RejectsUnsortedConstraintScope(t *testing.T) {
	g := minimalGraph()
	g.Constraints = []Constraint{{
		ID:            ConstraintID("required", "c1"),
		Kind:          "required",
		ScopeEntities: []string{"b", "a", "a"},
		Severity:      SeverityError,
	}}

	err := Validate(g)
	require.Error(t, err)
	e, _ := signiaerr.As(err)
	assert.Equal(t, "set_unsorted_or_duplicate", e.Detail["rule"])
}

func TestValidate_RejectsFloatAttr(t *testing.T) {
	g := minimalGraph()
	g.Entities[0].Attrs = map[string]Value{"score": 1.5}

	err := Validate(g)
	require.Error(t, err)
	e, _ := signiaerr.As(err)
	assert.Equal(t, "float_forbidden", e.Detail["rule"])
}

func TestValidate_EnforcesMaxNodes(t *testing.T) {
	g := minimalGraph()
	g.MaxNodes = 1

	err := Validate(g)
	require.Error(t, err)
	e, _ := signiaerr.As(err)
	assert.Equal(t, signiaerr.PluginBoundsExceeded, e.Kind)
	assert.Equal(t, "max_nodes", e.Detail["bound"])
}

func TestValidate_RejectsBadIDFormat(t *testing.T) {
	g := minimalGraph()
	g.Entities[0].ID = "not-a-valid-id"

	err := Validate(g)
	require.Error(t, err)
	e, _ := signiaerr.As(err)
	assert.Equal(t, "id_format", e.Detail["rule"])
}
