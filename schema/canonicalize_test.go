package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/signia-dev/signia-core/canonical"
	"github.com/signia-dev/signia-core/hashing"
	"github.com/signia-dev/signia-core/ir"
)

// openAPIGraph models scenario S1 ("Minimal OpenAPI"): a single entity, no
// edges, no types, no constraints.
func openAPIGraph() *ir.Graph {
	return &ir.Graph{
		Artifact: ir.Artifact{Kind: ir.ArtifactOpenAPI, Name: "health-api"},
		Entities: []ir.Entity{
			{
				ID:   ir.EntityID("operation", "GET /health"),
				Kind: "operation",
				Name: "getHealth",
				Attrs: map[string]ir.Value{"method": "GET", "route": "/health"},
				Tags:  []string{"public"},
			},
		},
	}
}

// repoGraph models scenario S2 ("Small repo"): two modules and one import
// edge between them.
func repoGraph() *ir.Graph {
	mainID := ir.EntityID("module", "src/main.ts")
	utilID := ir.EntityID("module", "src/util.ts")
	return &ir.Graph{
		Artifact: ir.Artifact{Kind: ir.ArtifactRepo, Name: "demo"},
		Entities: []ir.Entity{
			{ID: utilID, Kind: "module", Name: "util.ts"},
			{ID: mainID, Kind: "module", Name: "main.ts"},
		},
		Edges: []ir.Edge{
			{ID: ir.EdgeID("imports", mainID, utilID, "0"), Relation: "imports", From: mainID, To: utilID},
		},
	}
}

func TestCanonicalize_SingleEntityHasOneLeaf(t *testing.T) {
	res, err := Canonicalize(openAPIGraph(), hashing.Sha256)
	require.NoError(t, err)
	require.Len(t, res.Leaves, 1)
	assert.Equal(t, LeafEntity, res.Leaves[0].KindTag)
	assert.NotEmpty(t, res.Document.SchemaID)
}

func TestCanonicalize_SchemaIDNotInHashedBytes(t *testing.T) {
	res, err := Canonicalize(openAPIGraph(), hashing.Sha256)
	require.NoError(t, err)
	assert.NotContains(t, string(res.CanonicalBytes), "schema_id")
}

func TestCanonicalize_EntitiesSortedByKindThenID(t *testing.T) {
	res, err := Canonicalize(repoGraph(), hashing.Sha256)
	require.NoError(t, err)
	require.Len(t, res.Document.Root.Graph.Entities, 2)
	assert.Equal(t, ir.EntityID("module", "src/main.ts"), res.Document.Root.Graph.Entities[0].ID)
	assert.Equal(t, ir.EntityID("module", "src/util.ts"), res.Document.Root.Graph.Entities[1].ID)
}

func TestCanonicalize_LeafOrderEntitiesBeforeEdges(t *testing.T) {
	res, err := Canonicalize(repoGraph(), hashing.Sha256)
	require.NoError(t, err)
	require.Len(t, res.Leaves, 3)
	assert.Equal(t, LeafEntity, res.Leaves[0].KindTag)
	assert.Equal(t, LeafEntity, res.Leaves[1].KindTag)
	assert.Equal(t, LeafEdge, res.Leaves[2].KindTag)
}

func TestCanonicalize_Deterministic(t *testing.T) {
	a, err := Canonicalize(repoGraph(), hashing.Sha256)
	require.NoError(t, err)
	b, err := Canonicalize(repoGraph(), hashing.Sha256)
	require.NoError(t, err)
	assert.Equal(t, a.Hash, b.Hash)
	assert.Equal(t, a.CanonicalBytes, b.CanonicalBytes)
}

func TestParseDocument_RoundTripsThroughReconstruction(t *testing.T) {
	res, err := Canonicalize(repoGraph(), hashing.Sha256)
	require.NoError(t, err)

	written, err := DocumentWithSchemaID(res.Document)
	require.NoError(t, err)
	bytesOut, err := canonical.Encode(written)
	require.NoError(t, err)

	parsed, err := ParseDocument(bytesOut)
	require.NoError(t, err)
	assert.Equal(t, res.Document.SchemaID, parsed.SchemaID)
	require.Len(t, parsed.Root.Graph.Entities, 2)

	again, err := Canonicalize(parsed.ToGraph(), hashing.Sha256)
	require.NoError(t, err)
	assert.Equal(t, res.Hash, again.Hash)
}
