package dataset

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	irpkg "github.com/signia-dev/signia-core/ir"
	"github.com/signia-dev/signia-core/normalize"
	"github.com/signia-dev/signia-core/plugin"
)

func TestPlugin_SupportsOnlyDataset(t *testing.T) {
	p := New()
	assert.True(t, p.Supports(irpkg.ArtifactDataset))
	assert.False(t, p.Supports(irpkg.ArtifactRepo))
}

func TestPlugin_ExecuteProducesOneRecordSetPerFile(t *testing.T) {
	p := New()
	input := &normalize.Input{
		Files: []normalize.File{
			{Path: "customers.csv", Content: []byte("id,name\n1,a\n")},
			{Path: "orders.json", Content: []byte(`[{"id":1}]`)},
			{Path: "noext", Content: []byte("x")},
		},
	}

	g, err := p.Execute(context.Background(), input, plugin.Config{})
	require.NoError(t, err)
	require.Len(t, g.Entities, 3)

	byPath := map[string]irpkg.Entity{}
	for _, e := range g.Entities {
		byPath[e.Path] = e
	}

	csv := byPath["customers.csv"]
	assert.Equal(t, "record_set", csv.Kind)
	assert.Equal(t, "csv", csv.Attrs["format"])
	assert.Equal(t, int64(len("id,name\n1,a\n")), csv.Attrs["byte_count"])

	noext := byPath["noext"]
	assert.Equal(t, "unknown", noext.Attrs["format"])
}

func TestPlugin_ExecuteEmptyInput(t *testing.T) {
	p := New()
	g, err := p.Execute(context.Background(), &normalize.Input{}, plugin.Config{})
	require.NoError(t, err)
	assert.Empty(t, g.Entities)
	assert.Equal(t, irpkg.ArtifactDataset, g.Artifact.Kind)
}
