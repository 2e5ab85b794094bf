package configkind

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/signia-dev/signia-core/normalize"
	"github.com/signia-dev/signia-core/plugin"
	"github.com/signia-dev/signia-core/signiaerr"
)

func TestPlugin_ExecuteFlattensNestedKeys(t *testing.T) {
	p := New()
	input := &normalize.Input{Files: []normalize.File{{Path: "config.yaml", Content: []byte(`
server:
  port: 8080
  tls: true
name: signia
`)}}}

	g, err := p.Execute(context.Background(), input, plugin.Config{})
	require.NoError(t, err)
	require.Len(t, g.Entities, 3)

	byName := map[string]map[string]any{}
	for _, e := range g.Entities {
		m := map[string]any{}
		for k, v := range e.Attrs {
			m[k] = v
		}
		byName[e.Name] = m
	}

	assert.Equal(t, int64(8080), byName["server.port"]["value"])
	assert.Equal(t, "integer", byName["server.port"]["value_type"])
	assert.Equal(t, "true", byName["server.tls"]["value"])
	assert.Equal(t, "signia", byName["name"]["value"])
}

func TestPlugin_ExecuteRejectsFloatValues(t *testing.T) {
	p := New()
	input := &normalize.Input{Files: []normalize.File{{Path: "config.yaml", Content: []byte("ratio: 0.5\n")}}}

	_, err := p.Execute(context.Background(), input, plugin.Config{})
	require.Error(t, err)
	e, ok := signiaerr.As(err)
	require.True(t, ok)
	assert.Equal(t, signiaerr.IrInvalid, e.Kind)
}

func TestPlugin_ExecuteRejectsMalformedYAML(t *testing.T) {
	p := New()
	input := &normalize.Input{Files: []normalize.File{{Path: "config.yaml", Content: []byte("not: [valid")}}}

	_, err := p.Execute(context.Background(), input, plugin.Config{})
	require.Error(t, err)
	e, ok := signiaerr.As(err)
	require.True(t, ok)
	assert.Equal(t, signiaerr.InputEncodingInvalid, e.Kind)
}
