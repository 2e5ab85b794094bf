package workflow

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	irpkg "github.com/signia-dev/signia-core/ir"
	"github.com/signia-dev/signia-core/normalize"
	"github.com/signia-dev/signia-core/plugin"
	"github.com/signia-dev/signia-core/signiaerr"
)

const validWorkflow = `
steps:
  build:
    kind: task
  test:
    kind: task
    depends_on: [build]
  deploy:
    depends_on: [build, test]
`

func TestPlugin_ExecuteBuildsStepsAndEdges(t *testing.T) {
	p := New()
	input := &normalize.Input{Files: []normalize.File{{Path: "workflow.yaml", Content: []byte(validWorkflow)}}}

	g, err := p.Execute(context.Background(), input, plugin.Config{})
	require.NoError(t, err)
	require.Len(t, g.Entities, 3)
	require.Len(t, g.Edges, 3)

	var deploy irpkg.Entity
	for _, e := range g.Entities {
		if e.Name == "deploy" {
			deploy = e
		}
	}
	assert.Equal(t, "task", deploy.Attrs["step_kind"])

	var deployDeps int
	for _, e := range g.Edges {
		if e.From == deploy.ID {
			deployDeps++
			assert.Equal(t, "depends_on", e.Relation)
		}
	}
	assert.Equal(t, 2, deployDeps)
}

func TestPlugin_ExecuteRejectsUnresolvedDependency(t *testing.T) {
	p := New()
	input := &normalize.Input{Files: []normalize.File{{Path: "workflow.yaml", Content: []byte(`
steps:
  deploy:
    depends_on: [missing]
`)}}}

	_, err := p.Execute(context.Background(), input, plugin.Config{})
	require.Error(t, err)
	e, ok := signiaerr.As(err)
	require.True(t, ok)
	assert.Equal(t, signiaerr.IrInvalid, e.Kind)
}

func TestPlugin_ExecuteRejectsEmptyInput(t *testing.T) {
	p := New()
	_, err := p.Execute(context.Background(), &normalize.Input{}, plugin.Config{})
	require.Error(t, err)
	e, ok := signiaerr.As(err)
	require.True(t, ok)
	assert.Equal(t, signiaerr.InputEncodingInvalid, e.Kind)
}

func TestPlugin_ExecuteIsDeterministic(t *testing.T) {
	p := New()
	input := &normalize.Input{Files: []normalize.File{{Path: "workflow.yaml", Content: []byte(validWorkflow)}}}

	g1, err := p.Execute(context.Background(), input, plugin.Config{})
	require.NoError(t, err)
	g2, err := p.Execute(context.Background(), input, plugin.Config{})
	require.NoError(t, err)

	assert.Equal(t, g1.Entities, g2.Entities)
	assert.Equal(t, g1.Edges, g2.Edges)
}
