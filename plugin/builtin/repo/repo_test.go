package repo

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	irpkg "github.com/signia-dev/signia-core/ir"
	"github.com/signia-dev/signia-core/normalize"
	"github.com/signia-dev/signia-core/plugin"
)

func TestPlugin_ExecuteExtractsGoDeclarationsAndImports(t *testing.T) {
	p := New()
	input := &normalize.Input{
		Files: []normalize.File{
			{Path: "pkg/a/a.go", Content: []byte(`package a

import "signia/pkg/b"

func DoThing() {}

type Widget struct{}
`)},
			{Path: "pkg/b/b.go", Content: []byte(`package b

func Helper() {}
`)},
		},
	}

	g, err := p.Execute(context.Background(), input, plugin.Config{"name": "myrepo"})
	require.NoError(t, err)
	assert.Equal(t, "myrepo", g.Artifact.Name)

	var kinds = map[string]int{}
	for _, e := range g.Entities {
		kinds[e.Kind]++
	}
	assert.Equal(t, 2, kinds["module"])
	assert.Equal(t, 2, kinds["function"])
	assert.Equal(t, 1, kinds["type_decl"])

	var imports int
	for _, e := range g.Edges {
		if e.Relation == "imports" {
			imports++
		}
	}
	assert.Equal(t, 1, imports)
}

func TestPlugin_ExecuteSkipsUnexportedGoDeclarations(t *testing.T) {
	p := New()
	input := &normalize.Input{
		Files: []normalize.File{
			{Path: "x.go", Content: []byte(`package x

func helper() {}

func Public() {}
`)},
		},
	}

	g, err := p.Execute(context.Background(), input, plugin.Config{})
	require.NoError(t, err)

	var names []string
	for _, e := range g.Entities {
		if e.Kind == "function" {
			names = append(names, e.Name)
		}
	}
	assert.Equal(t, []string{"Public"}, names)
}

func TestPlugin_ExecuteRejectsUnparseableGoSource(t *testing.T) {
	p := New()
	input := &normalize.Input{Files: []normalize.File{{Path: "broken.go", Content: []byte("package x\nfunc (\n")}}}

	_, err := p.Execute(context.Background(), input, plugin.Config{})
	require.Error(t, err)
}

func TestPlugin_DefaultName(t *testing.T) {
	p := New()
	g, err := p.Execute(context.Background(), &normalize.Input{}, plugin.Config{})
	require.NoError(t, err)
	assert.Equal(t, "repo", g.Artifact.Name)
	assert.Equal(t, irpkg.ArtifactRepo, g.Artifact.Kind)
}
