package openapi

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/signia-dev/signia-core/normalize"
	"github.com/signia-dev/signia-core/plugin"
	"github.com/signia-dev/signia-core/signiaerr"
)

const minimalDoc = `
paths:
  /pets:
    get:
      operationId: listPets
      tags: [pets]
    post:
      tags: [pets]
  /pets/{id}:
    get:
      operationId: getPet
`

func TestPlugin_ExecuteExtractsEndpoints(t *testing.T) {
	p := New()
	input := &normalize.Input{Files: []normalize.File{{Path: "api.yaml", Content: []byte(minimalDoc)}}}

	g, err := p.Execute(context.Background(), input, plugin.Config{})
	require.NoError(t, err)
	require.Len(t, g.Entities, 3)

	assert.Equal(t, "listPets", g.Entities[0].Name)
	assert.Equal(t, "GET", g.Entities[0].Attrs["method"])
	assert.Equal(t, []string{"pets"}, g.Entities[0].Tags)

	assert.Equal(t, "POST /pets", g.Entities[1].Name)
}

func TestPlugin_ExecuteOrdersByRouteThenMethod(t *testing.T) {
	p := New()
	input := &normalize.Input{Files: []normalize.File{{Path: "api.yaml", Content: []byte(minimalDoc)}}}

	g, err := p.Execute(context.Background(), input, plugin.Config{})
	require.NoError(t, err)

	var routes []string
	for _, e := range g.Entities {
		routes = append(routes, e.Attrs["route"].(string)+" "+e.Attrs["method"].(string))
	}
	assert.Equal(t, []string{"/pets GET", "/pets POST", "/pets/{id} GET"}, routes)
}

func TestPlugin_ExecuteSortsAndDedupesTags(t *testing.T) {
	const docWithUnsortedTags = `
paths:
  /pets:
    get:
      operationId: listPets
      tags: [users, auth, users]
`
	p := New()
	input := &normalize.Input{Files: []normalize.File{{Path: "api.yaml", Content: []byte(docWithUnsortedTags)}}}

	g, err := p.Execute(context.Background(), input, plugin.Config{})
	require.NoError(t, err)
	require.Len(t, g.Entities, 1)
	assert.Equal(t, []string{"auth", "users"}, g.Entities[0].Tags)
}

func TestPlugin_ExecuteRejectsEmptyInput(t *testing.T) {
	p := New()
	_, err := p.Execute(context.Background(), &normalize.Input{}, plugin.Config{})
	require.Error(t, err)
	e, ok := signiaerr.As(err)
	require.True(t, ok)
	assert.Equal(t, signiaerr.InputEncodingInvalid, e.Kind)
}
