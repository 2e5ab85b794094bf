package plugin

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/signia-dev/signia-core/hashing"
	"github.com/signia-dev/signia-core/ir"
	"github.com/signia-dev/signia-core/normalize"
	"github.com/signia-dev/signia-core/signiaerr"
)

type fakePlugin struct {
	name string
	kind ir.ArtifactKind
	caps Capabilities
}

func (f *fakePlugin) Name() string                      { return f.name }
func (f *fakePlugin) Version() string                    { return "v1" }
func (f *fakePlugin) Supports(k ir.ArtifactKind) bool     { return k == f.kind }
func (f *fakePlugin) Capabilities() Capabilities          { return f.caps }
func (f *fakePlugin) Execute(context.Context, *normalize.Input, Config) (*ir.Graph, error) {
	return &ir.Graph{Artifact: ir.Artifact{Kind: f.kind, Name: "x"}}, nil
}

func TestRegistry_ResolveUnknownKind(t *testing.T) {
	r := NewRegistry()
	_, err := r.Resolve(ir.ArtifactOpenAPI)
	require.Error(t, err)
	e, _ := signiaerr.As(err)
	assert.Equal(t, signiaerr.PluginUnknown, e.Kind)
}

func TestRegistry_RunRejectsNetworkWant(t *testing.T) {
	r := NewRegistry()
	r.Register(&fakePlugin{name: "p", kind: ir.ArtifactSpec, caps: Capabilities{NeedsNetwork: true}})
	_, err := Run(context.Background(), r, HostCapabilities{Network: false}, ir.ArtifactSpec, &normalize.Input{}, Config{})
	require.Error(t, err)
	e, _ := signiaerr.As(err)
	assert.Equal(t, signiaerr.InputNetworkDisabled, e.Kind)
}

func TestRegistry_RunSucceedsWhenGranted(t *testing.T) {
	r := NewRegistry()
	r.Register(&fakePlugin{name: "p", kind: ir.ArtifactSpec, caps: Capabilities{NeedsNetwork: true, MaxNodes: 10}})
	g, err := Run(context.Background(), r, HostCapabilities{Network: true}, ir.ArtifactSpec, &normalize.Input{}, Config{})
	require.NoError(t, err)
	assert.Equal(t, 10, g.MaxNodes)
}

func TestConfig_HashDeterministic(t *testing.T) {
	c := Config{"k": "v"}
	a, err := c.Hash(hashing.Sha256)
	require.NoError(t, err)
	b, err := c.Hash(hashing.Sha256)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}
