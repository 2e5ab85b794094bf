// Package plugin implements SIGNIA's Plugin Host: a capability registry
// keyed by artifact kind. It defines the determinism contract every plugin
// must satisfy (pure function of input bytes and config; no wall clock,
// locale, randomness, or network access; stable ids across runs; bounded
// output); the Host itself checks only the network want and hands the
// declared output bounds to ir.Validate.
package plugin

import (
	"context"

	"github.com/signia-dev/signia-core/canonical"
	"github.com/signia-dev/signia-core/hashing"
	"github.com/signia-dev/signia-core/ir"
	"github.com/signia-dev/signia-core/normalize"
	"github.com/signia-dev/signia-core/signiaerr"
)

// Config is a plugin's own configuration, hashed under the same canonical
// encoding as everything else so the Manifest can record exactly which
// configuration produced a given IR.
type Config map[string]canonical.Value

// Hash returns the domain-separated hash of this configuration, recorded in
// the Manifest's plugin entries (via bundle.PluginRecord).
func (c Config) Hash(alg hashing.Alg) (hashing.Digest, error) {
	payload, err := canonical.Encode(canonical.Object(c))
	if err != nil {
		return hashing.Digest{}, signiaerr.New(signiaerr.CanonicalizationFailed).Wrap(err)
	}
	return hashing.H(alg, hashing.DomainSchema, payload)
}

// Capabilities declares what a plugin needs from its Host and what bounds
// it promises to respect — the "wants" a Host evaluates before running a
// plugin, e.g. refusing a plugin that wants network access in a sandboxed
// compile. The Host makes this an explicit capability check rather than an
// implicit trust assumption.
type Capabilities struct {
	NeedsNetwork bool
	MaxNodes     int
	MaxEdges     int
	MaxDepth     int
}

// HostCapabilities is what the Host is willing to grant. A plugin whose
// Capabilities.NeedsNetwork is true but the Host's HostCapabilities.Network
// is false is rejected before Execute ever runs.
type HostCapabilities struct {
	Network bool
}

// Wants evaluates whether host grants everything p.Capabilities needs.
func Wants(host HostCapabilities, caps Capabilities) error {
	if caps.NeedsNetwork && !host.Network {
		return signiaerr.New(signiaerr.InputNetworkDisabled).D("reason", "plugin_requires_network")
	}
	return nil
}

// Plugin transforms one normalized artifact into IR. Execute must be a pure
// function of (input, config): no wall clock, no locale-dependent
// formatting, no randomness, no network I/O. Two calls with identical
// arguments must produce byte-identical IR.
type Plugin interface {
	Name() string
	Version() string
	Supports(kind ir.ArtifactKind) bool
	Capabilities() Capabilities
	Execute(ctx context.Context, input *normalize.Input, config Config) (*ir.Graph, error)
}

// Registry is the capability registry: plugins registered by the artifact
// kinds they support.
type Registry struct {
	byKind map[ir.ArtifactKind][]Plugin
}

// NewRegistry constructs an empty Registry.
func NewRegistry() *Registry {
	return &Registry{byKind: make(map[ir.ArtifactKind][]Plugin)}
}

// Register adds a plugin under every kind it declares support for.
func (r *Registry) Register(p Plugin) {
	for _, kind := range []ir.ArtifactKind{
		ir.ArtifactRepo, ir.ArtifactOpenAPI, ir.ArtifactDataset,
		ir.ArtifactWorkflow, ir.ArtifactConfig, ir.ArtifactSpec,
	} {
		if p.Supports(kind) {
			r.byKind[kind] = append(r.byKind[kind], p)
		}
	}
}

// Resolve returns the first registered plugin supporting kind, or
// PluginUnknown if none is registered.
func (r *Registry) Resolve(kind ir.ArtifactKind) (Plugin, error) {
	plugins := r.byKind[kind]
	if len(plugins) == 0 {
		return nil, signiaerr.New(signiaerr.PluginUnknown).D("kind", string(kind))
	}
	return plugins[0], nil
}

// Run resolves and executes the plugin for input's declared kind, enforcing
// host capability checks first, then copying the plugin's non-zero declared
// bounds onto the returned graph for ir.Validate to enforce.
func Run(ctx context.Context, r *Registry, host HostCapabilities, kind ir.ArtifactKind, input *normalize.Input, config Config) (*ir.Graph, error) {
	p, err := r.Resolve(kind)
	if err != nil {
		return nil, err
	}
	caps := p.Capabilities()
	if err := Wants(host, caps); err != nil {
		return nil, err
	}
	g, err := p.Execute(ctx, input, config)
	if err != nil {
		return nil, err
	}
	if caps.MaxNodes > 0 {
		g.MaxNodes = caps.MaxNodes
	}
	if caps.MaxEdges > 0 {
		g.MaxEdges = caps.MaxEdges
	}
	if caps.MaxDepth > 0 {
		g.MaxDepth = caps.MaxDepth
	}
	return g, nil
}
