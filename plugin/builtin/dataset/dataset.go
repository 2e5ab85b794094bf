// Package dataset implements SIGNIA's dataset plugin: it extracts one
// entity per data file (a "record_set") carrying its format and byte count,
// built on normalize's already-deterministic file ordering.
package dataset

import (
	"context"
	"path"

	irpkg "github.com/signia-dev/signia-core/ir"
	"github.com/signia-dev/signia-core/normalize"
	"github.com/signia-dev/signia-core/plugin"
)

// Plugin extracts one "record_set" entity per normalized file, tagging it
// with its format (inferred from extension) and byte length — enough
// provenance for downstream constraints to check dataset shape without
// reading the raw content again.
type Plugin struct{}

func New() *Plugin { return &Plugin{} }

func (p *Plugin) Name() string    { return "builtin-dataset" }
func (p *Plugin) Version() string { return "v1" }

func (p *Plugin) Supports(kind irpkg.ArtifactKind) bool {
	return kind == irpkg.ArtifactDataset
}

func (p *Plugin) Capabilities() plugin.Capabilities {
	return plugin.Capabilities{MaxNodes: 1_000_000}
}

func (p *Plugin) Execute(_ context.Context, input *normalize.Input, _ plugin.Config) (*irpkg.Graph, error) {
	g := &irpkg.Graph{Artifact: irpkg.Artifact{Kind: irpkg.ArtifactDataset, Name: "dataset"}}

	for _, f := range input.Files {
		format := path.Ext(f.Path)
		if format == "" {
			format = "unknown"
		} else {
			format = format[1:]
		}
		g.Entities = append(g.Entities, irpkg.Entity{
			ID:   irpkg.EntityID("record_set", f.Path),
			Kind: "record_set",
			Name: path.Base(f.Path),
			Path: f.Path,
			Attrs: map[string]irpkg.Value{
				"format":     format,
				"byte_count": int64(len(f.Content)),
			},
		})
	}

	return g, nil
}
