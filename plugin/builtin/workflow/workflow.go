// Package workflow implements SIGNIA's workflow plugin: it turns a YAML DAG
// definition (steps plus their dependencies) into "step" entities and
// "depends_on" edges.
package workflow

import (
	"context"
	"sort"

	"gopkg.in/yaml.v3"

	irpkg "github.com/signia-dev/signia-core/ir"
	"github.com/signia-dev/signia-core/normalize"
	"github.com/signia-dev/signia-core/plugin"
	"github.com/signia-dev/signia-core/signiaerr"
)

type Plugin struct{}

func New() *Plugin { return &Plugin{} }

func (p *Plugin) Name() string    { return "builtin-workflow" }
func (p *Plugin) Version() string { return "v1" }

func (p *Plugin) Supports(kind irpkg.ArtifactKind) bool {
	return kind == irpkg.ArtifactWorkflow
}

func (p *Plugin) Capabilities() plugin.Capabilities {
	return plugin.Capabilities{MaxNodes: 10000, MaxEdges: 50000, MaxDepth: 64}
}

type doc struct {
	Steps map[string]step `yaml:"steps"`
}

type step struct {
	DependsOn []string `yaml:"depends_on"`
	Kind      string   `yaml:"kind"`
}

func (p *Plugin) Execute(_ context.Context, input *normalize.Input, _ plugin.Config) (*irpkg.Graph, error) {
	if len(input.Files) == 0 {
		return nil, signiaerr.New(signiaerr.InputEncodingInvalid).D("reason", "empty_workflow_input")
	}
	var d doc
	if err := yaml.Unmarshal(input.Files[0].Content, &d); err != nil {
		return nil, signiaerr.New(signiaerr.InputEncodingInvalid).D("reason", "malformed_workflow_document").Wrap(err)
	}

	g := &irpkg.Graph{Artifact: irpkg.Artifact{Kind: irpkg.ArtifactWorkflow, Name: "workflow"}}

	names := make([]string, 0, len(d.Steps))
	for name := range d.Steps {
		names = append(names, name)
	}
	sort.Strings(names)

	stepIDs := make(map[string]string, len(names))
	for _, name := range names {
		stepIDs[name] = irpkg.EntityID("step", name)
	}

	for _, name := range names {
		s := d.Steps[name]
		kind := s.Kind
		if kind == "" {
			kind = "task"
		}
		g.Entities = append(g.Entities, irpkg.Entity{
			ID:   stepIDs[name],
			Kind: "step",
			Name: name,
			Attrs: map[string]irpkg.Value{"step_kind": kind},
		})
	}

	for _, name := range names {
		s := d.Steps[name]
		deps := append([]string(nil), s.DependsOn...)
		sort.Strings(deps)
		for _, dep := range deps {
			depID, ok := stepIDs[dep]
			if !ok {
				return nil, signiaerr.New(signiaerr.IrInvalid).D("rule", "unresolved_reference").D("locus", "steps."+name+".depends_on")
			}
			g.Edges = append(g.Edges, irpkg.Edge{
				ID:       irpkg.EdgeID("depends_on", stepIDs[name], depID, "0"),
				Relation: "depends_on",
				From:     stepIDs[name],
				To:       depID,
			})
		}
	}

	return g, nil
}
