// Package configkind implements SIGNIA's config-model plugin: it flattens a
// YAML configuration document into one "setting" entity per leaf key path,
// so constraints can check presence/shape of specific settings without
// re-parsing YAML themselves.
package configkind

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

func (p *Plugin) Name() string    { return "builtin-config" }
func (p *Plugin) Version() string { return "v1" }

func (p *Plugin) Supports(kind irpkg.ArtifactKind) bool {
	return kind == irpkg.ArtifactConfig
}

func (p *Plugin) Capabilities() plugin.Capabilities {
	return plugin.Capabilities{MaxNodes: 100000}
}

func (p *Plugin) Execute(_ context.Context, input *normalize.Input, _ plugin.Config) (*irpkg.Graph, error) {
	if len(input.Files) == 0 {
		return nil, signiaerr.New(signiaerr.InputEncodingInvalid).D("reason", "empty_config_input")
	}
	var raw map[string]any
	if err := yaml.Unmarshal(input.Files[0].Content, &raw); err != nil {
		return nil, signiaerr.New(signiaerr.InputEncodingInvalid).D("reason", "malformed_config_document").Wrap(err)
	}

	g := &irpkg.Graph{Artifact: irpkg.Artifact{Kind: irpkg.ArtifactConfig, Name: "config"}}

	leaves := map[string]any{}
	flatten("", raw, leaves)

	paths := make([]string, 0, len(leaves))
	for k := range leaves {
		paths = append(paths, k)
	}
	sort.Strings(paths)

	for _, p := range paths {
		attrs, err := settingAttrs(leaves[p])
		if err != nil {
			return nil, err
		}
		g.Entities = append(g.Entities, irpkg.Entity{
			ID:    irpkg.EntityID("setting", p),
			Kind:  "setting",
			Name:  p,
			Attrs: attrs,
		})
	}

	return g, nil
}

func flatten(prefix string, node any, out map[string]any) {
	m, ok := node.(map[string]any)
	if !ok {
		out[prefix] = node
		return
	}
	for k, v := range m {
		key := k
		if prefix != "" {
			key = prefix + "." + k
		}
		flatten(key, v, out)
	}
}

func settingAttrs(v any) (map[string]irpkg.Value, error) {
	switch t := v.(type) {
	case string:
		return map[string]irpkg.Value{"value": t, "value_type": "string"}, nil
	case int:
		return map[string]irpkg.Value{"value": int64(t), "value_type": "integer"}, nil
	case bool:
		return map[string]irpkg.Value{"value": boolString(t), "value_type": "boolean"}, nil
	case nil:
		return map[string]irpkg.Value{"value_type": "null"}, nil
	default:
		return nil, signiaerr.New(signiaerr.IrInvalid).D("rule", "float_forbidden").D("locus", "config_setting")
	}
}

func boolString(b bool) string {
	if b {
		return "true"
	}
	return "false"
}
