// Package openapi implements SIGNIA's OpenAPI plugin: it turns a single
// OpenAPI document's paths/operations into "endpoint" entities. It emits no
// edges or type definitions.
package openapi

import (
	"context"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/signia-dev/signia-core/internal/detsort"
	irpkg "github.com/signia-dev/signia-core/ir"
	"github.com/signia-dev/signia-core/normalize"
	"github.com/signia-dev/signia-core/plugin"
	"github.com/signia-dev/signia-core/signiaerr"
)

// Plugin extracts one "endpoint" entity per (method, path) operation from an
// OpenAPI document (YAML or JSON — both decode through yaml.v3, which is a
// JSON superset).
type Plugin struct{}

func New() *Plugin { return &Plugin{} }

func (p *Plugin) Name() string    { return "builtin-openapi" }
func (p *Plugin) Version() string { return "v1" }

func (p *Plugin) Supports(kind irpkg.ArtifactKind) bool {
	return kind == irpkg.ArtifactOpenAPI
}

func (p *Plugin) Capabilities() plugin.Capabilities {
	return plugin.Capabilities{MaxNodes: 50000, MaxEdges: 50000}
}

type doc struct {
	Paths map[string]map[string]operation `yaml:"paths"`
}

type operation struct {
	OperationID string   `yaml:"operationId"`
	Tags        []string `yaml:"tags"`
}

var httpMethods = map[string]bool{
	"get": true, "put": true, "post": true, "delete": true,
	"options": true, "head": true, "patch": true, "trace": true,
}

// Execute parses exactly one file — the OpenAPI document itself — and
// ignores any other normalized input members, since an OpenAPI artifact is
// single-document by definition.
func (p *Plugin) Execute(_ context.Context, input *normalize.Input, _ plugin.Config) (*irpkg.Graph, error) {
	if len(input.Files) == 0 {
		return nil, signiaerr.New(signiaerr.InputEncodingInvalid).D("reason", "empty_openapi_input")
	}
	var d doc
	if err := yaml.Unmarshal(input.Files[0].Content, &d); err != nil {
		return nil, signiaerr.New(signiaerr.InputEncodingInvalid).D("reason", "malformed_openapi_document").Wrap(err)
	}

	g := &irpkg.Graph{Artifact: irpkg.Artifact{Kind: irpkg.ArtifactOpenAPI, Name: "openapi"}}

	routes := make([]string, 0, len(d.Paths))
	for route := range d.Paths {
		routes = append(routes, route)
	}
	sort.Strings(routes)

	for _, route := range routes {
		methods := make([]string, 0, len(d.Paths[route]))
		for m := range d.Paths[route] {
			methods = append(methods, m)
		}
		sort.Strings(methods)
		for _, method := range methods {
			if !httpMethods[method] {
				continue
			}
			op := d.Paths[route][method]
			upperMethod := strings.ToUpper(method)
			stableID := upperMethod + "_" + route
			ent := irpkg.Entity{
				ID:   irpkg.EntityID("endpoint", stableID),
				Kind: "endpoint",
				Name: operationName(op, upperMethod, route),
				Attrs: map[string]irpkg.Value{
					"method": upperMethod,
					"route":  route,
				},
			}
			if len(op.Tags) > 0 {
				ent.Tags = detsort.SortedUniqueStrings(op.Tags)
			}
			g.Entities = append(g.Entities, ent)
		}
	}

	return g, nil
}

func operationName(op operation, method, route string) string {
	if op.OperationID != "" {
		return op.OperationID
	}
	return method + " " + route
}
