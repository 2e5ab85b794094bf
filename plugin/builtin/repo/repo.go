// Package repo implements SIGNIA's repository plugin: it extracts modules,
// declared functions/types, and import edges from a normalized source tree
// using go/parser for Go sources and tree-sitter grammars for Python and
// TypeScript (function names only, no import edges). Files in any other
// language get a module entity and nothing more.
package repo

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"go/ast"
	"go/parser"
	"go/token"
	"path"
	"sort"
	"strings"

	irpkg "github.com/signia-dev/signia-core/ir"
	"github.com/signia-dev/signia-core/normalize"
	"github.com/signia-dev/signia-core/plugin"
	"github.com/signia-dev/signia-core/signiaerr"
)

// Plugin extracts module/function entities and import edges from a
// normalized repository tree.
type Plugin struct{}

func New() *Plugin { return &Plugin{} }

func (p *Plugin) Name() string    { return "builtin-repo" }
func (p *Plugin) Version() string { return "v1" }

func (p *Plugin) Supports(kind irpkg.ArtifactKind) bool {
	return kind == irpkg.ArtifactRepo
}

func (p *Plugin) Capabilities() plugin.Capabilities {
	return plugin.Capabilities{MaxNodes: 200000, MaxEdges: 500000, MaxDepth: 64}
}

// Execute walks input's files in their already-deterministic order (the
// Normalizer guarantees lexicographic Path order) and builds one "module"
// entity per file plus "declares" edges to its top-level functions/types,
// and "imports" edges between Go modules.
func (p *Plugin) Execute(_ context.Context, input *normalize.Input, config plugin.Config) (*irpkg.Graph, error) {
	g := &irpkg.Graph{Artifact: irpkg.Artifact{Kind: irpkg.ArtifactRepo, Name: repoName(config)}}

	moduleIDs := make(map[string]string, len(input.Files))
	importsByModule := make(map[string][]string)

	for _, f := range input.Files {
		moduleID := irpkg.EntityID("module", f.Path)
		moduleIDs[f.Path] = moduleID
		g.Entities = append(g.Entities, irpkg.Entity{
			ID:     moduleID,
			Kind:   "module",
			Name:   path.Base(f.Path),
			Path:   f.Path,
			Digest: contentDigest(f.Content),
		})

		if ext := path.Ext(f.Path); ext == ".py" || ext == ".ts" {
			names, err := extractFunctionNames(ext, f.Content)
			if err != nil {
				return nil, signiaerr.New(signiaerr.IrInvalid).D("rule", "unparseable_source").D("locus", f.Path)
			}
			for _, name := range names {
				fnID := irpkg.EntityID("function", f.Path+"#"+name)
				g.Entities = append(g.Entities, irpkg.Entity{ID: fnID, Kind: "function", Name: name, Path: f.Path})
				g.Edges = append(g.Edges, irpkg.Edge{
					ID: irpkg.EdgeID("declares", moduleID, fnID, "0"), Relation: "declares", From: moduleID, To: fnID,
				})
			}
			continue
		}
		if !strings.HasSuffix(f.Path, ".go") {
			continue
		}
		fset := token.NewFileSet()
		file, err := parser.ParseFile(fset, f.Path, f.Content, parser.ParseComments)
		if err != nil {
			return nil, signiaerr.New(signiaerr.IrInvalid).D("rule", "unparseable_go_source").D("locus", f.Path)
		}

		for _, imp := range file.Imports {
			importsByModule[f.Path] = append(importsByModule[f.Path], strings.Trim(imp.Path.Value, `"`))
		}

		for _, decl := range file.Decls {
			switch d := decl.(type) {
			case *ast.FuncDecl:
				if d.Name == nil || !d.Name.IsExported() {
					continue
				}
				fnID := irpkg.EntityID("function", f.Path+"#"+d.Name.Name)
				g.Entities = append(g.Entities, irpkg.Entity{ID: fnID, Kind: "function", Name: d.Name.Name, Path: f.Path})
				g.Edges = append(g.Edges, irpkg.Edge{
					ID: irpkg.EdgeID("declares", moduleID, fnID, "0"), Relation: "declares", From: moduleID, To: fnID,
				})
			case *ast.GenDecl:
				for _, spec := range d.Specs {
					ts, ok := spec.(*ast.TypeSpec)
					if !ok || ts.Name == nil || !ts.Name.IsExported() {
						continue
					}
					typeEntID := irpkg.EntityID("type_decl", f.Path+"#"+ts.Name.Name)
					g.Entities = append(g.Entities, irpkg.Entity{ID: typeEntID, Kind: "type_decl", Name: ts.Name.Name, Path: f.Path})
					g.Edges = append(g.Edges, irpkg.Edge{
						ID: irpkg.EdgeID("declares", moduleID, typeEntID, "0"), Relation: "declares", From: moduleID, To: typeEntID,
					})
				}
			}
		}
	}

	// Resolve intra-repo import edges: only imports that resolve to another
	// module's declared package path fragment become "imports" edges;
	// external/stdlib imports are dropped since they have no corresponding
	// entity to point to and referential integrity forbids dangling edges.
	paths := make([]string, 0, len(importsByModule))
	for k := range importsByModule {
		paths = append(paths, k)
	}
	sort.Strings(paths)
	for _, fromPath := range paths {
		fromID := moduleIDs[fromPath]
		for _, imp := range importsByModule[fromPath] {
			toPath, ok := resolveImport(imp, moduleIDs)
			if !ok {
				continue
			}
			toID := moduleIDs[toPath]
			if toID == fromID {
				continue
			}
			g.Edges = append(g.Edges, irpkg.Edge{
				ID: irpkg.EdgeID("imports", fromID, toID, "0"), Relation: "imports", From: fromID, To: toID,
			})
		}
	}

	return g, nil
}

func repoName(config plugin.Config) string {
	if v, ok := config["name"].(string); ok && v != "" {
		return v
	}
	return "repo"
}

// resolveImport picks the module whose directory best explains importPath:
// among modules whose directory matches importPath component-for-component
// at the tail (not a raw string suffix, which would let a one-letter dir
// like "b" match any path ending in "b"), the longest matching directory
// wins; ties break on the lexicographically smaller module path. Both
// tie-breaks are total orders over map keys, so the result never depends on
// Go's randomized map iteration order.
func resolveImport(importPath string, moduleIDs map[string]string) (string, bool) {
	importParts := strings.Split(importPath, "/")
	var best string
	var bestLen int
	found := false
	for modulePath := range moduleIDs {
		dir := path.Dir(modulePath)
		if dir == "." {
			continue
		}
		dirParts := strings.Split(dir, "/")
		if !hasSuffixParts(importParts, dirParts) {
			continue
		}
		switch {
		case !found:
			best, bestLen, found = modulePath, len(dirParts), true
		case len(dirParts) > bestLen:
			best, bestLen = modulePath, len(dirParts)
		case len(dirParts) == bestLen && modulePath < best:
			best = modulePath
		}
	}
	return best, found
}

// hasSuffixParts reports whether dirParts equals the trailing path
// components of importParts, component-by-component.
func hasSuffixParts(importParts, dirParts []string) bool {
	if len(dirParts) > len(importParts) {
		return false
	}
	offset := len(importParts) - len(dirParts)
	for i, part := range dirParts {
		if importParts[offset+i] != part {
			return false
		}
	}
	return true
}

func contentDigest(content []byte) string {
	sum := sha256.Sum256(content)
	return hex.EncodeToString(sum[:])
}
