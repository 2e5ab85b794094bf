package repo

import (
	"context"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/python"
	"github.com/smacker/go-tree-sitter/typescript/typescript"
)

// treeSitterQueries maps a file extension to its tree-sitter grammar and a
// query for function declarations at any nesting depth (Python methods are
// function_definition nodes and match; TypeScript class methods do not).
var treeSitterQueries = map[string]struct {
	lang  func() *sitter.Language
	query string
}{
	".py": {python.GetLanguage, `(function_definition name: (identifier) @name)`},
	".ts": {typescript.GetLanguage, `(function_declaration name: (identifier) @name)`},
}

// extractFunctionNames parses content with the grammar registered for ext
// and returns the names bound to the query's @name capture, in tree order.
// Tree-sitter parsing is a pure function of its input bytes, so this keeps
// the plugin's determinism contract intact across languages.
func extractFunctionNames(ext string, content []byte) ([]string, error) {
	q, ok := treeSitterQueries[ext]
	if !ok {
		return nil, nil
	}
	lang := q.lang()
	parser := sitter.NewParser()
	parser.SetLanguage(lang)
	tree, err := parser.ParseCtx(context.Background(), nil, content)
	if err != nil {
		return nil, err
	}
	defer tree.Close()

	query, err := sitter.NewQuery([]byte(q.query), lang)
	if err != nil {
		return nil, err
	}
	defer query.Close()
	cursor := sitter.NewQueryCursor()
	defer cursor.Close()
	cursor.Exec(query, tree.RootNode())

	var names []string
	for {
		m, ok := cursor.NextMatch()
		if !ok {
			break
		}
		for _, c := range m.Captures {
			names = append(names, c.Node.Content(content))
		}
	}
	return names, nil
}
