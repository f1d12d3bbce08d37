package golang

import (
	"context"
	"strconv"
	"sync"

	sitter "github.com/smacker/go-tree-sitter"
	tsgolang "github.com/smacker/go-tree-sitter/golang"
)

const importQueryPattern = `
(import_spec
  path: (interpreted_string_literal) @import.path)
`

var (
	importQueryOnce sync.Once
	importQuery     *sitter.Query
	importQueryErr  error
)

func compiledImportQuery() (*sitter.Query, error) {
	importQueryOnce.Do(func() {
		importQuery, importQueryErr = sitter.NewQuery([]byte(importQueryPattern), tsgolang.GetLanguage())
	})
	return importQuery, importQueryErr
}

// ParseImports returns the import paths of a Go source file in source order.
func ParseImports(sourceCode []byte) ([]string, error) {
	query, err := compiledImportQuery()
	if err != nil {
		return nil, err
	}

	parser := sitter.NewParser()
	defer parser.Close()
	parser.SetLanguage(tsgolang.GetLanguage())

	tree, err := parser.ParseCtx(context.Background(), nil, sourceCode)
	if err != nil {
		return nil, err
	}
	defer tree.Close()

	cursor := sitter.NewQueryCursor()
	defer cursor.Close()
	cursor.Exec(query, tree.RootNode())

	var imports []string
	for {
		match, ok := cursor.NextMatch()
		if !ok {
			break
		}
		match = cursor.FilterPredicates(match, sourceCode)

		for _, capture := range match.Captures {
			importPath, err := strconv.Unquote(capture.Node.Content(sourceCode))
			if err != nil || importPath == "" {
				continue
			}
			imports = append(imports, importPath)
		}
	}
	return imports, nil
}
