package typescript

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/LegacyCodeHQ/workgraph/projectgraph"
	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/javascript"
	"github.com/smacker/go-tree-sitter/typescript/tsx"
	"github.com/smacker/go-tree-sitter/typescript/typescript"
)

// IgnoreNextLine marks the following statement as invisible to the import scan.
const IgnoreNextLine = "workgraph-ignore-next-line"

// Import is one import-like construct found in a source file.
type Import struct {
	Expr string
	File string
	Kind projectgraph.DependencyType
}

type importQuery struct {
	kind    projectgraph.DependencyType
	capture string
	pattern string
}

var importQueries = []importQuery{
	{
		kind:    projectgraph.DependencyTypeStatic,
		capture: "source",
		pattern: `(import_statement source: (string) @source)`,
	},
	{
		kind:    projectgraph.DependencyTypeStatic,
		capture: "source",
		pattern: `(export_statement source: (string) @source)`,
	},
	{
		kind:    projectgraph.DependencyTypeStatic,
		capture: "source",
		pattern: `
(call_expression
  function: (identifier) @fn
  arguments: (arguments . (string) @source)
  (#eq? @fn "require"))
`,
	},
	{
		kind:    projectgraph.DependencyTypeDynamic,
		capture: "source",
		pattern: `
(call_expression
  function: (import)
  arguments: (arguments . (string) @source))
`,
	},
	{
		kind:    projectgraph.DependencyTypeDynamic,
		capture: "source",
		pattern: `
(pair
  key: (property_identifier) @key
  value: (string) @source
  (#eq? @key "loadChildren"))
`,
	},
}

type dialect struct {
	lang *sitter.Language

	once    sync.Once
	queries []compiledQuery
}

type compiledQuery struct {
	importQuery
	query *sitter.Query
}

var (
	typescriptDialect = &dialect{lang: typescript.GetLanguage()}
	tsxDialect        = &dialect{lang: tsx.GetLanguage()}
	javascriptDialect = &dialect{lang: javascript.GetLanguage()}
)

// compiled returns the import queries for the dialect. Queries that do not
// compile against the grammar are left out.
func (d *dialect) compiled() []compiledQuery {
	d.once.Do(func() {
		for _, q := range importQueries {
			query, err := sitter.NewQuery([]byte(q.pattern), d.lang)
			if err != nil {
				continue
			}
			d.queries = append(d.queries, compiledQuery{importQuery: q, query: query})
		}
	})
	return d.queries
}

func dialectFor(ext string) *dialect {
	switch strings.ToLower(ext) {
	case ".ts", ".mts", ".cts":
		return typescriptDialect
	case ".tsx":
		return tsxDialect
	case ".js", ".jsx", ".mjs", ".cjs":
		return javascriptDialect
	default:
		return nil
	}
}

// Supports reports whether files with the extension are scanned for imports.
func Supports(ext string) bool {
	return dialectFor(ext) != nil
}

// ParseImports extracts the imports of one source file in source order.
// Syntax the scanner does not recognize is skipped. Repeated (expr, kind)
// pairs are reported once.
func ParseImports(file, ext string, sourceCode []byte) []Import {
	d := dialectFor(ext)
	if d == nil {
		return nil
	}

	parser := sitter.NewParser()
	defer parser.Close()
	parser.SetLanguage(d.lang)

	tree, err := parser.ParseCtx(context.Background(), nil, sourceCode)
	if err != nil {
		return nil
	}
	defer tree.Close()

	type found struct {
		offset uint32
		imp    Import
	}
	var all []found

	for _, q := range d.compiled() {
		cursor := sitter.NewQueryCursor()
		cursor.Exec(q.query, tree.RootNode())

		for {
			match, ok := cursor.NextMatch()
			if !ok {
				break
			}
			match = cursor.FilterPredicates(match, sourceCode)

			for _, capture := range match.Captures {
				if q.query.CaptureNameForId(capture.Index) != q.capture {
					continue
				}
				expr, ok := stringLiteral(capture.Node, sourceCode)
				if !ok || ignored(capture.Node, sourceCode) {
					continue
				}
				all = append(all, found{
					offset: capture.Node.StartByte(),
					imp:    Import{Expr: expr, File: file, Kind: q.kind},
				})
			}
		}
		cursor.Close()
	}

	sort.SliceStable(all, func(i, j int) bool {
		return all[i].offset < all[j].offset
	})

	type seenKey struct {
		expr string
		kind projectgraph.DependencyType
	}
	seen := make(map[seenKey]bool, len(all))
	imports := make([]Import, 0, len(all))
	for _, f := range all {
		key := seenKey{expr: f.imp.Expr, kind: f.imp.Kind}
		if seen[key] {
			continue
		}
		seen[key] = true
		imports = append(imports, f.imp)
	}
	return imports
}

// stringLiteral returns the unquoted value of a plain string node.
func stringLiteral(node *sitter.Node, sourceCode []byte) (string, bool) {
	content := node.Content(sourceCode)
	if len(content) < 2 {
		return "", false
	}
	quote := content[0]
	if (quote != '\'' && quote != '"') || content[len(content)-1] != quote {
		return "", false
	}
	value := strings.TrimSpace(content[1 : len(content)-1])
	return value, value != ""
}

// ignored reports whether the node, or any construct enclosing it, sits on
// the line right below an ignore comment.
func ignored(node *sitter.Node, sourceCode []byte) bool {
	for n := node; n != nil; n = n.Parent() {
		prev := n.PrevSibling()
		if prev == nil || prev.Type() != "comment" {
			continue
		}
		if prev.EndPoint().Row+1 != n.StartPoint().Row {
			continue
		}
		if strings.Contains(prev.Content(sourceCode), IgnoreNextLine) {
			return true
		}
	}
	return false
}
