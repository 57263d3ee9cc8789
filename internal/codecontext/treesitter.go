package codecontext

import (
	"context"
	"fmt"
	"strings"
	"unicode"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/golang"
	"github.com/smacker/go-tree-sitter/python"
)

// TreeSitterScanner summarises Go and Python sources from their syntax tree.
// Only top-level declarations are recorded, plus Go methods.
type TreeSitterScanner struct {
	lang *sitter.Language
	walk func(root *sitter.Node, content []byte, fs *FileSummary)
}

// NewGoScanner returns a scanner for Go sources.
func NewGoScanner() *TreeSitterScanner {
	return &TreeSitterScanner{lang: golang.GetLanguage(), walk: walkGo}
}

// NewPythonScanner returns a scanner for Python sources.
func NewPythonScanner() *TreeSitterScanner {
	return &TreeSitterScanner{lang: python.GetLanguage(), walk: walkPython}
}

func (s *TreeSitterScanner) Scan(ctx context.Context, content []byte, fs *FileSummary) error {
	// A parser per call keeps the scanner safe for concurrent use.
	parser := sitter.NewParser()
	parser.SetLanguage(s.lang)

	tree, err := parser.ParseCtx(ctx, nil, content)
	if err != nil {
		return fmt.Errorf("tree-sitter parse failed: %w", err)
	}
	defer tree.Close()

	s.walk(tree.RootNode(), content, fs)
	return nil
}

func startLine(n *sitter.Node) int {
	return int(n.StartPoint().Row) + 1
}

func exportedGo(name string) bool {
	for _, r := range name {
		return unicode.IsUpper(r)
	}
	return false
}

func walkGo(root *sitter.Node, content []byte, fs *FileSummary) {
	for i := 0; i < int(root.NamedChildCount()); i++ {
		child := root.NamedChild(i)

		switch child.Type() {
		case "import_declaration":
			goImports(child, content, fs)

		case "function_declaration", "method_declaration":
			name := child.ChildByFieldName("name")
			if name == nil {
				continue
			}
			n := name.Content(content)
			fs.Functions = append(fs.Functions, Symbol{Name: n, Line: startLine(child)})
			if child.Type() == "function_declaration" && exportedGo(n) {
				fs.Exports = append(fs.Exports, n)
			}

		case "type_declaration":
			for j := 0; j < int(child.NamedChildCount()); j++ {
				spec := child.NamedChild(j)
				if spec.Type() != "type_spec" {
					continue
				}
				name := spec.ChildByFieldName("name")
				typ := spec.ChildByFieldName("type")
				if name == nil {
					continue
				}
				n := name.Content(content)
				if typ != nil && (typ.Type() == "struct_type" || typ.Type() == "interface_type") {
					fs.Classes = append(fs.Classes, Symbol{Name: n, Line: startLine(spec)})
				}
				if exportedGo(n) {
					fs.Exports = append(fs.Exports, n)
				}
			}

		case "const_declaration", "var_declaration":
			for j := 0; j < int(child.NamedChildCount()); j++ {
				spec := child.NamedChild(j)
				for k := 0; k < int(spec.NamedChildCount()); k++ {
					id := spec.NamedChild(k)
					if id.Type() != "identifier" {
						continue
					}
					if n := id.Content(content); exportedGo(n) {
						fs.Exports = append(fs.Exports, n)
					}
				}
			}
		}
	}
}

func goImports(decl *sitter.Node, content []byte, fs *FileSummary) {
	var visit func(n *sitter.Node)
	visit = func(n *sitter.Node) {
		if n.Type() == "import_spec" {
			if p := n.ChildByFieldName("path"); p != nil {
				fs.Imports = append(fs.Imports, strings.Trim(p.Content(content), "\"`"))
			}
			return
		}
		for i := 0; i < int(n.NamedChildCount()); i++ {
			visit(n.NamedChild(i))
		}
	}
	visit(decl)
}

func walkPython(root *sitter.Node, content []byte, fs *FileSummary) {
	for i := 0; i < int(root.NamedChildCount()); i++ {
		child := root.NamedChild(i)
		def := child
		if child.Type() == "decorated_definition" {
			if d := child.ChildByFieldName("definition"); d != nil {
				def = d
			}
		}

		switch def.Type() {
		case "function_definition", "class_definition":
			name := def.ChildByFieldName("name")
			if name == nil {
				continue
			}
			n := name.Content(content)
			sym := Symbol{Name: n, Line: startLine(def)}
			if def.Type() == "function_definition" {
				fs.Functions = append(fs.Functions, sym)
			} else {
				fs.Classes = append(fs.Classes, sym)
			}
			if !strings.HasPrefix(n, "_") {
				fs.Exports = append(fs.Exports, n)
			}

		case "import_statement":
			for j := 0; j < int(def.NamedChildCount()); j++ {
				n := def.NamedChild(j)
				switch n.Type() {
				case "dotted_name":
					fs.Imports = append(fs.Imports, n.Content(content))
				case "aliased_import":
					if name := n.ChildByFieldName("name"); name != nil {
						fs.Imports = append(fs.Imports, name.Content(content))
					}
				}
			}

		case "import_from_statement":
			if mod := def.ChildByFieldName("module_name"); mod != nil {
				fs.Imports = append(fs.Imports, mod.Content(content))
			}
		}
	}
}
