package codecontext

import (
	"context"
	"regexp"
	"strings"
)

// Scanner fills in the declarations of a file from its content.
type Scanner interface {
	Scan(ctx context.Context, content []byte, fs *FileSummary) error
}

var (
	funcDecl   = regexp.MustCompile(`(?:export\s+)?function\s+(\w+)`)
	classDecl  = regexp.MustCompile(`(?:export\s+)?class\s+(\w+)`)
	varDecl    = regexp.MustCompile(`(?:export\s+)?(?:const|let|var)\s+(\w+)`)
	importDecl = regexp.MustCompile(`import\s+(?:\{[^}]+\}|\*\s+as\s+\w+|\w+)\s+from\s+['"]([^'"]+)['"]`)
)

// LineScanner recognises declarations line by line using JavaScript-shaped
// patterns. It is the fallback for every language without a parser.
type LineScanner struct{}

func (LineScanner) Scan(_ context.Context, content []byte, fs *FileSummary) error {
	for i, raw := range strings.Split(string(content), "\n") {
		line := strings.TrimSpace(raw)
		lineNum := i + 1

		switch {
		case hasAnyPrefix(line, "export function", "function"):
			if m := funcDecl.FindStringSubmatch(line); m != nil {
				fs.Exports = append(fs.Exports, m[1])
				fs.Functions = append(fs.Functions, Symbol{Name: m[1], Line: lineNum})
			}
		case hasAnyPrefix(line, "export class", "class"):
			if m := classDecl.FindStringSubmatch(line); m != nil {
				fs.Classes = append(fs.Classes, Symbol{Name: m[1], Line: lineNum})
				fs.Exports = append(fs.Exports, m[1])
			}
		case hasAnyPrefix(line, "export const", "export let", "export var", "const", "let", "var"):
			if m := varDecl.FindStringSubmatch(line); m != nil {
				fs.Exports = append(fs.Exports, m[1])
			}
		case strings.HasPrefix(line, "import"):
			if m := importDecl.FindStringSubmatch(line); m != nil {
				fs.Imports = append(fs.Imports, m[1])
			}
		case strings.HasPrefix(line, "export default"):
			fs.Exports = append(fs.Exports, "default")
		}
	}
	return nil
}

func hasAnyPrefix(s string, prefixes ...string) bool {
	for _, p := range prefixes {
		if strings.HasPrefix(s, p) {
			return true
		}
	}
	return false
}
