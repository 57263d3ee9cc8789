package codecontext

import (
	"path/filepath"
	"strings"
)

var extLanguages = map[string]string{
	".go":    "go",
	".py":    "python",
	".rs":    "rust",
	".js":    "javascript",
	".mjs":   "javascript",
	".cjs":   "javascript",
	".jsx":   "javascript",
	".ts":    "typescript",
	".tsx":   "typescript",
	".java":  "java",
	".kt":    "kotlin",
	".rb":    "ruby",
	".php":   "php",
	".cs":    "csharp",
	".c":     "c",
	".h":     "c",
	".cpp":   "cpp",
	".cc":    "cpp",
	".hpp":   "cpp",
	".swift": "swift",
}

// LanguageOf returns the language tag for a file path, or "" when the
// extension is not a recognised source language.
func LanguageOf(path string) string {
	return extLanguages[strings.ToLower(filepath.Ext(path))]
}

type framework struct {
	name  string
	match string
}

// frameworkTable is matched by substring against every collected import
// path, whatever the importing file's language.
var frameworkTable = []struct {
	language   string
	frameworks []framework
}{
	{"javascript", []framework{{"react", "react"}, {"vue", "vue"}, {"angular", "angular"}, {"express", "express"}, {"next", "next"}, {"svelte", "svelte"}}},
	{"typescript", []framework{{"nestjs", "@nestjs"}}},
	{"python", []framework{{"django", "django"}, {"flask", "flask"}, {"fastapi", "fastapi"}}},
	{"go", []framework{{"gin", "gin-gonic/gin"}, {"echo", "labstack/echo"}, {"fiber", "gofiber/fiber"}, {"cobra", "spf13/cobra"}, {"grpc", "google.golang.org/grpc"}}},
	{"rust", []framework{{"actix", "actix"}, {"rocket", "rocket"}, {"tokio", "tokio"}, {"axum", "axum"}}},
}

// detectFrameworks returns framework names in first-seen order.
func detectFrameworks(imports []string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, imp := range imports {
		for _, row := range frameworkTable {
			for _, fw := range row.frameworks {
				if seen[fw.name] || !strings.Contains(imp, fw.match) {
					continue
				}
				seen[fw.name] = true
				out = append(out, fw.name)
			}
		}
	}
	return out
}

// primaryLanguage returns the most frequent language, preferring the one
// seen first on ties, or "unknown" for an empty digest.
func primaryLanguage(files []FileSummary) string {
	counts := make(map[string]int)
	var order []string
	for _, f := range files {
		if counts[f.Language] == 0 {
			order = append(order, f.Language)
		}
		counts[f.Language]++
	}

	best, max := "unknown", 0
	for _, lang := range order {
		if counts[lang] > max {
			best, max = lang, counts[lang]
		}
	}
	return best
}
