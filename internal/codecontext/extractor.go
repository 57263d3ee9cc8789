package codecontext

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/rs/zerolog"
	"golang.org/x/mod/modfile"
)

// Default extraction limits.
const (
	DefaultMaxFiles    = 20
	DefaultMaxFileSize = 50_000
)

// DefaultIgnoredDirs are directory names never descended into.
var DefaultIgnoredDirs = []string{
	"node_modules", "dist", "out", "build", ".git", ".vscode", "coverage",
	"__tests__", "test", "tests", "vendor", "__pycache__",
}

// DefaultIgnoredFiles are base-name globs for test, declaration, and
// source-map files.
var DefaultIgnoredFiles = []string{
	"*.test.{ts,js,tsx,jsx}",
	"*.spec.{ts,js,tsx,jsx}",
	"*.d.ts",
	"*.map",
	"*_test.go",
	"test_*.py",
	"*_test.py",
}

// Options configures an Extractor.
type Options struct {
	MaxFiles     int
	MaxFileSize  int64
	IgnoredDirs  []string
	IgnoredFiles []string

	// Scanners overrides the per-language scanner. Languages without an
	// entry use LineScanner.
	Scanners map[string]Scanner
}

// DefaultOptions returns the standard limits, ignore lists, and the
// tree-sitter scanners for Go and Python.
func DefaultOptions() Options {
	return Options{
		MaxFiles:     DefaultMaxFiles,
		MaxFileSize:  DefaultMaxFileSize,
		IgnoredDirs:  DefaultIgnoredDirs,
		IgnoredFiles: DefaultIgnoredFiles,
		Scanners: map[string]Scanner{
			"go":     NewGoScanner(),
			"python": NewPythonScanner(),
		},
	}
}

// Extractor walks root directories and summarises their source files.
type Extractor struct {
	opts        Options
	ignoredDirs map[string]bool
	log         zerolog.Logger
}

// NewExtractor creates an Extractor. Zero limits fall back to defaults.
func NewExtractor(opts Options, log zerolog.Logger) *Extractor {
	if opts.MaxFiles <= 0 {
		opts.MaxFiles = DefaultMaxFiles
	}
	if opts.MaxFileSize <= 0 {
		opts.MaxFileSize = DefaultMaxFileSize
	}
	dirs := make(map[string]bool, len(opts.IgnoredDirs))
	for _, d := range opts.IgnoredDirs {
		dirs[d] = true
	}
	return &Extractor{
		opts:        opts,
		ignoredDirs: dirs,
		log:         log.With().Str("component", "codecontext").Logger(),
	}
}

// Extract scans every root and builds a CodeContext. Unreadable files and
// roots are skipped. Structure, language, and frameworks are computed over
// every summarised file; only the file list is capped at MaxFiles.
func (e *Extractor) Extract(ctx context.Context, roots []string) (*CodeContext, error) {
	var (
		files   []FileSummary
		imports []string
	)

	for _, root := range roots {
		abs, err := filepath.Abs(root)
		if err != nil {
			e.log.Warn().Err(err).Str("root", root).Msg("skipping root")
			continue
		}

		summaries, err := e.scanRoot(ctx, abs)
		if err != nil {
			return nil, err
		}
		files = append(files, summaries...)
		imports = append(imports, goModRequires(abs)...)
	}

	paths := make([]string, len(files))
	for i, f := range files {
		paths[i] = f.Path
		imports = append(imports, f.Imports...)
	}

	cc := &CodeContext{
		Files:            files,
		ProjectStructure: strings.Join(paths, "\n"),
		PrimaryLanguage:  primaryLanguage(files),
		Frameworks:       detectFrameworks(imports),
	}
	if len(cc.Files) > e.opts.MaxFiles {
		cc.Files = cc.Files[:e.opts.MaxFiles]
	}

	e.log.Debug().
		Int("files", len(cc.Files)).
		Int("scanned", len(files)).
		Str("language", cc.PrimaryLanguage).
		Strs("frameworks", cc.Frameworks).
		Msg("extracted code context")

	return cc, nil
}

func (e *Extractor) scanRoot(ctx context.Context, root string) ([]FileSummary, error) {
	var out []FileSummary

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if err != nil {
			e.log.Debug().Err(err).Str("path", path).Msg("skipping unreadable entry")
			if d != nil && d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			if path != root && e.ignoredDirs[d.Name()] {
				return fs.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() || e.ignoredFile(d.Name()) {
			return nil
		}

		if summary := e.analyzeFile(ctx, path, d); summary != nil {
			out = append(out, *summary)
		}
		return nil
	})
	if err != nil && ctx.Err() != nil {
		return nil, err
	}
	return out, nil
}

func (e *Extractor) ignoredFile(name string) bool {
	for _, pattern := range e.opts.IgnoredFiles {
		if ok, _ := doublestar.Match(pattern, name); ok {
			return true
		}
	}
	return false
}

// analyzeFile returns nil for files that are unreadable, too large, in an
// unknown language, or have no declarations worth a challenge.
func (e *Extractor) analyzeFile(ctx context.Context, path string, d fs.DirEntry) *FileSummary {
	lang := LanguageOf(path)
	if lang == "" {
		return nil
	}

	info, err := d.Info()
	if err != nil || info.Size() > e.opts.MaxFileSize {
		return nil
	}

	content, err := os.ReadFile(path)
	if err != nil {
		e.log.Debug().Err(err).Str("path", path).Msg("skipping unreadable file")
		return nil
	}

	summary := &FileSummary{
		Path:      path,
		Language:  lang,
		LineCount: strings.Count(string(content), "\n") + 1,
	}

	scanner, ok := e.opts.Scanners[lang]
	if !ok {
		scanner = LineScanner{}
	}
	if err := scanner.Scan(ctx, content, summary); err != nil {
		e.log.Debug().Err(err).Str("path", path).Msg("scan failed")
		return nil
	}

	if !summary.Interesting() {
		return nil
	}
	return summary
}

// goModRequires returns the module paths required by root/go.mod, if any.
func goModRequires(root string) []string {
	path := filepath.Join(root, "go.mod")
	data, err := os.ReadFile(path)
	if err != nil {
		return nil
	}
	f, err := modfile.ParseLax(path, data, nil)
	if err != nil {
		return nil
	}
	out := make([]string, 0, len(f.Require))
	for _, r := range f.Require {
		out = append(out, r.Mod.Path)
	}
	return out
}
