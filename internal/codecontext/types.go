// Package codecontext builds a compact structural digest of a codebase that
// challenge generation is grounded on.
package codecontext

// CodeContext is the digest handed to the challenge generator. It is derived
// per request and never persisted.
type CodeContext struct {
	Files            []FileSummary `json:"files"`
	ProjectStructure string        `json:"project_structure"`
	PrimaryLanguage  string        `json:"primary_language"`
	Frameworks       []string      `json:"frameworks"`
}

// FileSummary describes the challenge-relevant shape of one source file.
type FileSummary struct {
	// Path is absolute.
	Path      string   `json:"path"`
	Language  string   `json:"language"`
	Exports   []string `json:"exports"`
	Imports   []string `json:"imports"`
	Functions []Symbol `json:"functions"`
	Classes   []Symbol `json:"classes"`
	LineCount int      `json:"line_count"`
}

// Symbol is a named declaration and the 1-based line it starts on.
type Symbol struct {
	Name string `json:"name"`
	Line int    `json:"line"`
}

// Interesting reports whether the file has any material to build a
// challenge around.
func (f *FileSummary) Interesting() bool {
	return len(f.Exports) > 0 || len(f.Functions) > 0 || len(f.Classes) > 0
}

// HasFile reports whether path names one of the digest's files.
func (c *CodeContext) HasFile(path string) bool {
	for _, f := range c.Files {
		if f.Path == path {
			return true
		}
	}
	return false
}

// Paths returns the file paths in digest order.
func (c *CodeContext) Paths() []string {
	out := make([]string, len(c.Files))
	for i, f := range c.Files {
		out[i] = f.Path
	}
	return out
}
