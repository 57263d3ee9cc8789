package challenge

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/abhisek/codehunt/internal/codecontext"
)

const systemPrompt = `You are an expert code challenge generator. Generate engaging, medium-difficulty coding challenges that test understanding of codebases. Always respond with valid JSON.`

// fileListing is the compact per-file view embedded in the prompt.
type fileListing struct {
	Path      string   `json:"path"`
	Language  string   `json:"language"`
	Functions []string `json:"functions"`
	Classes   []string `json:"classes"`
	Exports   []string `json:"exports"`
}

func symbolNames(syms []codecontext.Symbol) []string {
	out := make([]string, len(syms))
	for i, s := range syms {
		out[i] = fmt.Sprintf("%s (line %d)", s.Name, s.Line)
	}
	return out
}

// buildUserMessage embeds the digest and requested difficulty.
func buildUserMessage(input GenerateInput) string {
	cc := input.Context

	listing := make([]fileListing, len(cc.Files))
	for i, f := range cc.Files {
		listing[i] = fileListing{
			Path:      f.Path,
			Language:  f.Language,
			Functions: symbolNames(f.Functions),
			Classes:   symbolNames(f.Classes),
			Exports:   f.Exports,
		}
	}
	files, _ := json.MarshalIndent(listing, "", "  ")

	frameworks := strings.Join(cc.Frameworks, ", ")
	if frameworks == "" {
		frameworks = "None detected"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "You are generating a %s difficulty coding challenge.\n\n", DifficultyForLevel(input.Level))
	b.WriteString("Context about the codebase:\n")
	fmt.Fprintf(&b, "- Primary language: %s\n", cc.PrimaryLanguage)
	fmt.Fprintf(&b, "- Frameworks: %s\n", frameworks)
	fmt.Fprintf(&b, "- Files: %s\n\n", files)
	b.WriteString(`Generate a challenging but solvable task. It should be either:
1. A navigation challenge: Ask the user to find a specific function, class, or code pattern
2. A modification challenge: Ask the user to make a small, well-defined change to the code

Return a JSON object {"challenge": {...}} with fields type, title, description,
target {filePath, lineNumber, pattern, functionName, className}, expectedAction,
hints and difficulty.

Requirements:
- target.filePath MUST be copied exactly from one of the listed file paths
- For navigation: specify lineNumber and optionally functionName/className
- For modification: specify filePath and what change to make; a pattern, if given,
  must match the file content once the change is made
- Patterns use RE2 syntax (no lookahead or backreferences)
- Provide exactly 2 hints, the first specific but not giving it away, the second closer to the answer
- Make it challenging but achievable`)

	return b.String()
}
