// Package challenge turns a code digest into a scored coding challenge by
// asking an LLM provider and validating what comes back.
package challenge

import (
	"time"

	"github.com/abhisek/codehunt/internal/codecontext"
)

// Kind selects how a challenge is verified.
type Kind string

const (
	// KindNavigation is solved by moving the cursor to the target.
	KindNavigation Kind = "navigation"

	// KindModification is solved by editing the target file.
	KindModification Kind = "modification"
)

// Difficulty is the generator's difficulty label.
type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

// Target locates what the user must find or change. Every field except
// FilePath is optional; LineNumber is 1-based and 0 means unset.
type Target struct {
	FilePath     string `json:"filePath" validate:"required"`
	LineNumber   int    `json:"lineNumber,omitempty" validate:"gte=0"`
	Pattern      string `json:"pattern,omitempty"`
	FunctionName string `json:"functionName,omitempty"`
	ClassName    string `json:"className,omitempty"`
}

// Challenge is a single task presented to the user.
type Challenge struct {
	ID             string     `json:"id"`
	Kind           Kind       `json:"type" validate:"required,oneof=navigation modification"`
	Title          string     `json:"title" validate:"required,max=200"`
	Description    string     `json:"description" validate:"required"`
	Difficulty     Difficulty `json:"difficulty"`
	Target         Target     `json:"target"`
	ExpectedAction string     `json:"expectedAction" validate:"required"`
	Hints          []string   `json:"hints"`
	Points         int        `json:"points"`
	Completed      bool       `json:"completed"`
	CompletedAt    *time.Time `json:"completedAt,omitempty"`
}

// GenerateInput holds everything needed to generate a challenge.
type GenerateInput struct {
	// Context is the digest the challenge must be grounded on.
	Context *codecontext.CodeContext

	// Level is the player's current level (1-based).
	Level int
}

// DifficultyForLevel maps a player level to the requested difficulty:
// above 3 is hard, above 1 is medium, anything else is easy.
func DifficultyForLevel(level int) Difficulty {
	switch {
	case level > 3:
		return DifficultyHard
	case level > 1:
		return DifficultyMedium
	default:
		return DifficultyEasy
	}
}

// PointsFor returns the nominal point value for a difficulty label.
// Unknown labels are worth the medium value.
func PointsFor(d Difficulty) int {
	switch d {
	case DifficultyEasy:
		return 50
	case DifficultyMedium:
		return 100
	case DifficultyHard:
		return 150
	default:
		return 100
	}
}
