package session

import (
	"time"

	"github.com/abhisek/codehunt/internal/challenge"
	"github.com/abhisek/codehunt/internal/game"
)

// Summary describes a finished session.
type Summary struct {
	Duration  time.Duration
	Played    int
	Completed int
	Skipped   int
	HintsUsed int
	Points    int
	Level     int
	Accuracy  float64
	ByKind    map[challenge.Kind]int
}

// BuildSummary summarises a session from its score and challenge history.
// A challenge still in progress is not counted.
func BuildSummary(g game.State, cs ChallengeState, now time.Time) *Summary {
	s := &Summary{
		Duration:  now.Sub(g.SessionStart),
		Played:    len(cs.History),
		Completed: g.ChallengesCompleted,
		Skipped:   g.ChallengesSkipped,
		HintsUsed: g.HintsUsed,
		Points:    g.Points,
		Level:     g.Level,
		ByKind:    make(map[challenge.Kind]int),
	}
	solved := 0
	for _, c := range cs.History {
		if c.Completed {
			solved++
			s.ByKind[c.Kind]++
		}
	}
	if s.Played > 0 {
		s.Accuracy = float64(solved) / float64(s.Played)
	}
	return s
}
