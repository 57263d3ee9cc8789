package game

import (
	"time"

	"github.com/abhisek/codehunt/internal/metrics"
)

// Manager applies the scoring rules. It is owned by a single goroutine and
// is not safe for concurrent use.
type Manager struct {
	state   State
	metrics *metrics.Metrics
}

// NewManager starts a session at level 1 with no points. m may be nil.
func NewManager(m *metrics.Metrics) *Manager {
	g := &Manager{
		state:   State{Level: 1, SessionStart: time.Now()},
		metrics: m,
	}
	g.recompute()
	return g
}

// State returns a copy of the current score.
func (g *Manager) State() State {
	return g.state
}

// Completion describes the effect of a completed challenge.
type Completion struct {
	Reward    int
	Doubled   bool
	Milestone bool
	LevelUp   bool
}

// CompleteChallenge awards a solved challenge. The base reward doubles when
// the streak before this completion is at least 3, and a challenge solved
// after taking a hint loses 10 more points on top of the hint's own cost.
func (g *Manager) CompleteChallenge(usedHint bool) Completion {
	var c Completion
	c.Reward = BaseReward
	if g.state.Streak >= StreakBonusFrom {
		c.Reward *= 2
		c.Doubled = true
	}
	if usedHint {
		c.Reward -= HintPenalty
	}

	prevLevel := g.state.Level
	c.Milestone = g.state.Streak+1 == NextStreakMilestone(g.state.Streak)

	g.state.Points += c.Reward
	g.state.Streak++
	g.state.ChallengesCompleted++
	g.recompute()

	c.LevelUp = g.state.Level > prevLevel
	return c
}

// FailChallenge breaks the streak without costing points.
func (g *Manager) FailChallenge() {
	g.state.Streak = 0
	g.publish()
}

// SkipChallenge costs 25 points and breaks the streak.
func (g *Manager) SkipChallenge() {
	g.state.Points -= SkipPenalty
	g.state.Streak = 0
	g.state.ChallengesSkipped++
	g.recompute()
	g.metrics.Skipped()
}

// UseHint costs 10 points.
func (g *Manager) UseHint() {
	g.state.Points -= HintPenalty
	g.state.HintsUsed++
	g.recompute()
	g.metrics.HintUsed()
}

// recompute derives level and progress from points. The level never drops.
func (g *Manager) recompute() {
	g.state.LevelProgress = ProgressFor(g.state.Points)
	if candidate := LevelFor(g.state.Points); candidate > g.state.Level {
		g.state.Level = candidate
	}
	g.publish()
}

func (g *Manager) publish() {
	g.metrics.SetProgress(g.state.Points, g.state.Level, g.state.Streak)
}
