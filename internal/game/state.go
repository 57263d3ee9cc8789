// Package game keeps score: points, streak, and level for one session.
package game

import (
	"time"
)

// Scoring constants.
const (
	BaseReward       = 100
	StreakBonusFrom  = 3
	HintPenalty      = 10
	SkipPenalty      = 25
	PointsPerLevel   = 500
	BaseStreakTarget = 5
)

// State is a point-in-time view of a session's score. Level and
// LevelProgress are derived from Points and never set directly.
type State struct {
	Points              int       `json:"points"`
	Streak              int       `json:"streak"`
	Level               int       `json:"level"`
	LevelProgress       float64   `json:"levelProgress"`
	ChallengesCompleted int       `json:"challengesCompleted"`
	ChallengesSkipped   int       `json:"challengesSkipped"`
	HintsUsed           int       `json:"hintsUsed"`
	SessionStart        time.Time `json:"sessionStart"`
}

// LevelFor returns the level earned by a point total: one level per 500
// points, starting at 1. Negative totals yield levels below 1.
func LevelFor(points int) int {
	return floorDiv(points, PointsPerLevel) + 1
}

// ProgressFor returns how far through the current 500-point band a point
// total is, as a percentage in [0, 100). Negative totals wrap, so -25 is
// 95% of the way through its band.
func ProgressFor(points int) float64 {
	return float64(floorMod(points, PointsPerLevel)) * 100 / PointsPerLevel
}

// NextStreakMilestone returns the next streak length above current that
// earns a celebration: 5, 10, 15, 20, then every 5.
func NextStreakMilestone(current int) int {
	thresholds := []int{5, 10, 15, 20}
	for _, t := range thresholds {
		if t > current {
			return t
		}
	}
	return ((current / BaseStreakTarget) + 1) * BaseStreakTarget
}

func floorDiv(a, b int) int {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}

func floorMod(a, b int) int {
	return a - floorDiv(a, b)*b
}
