package session

import (
	"time"

	"github.com/abhisek/codehunt/internal/challenge"
)

// MaxHints is the number of hints a challenge may reveal.
const MaxHints = 2

// ChallengeState is a copy of the current challenge and the session's
// challenge history.
type ChallengeState struct {
	Current              *challenge.Challenge  `json:"currentChallenge"`
	History              []challenge.Challenge `json:"challengeHistory"`
	HintsUsed            int                   `json:"currentHintsUsed"`
	AwaitingVerification bool                  `json:"awaitingVerification"`
}

// AvailableHints is how many hints the current challenge can still reveal.
func (s ChallengeState) AvailableHints() int {
	if s.Current == nil {
		return 0
	}
	return MaxHints - s.HintsUsed
}

// ChallengeStateManager tracks the current challenge, its hint counter, and
// the challenges already played. It is owned by the orchestrator loop and is
// not safe for concurrent use.
type ChallengeStateManager struct {
	current   *challenge.Challenge
	history   []challenge.Challenge
	hintsUsed int
	awaiting  bool

	now      func() time.Time
	onChange func(ChallengeState)
}

// NewChallengeStateManager creates an empty manager.
func NewChallengeStateManager() *ChallengeStateManager {
	return &ChallengeStateManager{now: time.Now}
}

// Subscribe registers the single state-change listener, replacing any
// previous one.
func (m *ChallengeStateManager) Subscribe(fn func(ChallengeState)) {
	m.onChange = fn
}

// State returns a deep copy of the state.
func (m *ChallengeStateManager) State() ChallengeState {
	s := ChallengeState{
		History:              make([]challenge.Challenge, 0, len(m.history)),
		HintsUsed:            m.hintsUsed,
		AwaitingVerification: m.awaiting,
	}
	for _, c := range m.history {
		s.History = append(s.History, copyChallenge(&c))
	}
	if m.current != nil {
		c := copyChallenge(m.current)
		s.Current = &c
	}
	return s
}

// Current returns a copy of the current challenge, or nil.
func (m *ChallengeStateManager) Current() *challenge.Challenge {
	if m.current == nil {
		return nil
	}
	c := copyChallenge(m.current)
	return &c
}

// HintsUsed is the number of hints taken on the current challenge.
func (m *ChallengeStateManager) HintsUsed() int {
	return m.hintsUsed
}

// SetCurrent makes c the current challenge. A challenge that was still
// current is archived unresolved.
func (m *ChallengeStateManager) SetCurrent(c *challenge.Challenge) {
	if m.current != nil {
		m.history = append(m.history, *m.current)
	}
	cc := copyChallenge(c)
	m.current = &cc
	m.hintsUsed = 0
	m.awaiting = false
	m.notify()
}

// Complete marks the current challenge solved and archives it. It returns
// the archived challenge, or nil when there was none.
func (m *ChallengeStateManager) Complete() *challenge.Challenge {
	if m.current == nil {
		return nil
	}
	at := m.now()
	m.current.Completed = true
	m.current.CompletedAt = &at
	return m.archive()
}

// Fail archives the current challenge without marking it solved.
func (m *ChallengeStateManager) Fail() *challenge.Challenge {
	if m.current == nil {
		return nil
	}
	return m.archive()
}

// Skip archives the current challenge without marking it solved.
func (m *ChallengeStateManager) Skip() *challenge.Challenge {
	if m.current == nil {
		return nil
	}
	m.current.Completed = false
	return m.archive()
}

// UseHint reveals the next hint of the current challenge. It reports false
// when there is no current challenge or its hints are used up.
func (m *ChallengeStateManager) UseHint() (string, bool) {
	if m.current == nil || m.hintsUsed >= MaxHints || m.hintsUsed >= len(m.current.Hints) {
		return "", false
	}
	hint := m.current.Hints[m.hintsUsed]
	m.hintsUsed++
	m.notify()
	return hint, true
}

// SetAwaiting records whether a verifier is armed for the current challenge.
func (m *ChallengeStateManager) SetAwaiting(awaiting bool) {
	m.awaiting = awaiting
	m.notify()
}

func (m *ChallengeStateManager) archive() *challenge.Challenge {
	archived := *m.current
	m.history = append(m.history, archived)
	m.current = nil
	m.hintsUsed = 0
	m.awaiting = false
	m.notify()
	return &archived
}

func (m *ChallengeStateManager) notify() {
	if m.onChange != nil {
		m.onChange(m.State())
	}
}

func copyChallenge(c *challenge.Challenge) challenge.Challenge {
	out := *c
	out.Hints = append([]string(nil), c.Hints...)
	if c.CompletedAt != nil {
		at := *c.CompletedAt
		out.CompletedAt = &at
	}
	return out
}
