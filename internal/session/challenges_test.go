package session

import (
	"testing"
	"time"

	"github.com/abhisek/codehunt/internal/challenge"
)

func sampleChallenge(id string) *challenge.Challenge {
	return &challenge.Challenge{
		ID:     id,
		Kind:   challenge.KindNavigation,
		Title:  "Find it",
		Target: challenge.Target{FilePath: "/ws/a.go", LineNumber: 42},
		Hints:  []string{"first", "second"},
		Points: 100,
	}
}

func TestChallengeState_HintLimit(t *testing.T) {
	m := NewChallengeStateManager()
	m.SetCurrent(sampleChallenge("c1"))

	for i, want := range []string{"first", "second"} {
		got, ok := m.UseHint()
		if !ok || got != want {
			t.Fatalf("hint %d = (%q, %v), want %q", i+1, got, ok, want)
		}
	}
	if got, ok := m.UseHint(); ok || got != "" {
		t.Errorf("third hint = (%q, %v), want none", got, ok)
	}
	if m.HintsUsed() != 2 {
		t.Errorf("HintsUsed = %d, want 2", m.HintsUsed())
	}
	if n := m.State().AvailableHints(); n != 0 {
		t.Errorf("AvailableHints = %d, want 0", n)
	}
}

func TestChallengeState_NoCurrent(t *testing.T) {
	m := NewChallengeStateManager()
	if _, ok := m.UseHint(); ok {
		t.Error("UseHint without a challenge should report false")
	}
	if m.Complete() != nil || m.Skip() != nil || m.Fail() != nil {
		t.Error("resolving without a challenge should return nil")
	}
	if len(m.State().History) != 0 {
		t.Error("history should be empty")
	}
}

func TestChallengeState_Lifecycle(t *testing.T) {
	m := NewChallengeStateManager()
	fixed := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return fixed }

	var notified int
	m.Subscribe(func(ChallengeState) { notified++ })

	m.SetCurrent(sampleChallenge("c1"))
	m.UseHint()
	m.SetCurrent(sampleChallenge("c2"))
	if m.HintsUsed() != 0 {
		t.Errorf("HintsUsed after SetCurrent = %d, want 0", m.HintsUsed())
	}

	done := m.Complete()
	if done == nil || !done.Completed || done.CompletedAt == nil || !done.CompletedAt.Equal(fixed) {
		t.Fatalf("completed = %+v", done)
	}

	m.SetCurrent(sampleChallenge("c3"))
	m.Skip()
	m.SetCurrent(sampleChallenge("c4"))
	m.Fail()

	s := m.State()
	if s.Current != nil {
		t.Errorf("current = %+v, want nil", s.Current)
	}
	wantIDs := []string{"c1", "c2", "c3", "c4"}
	wantDone := []bool{false, true, false, false}
	if len(s.History) != len(wantIDs) {
		t.Fatalf("history len = %d, want %d", len(s.History), len(wantIDs))
	}
	for i := range wantIDs {
		if s.History[i].ID != wantIDs[i] || s.History[i].Completed != wantDone[i] {
			t.Errorf("history[%d] = %s completed=%v", i, s.History[i].ID, s.History[i].Completed)
		}
	}
	if notified != 7 {
		t.Errorf("notifications = %d, want 7", notified)
	}
}

func TestChallengeState_StateIsACopy(t *testing.T) {
	m := NewChallengeStateManager()
	m.SetCurrent(sampleChallenge("c1"))

	s := m.State()
	s.Current.Hints[0] = "changed"
	s.Current.Title = "changed"
	if got := m.Current(); got.Hints[0] != "first" || got.Title != "Find it" {
		t.Errorf("state leaked internal challenge: %+v", got)
	}
}
