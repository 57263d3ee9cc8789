package play

import (
	"context"
	"strings"
	"sync"
	"testing"

	tea "charm.land/bubbletea/v2"

	"github.com/abhisek/codehunt/internal/challenge"
	"github.com/abhisek/codehunt/internal/game"
	"github.com/abhisek/codehunt/internal/router"
	"github.com/abhisek/codehunt/internal/screens/diffview"
	"github.com/abhisek/codehunt/internal/screens/history"
	"github.com/abhisek/codehunt/internal/screens/summary"
	"github.com/abhisek/codehunt/internal/session"
)

type fakeController struct {
	mu       sync.Mutex
	commands []session.Command
	err      error
	snap     session.Snapshot
	diff     string
	diffOK   bool
}

func (f *fakeController) Dispatch(_ context.Context, cmd session.Command) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.commands = append(f.commands, cmd)
	return f.err
}

func (f *fakeController) Snapshot(context.Context) (session.Snapshot, error) {
	return f.snap, nil
}

func (f *fakeController) Diff(context.Context) (string, bool, error) {
	return f.diff, f.diffOK, nil
}

func (f *fakeController) Summary(context.Context) (*session.Summary, error) {
	return &session.Summary{Played: 3, Completed: 2}, nil
}

func (f *fakeController) sent() []session.Command {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]session.Command(nil), f.commands...)
}

func keyPress(r rune) tea.KeyPressMsg {
	return tea.KeyPressMsg{Code: r, Text: string(r)}
}

func specialKey(code rune) tea.KeyPressMsg {
	return tea.KeyPressMsg{Code: code}
}

func navChallenge() *challenge.Challenge {
	return &challenge.Challenge{
		ID:             "c1",
		Kind:           challenge.KindNavigation,
		Title:          "Find the user loader",
		Description:    "Locate where users are read from disk.",
		Difficulty:     challenge.DifficultyEasy,
		Target:         challenge.Target{FilePath: "src/users.go", LineNumber: 12},
		ExpectedAction: "Move the cursor to loadUsers",
		Hints:          []string{"Look in src", "It starts with load"},
		Points:         50,
	}
}

func liveSnapshot(c *challenge.Challenge) session.Snapshot {
	return session.Snapshot{
		Game:      game.State{Points: 120, Level: 1, LevelProgress: 24},
		Challenge: session.ChallengeState{Current: c, AwaitingVerification: true},
	}
}

func newTestScreen() (*PlayScreen, *fakeController) {
	fc := &fakeController{}
	return New(context.Background(), fc), fc
}

// feed runs a key through the screen and pipes the resulting message back.
func feed(t *testing.T, s *PlayScreen, key tea.Msg) tea.Msg {
	t.Helper()
	_, cmd := s.Update(key)
	if cmd == nil {
		t.Fatalf("key %v produced no command", key)
	}
	return cmd()
}

func TestPlayScreen_KeysDispatchCommands(t *testing.T) {
	tests := []struct {
		key  tea.Msg
		want session.Command
	}{
		{keyPress('s'), session.CommandStart},
		{specialKey(tea.KeyEnter), session.CommandSubmit},
		{keyPress('h'), session.CommandHint},
		{keyPress('n'), session.CommandSkip},
	}
	for _, tt := range tests {
		s, fc := newTestScreen()
		msg := feed(t, s, tt.key)
		if _, ok := msg.(dispatchedMsg); !ok {
			t.Fatalf("expected dispatchedMsg, got %T", msg)
		}
		got := fc.sent()
		if len(got) != 1 || got[0] != tt.want {
			t.Errorf("key %v dispatched %v, want [%s]", tt.key, got, tt.want)
		}
	}
}

func TestPlayScreen_DispatchErrorBecomesNotice(t *testing.T) {
	s, fc := newTestScreen()
	fc.err = session.ErrStopped
	s.Update(RenderMsg{})

	s.Update(feed(t, s, keyPress('s')))

	if !strings.Contains(s.View(100, 30), "session stopped") {
		t.Error("expected dispatch error in view")
	}
}

func TestPlayScreen_Init(t *testing.T) {
	s, fc := newTestScreen()
	fc.snap = liveSnapshot(navChallenge())

	msg := s.Init()()
	rm, ok := msg.(RenderMsg)
	if !ok {
		t.Fatalf("expected RenderMsg, got %T", msg)
	}
	s.Update(rm)
	if s.Snapshot().Game.Points != 120 {
		t.Errorf("Points = %d, want 120", s.Snapshot().Game.Points)
	}
}

func TestPlayScreen_RendersNavigationWithoutTarget(t *testing.T) {
	s, _ := newTestScreen()
	s.Update(RenderMsg{Snapshot: liveSnapshot(navChallenge())})

	view := s.View(100, 30)
	if !strings.Contains(view, "Find the user loader") {
		t.Error("expected challenge title in view")
	}
	if strings.Contains(view, "src/users.go") {
		t.Error("navigation target should not be shown")
	}
	if !strings.Contains(view, "Hints left: 2") {
		t.Error("expected hint count in view")
	}
}

func TestPlayScreen_RendersModificationTargetAndHints(t *testing.T) {
	s, _ := newTestScreen()
	c := navChallenge()
	c.Kind = challenge.KindModification
	snap := liveSnapshot(c)
	snap.Challenge.HintsUsed = 1
	s.Update(RenderMsg{Snapshot: snap})

	view := s.View(100, 40)
	if !strings.Contains(view, "File: src/users.go") {
		t.Error("expected modification target file in view")
	}
	if !strings.Contains(view, "Hint 1: Look in src") {
		t.Error("expected revealed hint in view")
	}
	if strings.Contains(view, "It starts with load") {
		t.Error("unrevealed hint should not be shown")
	}
}

func TestPlayScreen_Generating(t *testing.T) {
	s, _ := newTestScreen()

	_, cmd := s.Update(RenderMsg{Snapshot: session.Snapshot{Generating: true}})
	if cmd == nil {
		t.Error("expected spinner tick to start")
	}
	if !strings.Contains(s.View(100, 30), "Generating challenge...") {
		t.Error("expected generating message")
	}

	// A second render while still generating must not start another tick loop.
	_, cmd = s.Update(RenderMsg{Snapshot: session.Snapshot{Generating: true}})
	if cmd != nil {
		t.Error("spinner restarted while already running")
	}
}

func TestPlayScreen_NoticesAreCapped(t *testing.T) {
	s, _ := newTestScreen()
	s.Update(RenderMsg{})
	for _, text := range []string{"one", "two", "three", "four", "five"} {
		s.Update(NoticeMsg{Text: "notice " + text, Severity: session.SeverityInfo})
	}

	view := s.View(100, 30)
	if strings.Contains(view, "notice one") {
		t.Error("oldest notice should be dropped")
	}
	if !strings.Contains(view, "notice five") {
		t.Error("newest notice should be shown")
	}
}

func TestPlayScreen_Celebrate(t *testing.T) {
	s, _ := newTestScreen()
	s.Update(RenderMsg{})

	_, cmd := s.Update(CelebrateMsg{})
	if cmd == nil {
		t.Fatal("expected timer command")
	}
	if !strings.Contains(s.View(100, 30), "Challenge complete!") {
		t.Error("expected celebration banner")
	}

	s.Update(CelebrateMsg{})
	s.Update(celebrateDoneMsg{seq: 1})
	if !strings.Contains(s.View(100, 30), "Challenge complete!") {
		t.Error("stale timer should not hide a newer banner")
	}

	s.Update(celebrateDoneMsg{seq: 2})
	if strings.Contains(s.View(100, 30), "Challenge complete!") {
		t.Error("banner should be hidden")
	}
}

func TestPlayScreen_DiffPushesScreen(t *testing.T) {
	s, fc := newTestScreen()
	fc.diff = "--- a/x\n+++ b/x\n@@ -1 +1 @@\n-a\n+b\n"
	fc.diffOK = true

	_, cmd := s.Update(feed(t, s, keyPress('d')))
	if cmd == nil {
		t.Fatal("expected push command")
	}
	push, ok := cmd().(router.PushScreenMsg)
	if !ok {
		t.Fatal("expected PushScreenMsg")
	}
	if _, ok := push.Screen.(*diffview.DiffScreen); !ok {
		t.Errorf("pushed %T, want *diffview.DiffScreen", push.Screen)
	}
}

func TestPlayScreen_DiffWithoutChanges(t *testing.T) {
	s, _ := newTestScreen()
	s.Update(RenderMsg{})

	_, cmd := s.Update(feed(t, s, keyPress('d')))
	if cmd != nil {
		t.Error("expected no screen push")
	}
	if !strings.Contains(s.View(100, 30), "No changes to show") {
		t.Error("expected no-changes notice")
	}
}

func TestPlayScreen_HistoryAndSummary(t *testing.T) {
	s, _ := newTestScreen()

	push, ok := feed(t, s, keyPress('l')).(router.PushScreenMsg)
	if !ok {
		t.Fatal("expected PushScreenMsg for history")
	}
	if _, ok := push.Screen.(*history.HistoryScreen); !ok {
		t.Errorf("pushed %T, want *history.HistoryScreen", push.Screen)
	}

	_, cmd := s.Update(feed(t, s, keyPress('q')))
	push, ok = cmd().(router.PushScreenMsg)
	if !ok {
		t.Fatal("expected PushScreenMsg for summary")
	}
	if _, ok := push.Screen.(*summary.SummaryScreen); !ok {
		t.Errorf("pushed %T, want *summary.SummaryScreen", push.Screen)
	}
}

func TestPlayScreen_KeyHints(t *testing.T) {
	s, _ := newTestScreen()
	if len(s.KeyHints()) != 3 {
		t.Errorf("idle hints = %d, want 3", len(s.KeyHints()))
	}
	s.Update(RenderMsg{Snapshot: liveSnapshot(navChallenge())})
	if len(s.KeyHints()) != 7 {
		t.Errorf("active hints = %d, want 7", len(s.KeyHints()))
	}
}
