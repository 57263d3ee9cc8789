package app

import (
	"context"
	"sync"
	"testing"

	tea "charm.land/bubbletea/v2"
	"github.com/rs/zerolog"

	"github.com/abhisek/codehunt/internal/game"
	"github.com/abhisek/codehunt/internal/router"
	"github.com/abhisek/codehunt/internal/screens/diffview"
	"github.com/abhisek/codehunt/internal/screens/play"
	"github.com/abhisek/codehunt/internal/session"
)

type nopController struct{}

func (nopController) Dispatch(context.Context, session.Command) error { return nil }
func (nopController) Snapshot(context.Context) (session.Snapshot, error) {
	return session.Snapshot{}, nil
}
func (nopController) Diff(context.Context) (string, bool, error)         { return "", false, nil }
func (nopController) Summary(context.Context) (*session.Summary, error) { return &session.Summary{}, nil }

type recordingSender struct {
	mu   sync.Mutex
	msgs []tea.Msg
}

func (r *recordingSender) Send(msg tea.Msg) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.msgs = append(r.msgs, msg)
}

func (r *recordingSender) received() []tea.Msg {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]tea.Msg(nil), r.msgs...)
}

func TestPresenter_DetachedDropsUpdates(t *testing.T) {
	p := NewPresenter(zerolog.Nop())
	p.ShowMessage("lost", session.SeverityInfo)
	p.Celebrate()
	p.Render(session.Snapshot{})
}

func TestPresenter_ForwardsInOrder(t *testing.T) {
	p := NewPresenter(zerolog.Nop())
	rs := &recordingSender{}
	stop := p.attach(rs)

	p.ShowMessage("hello", session.SeveritySuccess)
	p.Celebrate()
	p.Render(session.Snapshot{Generating: true})
	stop()

	got := rs.received()
	if len(got) != 3 {
		t.Fatalf("forwarded %d messages, want 3", len(got))
	}
	if n, ok := got[0].(play.NoticeMsg); !ok || n.Text != "hello" || n.Severity != session.SeveritySuccess {
		t.Errorf("first message = %#v", got[0])
	}
	if _, ok := got[1].(play.CelebrateMsg); !ok {
		t.Errorf("second message = %#v", got[1])
	}
	if r, ok := got[2].(play.RenderMsg); !ok || !r.Snapshot.Generating {
		t.Errorf("third message = %#v", got[2])
	}

	// Detached again after stop.
	p.ShowMessage("after", session.SeverityInfo)
	if len(rs.received()) != 3 {
		t.Error("message forwarded after detach")
	}
}

func TestAppModel_RenderReachesCoveredPlayScreen(t *testing.T) {
	m := newAppModel(context.Background(), nopController{})
	m.router.Push(diffview.New("+x"))

	snap := session.Snapshot{Game: game.State{Points: 340, Streak: 2, Level: 1}}
	updated, _ := m.Update(play.RenderMsg{Snapshot: snap})
	m = updated.(AppModel)

	if m.router.Depth() != 2 {
		t.Fatalf("Depth = %d, want 2", m.router.Depth())
	}
	if m.snap.Game.Points != 340 {
		t.Errorf("header points = %d, want 340", m.snap.Game.Points)
	}

	m.router.Pop()
	ps, ok := m.router.Active().(*play.PlayScreen)
	if !ok {
		t.Fatalf("root screen is %T", m.router.Active())
	}
	if ps.Snapshot().Game.Points != 340 {
		t.Errorf("play screen points = %d, want 340", ps.Snapshot().Game.Points)
	}
}

func TestAppModel_EscPopsOnlyAboveRoot(t *testing.T) {
	m := newAppModel(context.Background(), nopController{})
	esc := tea.KeyPressMsg{Code: tea.KeyEscape}

	if _, cmd := m.Update(esc); cmd != nil {
		t.Error("esc at root should do nothing")
	}

	m.router.Push(diffview.New("+x"))
	_, cmd := m.Update(esc)
	if cmd == nil {
		t.Fatal("expected pop command")
	}
	if _, ok := cmd().(router.PopScreenMsg); !ok {
		t.Error("expected PopScreenMsg")
	}
}
