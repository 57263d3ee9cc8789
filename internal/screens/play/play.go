// Package play is the main screen: it shows the current challenge and the
// score, and turns key presses into session commands.
package play

import (
	"context"
	"time"

	"charm.land/bubbles/v2/spinner"
	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/abhisek/codehunt/internal/router"
	"github.com/abhisek/codehunt/internal/screen"
	"github.com/abhisek/codehunt/internal/screens/diffview"
	"github.com/abhisek/codehunt/internal/screens/history"
	"github.com/abhisek/codehunt/internal/screens/summary"
	"github.com/abhisek/codehunt/internal/session"
	"github.com/abhisek/codehunt/internal/ui/layout"
	"github.com/abhisek/codehunt/internal/ui/theme"
)

const (
	maxNotices        = 4
	celebrateDuration = 2 * time.Second
)

// Controller is the slice of the session the screen drives.
type Controller interface {
	Dispatch(ctx context.Context, cmd session.Command) error
	Snapshot(ctx context.Context) (session.Snapshot, error)
	Diff(ctx context.Context) (string, bool, error)
	Summary(ctx context.Context) (*session.Summary, error)
}

type notice struct {
	text     string
	severity session.Severity
}

// PlayScreen shows the live session.
type PlayScreen struct {
	ctx  context.Context
	ctrl Controller

	snap    session.Snapshot
	loaded  bool
	notices []notice

	celebrating  bool
	celebrateSeq int

	spinner  spinner.Model
	spinning bool
}

var _ screen.Screen = (*PlayScreen)(nil)
var _ screen.KeyHintProvider = (*PlayScreen)(nil)

// New creates a PlayScreen bound to ctrl. ctx bounds every call made to it.
func New(ctx context.Context, ctrl Controller) *PlayScreen {
	return &PlayScreen{
		ctx:  ctx,
		ctrl: ctrl,
		spinner: spinner.New(
			spinner.WithSpinner(spinner.Dot),
			spinner.WithStyle(lipgloss.NewStyle().Foreground(theme.Primary)),
		),
	}
}

// Init fetches the current snapshot so the screen is populated before the
// first push from the session arrives.
func (s *PlayScreen) Init() tea.Cmd {
	return func() tea.Msg {
		snap, err := s.ctrl.Snapshot(s.ctx)
		if err != nil {
			return NoticeMsg{Text: err.Error(), Severity: session.SeverityError}
		}
		return RenderMsg{Snapshot: snap}
	}
}

func (s *PlayScreen) Title() string {
	return "Play"
}

func (s *PlayScreen) KeyHints() []layout.KeyHint {
	hints := []layout.KeyHint{{Key: "s", Description: "Start"}}
	if s.snap.Challenge.Current != nil {
		hints = append(hints,
			layout.KeyHint{Key: "Enter", Description: "Submit"},
			layout.KeyHint{Key: "h", Description: "Hint"},
			layout.KeyHint{Key: "n", Description: "Skip"},
			layout.KeyHint{Key: "d", Description: "Diff"},
		)
	}
	return append(hints,
		layout.KeyHint{Key: "l", Description: "History"},
		layout.KeyHint{Key: "q", Description: "Finish"},
	)
}

// Snapshot returns the last state the screen rendered.
func (s *PlayScreen) Snapshot() session.Snapshot {
	return s.snap
}

func (s *PlayScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case RenderMsg:
		s.snap = msg.Snapshot
		s.loaded = true
		if s.snap.Generating && !s.spinning {
			s.spinning = true
			return s, s.spinner.Tick
		}
		return s, nil

	case NoticeMsg:
		s.addNotice(msg.Text, msg.Severity)
		return s, nil

	case CelebrateMsg:
		s.celebrating = true
		s.celebrateSeq++
		seq := s.celebrateSeq
		return s, tea.Tick(celebrateDuration, func(time.Time) tea.Msg {
			return celebrateDoneMsg{seq: seq}
		})

	case celebrateDoneMsg:
		if msg.seq == s.celebrateSeq {
			s.celebrating = false
		}
		return s, nil

	case spinner.TickMsg:
		if !s.snap.Generating {
			s.spinning = false
			return s, nil
		}
		var cmd tea.Cmd
		s.spinner, cmd = s.spinner.Update(msg)
		return s, cmd

	case dispatchedMsg:
		if msg.Err != nil {
			s.addNotice(msg.Err.Error(), session.SeverityError)
		}
		return s, nil

	case diffReadyMsg:
		switch {
		case msg.Err != nil:
			s.addNotice(msg.Err.Error(), session.SeverityError)
			return s, nil
		case !msg.OK:
			s.addNotice("No changes to show", session.SeverityInfo)
			return s, nil
		}
		return s, push(diffview.New(msg.Diff))

	case summaryReadyMsg:
		if msg.Err != nil {
			return s, tea.Quit
		}
		return s, push(summary.New(msg.Summary))

	case tea.KeyMsg:
		return s, s.handleKey(msg.String())
	}
	return s, nil
}

func (s *PlayScreen) handleKey(key string) tea.Cmd {
	switch key {
	case "s":
		return s.dispatch(session.CommandStart)
	case "enter":
		return s.dispatch(session.CommandSubmit)
	case "h":
		return s.dispatch(session.CommandHint)
	case "n":
		return s.dispatch(session.CommandSkip)
	case "d":
		return func() tea.Msg {
			diff, ok, err := s.ctrl.Diff(s.ctx)
			return diffReadyMsg{Diff: diff, OK: ok, Err: err}
		}
	case "l":
		return push(history.New(s.snap.Challenge.History))
	case "q":
		return func() tea.Msg {
			sum, err := s.ctrl.Summary(s.ctx)
			return summaryReadyMsg{Summary: sum, Err: err}
		}
	}
	return nil
}

func (s *PlayScreen) dispatch(cmd session.Command) tea.Cmd {
	return func() tea.Msg {
		return dispatchedMsg{Command: cmd, Err: s.ctrl.Dispatch(s.ctx, cmd)}
	}
}

func (s *PlayScreen) addNotice(text string, sev session.Severity) {
	s.notices = append(s.notices, notice{text: text, severity: sev})
	if len(s.notices) > maxNotices {
		s.notices = s.notices[len(s.notices)-maxNotices:]
	}
}

func push(scr screen.Screen) tea.Cmd {
	return func() tea.Msg { return router.PushScreenMsg{Screen: scr} }
}
