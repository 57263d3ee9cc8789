// Package app is the terminal front end: a Bubble Tea program with a
// screen stack rooted at the play screen.
package app

import (
	"context"
	"errors"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"
	"github.com/rs/zerolog"

	"github.com/abhisek/codehunt/internal/router"
	"github.com/abhisek/codehunt/internal/screen"
	"github.com/abhisek/codehunt/internal/screens/play"
	"github.com/abhisek/codehunt/internal/session"
	"github.com/abhisek/codehunt/internal/ui/layout"
)

// AppModel is the root Bubble Tea model.
type AppModel struct {
	router *router.Router
	snap   session.Snapshot
	width  int
	height int
}

// newAppModel creates a new AppModel with the play screen.
func newAppModel(ctx context.Context, ctrl play.Controller) AppModel {
	return AppModel{
		router: router.New(play.New(ctx, ctrl)),
	}
}

func (m AppModel) Init() tea.Cmd {
	return m.router.Active().Init()
}

func (m AppModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			return m, tea.Quit
		case "esc":
			if m.router.Depth() > 1 {
				return m, func() tea.Msg { return router.PopScreenMsg{} }
			}
			return m, nil
		}

	// Session pushes reach the play screen even when it is covered.
	case play.RenderMsg:
		m.snap = msg.Snapshot
		return m, m.router.Broadcast(msg)
	case play.NoticeMsg, play.CelebrateMsg:
		return m, m.router.Broadcast(msg)
	}

	cmd := m.router.Update(msg)
	return m, cmd
}

func (m AppModel) View() tea.View {
	v := tea.NewView("")
	v.AltScreen = true

	if m.width == 0 || m.height == 0 {
		return v
	}

	if layout.IsTooSmall(m.width, m.height) {
		v.SetContent(layout.RenderMinSizeMessage(m.width, m.height))
		return v
	}

	active := m.router.Active()
	title := ""
	if active != nil {
		title = active.Title()
	}

	g := m.snap.Game
	header := layout.RenderHeader(title, g.Points, g.Streak, g.Level, m.width)

	var footerHints []layout.KeyHint
	if hp, ok := active.(screen.KeyHintProvider); ok {
		footerHints = hp.KeyHints()
	} else if m.router.Depth() > 1 {
		footerHints = []layout.KeyHint{{Key: "Esc", Description: "Back"}}
	}
	footerHints = append(footerHints, layout.KeyHint{Key: "Ctrl+C", Description: "Quit"})

	footer := layout.RenderFooter(footerHints, m.width)

	headerHeight := lipgloss.Height(header)
	footerHeight := lipgloss.Height(footer)
	contentHeight := m.height - headerHeight - footerHeight
	if contentHeight < 0 {
		contentHeight = 0
	}

	content := m.router.View(m.width, contentHeight)
	frame := layout.RenderFrame(header, content, footer, m.width, m.height)

	v.SetContent(frame)
	return v
}

// Run starts the Bubble Tea program and blocks until the user quits or ctx
// is done. presenter, when non-nil, is attached to the program so session
// updates reach the screens.
func Run(ctx context.Context, ctrl play.Controller, presenter *Presenter, log zerolog.Logger) error {
	p := tea.NewProgram(newAppModel(ctx, ctrl), tea.WithContext(ctx))
	if presenter != nil {
		stop := presenter.attach(p)
		defer stop()
	}
	_, err := p.Run()
	if err != nil {
		if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
			return nil
		}
		log.Error().Err(err).Msg("tui exited")
		return err
	}
	return nil
}
