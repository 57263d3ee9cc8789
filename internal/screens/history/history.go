// Package history lists the challenges played this session.
package history

import (
	"fmt"
	"strings"

	tea "charm.land/bubbletea/v2"

	"charm.land/lipgloss/v2"

	"github.com/abhisek/codehunt/internal/challenge"
	"github.com/abhisek/codehunt/internal/router"
	"github.com/abhisek/codehunt/internal/screen"
	"github.com/abhisek/codehunt/internal/ui/layout"
	"github.com/abhisek/codehunt/internal/ui/theme"
)

// HistoryScreen displays finished challenges, newest first.
type HistoryScreen struct {
	entries  []challenge.Challenge
	selected int
	expanded map[int]bool
}

var _ screen.Screen = (*HistoryScreen)(nil)
var _ screen.KeyHintProvider = (*HistoryScreen)(nil)

// New creates a HistoryScreen over a session's challenge history, which is
// in play order.
func New(played []challenge.Challenge) *HistoryScreen {
	entries := make([]challenge.Challenge, len(played))
	for i, c := range played {
		entries[len(played)-1-i] = c
	}
	return &HistoryScreen{
		entries:  entries,
		expanded: make(map[int]bool),
	}
}

func (s *HistoryScreen) Init() tea.Cmd {
	return nil
}

func (s *HistoryScreen) Title() string {
	return "History"
}

func (s *HistoryScreen) KeyHints() []layout.KeyHint {
	return []layout.KeyHint{
		{Key: "Enter", Description: "Details"},
		{Key: "↑↓", Description: "Navigate"},
		{Key: "Esc", Description: "Back"},
	}
}

// Selected returns the highlighted entry.
func (s *HistoryScreen) Selected() int {
	return s.selected
}

func (s *HistoryScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	if kmsg, ok := msg.(tea.KeyMsg); ok {
		switch kmsg.String() {
		case "esc":
			return s, func() tea.Msg { return router.PopScreenMsg{} }
		case "up", "k":
			if s.selected > 0 {
				s.selected--
			}
		case "down", "j":
			if s.selected < len(s.entries)-1 {
				s.selected++
			}
		case "enter":
			s.expanded[s.selected] = !s.expanded[s.selected]
		}
	}
	return s, nil
}

func (s *HistoryScreen) View(width, height int) string {
	if len(s.entries) == 0 {
		return lipgloss.NewStyle().
			Width(width).Align(lipgloss.Center).Foreground(theme.TextDim).Italic(true).
			Render("\n\n  No challenges played yet.")
	}

	var b strings.Builder
	b.WriteString("\n")

	for i, c := range s.entries {
		prefix := "  "
		if i == s.selected {
			prefix = "> "
		}

		mark := lipgloss.NewStyle().Foreground(theme.TextDim).Render("·")
		if c.Completed {
			mark = lipgloss.NewStyle().Foreground(theme.Success).Render("✓")
		}

		line := fmt.Sprintf("%s%-12s %-6s %s", prefix, c.Kind, c.Difficulty, c.Title)
		style := lipgloss.NewStyle().Foreground(theme.Text)
		if i == s.selected {
			style = style.Foreground(theme.Primary).Bold(true)
		}
		b.WriteString(lipgloss.PlaceHorizontal(width, lipgloss.Center,
			mark+" "+style.Render(line)))
		b.WriteString("\n")

		if s.expanded[i] {
			detail := lipgloss.NewStyle().Foreground(theme.TextDim).Italic(true)
			b.WriteString(lipgloss.PlaceHorizontal(width, lipgloss.Center,
				detail.Render("    "+c.Target.FilePath+"  "+c.ExpectedAction)))
			b.WriteString("\n")
			if c.CompletedAt != nil {
				b.WriteString(lipgloss.PlaceHorizontal(width, lipgloss.Center,
					detail.Render("    solved at "+c.CompletedAt.Format("15:04:05"))))
				b.WriteString("\n")
			}
		}
	}

	return b.String()
}
