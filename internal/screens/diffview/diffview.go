// Package diffview shows the unified diff of the edits made for the
// current modification challenge.
package diffview

import (
	"strings"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/abhisek/codehunt/internal/router"
	"github.com/abhisek/codehunt/internal/screen"
	"github.com/abhisek/codehunt/internal/ui/layout"
	"github.com/abhisek/codehunt/internal/ui/theme"
)

// DiffScreen renders a unified diff with scrolling.
type DiffScreen struct {
	lines  []string
	offset int
	height int
}

var _ screen.Screen = (*DiffScreen)(nil)
var _ screen.KeyHintProvider = (*DiffScreen)(nil)

// New creates a DiffScreen for a unified diff.
func New(diff string) *DiffScreen {
	return &DiffScreen{lines: strings.Split(strings.TrimRight(diff, "\n"), "\n")}
}

func (s *DiffScreen) Init() tea.Cmd {
	return nil
}

func (s *DiffScreen) Title() string {
	return "Changes"
}

func (s *DiffScreen) KeyHints() []layout.KeyHint {
	return []layout.KeyHint{
		{Key: "↑↓", Description: "Scroll"},
		{Key: "Esc", Description: "Back"},
	}
}

// Offset is the index of the first visible line.
func (s *DiffScreen) Offset() int {
	return s.offset
}

func (s *DiffScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	if kmsg, ok := msg.(tea.KeyMsg); ok {
		switch kmsg.String() {
		case "esc", "q":
			return s, func() tea.Msg { return router.PopScreenMsg{} }
		case "up", "k":
			if s.offset > 0 {
				s.offset--
			}
		case "down", "j":
			if s.offset < s.maxOffset() {
				s.offset++
			}
		case "g":
			s.offset = 0
		case "G":
			s.offset = s.maxOffset()
		}
	}
	return s, nil
}

func (s *DiffScreen) maxOffset() int {
	visible := s.height
	if visible <= 0 {
		visible = 1
	}
	return max(len(s.lines)-visible, 0)
}

func (s *DiffScreen) View(width, height int) string {
	s.height = max(height-2, 1)
	if s.offset > s.maxOffset() {
		s.offset = s.maxOffset()
	}

	end := min(s.offset+s.height, len(s.lines))
	var b strings.Builder
	b.WriteString("\n")
	for _, line := range s.lines[s.offset:end] {
		b.WriteString("  ")
		b.WriteString(styleFor(line).MaxWidth(width - 4).Render(line))
		b.WriteString("\n")
	}
	return b.String()
}

func styleFor(line string) lipgloss.Style {
	switch {
	case strings.HasPrefix(line, "+++"), strings.HasPrefix(line, "---"):
		return theme.DiffHeader
	case strings.HasPrefix(line, "@@"):
		return theme.DiffHunk
	case strings.HasPrefix(line, "+"):
		return theme.DiffAdded
	case strings.HasPrefix(line, "-"):
		return theme.DiffRemoved
	default:
		return theme.Body
	}
}
