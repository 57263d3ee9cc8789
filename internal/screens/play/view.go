package play

import (
	"fmt"
	"image/color"
	"strings"

	"charm.land/lipgloss/v2"

	"github.com/abhisek/codehunt/internal/challenge"
	"github.com/abhisek/codehunt/internal/session"
	"github.com/abhisek/codehunt/internal/ui/components"
	"github.com/abhisek/codehunt/internal/ui/layout"
	"github.com/abhisek/codehunt/internal/ui/theme"
)

func (s *PlayScreen) View(width, height int) string {
	var b strings.Builder
	b.WriteString("\n")

	switch {
	case !s.loaded:
		b.WriteString(centered(width, theme.Hint, "Connecting to session..."))
	case s.snap.Generating:
		b.WriteString(lipgloss.PlaceHorizontal(width, lipgloss.Center,
			s.spinner.View()+" "+theme.Body.Render("Generating challenge...")))
	case s.snap.Challenge.Current == nil:
		b.WriteString(centered(width, theme.Hint, "No active challenge. Press s to start one."))
	default:
		b.WriteString(s.renderChallenge(width, height))
	}
	b.WriteString("\n\n")

	if s.celebrating {
		b.WriteString(centered(width, theme.Correct, "★  Challenge complete!  ★"))
		b.WriteString("\n\n")
	}

	bar := components.NewProgressBar(
		fmt.Sprintf("Level %d", s.snap.Game.Level),
		s.snap.Game.LevelProgress/100,
		true,
		min(width-8, 60),
	)
	b.WriteString(lipgloss.PlaceHorizontal(width, lipgloss.Center, bar.View()))
	b.WriteString("\n\n")

	for _, n := range s.notices {
		b.WriteString(lipgloss.PlaceHorizontal(width, lipgloss.Center,
			severityStyle(n.severity).Render(n.text)))
		b.WriteString("\n")
	}

	return b.String()
}

func (s *PlayScreen) renderChallenge(width, height int) string {
	c := s.snap.Challenge.Current
	inner := min(width-8, 80)

	var b strings.Builder

	badge := lipgloss.NewStyle().
		Foreground(theme.BgDark).
		Background(kindColor(c.Kind)).
		Padding(0, 1).
		Render(strings.ToUpper(string(c.Kind)))
	meta := theme.Subtitle.Render(fmt.Sprintf("  %s · %d pts", c.Difficulty, c.Points))
	b.WriteString(badge + meta)
	b.WriteString("\n\n")

	b.WriteString(theme.Title.Render(c.Title))
	b.WriteString("\n")
	b.WriteString(theme.Body.Width(inner).Render(c.Description))
	b.WriteString("\n")

	// Navigation targets stay hidden; finding them is the challenge.
	if c.Kind == challenge.KindModification && c.Target.FilePath != "" {
		b.WriteString("\n")
		b.WriteString(theme.Subtitle.Render("File: " + c.Target.FilePath))
		b.WriteString("\n")
	}

	used := s.snap.Challenge.HintsUsed
	if used > 0 && !layout.IsCompactHeight(height) {
		b.WriteString("\n")
		for i := 0; i < used && i < len(c.Hints); i++ {
			b.WriteString(theme.Hint.Render(fmt.Sprintf("Hint %d: %s", i+1, c.Hints[i])))
			b.WriteString("\n")
		}
	}

	b.WriteString("\n")
	status := fmt.Sprintf("Hints left: %d", s.snap.Challenge.AvailableHints())
	if s.snap.Challenge.AwaitingVerification {
		status += "   Watching your editor..."
	}
	b.WriteString(theme.Subtitle.Render(status))

	card := theme.Card.Width(inner + 4).Render(b.String())
	return lipgloss.PlaceHorizontal(width, lipgloss.Center, card)
}

func centered(width int, style lipgloss.Style, text string) string {
	return style.Width(width).Align(lipgloss.Center).Render(text)
}

func severityStyle(sev session.Severity) lipgloss.Style {
	switch sev {
	case session.SeveritySuccess:
		return theme.Correct
	case session.SeverityError:
		return theme.Incorrect
	default:
		return theme.Info
	}
}

func kindColor(k challenge.Kind) color.Color {
	if k == challenge.KindModification {
		return theme.Accent
	}
	return theme.Secondary
}
