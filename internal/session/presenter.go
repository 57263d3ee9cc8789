package session

import (
	"errors"

	"github.com/abhisek/codehunt/internal/game"
)

// Severity classifies a user-facing message.
type Severity string

const (
	SeveritySuccess Severity = "success"
	SeverityError   Severity = "error"
	SeverityInfo    Severity = "info"
)

// Snapshot is the full state handed to presenters after every change.
type Snapshot struct {
	Game       game.State     `json:"gameState"`
	Challenge  ChallengeState `json:"challengeState"`
	Generating bool           `json:"generating"`
}

// Presenter shows the session to the user. Methods are called from the
// orchestrator loop and must not block on it.
type Presenter interface {
	ShowMessage(text string, severity Severity)
	Celebrate()
	Render(Snapshot)
}

// Presenters fans out to several presenters in order.
type Presenters []Presenter

func (ps Presenters) ShowMessage(text string, severity Severity) {
	for _, p := range ps {
		p.ShowMessage(text, severity)
	}
}

func (ps Presenters) Celebrate() {
	for _, p := range ps {
		p.Celebrate()
	}
}

func (ps Presenters) Render(s Snapshot) {
	for _, p := range ps {
		p.Render(s)
	}
}

// Command is a user action.
type Command string

const (
	CommandStart  Command = "start"
	CommandSubmit Command = "submit"
	CommandHint   Command = "hint"
	CommandSkip   Command = "skip"
)

// ErrUnknownCommand is returned for a command name that is not recognised.
var ErrUnknownCommand = errors.New("unknown command")

// Valid reports whether c is one of the known commands.
func (c Command) Valid() bool {
	switch c {
	case CommandStart, CommandSubmit, CommandHint, CommandSkip:
		return true
	}
	return false
}
