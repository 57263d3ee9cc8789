package play

import (
	"github.com/abhisek/codehunt/internal/session"
)

// RenderMsg carries a fresh session snapshot into the program.
type RenderMsg struct {
	Snapshot session.Snapshot
}

// NoticeMsg carries a user-facing message from the session.
type NoticeMsg struct {
	Text     string
	Severity session.Severity
}

// CelebrateMsg asks the screen to show a success banner.
type CelebrateMsg struct{}

// celebrateDoneMsg hides the success banner.
type celebrateDoneMsg struct {
	seq int
}

// dispatchedMsg reports the outcome of sending a command to the session.
type dispatchedMsg struct {
	Command session.Command
	Err     error
}

// diffReadyMsg is sent when the current diff has been fetched.
type diffReadyMsg struct {
	Diff string
	OK   bool
	Err  error
}

// summaryReadyMsg is sent when the session summary has been fetched.
type summaryReadyMsg struct {
	Summary *session.Summary
	Err     error
}
