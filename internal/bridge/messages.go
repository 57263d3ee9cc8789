package bridge

import (
	"github.com/abhisek/codehunt/internal/session"
)

// MessageType tags every websocket message.
type MessageType string

// Editor to server.
const (
	TypeActiveEditor MessageType = "active_editor"
	TypeSelection    MessageType = "selection"
	TypeDocument     MessageType = "document"
	TypeClosed       MessageType = "closed"
	TypeCommand      MessageType = "command"
)

// Server to editor.
const (
	TypeRender    MessageType = "render"
	TypeMessage   MessageType = "message"
	TypeCelebrate MessageType = "celebrate"
	TypeReveal    MessageType = "reveal"
	TypeError     MessageType = "error"
)

// Inbound is a message from the editor plugin. Fields are used according
// to Type.
type Inbound struct {
	Type    MessageType `json:"type"`
	Path    string      `json:"path,omitempty"`
	Line    int         `json:"line,omitempty"`
	Text    string      `json:"text,omitempty"`
	Command string      `json:"command,omitempty"`
}

// Outbound is a message to the editor plugin.
type Outbound struct {
	Type     MessageType       `json:"type"`
	State    *session.Snapshot `json:"state,omitempty"`
	Text     string            `json:"text,omitempty"`
	Severity session.Severity  `json:"severity,omitempty"`
	Path     string            `json:"path,omitempty"`
	Line     int               `json:"line,omitempty"`
	Error    string            `json:"error,omitempty"`
}
