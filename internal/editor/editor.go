// Package editor defines the slice of a source editor the game observes:
// cursor and document events, and reading or revealing documents.
package editor

import (
	"strings"
)

// EditorEvent reports that a different document became active. Line is the
// 1-based cursor line in it, or 0 when unknown.
type EditorEvent struct {
	Path string `json:"path"`
	Line int    `json:"line"`
}

// SelectionEvent reports a cursor move. Line is 1-based.
type SelectionEvent struct {
	Path string `json:"path"`
	Line int    `json:"line"`
}

// DocumentEvent carries the full current text of a changed document.
type DocumentEvent struct {
	Path string `json:"path"`
	Text string `json:"text"`
}

// Subscription is a registered listener. Unsubscribe is idempotent.
type Subscription interface {
	Unsubscribe()
}

// Events is the editor's event source.
type Events interface {
	OnActiveEditorChanged(fn func(EditorEvent)) Subscription
	OnSelectionChanged(fn func(SelectionEvent)) Subscription
	OnDocumentChanged(fn func(DocumentEvent)) Subscription
}

// Documents opens documents and moves the editor's view.
type Documents interface {
	// OpenDocument returns the live text of path.
	OpenDocument(path string) (*Document, error)

	// RevealLine opens path in the editor scrolled to a 1-based line.
	RevealLine(path string, line int) error
}

// Document is a snapshot of a document's text.
type Document struct {
	Path string
	Text string
}

// LineAt returns the text of a 1-based line.
func (d *Document) LineAt(line int) (string, bool) {
	if line < 1 {
		return "", false
	}
	lines := strings.Split(d.Text, "\n")
	if line > len(lines) {
		return "", false
	}
	return strings.TrimSuffix(lines[line-1], "\r"), true
}
