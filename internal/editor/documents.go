package editor

import (
	"fmt"
	"os"
	"sync"
)

// Buffers serves documents from an overlay of live editor buffers and falls
// back to the file system for paths the editor has not reported.
type Buffers struct {
	mu     sync.RWMutex
	texts  map[string]string
	reveal func(path string, line int) error
}

var _ Documents = (*Buffers)(nil)

// NewBuffers creates a Buffers. reveal may be nil when there is no editor
// to move, in which case RevealLine is a no-op.
func NewBuffers(reveal func(path string, line int) error) *Buffers {
	return &Buffers{texts: make(map[string]string), reveal: reveal}
}

// Update records the live text of a document.
func (b *Buffers) Update(path, text string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.texts[path] = text
}

// Forget drops the live text of a document, e.g. after it was closed.
func (b *Buffers) Forget(path string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.texts, path)
}

func (b *Buffers) OpenDocument(path string) (*Document, error) {
	b.mu.RLock()
	text, ok := b.texts[path]
	b.mu.RUnlock()
	if ok {
		return &Document{Path: path, Text: text}, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("open document: %w", err)
	}
	return &Document{Path: path, Text: string(data)}, nil
}

func (b *Buffers) RevealLine(path string, line int) error {
	if b.reveal == nil {
		return nil
	}
	return b.reveal(path, line)
}
