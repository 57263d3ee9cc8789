package editor

import (
	"sync"
)

// Hub is an in-process Events implementation. Publishers call the Publish
// methods; listeners run synchronously on the publisher's goroutine.
type Hub struct {
	mu        sync.Mutex
	nextID    int
	editors   map[int]func(EditorEvent)
	selection map[int]func(SelectionEvent)
	documents map[int]func(DocumentEvent)
}

var _ Events = (*Hub)(nil)

// NewHub creates an empty Hub.
func NewHub() *Hub {
	return &Hub{
		editors:   make(map[int]func(EditorEvent)),
		selection: make(map[int]func(SelectionEvent)),
		documents: make(map[int]func(DocumentEvent)),
	}
}

type subscription struct {
	once   sync.Once
	cancel func()
}

func (s *subscription) Unsubscribe() {
	s.once.Do(s.cancel)
}

func subscribe[E any](h *Hub, set map[int]func(E), fn func(E)) Subscription {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.nextID++
	id := h.nextID
	set[id] = fn
	return &subscription{cancel: func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		delete(set, id)
	}}
}

// publish snapshots listeners so a listener may unsubscribe itself.
func publish[E any](h *Hub, set map[int]func(E), ev E) {
	h.mu.Lock()
	fns := make([]func(E), 0, len(set))
	for _, fn := range set {
		fns = append(fns, fn)
	}
	h.mu.Unlock()

	for _, fn := range fns {
		fn(ev)
	}
}

func (h *Hub) OnActiveEditorChanged(fn func(EditorEvent)) Subscription {
	return subscribe(h, h.editors, fn)
}

func (h *Hub) OnSelectionChanged(fn func(SelectionEvent)) Subscription {
	return subscribe(h, h.selection, fn)
}

func (h *Hub) OnDocumentChanged(fn func(DocumentEvent)) Subscription {
	return subscribe(h, h.documents, fn)
}

func (h *Hub) PublishActiveEditor(ev EditorEvent) { publish(h, h.editors, ev) }
func (h *Hub) PublishSelection(ev SelectionEvent) { publish(h, h.selection, ev) }
func (h *Hub) PublishDocument(ev DocumentEvent)   { publish(h, h.documents, ev) }

// Listeners returns the number of registered listeners of every kind.
func (h *Hub) Listeners() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.editors) + len(h.selection) + len(h.documents)
}
