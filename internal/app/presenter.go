package app

import (
	"sync"

	tea "charm.land/bubbletea/v2"
	"github.com/rs/zerolog"

	"github.com/abhisek/codehunt/internal/screens/play"
	"github.com/abhisek/codehunt/internal/session"
)

const presenterQueue = 256

// sender is the part of *tea.Program the presenter needs.
type sender interface {
	Send(msg tea.Msg)
}

// Presenter turns session updates into program messages. Calls never
// block: updates are queued and forwarded in order by a pump goroutine,
// and dropped while no program is attached or the queue is full.
type Presenter struct {
	log zerolog.Logger

	mu    sync.Mutex
	queue chan tea.Msg
}

var _ session.Presenter = (*Presenter)(nil)

// NewPresenter creates a detached Presenter.
func NewPresenter(log zerolog.Logger) *Presenter {
	return &Presenter{log: log.With().Str("component", "tui").Logger()}
}

func (p *Presenter) ShowMessage(text string, severity session.Severity) {
	p.enqueue(play.NoticeMsg{Text: text, Severity: severity})
}

func (p *Presenter) Celebrate() {
	p.enqueue(play.CelebrateMsg{})
}

func (p *Presenter) Render(s session.Snapshot) {
	p.enqueue(play.RenderMsg{Snapshot: s})
}

func (p *Presenter) enqueue(msg tea.Msg) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.queue == nil {
		return
	}
	select {
	case p.queue <- msg:
	default:
		p.log.Warn().Type("msg", msg).Msg("tui queue full, dropping update")
	}
}

// attach starts forwarding to s and returns a function that detaches and
// waits for the pump to exit.
func (p *Presenter) attach(s sender) func() {
	q := make(chan tea.Msg, presenterQueue)
	p.mu.Lock()
	p.queue = q
	p.mu.Unlock()

	var wg sync.WaitGroup
	wg.Go(func() {
		for msg := range q {
			s.Send(msg)
		}
	})

	return func() {
		p.mu.Lock()
		p.queue = nil
		p.mu.Unlock()
		close(q)
		wg.Wait()
	}
}
