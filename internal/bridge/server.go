// Package bridge connects an editor plugin to the session over HTTP and a
// websocket: the plugin streams cursor and document events in and receives
// state renders out.
package bridge

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/abhisek/codehunt/internal/editor"
	"github.com/abhisek/codehunt/internal/session"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
	sendBuffer = 64
)

// Controller is the session surface the bridge drives.
type Controller interface {
	Dispatch(ctx context.Context, cmd session.Command) error
	Snapshot(ctx context.Context) (session.Snapshot, error)
	Diff(ctx context.Context) (string, bool, error)
}

// Publisher receives editor events from the plugin.
type Publisher interface {
	PublishActiveEditor(editor.EditorEvent)
	PublishSelection(editor.SelectionEvent)
	PublishDocument(editor.DocumentEvent)
}

// Buffers records live document text reported by the plugin.
type Buffers interface {
	Update(path, text string)
	Forget(path string)
}

// Options configures a Server.
type Options struct {
	// AllowedOrigins restricts websocket origins. Empty allows all.
	AllowedOrigins []string

	// Metrics is served at /metrics when set.
	Metrics http.Handler
}

// Server is the HTTP and websocket bridge. It is also a session.Presenter
// that broadcasts to every connected plugin.
type Server struct {
	ctrl     Controller
	events   Publisher
	buffers  Buffers
	opts     Options
	log      zerolog.Logger
	upgrader websocket.Upgrader

	mu      sync.Mutex
	clients map[*client]struct{}
}

var _ session.Presenter = (*Server)(nil)

// New creates a Server. ctrl may be set later with SetController, before
// the first request.
func New(ctrl Controller, events Publisher, buffers Buffers, opts Options, log zerolog.Logger) *Server {
	return &Server{
		ctrl:     ctrl,
		events:   events,
		buffers:  buffers,
		opts:     opts,
		log:      log.With().Str("component", "bridge").Logger(),
		upgrader: buildUpgrader(opts.AllowedOrigins),
		clients:  make(map[*client]struct{}),
	}
}

// SetController wires the session. The session needs the server as its
// presenter, so one of the two is created first.
func (s *Server) SetController(ctrl Controller) {
	s.ctrl = ctrl
}

// Handler returns the HTTP routes.
func (s *Server) Handler() http.Handler {
	// Debug mode prints routes to stdout, which the TUI owns.
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery(), s.requestLogger())

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/ws", s.serveWS)
	r.GET("/state", s.getState)
	r.GET("/diff", s.getDiff)
	r.POST("/commands/:name", s.postCommand)
	if s.opts.Metrics != nil {
		r.GET("/metrics", gin.WrapH(s.opts.Metrics))
	}
	return r
}

// Run serves on addr until ctx is done.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info().Str("addr", addr).Msg("bridge listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("bridge: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	s.closeClients()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("bridge shutdown: %w", err)
	}
	return nil
}

func (s *Server) getState(c *gin.Context) {
	snap, err := s.ctrl.Snapshot(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, snap)
}

func (s *Server) getDiff(c *gin.Context) {
	text, ok, err := s.ctrl.Diff(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
		return
	}
	if !ok {
		c.Status(http.StatusNoContent)
		return
	}
	c.String(http.StatusOK, text)
}

func (s *Server) postCommand(c *gin.Context) {
	cmd := session.Command(c.Param("name"))
	err := s.ctrl.Dispatch(c.Request.Context(), cmd)
	switch {
	case errors.Is(err, session.ErrUnknownCommand):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case err != nil:
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusAccepted, gin.H{"command": cmd})
	}
}

// requestLogger logs requests through zerolog; gin's default logger writes
// to stdout, which the TUI owns.
func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.log.Debug().
			Str("method", c.Request.Method).
			Str("path", c.FullPath()).
			Int("status", c.Writer.Status()).
			Dur("latency", time.Since(start)).
			Msg("request")
	}
}

// ShowMessage broadcasts a notification.
func (s *Server) ShowMessage(text string, severity session.Severity) {
	s.broadcast(Outbound{Type: TypeMessage, Text: text, Severity: severity})
}

// Celebrate broadcasts a celebration.
func (s *Server) Celebrate() {
	s.broadcast(Outbound{Type: TypeCelebrate})
}

// Render broadcasts the full state.
func (s *Server) Render(snap session.Snapshot) {
	s.broadcast(Outbound{Type: TypeRender, State: &snap})
}

// Reveal asks connected plugins to open path at a 1-based line. It fails
// when no plugin is connected.
func (s *Server) Reveal(path string, line int) error {
	if s.broadcast(Outbound{Type: TypeReveal, Path: path, Line: line}) == 0 {
		return errors.New("no editor connected")
	}
	return nil
}

// Clients returns the number of connected plugins.
func (s *Server) Clients() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.clients)
}

// broadcast queues msg for every client and returns how many accepted it.
// Clients whose queue is full miss the message.
func (s *Server) broadcast(msg Outbound) int {
	data, err := json.Marshal(msg)
	if err != nil {
		s.log.Error().Err(err).Str("type", string(msg.Type)).Msg("marshal outbound")
		return 0
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	sent := 0
	for c := range s.clients {
		if c.enqueue(data) {
			sent++
		} else {
			s.log.Warn().Str("client", c.id).Str("type", string(msg.Type)).Msg("client queue full, dropping message")
		}
	}
	return sent
}

func (s *Server) register(c *client) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clients[c] = struct{}{}
}

func (s *Server) unregister(c *client) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.clients[c]; ok {
		delete(s.clients, c)
		c.close()
	}
}

func (s *Server) closeClients() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for c := range s.clients {
		delete(s.clients, c)
		c.close()
	}
}
