package bridge

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/abhisek/codehunt/internal/editor"
	"github.com/abhisek/codehunt/internal/session"
)

// buildUpgrader creates a websocket upgrader with origin validation. An
// empty allow list permits all origins.
func buildUpgrader(allowedOrigins []string) websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			if len(allowedOrigins) == 0 {
				return true
			}
			origin := r.Header.Get("Origin")
			for _, allowed := range allowedOrigins {
				if strings.EqualFold(allowed, origin) {
					return true
				}
			}
			return false
		},
	}
}

// client is one connected editor plugin.
type client struct {
	id   string
	conn *websocket.Conn
	send chan []byte
	log  zerolog.Logger

	once sync.Once
	done chan struct{}
}

func (c *client) enqueue(data []byte) bool {
	select {
	case <-c.done:
		return false
	default:
	}
	select {
	case c.send <- data:
		return true
	default:
		return false
	}
}

func (c *client) close() {
	c.once.Do(func() { close(c.done) })
}

func (s *Server) serveWS(gc *gin.Context) {
	conn, err := s.upgrader.Upgrade(gc.Writer, gc.Request, nil)
	if err != nil {
		s.log.Error().Err(err).Msg("websocket upgrade failed")
		return
	}

	c := &client{
		id:   uuid.NewString()[:8],
		conn: conn,
		send: make(chan []byte, sendBuffer),
		done: make(chan struct{}),
	}
	c.log = s.log.With().Str("client", c.id).Logger()
	s.register(c)
	c.log.Info().Str("remote", gc.Request.RemoteAddr).Msg("editor connected")

	// Bring the new plugin up to date.
	if snap, err := s.ctrl.Snapshot(gc.Request.Context()); err == nil {
		s.sendTo(c, Outbound{Type: TypeRender, State: &snap})
	}

	go s.writePump(c)
	s.readPump(c)
}

func (s *Server) readPump(c *client) {
	defer func() {
		s.unregister(c)
		c.conn.Close()
		c.log.Info().Msg("editor disconnected")
	}()

	c.conn.SetReadLimit(8 << 20)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		var msg Inbound
		if err := c.conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.log.Warn().Err(err).Msg("unexpected close")
			}
			return
		}
		_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
		s.handleInbound(c, msg)
	}
}

func (s *Server) writePump(c *client) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case data := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				c.log.Debug().Err(err).Msg("write failed")
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-c.done:
			_ = c.conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(writeWait))
			return
		}
	}
}

func (s *Server) handleInbound(c *client, msg Inbound) {
	switch msg.Type {
	case TypeActiveEditor:
		s.events.PublishActiveEditor(editor.EditorEvent{Path: msg.Path, Line: msg.Line})
	case TypeSelection:
		s.events.PublishSelection(editor.SelectionEvent{Path: msg.Path, Line: msg.Line})
	case TypeDocument:
		s.buffers.Update(msg.Path, msg.Text)
		s.events.PublishDocument(editor.DocumentEvent{Path: msg.Path, Text: msg.Text})
	case TypeClosed:
		s.buffers.Forget(msg.Path)
	case TypeCommand:
		ctx, cancel := context.WithTimeout(context.Background(), writeWait)
		defer cancel()
		if err := s.ctrl.Dispatch(ctx, session.Command(msg.Command)); err != nil {
			s.sendTo(c, Outbound{Type: TypeError, Error: err.Error()})
		}
	default:
		c.log.Warn().Str("type", string(msg.Type)).Msg("unknown message type")
		s.sendTo(c, Outbound{Type: TypeError, Error: "unknown message type: " + string(msg.Type)})
	}
}

func (s *Server) sendTo(c *client, msg Outbound) {
	data, err := json.Marshal(msg)
	if err != nil {
		return
	}
	if !c.enqueue(data) {
		c.log.Warn().Str("type", string(msg.Type)).Msg("client queue full, dropping message")
	}
}
