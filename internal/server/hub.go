package server

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/thinkable-app/thinkable-go/internal/auth"
	"github.com/thinkable-app/thinkable-go/internal/db"
	"github.com/thinkable-app/thinkable-go/internal/metrics"
)

// PushEvent is one change notification sent to subscribed browsers. Every
// tab of the same account receives it and invalidates its local cache.
type PushEvent struct {
	Table  string `json:"table"`
	Action string `json:"action"`
	ID     string `json:"id"`
	owner  string
}

// EventFromChange converts a database live event into a push event.
func EventFromChange(ev db.ChangeEvent) PushEvent {
	return PushEvent{
		Table:  ev.Table,
		Action: ev.Action,
		ID:     ev.RecordIDString(),
		owner:  ev.Owner(),
	}
}

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	sendBufferSize = 32
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

type hubClient struct {
	owner string
	conn  *websocket.Conn
	send  chan PushEvent
}

// Hub fans database change events out to connected WebSocket clients,
// routed by owner.
type Hub struct {
	mu      sync.Mutex
	clients map[*hubClient]struct{}
	logger  *slog.Logger
	mc      *metrics.Collector
}

// NewHub creates an empty hub.
func NewHub(logger *slog.Logger, mc *metrics.Collector) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	return &Hub{clients: make(map[*hubClient]struct{}), logger: logger, mc: mc}
}

// Run pumps events from the channel into connected clients until ctx is
// cancelled or the channel closes.
func (h *Hub) Run(ctx context.Context, events <-chan PushEvent) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			h.Broadcast(ev)
		}
	}
}

// Broadcast delivers one event to every client of the event's owner. A
// client whose send buffer is full is dropped; the browser reconnects.
func (h *Hub) Broadcast(ev PushEvent) {
	start := time.Now()
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		if c.owner != ev.owner {
			continue
		}
		select {
		case c.send <- ev:
			h.mc.RecordOp(metrics.OpWSPush, time.Since(start))
		default:
			h.logger.Warn("dropping slow subscriber", "owner", c.owner)
			delete(h.clients, c)
			close(c.send)
		}
	}
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

func (h *Hub) register(c *hubClient) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[c] = struct{}{}
}

func (h *Hub) unregister(c *hubClient) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
	}
}

// handleSubscribe upgrades the request and attaches the connection to the
// hub under the authenticated owner.
func (s *Server) handleSubscribe(w http.ResponseWriter, r *http.Request) {
	owner := auth.OwnerFromContext(r.Context())

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already wrote the error response.
		s.logger.Warn("websocket upgrade failed", "error", err)
		return
	}

	c := &hubClient{owner: owner, conn: conn, send: make(chan PushEvent, sendBufferSize)}
	s.hub.register(c)
	s.logger.Debug("subscriber connected", "owner", owner)

	go s.hub.writePump(c)
	go s.hub.readPump(c)
}

// writePump forwards queued events and keeps the connection alive with
// pings.
func (h *Hub) writePump(c *hubClient) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case ev, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, nil)
				return
			}
			if err := c.conn.WriteJSON(ev); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readPump discards inbound frames and detects the close.
func (h *Hub) readPump(c *hubClient) {
	defer func() {
		h.unregister(c)
		c.conn.Close()
	}()
	c.conn.SetReadLimit(512)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}
