package events

import (
	"context"
	"sync"
	"time"

	"github.com/Soltrivia-App/soltrivia-contract/internal/model"
	"github.com/Soltrivia-App/soltrivia-contract/pkg/logger"
	"go.uber.org/zap"

	"github.com/goccy/go-json"
	"github.com/gorilla/websocket"
)

const (
	writeWait   = 10 * time.Second
	pongWait    = 60 * time.Second
	pingPeriod  = pongWait * 9 / 10
	sendBufSize = 32
)

type client struct {
	conn    *websocket.Conn
	viewer  model.Identity
	send    chan []byte
	closing sync.Once
}

func (c *client) close() {
	c.closing.Do(func() {
		close(c.send)
	})
}

// Hub broadcasts events as JSON text frames to connected websocket clients.
// A client that cannot keep up is disconnected rather than slowing the
// publisher down.
type Hub struct {
	mu      sync.RWMutex
	clients map[*client]struct{}
	log     *zap.Logger
}

func NewHub() *Hub {
	return &Hub{
		clients: make(map[*client]struct{}),
		log:     logger.Named("events.hub"),
	}
}

// Serve registers conn and pumps events to it until the peer goes away.
// It blocks and always closes conn.
func (h *Hub) Serve(conn *websocket.Conn, viewer model.Identity) {
	c := &client{
		conn:   conn,
		viewer: viewer,
		send:   make(chan []byte, sendBufSize),
	}

	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()

	h.log.Debug("websocket client connected", zap.String("viewer", viewer.String()))

	done := make(chan struct{})
	go func() {
		defer close(done)
		h.writeLoop(c)
	}()

	h.readLoop(c)

	h.remove(c)
	<-done
	conn.Close()

	h.log.Debug("websocket client disconnected", zap.String("viewer", viewer.String()))
}

// readLoop discards inbound frames; reading is what processes pongs and
// notices the peer closing.
func (h *Hub) readLoop(c *client) {
	c.conn.SetReadLimit(512)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				h.log.Info("websocket unexpected close", zap.Error(err))
			}
			return
		}
	}
}

func (h *Hub) writeLoop(c *client) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case msg, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				h.log.Info("failed to write event", zap.String("viewer", c.viewer.String()), zap.Error(err))
				// Unblock readLoop so Serve can return.
				_ = c.conn.SetReadDeadline(time.Now())
				return
			}

		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				_ = c.conn.SetReadDeadline(time.Now())
				return
			}
		}
	}
}

func (h *Hub) remove(c *client) {
	h.mu.Lock()
	_, ok := h.clients[c]
	delete(h.clients, c)
	h.mu.Unlock()

	if ok {
		c.close()
	}
}

// Deliver encodes e once and queues it for every client.
func (h *Hub) Deliver(_ context.Context, e Event) error {
	frame, err := json.Marshal(e)
	if err != nil {
		return err
	}

	var slow []*client

	h.mu.RLock()
	for c := range h.clients {
		select {
		case c.send <- frame:
		default:
			slow = append(slow, c)
		}
	}
	h.mu.RUnlock()

	for _, c := range slow {
		h.log.Info("dropping slow websocket client", zap.String("viewer", c.viewer.String()))
		h.remove(c)
		_ = c.conn.SetReadDeadline(time.Now())
	}

	return nil
}

// Clients returns the number of connected clients.
func (h *Hub) Clients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Close disconnects every client.
func (h *Hub) Close() {
	h.mu.Lock()
	clients := h.clients
	h.clients = make(map[*client]struct{})
	h.mu.Unlock()

	for c := range clients {
		c.close()
		_ = c.conn.SetReadDeadline(time.Now())
	}
}
