package server

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/Faultbox/supermesh/pkg/idmap"
)

const (
	writeWait    = 40 * time.Second
	pingInterval = 30 * time.Second
	sendBuffer   = 16
)

// TextureMessage is the JSON pushed to /ws/idmap clients.
type TextureMessage struct {
	Map       string   `json:"map"`
	Width     int      `json:"width"`
	Pixels    []uint32 `json:"pixels"`
	Recreated bool     `json:"recreated"`
}

// Hub fans id-map texture updates out to websocket clients. It implements
// supermesh.TextureSink. New clients first receive the last texture.
type Hub struct {
	log *zap.Logger

	mu      sync.Mutex
	clients map[*client]struct{}
	last    []byte
}

// NewHub creates a hub with no clients.
func NewHub(log *zap.Logger) *Hub {
	return &Hub{
		log:     log,
		clients: make(map[*client]struct{}),
	}
}

// UpdateTexture broadcasts a texture.
func (h *Hub) UpdateTexture(name string, tex *idmap.Texture, recreated bool) {
	data, err := json.Marshal(TextureMessage{
		Map:       name,
		Width:     tex.Width,
		Pixels:    tex.Pixels,
		Recreated: recreated,
	})
	if err != nil {
		h.log.Error("encoding texture message", zap.Error(err))
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	h.last = data
	for c := range h.clients {
		h.send(c, data)
	}
}

// Clients returns the number of connected clients.
func (h *Hub) Clients() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// send queues data for c; a client that cannot keep up is dropped.
// Callers hold h.mu.
func (h *Hub) send(c *client, data []byte) {
	select {
	case c.send <- data:
	default:
		h.log.Warn("dropping slow websocket client", zap.String("remote", c.conn.RemoteAddr().String()))
		delete(h.clients, c)
		close(c.send)
	}
}

func (h *Hub) register(conn *websocket.Conn) {
	c := &client{conn: conn, send: make(chan []byte, sendBuffer)}

	h.mu.Lock()
	h.clients[c] = struct{}{}
	if h.last != nil {
		h.send(c, h.last)
	}
	h.mu.Unlock()

	go c.writePump(h)
	go c.readPump(h)
}

func (h *Hub) unregister(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
	}
}

type client struct {
	conn *websocket.Conn
	send chan []byte
}

func (c *client) writePump(h *Hub) {
	ticker := time.NewTicker(pingInterval)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				h.log.Debug("websocket write failed", zap.Error(err))
				h.unregister(c)
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				h.unregister(c)
				return
			}
		}
	}
}

// readPump discards client messages and notices disconnects.
func (c *client) readPump(h *Hub) {
	defer h.unregister(c)
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}
