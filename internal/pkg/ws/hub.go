package ws

import (
	"encoding/json"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/zahlentech/str8up_server/internal/pkg/logger"
)

// Hub fans progress messages out to the browsers watching a session.
type Hub struct {
	// a session can be open in several tabs
	clients map[string]map[*Client]struct{}
	mu      sync.RWMutex
	log     logger.Logger
}

type Client struct {
	SessionID string
	Conn      *websocket.Conn
	mu        sync.Mutex // serializes writes
}

type Message struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

func NewHub(log logger.Logger) *Hub {
	if log == nil {
		log = logger.Nop()
	}
	return &Hub{
		clients: make(map[string]map[*Client]struct{}),
		log:     log,
	}
}

func (h *Hub) Register(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.clients[client.SessionID] == nil {
		h.clients[client.SessionID] = make(map[*Client]struct{})
	}
	h.clients[client.SessionID][client] = struct{}{}

	h.log.Debug("ws connected", "session_id", client.SessionID, "session_conns", len(h.clients[client.SessionID]), "total", h.countLocked())
}

func (h *Hub) Unregister(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if conns, ok := h.clients[client.SessionID]; ok {
		delete(conns, client)
		if len(conns) == 0 {
			delete(h.clients, client.SessionID)
		}
	}
	h.log.Debug("ws disconnected", "session_id", client.SessionID)
}

// SendToSession writes msg to every connection watching sessionID.
// No watchers is not an error.
func (h *Hub) SendToSession(sessionID string, msg *Message) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return err
	}

	h.mu.RLock()
	conns, ok := h.clients[sessionID]
	if !ok {
		h.mu.RUnlock()
		return nil
	}
	clients := make([]*Client, 0, len(conns))
	for c := range conns {
		clients = append(clients, c)
	}
	h.mu.RUnlock()

	for _, c := range clients {
		if err := c.write(data); err != nil {
			h.log.Warn("ws write failed", "session_id", sessionID, "error", err)
		}
	}
	return nil
}

// SendToClient writes msg to a single connection.
func (h *Hub) SendToClient(client *Client, msg *Message) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	return client.write(data)
}

func (c *Client) write(data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.Conn.WriteMessage(websocket.TextMessage, data)
}

func (h *Hub) IsWatched(sessionID string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	conns, ok := h.clients[sessionID]
	return ok && len(conns) > 0
}

func (h *Hub) ConnectionCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.countLocked()
}

func (h *Hub) countLocked() int {
	total := 0
	for _, conns := range h.clients {
		total += len(conns)
	}
	return total
}
