package realtime

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"marketlens_backend/services"

	"github.com/gorilla/websocket"
)

// Hub configuration
const (
	MaxClients        = 100
	WriteTimeout      = 10 * time.Second
	PongTimeout       = 60 * time.Second
	PingInterval      = 30 * time.Second
	BroadcastInterval = 5 * time.Second
	SendQueueSize     = 64
)

// Message is the envelope broadcast to clients
type Message struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
	Time string      `json:"time"`
}

// Client represents one connected WebSocket client
type Client struct {
	conn       *websocket.Conn
	send       chan []byte
	subscribed map[string]bool
	mu         sync.RWMutex
}

// subscribeRequest is the only client-to-server message type
type subscribeRequest struct {
	Action  string   `json:"action"` // subscribe, unsubscribe
	Symbols []string `json:"symbols"`
}

// wantsSymbol reports whether the client receives updates for a symbol.
// A client with no explicit subscriptions receives everything.
func (c *Client) wantsSymbol(symbol string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if len(c.subscribed) == 0 {
		return true
	}
	return c.subscribed[symbol]
}

// Hub manages WebSocket clients and streams quote updates
type Hub struct {
	clients    map[*Client]bool
	register   chan *Client
	unregister chan *Client
	shutdown   chan struct{}
	mu         sync.RWMutex
	upgrader   websocket.Upgrader
	store      *services.InMemoryBarStore
	stopped    bool
}

// Global realtime hub
var GlobalHub *Hub

// InitHub creates and starts the global hub
func InitHub(store *services.InMemoryBarStore) {
	GlobalHub = NewHub(store)
	go GlobalHub.Run()
	log.Println("Realtime quote hub started")
}

// NewHub creates a hub over the given bar store
func NewHub(store *services.InMemoryBarStore) *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		shutdown:   make(chan struct{}),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
		store: store,
	}
}

// Run processes client registration and periodic quote broadcasts
func (h *Hub) Run() {
	ticker := time.NewTicker(BroadcastInterval)
	defer ticker.Stop()

	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			if len(h.clients) >= MaxClients {
				h.mu.Unlock()
				close(client.send)
				client.conn.Close()
				log.Println("Rejected WebSocket client: hub full")
				continue
			}
			h.clients[client] = true
			count := len(h.clients)
			h.mu.Unlock()
			log.Printf("WebSocket client connected (%d active)", count)

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
			}
			count := len(h.clients)
			h.mu.Unlock()
			log.Printf("WebSocket client disconnected (%d active)", count)

		case <-ticker.C:
			h.broadcastQuotes()

		case <-h.shutdown:
			h.mu.Lock()
			for client := range h.clients {
				close(client.send)
				client.conn.Close()
			}
			h.clients = make(map[*Client]bool)
			h.mu.Unlock()
			return
		}
	}
}

// Stop shuts down the hub and disconnects all clients. Safe to call more
// than once.
func (h *Hub) Stop() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if !h.stopped {
		h.stopped = true
		close(h.shutdown)
	}
}

// ClientCount returns the number of connected clients
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// broadcastQuotes sends the current quote set to each client, respecting
// per-client subscriptions
func (h *Hub) broadcastQuotes() {
	quotes := h.store.AllQuotes()
	if len(quotes) == 0 {
		return
	}

	now := time.Now().UTC().Format(time.RFC3339)

	h.mu.RLock()
	defer h.mu.RUnlock()
	for client := range h.clients {
		filtered := quotes[:0:0]
		for _, q := range quotes {
			if client.wantsSymbol(q.Symbol) {
				filtered = append(filtered, q)
			}
		}
		if len(filtered) == 0 {
			continue
		}

		payload, err := json.Marshal(Message{
			Type: "quotes",
			Data: filtered,
			Time: now,
		})
		if err != nil {
			continue
		}

		select {
		case client.send <- payload:
		default:
			// Slow client, drop the update
		}
	}
}

// HandleWebSocket upgrades an HTTP request and attaches the client to the hub
func (h *Hub) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("WebSocket upgrade failed: %v", err)
		return
	}

	client := &Client{
		conn:       conn,
		send:       make(chan []byte, SendQueueSize),
		subscribed: make(map[string]bool),
	}

	// Once the hub has shut down nothing drains the register channel, so a
	// plain send would block this handler forever
	select {
	case h.register <- client:
	case <-h.shutdown:
		conn.Close()
		return
	}

	go client.writePump()
	go client.readPump(h)
}

// readPump handles subscribe messages and connection liveness
func (c *Client) readPump(h *Hub) {
	defer func() {
		// The hub stops draining unregister once it shuts down
		select {
		case h.unregister <- c:
		case <-h.shutdown:
		}
		c.conn.Close()
	}()

	c.conn.SetReadDeadline(time.Now().Add(PongTimeout))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(PongTimeout))
		return nil
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			return
		}

		var req subscribeRequest
		if err := json.Unmarshal(data, &req); err != nil {
			continue
		}

		c.mu.Lock()
		switch req.Action {
		case "subscribe":
			for _, symbol := range req.Symbols {
				c.subscribed[symbol] = true
			}
		case "unsubscribe":
			for _, symbol := range req.Symbols {
				delete(c.subscribed, symbol)
			}
		}
		c.mu.Unlock()
	}
}

// writePump flushes the send queue and keeps the connection alive with pings
func (c *Client) writePump() {
	ticker := time.NewTicker(PingInterval)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case payload, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(WriteTimeout))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(WriteTimeout))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
