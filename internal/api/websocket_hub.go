package api

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/abelzeko/soilism/internal/entities"
	"github.com/gorilla/websocket"
)

const (
	clientBuffer = 8
	writeTimeout = 5 * time.Second
)

var wsUpgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

type liveUpdate struct {
	Sample entities.Sample      `json:"sample"`
	Plants map[string]plantView `json:"plants"`
}

type wsClient struct {
	conn *websocket.Conn
	send chan []byte
}

// WebsocketHub pushes every applied sample to connected browsers.
// Slow clients drop messages instead of holding up ingestion.
type WebsocketHub struct {
	mu      sync.Mutex
	clients map[*wsClient]struct{}
}

// NewWebsocketHub creates an empty hub
func NewWebsocketHub() *WebsocketHub {
	return &WebsocketHub{clients: make(map[*wsClient]struct{})}
}

// Clients returns the number of connected clients
func (h *WebsocketHub) Clients() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// ServeHTTP upgrades the connection and keeps it registered until it closes
func (h *WebsocketHub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := wsUpgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("Websocket upgrade failed: %v", err)
		return
	}

	client := &wsClient{conn: conn, send: make(chan []byte, clientBuffer)}
	h.mu.Lock()
	h.clients[client] = struct{}{}
	h.mu.Unlock()

	go client.writeLoop()

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}

	h.mu.Lock()
	delete(h.clients, client)
	close(client.send)
	h.mu.Unlock()
	conn.Close()
}

func (c *wsClient) writeLoop() {
	for msg := range c.send {
		c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
		if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			c.conn.Close()
			return
		}
	}
}

// SampleApplied broadcasts the sample and the evaluated plants
func (h *WebsocketHub) SampleApplied(sample entities.Sample, plants []entities.Plant) {
	msg, err := json.Marshal(liveUpdate{Sample: sample, Plants: plantViews(plants)})
	if err != nil {
		log.Printf("Failed to encode live update: %v", err)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for client := range h.clients {
		select {
		case client.send <- msg:
		default:
			log.Printf("Dropping live update for slow websocket client")
		}
	}
}

// Close disconnects every client
func (h *WebsocketHub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for client := range h.clients {
		client.conn.Close()
	}
}
