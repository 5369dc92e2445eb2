package services

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"rrg-backend/models"
)

// Constants for hub configuration
const (
	MaxWebSocketClients   = 100
	WebSocketWriteTimeout = 10 * time.Second
)

// HubMessage is the envelope broadcast to websocket clients
type HubMessage struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
	Time string      `json:"time"`
}

// hubClient represents one connected websocket subscriber
type hubClient struct {
	conn *websocket.Conn
	send chan []byte
}

// MarketHub pushes refreshed presentation rows to websocket subscribers
// after each ingestion run
type MarketHub struct {
	mu         sync.RWMutex
	clients    map[*hubClient]bool
	broadcast  chan HubMessage
	register   chan *hubClient
	unregister chan *hubClient
	upgrader   websocket.Upgrader
}

// NewMarketHub creates the hub and starts its dispatch loop
func NewMarketHub() *MarketHub {
	hub := &MarketHub{
		clients:    make(map[*hubClient]bool),
		broadcast:  make(chan HubMessage, 256),
		register:   make(chan *hubClient),
		unregister: make(chan *hubClient),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
	}
	go hub.run()
	return hub
}

// run dispatches registrations and broadcasts
func (h *MarketHub) run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			if len(h.clients) >= MaxWebSocketClients {
				h.mu.Unlock()
				client.conn.Close()
				continue
			}
			h.clients[client] = true
			h.mu.Unlock()

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
			}
			h.mu.Unlock()

		case message := <-h.broadcast:
			payload, err := json.Marshal(message)
			if err != nil {
				log.Printf("Failed to marshal hub message: %v", err)
				continue
			}
			h.mu.RLock()
			for client := range h.clients {
				select {
				case client.send <- payload:
				default:
					// Slow consumer, drop the message
				}
			}
			h.mu.RUnlock()
		}
	}
}

// BroadcastRows pushes the latest presentation rows to all subscribers
func (h *MarketHub) BroadcastRows(rows []models.PresentationRow) {
	h.broadcast <- HubMessage{
		Type: "market_data",
		Data: rows,
		Time: time.Now().UTC().Format(time.RFC3339),
	}
}

// ServeWS upgrades an HTTP request to a websocket subscription
func (h *MarketHub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("WebSocket upgrade failed: %v", err)
		return
	}

	client := &hubClient{
		conn: conn,
		send: make(chan []byte, 64),
	}
	h.register <- client

	go client.writeLoop()
	go client.readLoop(h)
}

// writeLoop forwards queued messages to the connection
func (c *hubClient) writeLoop() {
	defer c.conn.Close()
	for payload := range c.send {
		c.conn.SetWriteDeadline(time.Now().Add(WebSocketWriteTimeout))
		if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
			return
		}
	}
}

// readLoop drains client frames and unregisters on disconnect
func (c *hubClient) readLoop(h *MarketHub) {
	defer func() {
		h.unregister <- c
		c.conn.Close()
	}()
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}
