// Package alerts pushes stock and sync events to connected dashboard
// sessions over websocket.
package alerts

import (
	"encoding/json"
	"log"
	"sync"
	"time"
)

// Event is a broadcast alert
type Event struct {
	Type    string `json:"type"` // stock_out | stock_low | sync | order
	Title   string `json:"title"`
	Message string `json:"message"`
	Time    string `json:"time"`
}

// NewEvent creates a timestamped event.
func NewEvent(eventType, title, message string) Event {
	return Event{
		Type:    eventType,
		Title:   title,
		Message: message,
		Time:    time.Now().UTC().Format(time.RFC3339),
	}
}

// Hub maintains the set of connected dashboard sessions and broadcasts
// events to all of them.
type Hub struct {
	clients map[string]*Client

	register   chan *Client
	unregister chan *Client
	broadcast  chan []byte

	mu sync.RWMutex
}

// NewHub creates a new Hub instance
func NewHub() *Hub {
	return &Hub{
		clients:    make(map[string]*Client),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan []byte, 64),
	}
}

// Run starts the hub's main loop
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			if old, ok := h.clients[client.SessionID]; ok {
				close(old.send)
				delete(h.clients, client.SessionID)
			}
			h.clients[client.SessionID] = client
			log.Printf("🖥️  Dashboard session connected: %s", client.SessionID)
			h.mu.Unlock()

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client.SessionID]; ok {
				delete(h.clients, client.SessionID)
				close(client.send)
				log.Printf("📴 Dashboard session disconnected: %s", client.SessionID)
			}
			h.mu.Unlock()

		case message := <-h.broadcast:
			h.mu.RLock()
			for _, client := range h.clients {
				select {
				case client.send <- message:
				default:
					// Buffer full or client dead; drop for this session
				}
			}
			h.mu.RUnlock()
		}
	}
}

// Broadcast sends an event to every connected session.
func (h *Hub) Broadcast(event Event) {
	msg, err := json.Marshal(event)
	if err != nil {
		log.Printf("Error marshaling event: %v", err)
		return
	}

	select {
	case h.broadcast <- msg:
	default:
		log.Println("⚠️  Alert broadcast queue full, dropping event")
	}
}

// SessionCount returns the number of connected sessions.
func (h *Hub) SessionCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
