package notify

import (
	"encoding/json"
	"log"
	"sync"

	"github.com/millbrook-cnc/shopflow/internal/events"
)

// Hub maintains the set of connected station clients and broadcasts
// committed domain events to them. It implements events.Sink.
type Hub struct {
	// Registered clients map: StationID -> Client
	clients map[string]*Client

	// Register requests
	register chan *Client

	// Unregister requests
	unregister chan *Client

	// Outbound broadcast payloads
	broadcast chan []byte

	// Mutex for thread-safe access to clients map
	mu sync.RWMutex
}

// NewHub creates a new Hub instance
func NewHub() *Hub {
	return &Hub{
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan []byte, 64),
		clients:    make(map[string]*Client),
	}
}

// Run starts the hub's main loop
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			if client.StationID != "" {
				// If a station connects again, close the old connection
				if old, ok := h.clients[client.StationID]; ok {
					close(old.send)
					delete(h.clients, client.StationID)
				}
				h.clients[client.StationID] = client
				log.Printf("📱 Station connected: %s", client.StationID)
			}
			h.mu.Unlock()

		case client := <-h.unregister:
			h.mu.Lock()
			if client.StationID != "" {
				if _, ok := h.clients[client.StationID]; ok {
					delete(h.clients, client.StationID)
					close(client.send)
					log.Printf("📴 Station disconnected: %s", client.StationID)
				}
			}
			h.mu.Unlock()

		case message := <-h.broadcast:
			h.mu.RLock()
			for _, client := range h.clients {
				select {
				case client.send <- message:
				default:
					// Buffer full or client dead; drop for this client
				}
			}
			h.mu.RUnlock()
		}
	}
}

// Publish marshals a committed domain event and broadcasts it to every
// connected station. Best-effort: a slow consumer never blocks the
// scan path.
func (h *Hub) Publish(event events.Event) {
	msg, err := json.Marshal(event)
	if err != nil {
		log.Printf("notify: error marshaling event %s: %v", event.Type(), err)
		return
	}

	select {
	case h.broadcast <- msg:
	default:
		log.Printf("notify: broadcast buffer full, dropping %s", event.Type())
	}
}

// SendToStation sends a message to one specific station
func (h *Hub) SendToStation(stationID string, message interface{}) bool {
	h.mu.RLock()
	client, ok := h.clients[stationID]
	h.mu.RUnlock()

	if !ok {
		return false
	}

	jsonMsg, err := json.Marshal(message)
	if err != nil {
		log.Printf("notify: error marshaling message: %v", err)
		return false
	}

	select {
	case client.send <- jsonMsg:
		return true
	default:
		return false
	}
}
