package sse

import (
	"encoding/json"
	"io"
	"log"
	"sync"

	"github.com/gin-gonic/gin"
)

// Event is a server-sent event addressed to one user.
type Event struct {
	UserID  string
	Type    string
	Payload interface{}
}

type client struct {
	userID string
	send   chan *Event
}

// Manager fans events out to every open SSE connection of a user.
type Manager struct {
	mu         sync.RWMutex
	clients    map[*client]bool
	register   chan *client
	unregister chan *client
	events     chan *Event
}

func NewManager() *Manager {
	return &Manager{
		clients:    make(map[*client]bool),
		register:   make(chan *client),
		unregister: make(chan *client),
		events:     make(chan *Event, 256),
	}
}

// Run processes registrations and event delivery. Call it once in a
// goroutine at startup.
func (m *Manager) Run() {
	for {
		select {
		case c := <-m.register:
			m.mu.Lock()
			m.clients[c] = true
			m.mu.Unlock()
			log.Printf("[SSE] Client connected for user %s", c.userID)
		case c := <-m.unregister:
			m.mu.Lock()
			if _, ok := m.clients[c]; ok {
				delete(m.clients, c)
				close(c.send)
			}
			m.mu.Unlock()
			log.Printf("[SSE] Client disconnected for user %s", c.userID)
		case event := <-m.events:
			m.mu.RLock()
			for c := range m.clients {
				if c.userID != event.UserID {
					continue
				}
				select {
				case c.send <- event:
				default:
					// Slow consumer, drop the event rather than block delivery.
				}
			}
			m.mu.RUnlock()
		}
	}
}

// SendToUser queues an event for all of the user's open connections.
func (m *Manager) SendToUser(userID, eventType string, payload interface{}) {
	select {
	case m.events <- &Event{UserID: userID, Type: eventType, Payload: payload}:
	default:
		log.Printf("[SSE] Event queue full, dropping %s for user %s", eventType, userID)
	}
}

// ServeHTTP upgrades the request to an SSE stream for the given user and
// blocks until the client disconnects.
func (m *Manager) ServeHTTP(c *gin.Context, userID string) {
	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")

	cl := &client{userID: userID, send: make(chan *Event, 16)}
	m.register <- cl
	defer func() { m.unregister <- cl }()

	c.SSEvent("connected", gin.H{"user_id": userID})
	c.Writer.Flush()

	c.Stream(func(w io.Writer) bool {
		select {
		case event, ok := <-cl.send:
			if !ok {
				return false
			}
			data, err := json.Marshal(event.Payload)
			if err != nil {
				log.Printf("[SSE] Failed to marshal payload: %v", err)
				return true
			}
			c.SSEvent(event.Type, string(data))
			return true
		case <-c.Request.Context().Done():
			return false
		}
	})
}
