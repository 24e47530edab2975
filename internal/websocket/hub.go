package websocket

import (
	"encoding/json"
	"sync"

	"github.com/dom/blog-backend/internal/domain"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Hub fans post events out to every connected feed client.
type Hub struct {
	clients    map[*Client]bool
	register   chan *Client
	unregister chan *Client
	broadcast  chan []byte
	stop       chan struct{}
	done       chan struct{} // closed when Run() exits, or by Stop if Run never started
	started    bool
	stopped    bool
	log        logrus.FieldLogger
	mu         sync.RWMutex
}

func NewHub(log logrus.FieldLogger) *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan []byte, 256),
		stop:       make(chan struct{}),
		done:       make(chan struct{}),
		log:        log.WithField("component", "feed"),
	}
}

func (h *Hub) Run() {
	h.mu.Lock()
	if h.started || h.stopped {
		h.mu.Unlock()
		return
	}
	h.started = true
	h.mu.Unlock()
	defer close(h.done)

	for {
		select {
		case <-h.stop:
			h.mu.Lock()
			h.stopped = true
			for client := range h.clients {
				client.Close()
			}
			h.clients = make(map[*Client]bool)
			h.mu.Unlock()
			return

		case client := <-h.register:
			h.mu.Lock()
			if h.stopped {
				client.Close()
			} else {
				h.clients[client] = true
			}
			count := len(h.clients)
			h.mu.Unlock()
			h.log.WithField("clients", count).Debug("feed client connected")

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				client.Close()
			}
			h.mu.Unlock()

		case data := <-h.broadcast:
			h.mu.Lock()
			for client := range h.clients {
				if !client.trySend(data) {
					// Slow consumer; drop it rather than stall the feed.
					delete(h.clients, client)
					client.Close()
					h.log.Warn("dropped slow feed client")
				}
			}
			h.mu.Unlock()
		}
	}
}

// Stop disconnects every client and blocks until Run has returned. A hub
// whose Run never started is marked stopped and Run becomes a no-op.
func (h *Hub) Stop() {
	h.mu.Lock()
	if h.stopped {
		h.mu.Unlock()
		return
	}
	h.stopped = true
	started := h.started
	h.mu.Unlock()

	close(h.stop)
	if !started {
		close(h.done)
		return
	}
	<-h.done
}

func (h *Hub) Register(client *Client) {
	select {
	case h.register <- client:
	case <-h.done:
		client.Close()
	}
}

// Unregister is safe to call after the hub has stopped.
func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

// ClientCount reports the number of connected feed clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func (h *Hub) PostCreated(post *domain.Post) {
	h.publish(MessageTypePostCreated, post)
}

func (h *Hub) PostUpdated(post *domain.Post) {
	h.publish(MessageTypePostUpdated, post)
}

func (h *Hub) PostDeleted(id uuid.UUID) {
	h.publish(MessageTypePostDeleted, PostDeletedPayload{ID: id})
}

// publish never blocks the caller. Events are dropped when the hub is
// stopped or its queue is full.
func (h *Hub) publish(msgType MessageType, payload interface{}) {
	msg, err := NewMessage(msgType, payload)
	if err != nil {
		h.log.WithError(err).Error("failed to build feed message")
		return
	}
	data, err := json.Marshal(msg)
	if err != nil {
		h.log.WithError(err).Error("failed to marshal feed message")
		return
	}

	select {
	case <-h.done:
	case h.broadcast <- data:
	default:
		h.log.WithField("type", msgType).Warn("feed queue full, event dropped")
	}
}
