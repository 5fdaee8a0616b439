package notifications

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const (
	broadcastBuffer = 100
	clientBuffer    = 10
)

// Client is one connected notification stream
type Client struct {
	ID        string
	Workspace string
	Messages  chan Notification
}

// Hub fans notifications out to the stream clients of their workspace
type Hub struct {
	clients    map[string]*Client
	mu         sync.RWMutex
	broadcast  chan Notification
	register   chan *Client
	unregister chan *Client
	done       chan struct{}
	closeOnce  sync.Once
}

// NewHub creates a hub and starts its dispatch loop
func NewHub() *Hub {
	hub := &Hub{
		clients:    make(map[string]*Client),
		broadcast:  make(chan Notification, broadcastBuffer),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
	}
	go hub.run()
	return hub
}

// run handles client registration and broadcasting
func (h *Hub) run() {
	for {
		select {
		case <-h.done:
			h.mu.Lock()
			for id, client := range h.clients {
				delete(h.clients, id)
				close(client.Messages)
			}
			h.mu.Unlock()
			return

		case client := <-h.register:
			h.mu.Lock()
			h.clients[client.ID] = client
			h.mu.Unlock()
			logrus.WithFields(logrus.Fields{
				"client_id": client.ID,
				"workspace": client.Workspace,
			}).Debug("Notification client registered")

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client.ID]; ok {
				delete(h.clients, client.ID)
				close(client.Messages)
			}
			h.mu.Unlock()
			logrus.WithField("client_id", client.ID).Debug("Notification client unregistered")

		case n := <-h.broadcast:
			h.mu.RLock()
			sent := 0
			for _, client := range h.clients {
				if client.Workspace != n.Workspace {
					continue
				}
				select {
				case client.Messages <- n:
					sent++
				default:
					// Client is not reading, skip
					logrus.WithField("client_id", client.ID).Warn("Client message channel full, skipping notification")
				}
			}
			h.mu.RUnlock()
			logrus.WithFields(logrus.Fields{
				"title":     n.Title,
				"variant":   n.Variant,
				"workspace": n.Workspace,
				"sent_to":   sent,
			}).Debug("Broadcast notification")
		}
	}
}

// Subscribe registers a stream client for a workspace
func (h *Hub) Subscribe(workspace string) *Client {
	client := &Client{
		ID:        uuid.NewString(),
		Workspace: workspace,
		Messages:  make(chan Notification, clientBuffer),
	}
	select {
	case h.register <- client:
	case <-h.done:
		close(client.Messages)
	}
	return client
}

// Unsubscribe removes a client and closes its message channel
func (h *Hub) Unsubscribe(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

// ClientCount returns the number of connected clients
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Notify implements Notifier. It never blocks; when the broadcast queue
// is full the notification is dropped.
func (h *Hub) Notify(_ context.Context, n Notification) {
	select {
	case <-h.done:
		return
	default:
	}

	select {
	case h.broadcast <- n:
	default:
		logrus.Warn("Notification channel full, dropping notification")
	}
}

// Close stops the dispatch loop and disconnects every client
func (h *Hub) Close() {
	h.closeOnce.Do(func() {
		close(h.done)
	})
}
