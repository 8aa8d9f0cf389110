package expression

import (
	"log/slog"
	"sync"
	"time"

	models "visualexpr/internal/domain/models/expression"
)

// clientBufferSize is the number of undelivered events a client may lag behind.
const clientBufferSize = 20

// Hub fans out the events of one workspace to its SSE clients.
//
// Thread-safety: methods are safe for concurrent use. A client whose buffer
// is full misses the event instead of blocking the publisher.
type Hub struct {
	workspaceID string
	logger      *slog.Logger

	clients   map[string]chan string // clientID -> event channel
	clientsMu sync.RWMutex

	idleSince time.Time
}

// NewHub creates a hub for a workspace.
func NewHub(workspaceID string, logger *slog.Logger) *Hub {
	return &Hub{
		workspaceID: workspaceID,
		logger:      logger,
		clients:     make(map[string]chan string),
		idleSince:   time.Now(),
	}
}

// AddClient registers a client and returns its event channel.
// The channel is closed by RemoveClient or Close.
func (h *Hub) AddClient(clientID string) <-chan string {
	h.clientsMu.Lock()
	defer h.clientsMu.Unlock()

	ch := make(chan string, clientBufferSize)
	h.clients[clientID] = ch
	return ch
}

// RemoveClient unregisters a client. Safe to call for unknown ids.
func (h *Hub) RemoveClient(clientID string) {
	h.clientsMu.Lock()
	defer h.clientsMu.Unlock()

	if ch, exists := h.clients[clientID]; exists {
		close(ch)
		delete(h.clients, clientID)
	}
	if len(h.clients) == 0 {
		h.idleSince = time.Now()
	}
}

// Publish formats the event and broadcasts it.
func (h *Hub) Publish(event models.Event) {
	msg, err := models.FormatSSE(event)
	if err != nil {
		h.logger.Error("failed to format event",
			"workspace_id", h.workspaceID,
			"event", event.Name,
			"error", err,
		)
		return
	}
	h.broadcast(msg)
}

// Notify implements Notifier.
func (h *Hub) Notify(event models.Event) {
	h.Publish(event)
}

func (h *Hub) broadcast(msg string) {
	h.clientsMu.RLock()
	defer h.clientsMu.RUnlock()

	for clientID, ch := range h.clients {
		select {
		case ch <- msg:
		default:
			h.logger.Warn("client buffer full, dropping event",
				"workspace_id", h.workspaceID,
				"client_id", clientID,
			)
		}
	}
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.clientsMu.RLock()
	defer h.clientsMu.RUnlock()
	return len(h.clients)
}

// Close disconnects every client.
func (h *Hub) Close() {
	h.clientsMu.Lock()
	defer h.clientsMu.Unlock()

	for clientID, ch := range h.clients {
		close(ch)
		delete(h.clients, clientID)
	}
	h.idleSince = time.Now()
}

// idleFor reports how long the hub has had no clients, or zero when it has some.
func (h *Hub) idleFor(now time.Time) time.Duration {
	h.clientsMu.RLock()
	defer h.clientsMu.RUnlock()
	if len(h.clients) > 0 {
		return 0
	}
	return now.Sub(h.idleSince)
}
