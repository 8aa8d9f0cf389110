package expression

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// HubRegistry holds one Hub per workspace.
//
// Lifecycle:
//  1. The workspace service asks for a hub when it publishes or a client subscribes
//  2. Hubs are created on first use
//  3. The cleanup loop drops hubs that have had no clients for the retention period
type HubRegistry struct {
	hubs map[string]*Hub // workspaceID -> hub
	mu   sync.RWMutex

	logger          *slog.Logger
	cleanupInterval time.Duration
	retentionPeriod time.Duration
}

// NewHubRegistry creates a registry. Call StartCleanup to evict idle hubs.
func NewHubRegistry(cleanupInterval, retentionPeriod time.Duration, logger *slog.Logger) *HubRegistry {
	return &HubRegistry{
		hubs:            make(map[string]*Hub),
		logger:          logger,
		cleanupInterval: cleanupInterval,
		retentionPeriod: retentionPeriod,
	}
}

// Hub returns the hub of a workspace, creating it if needed.
func (r *HubRegistry) Hub(workspaceID string) *Hub {
	r.mu.RLock()
	hub, ok := r.hubs[workspaceID]
	r.mu.RUnlock()
	if ok {
		return hub
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if hub, ok := r.hubs[workspaceID]; ok {
		return hub
	}
	hub = NewHub(workspaceID, r.logger)
	r.hubs[workspaceID] = hub
	return hub
}

// Subscribe adds a client to the workspace hub. Holding the registry lock
// keeps the cleanup loop from evicting the hub in between.
func (r *HubRegistry) Subscribe(workspaceID, clientID string) <-chan string {
	r.mu.Lock()
	defer r.mu.Unlock()

	hub, ok := r.hubs[workspaceID]
	if !ok {
		hub = NewHub(workspaceID, r.logger)
		r.hubs[workspaceID] = hub
	}
	return hub.AddClient(clientID)
}

// Unsubscribe removes a client from the workspace hub.
func (r *HubRegistry) Unsubscribe(workspaceID, clientID string) {
	if hub := r.Lookup(workspaceID); hub != nil {
		hub.RemoveClient(clientID)
	}
}

// Lookup returns the hub of a workspace without creating one.
func (r *HubRegistry) Lookup(workspaceID string) *Hub {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.hubs[workspaceID]
}

// Remove closes and drops the hub of a workspace.
func (r *HubRegistry) Remove(workspaceID string) {
	r.mu.Lock()
	hub, ok := r.hubs[workspaceID]
	delete(r.hubs, workspaceID)
	r.mu.Unlock()

	if ok {
		hub.Close()
	}
}

// StartCleanup runs the eviction loop until ctx is cancelled.
func (r *HubRegistry) StartCleanup(ctx context.Context) {
	ticker := time.NewTicker(r.cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			r.cleanup(now)
		}
	}
}

func (r *HubRegistry) cleanup(now time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for id, hub := range r.hubs {
		if hub.idleFor(now) > r.retentionPeriod {
			delete(r.hubs, id)
			r.logger.Debug("idle hub removed", "workspace_id", id)
		}
	}
}

// Count returns the number of live hubs.
func (r *HubRegistry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.hubs)
}
