package chat

import (
	"log/slog"
	"sort"
	"sync"
)

// Registry is the process-wide map from user identity to live
// connection. At most one entry per user; a second connection for the
// same user evicts the first (last write wins). Every mutation
// broadcasts the full online-id set to all registered connections.
type Registry struct {
	mu      sync.RWMutex
	clients map[string]*Client
	log     *slog.Logger
}

func NewRegistry(log *slog.Logger) *Registry {
	return &Registry{
		clients: make(map[string]*Client),
		log:     log,
	}
}

// Register binds userID to c, replacing any prior handle, and
// broadcasts the updated online set. The mutation and the snapshot it
// broadcasts happen under one critical section so no torn set is ever
// observed.
func (r *Registry) Register(userID string, c *Client) {
	r.mu.Lock()
	prior := r.clients[userID]
	r.clients[userID] = c
	ids, targets := r.snapshotLocked()
	r.mu.Unlock()

	if prior != nil && prior != c {
		// Second connection for the same user evicts the first.
		prior.Close()
	}

	r.log.Info("user connected", "user", userID, "online", len(ids))
	r.broadcastOnline(ids, targets)
}

// Unregister removes the entry for userID only if it still holds c.
// A stale disconnect racing a fresh Register must not evict the newer
// connection.
func (r *Registry) Unregister(userID string, c *Client) {
	r.mu.Lock()
	cur, ok := r.clients[userID]
	if !ok || cur != c {
		r.mu.Unlock()
		return
	}
	delete(r.clients, userID)
	ids, targets := r.snapshotLocked()
	r.mu.Unlock()

	r.log.Info("user disconnected", "user", userID, "online", len(ids))
	r.broadcastOnline(ids, targets)
}

func (r *Registry) IsOnline(userID string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.clients[userID]
	return ok
}

// Get returns the live handle for userID, if any.
func (r *Registry) Get(userID string) (*Client, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.clients[userID]
	return c, ok
}

// OnlineIDs returns the identities currently registered, sorted for
// stable output.
func (r *Registry) OnlineIDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]string, 0, len(r.clients))
	for id := range r.clients {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func (r *Registry) snapshotLocked() ([]string, []*Client) {
	ids := make([]string, 0, len(r.clients))
	targets := make([]*Client, 0, len(r.clients))
	for id, c := range r.clients {
		ids = append(ids, id)
		targets = append(targets, c)
	}
	sort.Strings(ids)
	return ids, targets
}

// broadcastOnline resends the full id set to everyone; no diffing.
func (r *Registry) broadcastOnline(ids []string, targets []*Client) {
	data, err := Encode(EventOnlineUsers, ids)
	if err != nil {
		r.log.Error("encode online set", "err", err)
		return
	}
	for _, c := range targets {
		if !c.Push(data) {
			r.log.Warn("presence push dropped", "user", c.UserID)
		}
	}
}
