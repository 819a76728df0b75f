// Package dashboard: handler.go bridges store subscriptions to the
// WebSocket server.
package dashboard

import (
	"log"

	"github.com/userdeck/userdeck/internal/store"
)

// Handler consumes a store subscription and broadcasts a state summary
// for every snapshot the store produces.
type Handler struct {
	server *Server
	store  *store.Store
	logger *log.Logger

	cancel func()
	done   chan struct{}
}

// NewHandler creates a handler connected to a dashboard server.
func NewHandler(server *Server, st *store.Store, logger *log.Logger) *Handler {
	if logger == nil {
		logger = log.Default()
	}
	return &Handler{
		server: server,
		store:  st,
		logger: logger,
	}
}

// Start subscribes to the store and begins forwarding state changes.
func (h *Handler) Start() {
	snaps, cancel := h.store.Subscribe()
	h.cancel = cancel
	h.done = make(chan struct{})

	go func() {
		defer close(h.done)
		for snap := range snaps {
			h.logger.Printf("Cache changed: %d users, %d post sets", len(snap.Users), len(snap.PostsByUserID))
			h.server.BroadcastState(snap)
		}
	}()
}

// Stop releases the store subscription.
func (h *Handler) Stop() {
	if h.cancel != nil {
		h.cancel()
		<-h.done
	}
}
