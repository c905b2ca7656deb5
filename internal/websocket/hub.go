// Package websocket pushes ledger change notifications to connected clients
// so balances and histories stay current without polling.
package websocket

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
)

// Message is a sync notification. Entity is one of wallet, transaction, or
// share; Action is created, updated, or deleted.
type Message struct {
	Type     string         `json:"type"`
	Entity   string         `json:"entity"`
	Action   string         `json:"action"`
	ID       int64          `json:"id,omitempty"`
	WalletID int64          `json:"wallet_id,omitempty"`
	Extra    map[string]any `json:"extra,omitempty"`
}

// NewMessage creates a Message with the Type field derived from entity and action.
func NewMessage(entity, action string, id, walletID int64, extra map[string]any) Message {
	return Message{
		Type:     fmt.Sprintf("%s_%s", entity, action),
		Entity:   entity,
		Action:   action,
		ID:       id,
		WalletID: walletID,
		Extra:    extra,
	}
}

// Hub maintains the set of active clients. Deliveries are targeted by
// username: a wallet event goes to the owner and grantees only, never to the
// whole connection set.
type Hub struct {
	mu      sync.RWMutex
	clients map[*Client]struct{}
	logger  *slog.Logger
}

func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		clients: make(map[*Client]struct{}),
		logger:  logger,
	}
}

// Register adds a client to the hub.
func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()
}

// Unregister removes a client from the hub and closes its send channel.
func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
	}
	h.mu.Unlock()
}

// Send delivers a message to every connection belonging to one of the named
// users. A user may hold several connections (phone and laptop); all of them
// receive the message.
func (h *Hub) Send(usernames []string, msg Message) {
	data, err := json.Marshal(msg)
	if err != nil {
		h.logger.Error("marshal notification", "error", err)
		return
	}

	recipients := make(map[string]struct{}, len(usernames))
	for _, u := range usernames {
		recipients[u] = struct{}{}
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for c := range h.clients {
		if _, ok := recipients[c.username]; !ok {
			continue
		}
		select {
		case c.send <- data:
		default:
			// Client buffer full — drop message to avoid blocking
		}
	}
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
