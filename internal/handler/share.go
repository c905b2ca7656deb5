package handler

import (
	"database/sql"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/noxius/grana/internal/identity"
	"github.com/noxius/grana/internal/model"
	"github.com/noxius/grana/internal/sharing"
	ws "github.com/noxius/grana/internal/websocket"
)

type ShareHandler struct {
	db       *sql.DB
	registry *sharing.Registry
	resolver *identity.Resolver
	hub      *ws.Hub
	logger   *slog.Logger
}

func NewShareHandler(db *sql.DB, registry *sharing.Registry, resolver *identity.Resolver, hub *ws.Hub, logger *slog.Logger) *ShareHandler {
	return &ShareHandler{db: db, registry: registry, resolver: resolver, hub: hub, logger: logger}
}

type shareRequest struct {
	Username string `json:"username"`
}

func (h *ShareHandler) Share(w http.ResponseWriter, r *http.Request) {
	caller, err := h.resolver.Resolve(r.Context())
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	walletID, err := parseIDParam(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid id"})
		return
	}

	var req shareRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON"})
		return
	}
	req.Username = strings.ToLower(strings.TrimSpace(req.Username))
	if req.Username == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "username is required"})
		return
	}

	share, err := h.registry.Share(r.Context(), caller, walletID, req.Username)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	h.hub.Send(walletAudience(r.Context(), h.db, walletID),
		ws.NewMessage("share", "created", share.ID, walletID, map[string]any{"username": req.Username}))
	writeJSON(w, http.StatusCreated, share)
}

func (h *ShareHandler) Revoke(w http.ResponseWriter, r *http.Request) {
	caller, err := h.resolver.Resolve(r.Context())
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	walletID, err := parseIDParam(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid id"})
		return
	}

	username := strings.ToLower(strings.TrimSpace(r.PathValue("username")))
	if username == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "username is required"})
		return
	}

	// Capture before the revoke so the removed grantee hears about it too.
	audience := walletAudience(r.Context(), h.db, walletID)

	if err := h.registry.Revoke(r.Context(), caller, walletID, username); err != nil {
		writeError(w, h.logger, err)
		return
	}

	h.hub.Send(audience,
		ws.NewMessage("share", "deleted", 0, walletID, map[string]any{"username": username}))
	w.WriteHeader(http.StatusNoContent)
}

// ListMine returns the shares granted to the caller.
func (h *ShareHandler) ListMine(w http.ResponseWriter, r *http.Request) {
	caller, err := h.resolver.Resolve(r.Context())
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	shares, err := h.registry.ListForUser(r.Context(), caller)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	if shares == nil {
		shares = []model.WalletShare{}
	}
	writeJSON(w, http.StatusOK, shares)
}

// ListForWallet returns the shares on one wallet; owner only.
func (h *ShareHandler) ListForWallet(w http.ResponseWriter, r *http.Request) {
	caller, err := h.resolver.Resolve(r.Context())
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	walletID, err := parseIDParam(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid id"})
		return
	}

	shares, err := h.registry.ListForWallet(r.Context(), caller, walletID)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	if shares == nil {
		shares = []model.WalletShare{}
	}
	writeJSON(w, http.StatusOK, shares)
}
