package handler

import (
	"database/sql"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/noxius/grana/internal/identity"
	"github.com/noxius/grana/internal/model"
	"github.com/noxius/grana/internal/wallet"
	ws "github.com/noxius/grana/internal/websocket"
)

type WalletHandler struct {
	db       *sql.DB
	service  *wallet.Service
	resolver *identity.Resolver
	hub      *ws.Hub
	logger   *slog.Logger
}

func NewWalletHandler(db *sql.DB, service *wallet.Service, resolver *identity.Resolver, hub *ws.Hub, logger *slog.Logger) *WalletHandler {
	return &WalletHandler{db: db, service: service, resolver: resolver, hub: hub, logger: logger}
}

func (h *WalletHandler) Create(w http.ResponseWriter, r *http.Request) {
	caller, err := h.resolver.Resolve(r.Context())
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	var req model.Wallet
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON"})
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "name is required"})
		return
	}

	created, err := h.service.Create(r.Context(), caller, req)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	h.hub.Send([]string{caller.Username}, ws.NewMessage("wallet", "created", created.ID, created.ID, nil))
	writeJSON(w, http.StatusCreated, created)
}

func (h *WalletHandler) Get(w http.ResponseWriter, r *http.Request) {
	caller, err := h.resolver.Resolve(r.Context())
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	id, err := parseIDParam(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid id"})
		return
	}

	got, err := h.service.Get(r.Context(), caller, id)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, got)
}

func (h *WalletHandler) List(w http.ResponseWriter, r *http.Request) {
	caller, err := h.resolver.Resolve(r.Context())
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	wallets, err := h.service.List(r.Context(), caller)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	if wallets == nil {
		wallets = []model.Wallet{}
	}
	writeJSON(w, http.StatusOK, wallets)
}

func (h *WalletHandler) Update(w http.ResponseWriter, r *http.Request) {
	caller, err := h.resolver.Resolve(r.Context())
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	id, err := parseIDParam(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid id"})
		return
	}

	var req model.Wallet
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON"})
		return
	}
	req.ID = id
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "name is required"})
		return
	}

	updated, err := h.service.Update(r.Context(), caller, req)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	h.hub.Send(walletAudience(r.Context(), h.db, id), ws.NewMessage("wallet", "updated", id, id, nil))
	writeJSON(w, http.StatusOK, updated)
}

func (h *WalletHandler) Delete(w http.ResponseWriter, r *http.Request) {
	caller, err := h.resolver.Resolve(r.Context())
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	id, err := parseIDParam(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid id"})
		return
	}

	// The audience has to be captured before the delete cascades the shares.
	audience := walletAudience(r.Context(), h.db, id)

	if err := h.service.Delete(r.Context(), caller, id); err != nil {
		writeError(w, h.logger, err)
		return
	}

	h.hub.Send(audience, ws.NewMessage("wallet", "deleted", id, id, nil))
	w.WriteHeader(http.StatusNoContent)
}
