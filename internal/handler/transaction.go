package handler

import (
	"database/sql"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/noxius/grana/internal/identity"
	"github.com/noxius/grana/internal/ledger"
	"github.com/noxius/grana/internal/model"
	ws "github.com/noxius/grana/internal/websocket"
)

type TransactionHandler struct {
	db       *sql.DB
	engine   *ledger.Engine
	resolver *identity.Resolver
	hub      *ws.Hub
	logger   *slog.Logger
}

func NewTransactionHandler(db *sql.DB, engine *ledger.Engine, resolver *identity.Resolver, hub *ws.Hub, logger *slog.Logger) *TransactionHandler {
	return &TransactionHandler{db: db, engine: engine, resolver: resolver, hub: hub, logger: logger}
}

func (h *TransactionHandler) Create(w http.ResponseWriter, r *http.Request) {
	caller, err := h.resolver.Resolve(r.Context())
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	var req model.Transaction
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON"})
		return
	}
	if req.Type != model.Income && req.Type != model.Expense {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "type must be INCOME or EXPENSE"})
		return
	}
	if req.Amount.IsNegative() {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "amount must not be negative"})
		return
	}

	created, err := h.engine.Create(r.Context(), caller, req)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	h.hub.Send(walletAudience(r.Context(), h.db, created.WalletID),
		ws.NewMessage("transaction", "created", created.ID, created.WalletID, nil))
	writeJSON(w, http.StatusCreated, created)
}

func (h *TransactionHandler) Get(w http.ResponseWriter, r *http.Request) {
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

	got, err := h.engine.Get(r.Context(), caller, id)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, got)
}

func (h *TransactionHandler) Update(w http.ResponseWriter, r *http.Request) {
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

	var req model.Transaction
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON"})
		return
	}
	req.ID = id
	if req.Type != model.Income && req.Type != model.Expense {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "type must be INCOME or EXPENSE"})
		return
	}
	if req.Amount.IsNegative() {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "amount must not be negative"})
		return
	}

	updated, err := h.engine.Update(r.Context(), caller, req)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	h.hub.Send(walletAudience(r.Context(), h.db, updated.WalletID),
		ws.NewMessage("transaction", "updated", updated.ID, updated.WalletID, nil))
	writeJSON(w, http.StatusOK, updated)
}

func (h *TransactionHandler) Delete(w http.ResponseWriter, r *http.Request) {
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

	existing, err := h.engine.Get(r.Context(), caller, id)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	if err := h.engine.Delete(r.Context(), caller, id); err != nil {
		writeError(w, h.logger, err)
		return
	}

	h.hub.Send(walletAudience(r.Context(), h.db, existing.WalletID),
		ws.NewMessage("transaction", "deleted", id, existing.WalletID, nil))
	w.WriteHeader(http.StatusNoContent)
}

// List returns a wallet's history. Filters come from query parameters:
// category, type, start, and end (RFC 3339). Category takes precedence over
// the others; start and end only apply together.
func (h *TransactionHandler) List(w http.ResponseWriter, r *http.Request) {
	caller, err := h.resolver.Resolve(r.Context())
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	walletID, err := strconv.ParseInt(r.PathValue("wallet_id"), 10, 64)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid wallet_id"})
		return
	}

	filter, err := filterFromQuery(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	list, err := h.engine.List(r.Context(), caller, walletID, filter)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	if list == nil {
		list = []model.Transaction{}
	}
	writeJSON(w, http.StatusOK, list)
}

func filterFromQuery(r *http.Request) (ledger.Filter, error) {
	var f ledger.Filter

	q := r.URL.Query()
	f.Category = q.Get("category")

	if t := q.Get("type"); t != "" {
		txType := model.TransactionType(t)
		if txType != model.Income && txType != model.Expense {
			return f, errInvalidFilter("type must be INCOME or EXPENSE")
		}
		f.Type = txType
	}

	for _, part := range []struct {
		name string
		dst  *time.Time
	}{
		{"start", &f.Start},
		{"end", &f.End},
	} {
		raw := q.Get(part.name)
		if raw == "" {
			continue
		}
		parsed, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return f, errInvalidFilter(part.name + " must be an RFC 3339 timestamp")
		}
		*part.dst = parsed
	}

	return f, nil
}

type errInvalidFilter string

func (e errInvalidFilter) Error() string { return string(e) }
