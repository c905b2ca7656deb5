package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/noxius/grana/internal/apperr"
	"github.com/noxius/grana/internal/identity"
	"github.com/noxius/grana/internal/model"
	"github.com/noxius/grana/internal/store"
)

type FamilyHandler struct {
	families *store.FamilyStore
	users    *store.UserStore
	resolver *identity.Resolver
	logger   *slog.Logger
}

func NewFamilyHandler(families *store.FamilyStore, users *store.UserStore, resolver *identity.Resolver, logger *slog.Logger) *FamilyHandler {
	return &FamilyHandler{families: families, users: users, resolver: resolver, logger: logger}
}

type familyRequest struct {
	Name string `json:"name"`
}

// Create makes a new family and moves the caller into it.
func (h *FamilyHandler) Create(w http.ResponseWriter, r *http.Request) {
	caller, err := h.resolver.Resolve(r.Context())
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	var req familyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON"})
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "name is required"})
		return
	}

	family, err := h.families.Create(r.Context(), req.Name)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	if err := h.users.SetFamily(r.Context(), caller.ID, &family.ID); err != nil {
		writeError(w, h.logger, err)
		return
	}

	h.logger.Info("family created", "family_id", family.ID, "creator", caller.Username)
	writeJSON(w, http.StatusCreated, family)
}

// Join moves the caller into an existing family.
func (h *FamilyHandler) Join(w http.ResponseWriter, r *http.Request) {
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

	family, err := h.families.GetByID(r.Context(), id)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	if family == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "family not found"})
		return
	}

	if err := h.users.SetFamily(r.Context(), caller.ID, &family.ID); err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, family)
}

// List returns all families so a new user can pick one to join.
func (h *FamilyHandler) List(w http.ResponseWriter, r *http.Request) {
	families, err := h.families.List(r.Context())
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	if families == nil {
		families = []model.Family{}
	}
	writeJSON(w, http.StatusOK, families)
}

// Rename changes the name of the caller's own family.
func (h *FamilyHandler) Rename(w http.ResponseWriter, r *http.Request) {
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
	if caller.FamilyID == nil || *caller.FamilyID != id {
		writeError(w, h.logger, apperr.ErrForbidden)
		return
	}

	var req familyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON"})
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "name is required"})
		return
	}

	family, err := h.families.Update(r.Context(), id, req.Name)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, family)
}

// Leave clears the caller's family membership. An empty family is removed
// along with its goals and missions.
func (h *FamilyHandler) Leave(w http.ResponseWriter, r *http.Request) {
	caller, err := h.resolver.Resolve(r.Context())
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	if err := h.users.SetFamily(r.Context(), caller.ID, nil); err != nil {
		writeError(w, h.logger, err)
		return
	}

	if caller.FamilyID != nil {
		remaining, err := h.users.ListByFamily(r.Context(), *caller.FamilyID)
		if err != nil {
			writeError(w, h.logger, err)
			return
		}
		if len(remaining) == 0 {
			if err := h.families.Delete(r.Context(), *caller.FamilyID); err != nil {
				writeError(w, h.logger, err)
				return
			}
			h.logger.Info("empty family removed", "family_id", *caller.FamilyID)
		}
	}
	w.WriteHeader(http.StatusNoContent)
}

// Members lists the users in the caller's family.
func (h *FamilyHandler) Members(w http.ResponseWriter, r *http.Request) {
	caller, err := h.resolver.Resolve(r.Context())
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	if caller.FamilyID == nil {
		writeError(w, h.logger, apperr.ErrForbidden)
		return
	}

	members, err := h.users.ListByFamily(r.Context(), *caller.FamilyID)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	if members == nil {
		members = []model.User{}
	}
	writeJSON(w, http.StatusOK, members)
}
