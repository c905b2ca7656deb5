package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/noxius/grana/internal/apperr"
	"github.com/noxius/grana/internal/identity"
	"github.com/noxius/grana/internal/model"
	"github.com/noxius/grana/internal/store"
)

type GoalHandler struct {
	goals    *store.GoalStore
	resolver *identity.Resolver
	logger   *slog.Logger
}

func NewGoalHandler(goals *store.GoalStore, resolver *identity.Resolver, logger *slog.Logger) *GoalHandler {
	return &GoalHandler{goals: goals, resolver: resolver, logger: logger}
}

// memberGoal loads a goal and checks it belongs to the caller's family.
func (h *GoalHandler) memberGoal(r *http.Request, caller *model.User) (*model.Goal, error) {
	id, err := parseIDParam(r)
	if err != nil {
		return nil, apperr.ErrForbidden
	}
	g, err := h.goals.GetByID(r.Context(), id)
	if err != nil {
		return nil, err
	}
	if g == nil || caller.FamilyID == nil || g.FamilyID != *caller.FamilyID {
		return nil, apperr.ErrForbidden
	}
	return g, nil
}

func (h *GoalHandler) Create(w http.ResponseWriter, r *http.Request) {
	caller, err := h.resolver.Resolve(r.Context())
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	if caller.FamilyID == nil {
		writeError(w, h.logger, apperr.ErrForbidden)
		return
	}

	var req model.Goal
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON"})
		return
	}
	req.Title = strings.TrimSpace(req.Title)
	if req.Title == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "title is required"})
		return
	}
	if req.Category == "" {
		req.Category = model.GoalOther
	}
	if req.Priority == "" {
		req.Priority = model.PriorityMedium
	}
	req.FamilyID = *caller.FamilyID
	req.CurrentAmount = decimal.Zero

	created, err := h.goals.Create(r.Context(), req)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (h *GoalHandler) List(w http.ResponseWriter, r *http.Request) {
	caller, err := h.resolver.Resolve(r.Context())
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	if caller.FamilyID == nil {
		writeJSON(w, http.StatusOK, []model.Goal{})
		return
	}

	goals, err := h.goals.ListByFamily(r.Context(), *caller.FamilyID)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	if goals == nil {
		goals = []model.Goal{}
	}
	writeJSON(w, http.StatusOK, goals)
}

func (h *GoalHandler) Update(w http.ResponseWriter, r *http.Request) {
	caller, err := h.resolver.Resolve(r.Context())
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	existing, err := h.memberGoal(r, caller)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	var req model.Goal
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON"})
		return
	}
	req.ID = existing.ID
	req.FamilyID = existing.FamilyID
	req.CurrentAmount = existing.CurrentAmount

	updated, err := h.goals.Update(r.Context(), req)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

type progressRequest struct {
	Amount decimal.Decimal `json:"amount"`
}

// AddProgress moves saved money toward a goal.
func (h *GoalHandler) AddProgress(w http.ResponseWriter, r *http.Request) {
	caller, err := h.resolver.Resolve(r.Context())
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	existing, err := h.memberGoal(r, caller)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	var req progressRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON"})
		return
	}

	updated, err := h.goals.AddProgress(r.Context(), existing.ID, req.Amount)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (h *GoalHandler) Delete(w http.ResponseWriter, r *http.Request) {
	caller, err := h.resolver.Resolve(r.Context())
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	existing, err := h.memberGoal(r, caller)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	if err := h.goals.Delete(r.Context(), existing.ID); err != nil {
		writeError(w, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
