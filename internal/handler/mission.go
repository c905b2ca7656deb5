package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/noxius/grana/internal/apperr"
	"github.com/noxius/grana/internal/identity"
	"github.com/noxius/grana/internal/model"
	"github.com/noxius/grana/internal/store"
)

type MissionHandler struct {
	missions *store.MissionStore
	users    *store.UserStore
	resolver *identity.Resolver
	logger   *slog.Logger
}

func NewMissionHandler(missions *store.MissionStore, users *store.UserStore, resolver *identity.Resolver, logger *slog.Logger) *MissionHandler {
	return &MissionHandler{missions: missions, users: users, resolver: resolver, logger: logger}
}

func (h *MissionHandler) memberMission(r *http.Request, caller *model.User) (*model.DailyMission, error) {
	id, err := parseIDParam(r)
	if err != nil {
		return nil, apperr.ErrForbidden
	}
	m, err := h.missions.GetByID(r.Context(), id)
	if err != nil {
		return nil, err
	}
	if m == nil || caller.FamilyID == nil || m.FamilyID != *caller.FamilyID {
		return nil, apperr.ErrForbidden
	}
	return m, nil
}

func (h *MissionHandler) Create(w http.ResponseWriter, r *http.Request) {
	caller, err := h.resolver.Resolve(r.Context())
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	if caller.FamilyID == nil {
		writeError(w, h.logger, apperr.ErrForbidden)
		return
	}

	var req model.DailyMission
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON"})
		return
	}
	req.Title = strings.TrimSpace(req.Title)
	if req.Title == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "title is required"})
		return
	}
	req.FamilyID = *caller.FamilyID

	created, err := h.missions.Create(r.Context(), req)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (h *MissionHandler) List(w http.ResponseWriter, r *http.Request) {
	caller, err := h.resolver.Resolve(r.Context())
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	if caller.FamilyID == nil {
		writeJSON(w, http.StatusOK, []model.DailyMission{})
		return
	}

	missions, err := h.missions.ListByFamily(r.Context(), *caller.FamilyID)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	if missions == nil {
		missions = []model.DailyMission{}
	}
	writeJSON(w, http.StatusOK, missions)
}

type missionStatusRequest struct {
	Date   time.Time           `json:"date"`
	Status model.MissionStatus `json:"status"`
}

// RecordStatus marks a mission's outcome for a day. Completing a mission
// grants its XP reward to the caller.
func (h *MissionHandler) RecordStatus(w http.ResponseWriter, r *http.Request) {
	caller, err := h.resolver.Resolve(r.Context())
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	mission, err := h.memberMission(r, caller)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	var req missionStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON"})
		return
	}
	if req.Status != model.MissionCompleted && req.Status != model.MissionFailed {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "status must be COMPLETED or FAILED"})
		return
	}
	if req.Date.IsZero() {
		req.Date = time.Now().UTC().Truncate(24 * time.Hour)
	}

	record, err := h.missions.RecordStatus(r.Context(), mission.ID, req.Date, req.Status)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	if req.Status == model.MissionCompleted && mission.XPReward > 0 {
		if _, err := h.users.AddXP(r.Context(), caller.ID, mission.XPReward); err != nil {
			h.logger.Error("grant mission xp", "mission_id", mission.ID, "user_id", caller.ID, "error", err)
		} else {
			h.logger.Info("mission xp granted", "mission_id", mission.ID, "user_id", caller.ID, "xp", mission.XPReward)
		}
	}

	writeJSON(w, http.StatusCreated, record)
}

func (h *MissionHandler) History(w http.ResponseWriter, r *http.Request) {
	caller, err := h.resolver.Resolve(r.Context())
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	mission, err := h.memberMission(r, caller)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	records, err := h.missions.ListStatusRecords(r.Context(), mission.ID)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	if records == nil {
		records = []model.MissionStatusRecord{}
	}
	writeJSON(w, http.StatusOK, records)
}

func (h *MissionHandler) Delete(w http.ResponseWriter, r *http.Request) {
	caller, err := h.resolver.Resolve(r.Context())
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	mission, err := h.memberMission(r, caller)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	if err := h.missions.Delete(r.Context(), mission.ID); err != nil {
		writeError(w, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
