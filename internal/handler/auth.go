package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/noxius/grana/internal/auth"
	"github.com/noxius/grana/internal/identity"
	"github.com/noxius/grana/internal/store"
)

type AuthHandler struct {
	users      *store.UserStore
	jwtManager *auth.JWTManager
	resolver   *identity.Resolver
	logger     *slog.Logger
}

func NewAuthHandler(users *store.UserStore, jwtManager *auth.JWTManager, resolver *identity.Resolver, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{users: users, jwtManager: jwtManager, resolver: resolver, logger: logger}
}

type credentialsRequest struct {
	Username string `json:"username"`
	Name     string `json:"name"`
	Password string `json:"password"`
}

type tokenResponse struct {
	Token string `json:"token"`
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON"})
		return
	}

	req.Username = strings.ToLower(strings.TrimSpace(req.Username))
	if req.Username == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "username is required"})
		return
	}
	if req.Name == "" {
		req.Name = req.Username
	}

	existing, err := h.users.GetByUsername(r.Context(), req.Username)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	if existing != nil {
		writeError(w, h.logger, auth.ErrUsernameTaken)
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	user, err := h.users.Create(r.Context(), req.Username, req.Name, hash)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	h.logger.Info("user registered", "username", user.Username)
	writeJSON(w, http.StatusCreated, user)
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON"})
		return
	}

	req.Username = strings.ToLower(strings.TrimSpace(req.Username))
	user, err := h.users.GetByUsername(r.Context(), req.Username)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	if user == nil {
		// Same response as a wrong password: do not reveal which part failed.
		writeError(w, h.logger, auth.ErrInvalidCredentials)
		return
	}

	if err := auth.CheckPassword(user.PasswordHash, req.Password); err != nil {
		writeError(w, h.logger, err)
		return
	}

	token, err := h.jwtManager.Generate(user.Username)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	h.logger.Info("user logged in", "username", user.Username)
	writeJSON(w, http.StatusOK, tokenResponse{Token: token})
}

// Me returns the resolved current user.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	user, err := h.resolver.Resolve(r.Context())
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

type profileRequest struct {
	Name   string `json:"name"`
	Avatar string `json:"avatar"`
}

// UpdateMe changes the caller's display name and avatar.
func (h *AuthHandler) UpdateMe(w http.ResponseWriter, r *http.Request) {
	user, err := h.resolver.Resolve(r.Context())
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	var req profileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON"})
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		req.Name = user.Name
	}

	updated, err := h.users.UpdateProfile(r.Context(), user.ID, req.Name, req.Avatar)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}
