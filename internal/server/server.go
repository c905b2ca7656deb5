// Package server wires stores, services, and handlers into one HTTP router.
package server

import (
	"database/sql"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/noxius/grana/internal/auth"
	"github.com/noxius/grana/internal/handler"
	"github.com/noxius/grana/internal/identity"
	"github.com/noxius/grana/internal/ledger"
	"github.com/noxius/grana/internal/middleware"
	"github.com/noxius/grana/internal/sharing"
	"github.com/noxius/grana/internal/store"
	"github.com/noxius/grana/internal/wallet"
	ws "github.com/noxius/grana/internal/websocket"
)

// Config holds the server's own settings; storage and backup concerns are
// configured where they are constructed.
type Config struct {
	JWTSecret     string
	TokenDuration time.Duration
}

type Server struct {
	db           *sql.DB
	hub          *ws.Hub
	jwtManager   *auth.JWTManager
	authH        *handler.AuthHandler
	walletH      *handler.WalletHandler
	transactionH *handler.TransactionHandler
	shareH       *handler.ShareHandler
	familyH      *handler.FamilyHandler
	goalH        *handler.GoalHandler
	missionH     *handler.MissionHandler
	rateLimiter  *middleware.RateLimiter
	logger       *slog.Logger
}

func New(db *sql.DB, cfg Config, logger *slog.Logger) *Server {
	hub := ws.NewHub(logger.With("component", "websocket"))
	jwtManager := auth.NewJWTManager(cfg.JWTSecret, cfg.TokenDuration)

	users := store.NewUserStore(db)
	families := store.NewFamilyStore(db)
	goals := store.NewGoalStore(db)
	missions := store.NewMissionStore(db)

	resolver := identity.NewResolver(users)
	engine := ledger.NewEngine(db, logger.With("component", "ledger"))
	registry := sharing.NewRegistry(db, logger.With("component", "sharing"))
	walletSvc := wallet.NewService(db, logger.With("component", "wallet"))

	return &Server{
		db:           db,
		hub:          hub,
		jwtManager:   jwtManager,
		authH:        handler.NewAuthHandler(users, jwtManager, resolver, logger.With("component", "auth")),
		walletH:      handler.NewWalletHandler(db, walletSvc, resolver, hub, logger.With("component", "wallet_handler")),
		transactionH: handler.NewTransactionHandler(db, engine, resolver, hub, logger.With("component", "transaction_handler")),
		shareH:       handler.NewShareHandler(db, registry, resolver, hub, logger.With("component", "share_handler")),
		familyH:      handler.NewFamilyHandler(families, users, resolver, logger.With("component", "family_handler")),
		goalH:        handler.NewGoalHandler(goals, resolver, logger.With("component", "goal_handler")),
		missionH:     handler.NewMissionHandler(missions, users, resolver, logger.With("component", "mission_handler")),
		rateLimiter:  middleware.NewRateLimiter(),
		logger:       logger,
	}
}

// RateLimiter returns the rate limiter for cleanup tasks.
func (s *Server) RateLimiter() *middleware.RateLimiter {
	return s.rateLimiter
}

func (s *Server) Router() http.Handler {
	outerMux := http.NewServeMux()

	// Public routes (no auth required)
	outerMux.HandleFunc("POST /api/register", s.rateLimitedHandler(s.authH.Register))
	outerMux.HandleFunc("POST /api/login", s.rateLimitedHandler(s.authH.Login))
	outerMux.HandleFunc("GET /health", s.healthHandler)

	// Protected routes — wrapped with the token middleware
	protectedMux := http.NewServeMux()
	s.registerProtectedRoutes(protectedMux)

	authMiddleware := middleware.Authenticate(s.jwtManager)
	outerMux.Handle("/", authMiddleware(protectedMux))

	return middleware.RequestLogger(s.logger.With("component", "http"))(outerMux)
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

func (s *Server) rateLimitedHandler(h http.HandlerFunc) http.HandlerFunc {
	keyFunc := func(r *http.Request) string {
		return middleware.RealIP(r)
	}
	rl := middleware.RateLimit(s.rateLimiter, keyFunc, 10, time.Minute)
	return func(w http.ResponseWriter, r *http.Request) {
		rl(http.HandlerFunc(h)).ServeHTTP(w, r)
	}
}

func (s *Server) registerProtectedRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/me", s.authH.Me)
	mux.HandleFunc("PUT /api/me", s.authH.UpdateMe)

	// Wallets
	mux.HandleFunc("POST /api/wallets", s.walletH.Create)
	mux.HandleFunc("GET /api/wallets", s.walletH.List)
	mux.HandleFunc("GET /api/wallets/{id}", s.walletH.Get)
	mux.HandleFunc("PUT /api/wallets/{id}", s.walletH.Update)
	mux.HandleFunc("DELETE /api/wallets/{id}", s.walletH.Delete)

	// Wallet shares
	mux.HandleFunc("POST /api/wallets/{id}/shares", s.shareH.Share)
	mux.HandleFunc("GET /api/wallets/{id}/shares", s.shareH.ListForWallet)
	mux.HandleFunc("DELETE /api/wallets/{id}/shares/{username}", s.shareH.Revoke)
	mux.HandleFunc("GET /api/shares", s.shareH.ListMine)

	// Transactions
	mux.HandleFunc("POST /api/transactions", s.transactionH.Create)
	mux.HandleFunc("GET /api/transactions/{id}", s.transactionH.Get)
	mux.HandleFunc("PUT /api/transactions/{id}", s.transactionH.Update)
	mux.HandleFunc("DELETE /api/transactions/{id}", s.transactionH.Delete)
	mux.HandleFunc("GET /api/wallets/{wallet_id}/transactions", s.transactionH.List)

	// Families
	mux.HandleFunc("POST /api/families", s.familyH.Create)
	mux.HandleFunc("GET /api/families", s.familyH.List)
	mux.HandleFunc("PUT /api/families/{id}", s.familyH.Rename)
	mux.HandleFunc("POST /api/families/{id}/join", s.familyH.Join)
	mux.HandleFunc("POST /api/families/leave", s.familyH.Leave)
	mux.HandleFunc("GET /api/families/members", s.familyH.Members)

	// Goals
	mux.HandleFunc("POST /api/goals", s.goalH.Create)
	mux.HandleFunc("GET /api/goals", s.goalH.List)
	mux.HandleFunc("PUT /api/goals/{id}", s.goalH.Update)
	mux.HandleFunc("POST /api/goals/{id}/progress", s.goalH.AddProgress)
	mux.HandleFunc("DELETE /api/goals/{id}", s.goalH.Delete)

	// Daily missions
	mux.HandleFunc("POST /api/missions", s.missionH.Create)
	mux.HandleFunc("GET /api/missions", s.missionH.List)
	mux.HandleFunc("POST /api/missions/{id}/status", s.missionH.RecordStatus)
	mux.HandleFunc("GET /api/missions/{id}/status", s.missionH.History)
	mux.HandleFunc("DELETE /api/missions/{id}", s.missionH.Delete)

	// WebSocket sync
	mux.HandleFunc("GET /ws", ws.Handler(s.hub, s.logger.With("component", "websocket")))
}
