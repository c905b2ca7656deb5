package websocket

import (
	"log/slog"
	"net/http"

	ws "github.com/coder/websocket"

	"github.com/noxius/grana/internal/auth"
)

// Handler upgrades the request and runs the connection as a hub client bound
// to the authenticated principal. The auth middleware must run first.
func Handler(hub *Hub, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		username := auth.Username(r.Context())
		if username == "" {
			http.Error(w, "authentication required", http.StatusUnauthorized)
			return
		}

		conn, err := ws.Accept(w, r, nil)
		if err != nil {
			logger.Warn("websocket accept", "error", err)
			return
		}

		client := NewClient(hub, conn, username)
		client.Run(r.Context())
	}
}
