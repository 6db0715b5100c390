package websocket

import (
	"log/slog"
	"net/http"

	ws "github.com/coder/websocket"
)

// Authenticate resolves a bearer token to a user id. Invalid tokens return
// an error.
type Authenticate func(token string) (int64, error)

// HandleWebSocket returns an HTTP handler that authenticates the connection
// token, upgrades to WebSocket, and runs the connection as a Hub client. A
// missing or invalid token is rejected before the upgrade.
func HandleWebSocket(hub *Hub, authenticate Authenticate, canJoin JoinCheck, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token := r.URL.Query().Get("token")
		if token == "" {
			http.Error(w, "missing token", http.StatusUnauthorized)
			return
		}

		userID, err := authenticate(token)
		if err != nil {
			http.Error(w, "invalid token", http.StatusUnauthorized)
			return
		}

		conn, err := ws.Accept(w, r, &ws.AcceptOptions{
			InsecureSkipVerify: true, // API is origin-agnostic; auth is the token
		})
		if err != nil {
			logger.Warn("websocket accept", "error", err)
			return
		}

		client := NewClient(hub, conn, userID, canJoin)
		client.Run(r.Context())
	}
}
