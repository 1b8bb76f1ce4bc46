package websocket

import (
	"net/http"

	ws "github.com/coder/websocket"

	"github.com/ellisbray/homebase/internal/auth"
)

// Handle upgrades the request to a WebSocket and runs it as a hub client.
// The route sits behind the auth middleware, so the user is always known.
func Handle(hub *Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := auth.UserID(r.Context())

		conn, err := ws.Accept(w, r, &ws.AcceptOptions{
			InsecureSkipVerify: true, // Same-origin enforcement happens at the session layer
		})
		if err != nil {
			hub.logger.Warn("websocket accept", "error", err)
			return
		}

		client := NewClient(hub, conn, userID)
		client.Run(r.Context())
	}
}
