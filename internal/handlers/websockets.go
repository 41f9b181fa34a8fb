package handlers

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"cleancut/internal/logger"
	"cleancut/internal/services"
)

var Upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// ProgressWebsocketHandler registers a viewer connection with the hub so it
// receives job progress broadcasts.
func ProgressWebsocketHandler(manager *services.Manager, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		connection, err := Upgrader.Upgrade(w, r, nil)
		if err != nil {
			logger.Error("WebSocket upgrade error: %v", err)
			return
		}
		connection.SetReadLimit(512)
		connection.SetReadDeadline(time.Now().Add(60 * time.Second))
		connection.SetPongHandler(func(appData string) error {
			connection.SetReadDeadline(time.Now().Add(60 * time.Second))
			return nil
		})

		hub := manager.GetHubService()
		hub.Register(connection)

		// Drain control frames until the viewer goes away.
		for {
			if _, _, err := connection.ReadMessage(); err != nil {
				break
			}
		}
		hub.Unregister(connection)
	}
}
