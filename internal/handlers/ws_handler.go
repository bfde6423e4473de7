package handlers

import (
	"github.com/gofiber/contrib/websocket"

	"quickchat/internal/chat"
)

// WS GET /ws?userId=...
// Registers the connection in the presence registry for the lifetime
// of the socket. Connections without a userId stay anonymous: they are
// never registered and never receive pushes.
func WS(registry *chat.Registry) func(*websocket.Conn) {
	return func(conn *websocket.Conn) {
		userID := conn.Query("userId")
		if userID == "" {
			// Drain until close so the client sees a clean shutdown.
			for {
				if _, _, err := conn.ReadMessage(); err != nil {
					return
				}
			}
		}

		client := chat.NewClient(userID, conn)
		registry.Register(userID, client)
		defer func() {
			registry.Unregister(userID, client)
			client.Close()
		}()

		go client.WritePump()
		client.ReadPump()
	}
}
