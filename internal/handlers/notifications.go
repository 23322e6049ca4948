package handlers

import (
	"log"

	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"

	"github.com/hustlefy/hustlefy_be/internal/realtime"
	"github.com/hustlefy/hustlefy_be/internal/utils"
)

type NotificationHandler struct {
	Hub       *realtime.Hub
	JWTSecret string
}

func NewNotificationHandler(hub *realtime.Hub, jwtSecret string) *NotificationHandler {
	return &NotificationHandler{Hub: hub, JWTSecret: jwtSecret}
}

// WebSocketHandler upgrades the notification socket. The upgrade
// request cannot carry an Authorization header from the shell, so the
// bearer token rides in the query string instead.
func (h *NotificationHandler) WebSocketHandler(c *websocket.Conn) {
	tokenStr := c.Query("token")
	if tokenStr == "" {
		log.Println("WebSocket: token parameter missing")
		c.Close()
		return
	}

	claims, err := utils.ParseJWT(h.JWTSecret, tokenStr)
	if err != nil {
		log.Println("WebSocket: invalid token:", err)
		c.Close()
		return
	}

	userUUID, err := uuid.Parse(claims.UserID)
	if err != nil {
		log.Println("WebSocket: invalid user id in token:", err)
		c.Close()
		return
	}

	log.Printf("WebSocket: user %s connected\n", claims.UserID)

	client := &realtime.Client{
		ID:     uuid.New().String(),
		UserID: userUUID,
		Conn:   realtime.NewWebSocketConn(c),
		Send:   make(chan []byte, 256),
	}

	h.Hub.RegisterClient(client)
	defer func() {
		h.Hub.UnregisterClient(client)
		log.Printf("WebSocket: user %s disconnected\n", claims.UserID)
	}()

	go func() {
		for msg := range client.Send {
			if err := c.WriteMessage(websocket.TextMessage, msg); err != nil {
				log.Println("WebSocket write error:", err)
				return
			}
		}
	}()

	// read loop keeps the connection alive; clients only send pongs
	for {
		var payload map[string]interface{}
		if err := c.ReadJSON(&payload); err != nil {
			log.Printf("WebSocket read error for user %s: %v\n", claims.UserID, err)
			break
		}
		if msgType, ok := payload["type"].(string); ok && msgType == "pong" {
			continue
		}
	}
}
