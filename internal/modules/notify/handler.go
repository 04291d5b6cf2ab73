package notify

import (
	"log"
	"net/http"

	"souvenir/internal/domain"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,

	// Разрешаем подключения с любого origin (для dev)
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

type Handler struct {
	hub *Hub
}

func NewHandler(hub *Hub) *Handler {
	return &Handler{hub: hub}
}

// RegisterRoutes mounts the socket endpoint behind the auth middleware;
// user_id and role are already on the context when Connect runs.
func (h *Handler) RegisterRoutes(protected *gin.RouterGroup) {
	protected.GET("/ws", h.Connect)
}

func (h *Handler) Connect(c *gin.Context) {
	userID := c.GetInt64("user_id")
	role := domain.Role(c.GetString("role"))

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("websocket upgrade failed: %v", err)
		return
	}

	h.hub.Register(userID, role.IsStaff(), conn)

	// Block until the peer goes away, then drop the registration.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			h.hub.Unregister(userID)
			return
		}
	}
}
