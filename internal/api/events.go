package api

import (
	"net/http"

	"github.com/Soltrivia-App/soltrivia-contract/internal/events"
	"github.com/Soltrivia-App/soltrivia-contract/pkg/logger"
	"go.uber.org/zap"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

type eventRoutes struct {
	hub *events.Hub
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

func NewEventRoutes(handler *gin.RouterGroup, hub *events.Hub, auth ...gin.HandlerFunc) {
	r := &eventRoutes{hub: hub}

	h := handler.Group("/events")
	h.Use(auth...)
	h.GET("/ws", r.handleWebSocket)
}

func (r *eventRoutes) handleWebSocket(c *gin.Context) {
	id, ok := caller(c)
	if !ok {
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logger.Logger().Info("websocket upgrade failed", zap.Error(err))
		return
	}

	r.hub.Serve(conn, id)
}
