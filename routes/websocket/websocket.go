package websocket

import (
	"SupportChat/controllers"
	svc "SupportChat/pkg/services"

	"github.com/gin-gonic/gin"
)

func Register(r *gin.Engine, relay *svc.Relay) {
	h := controllers.ChatWS(relay)
	r.GET("/ws", h)
	r.GET("/socket", h)
}
