package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/daikochiya/teashop-app/realtime"
	"github.com/daikochiya/teashop-app/utils"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

type WSController struct {
	Hub *realtime.Hub
}

func NewWSController(hub *realtime.Hub) *WSController {
	return &WSController{Hub: hub}
}

// Stream upgrades the connection and attaches it to the shop's client set.
// The feed's hub sink pushes order events until the client disconnects.
func (wc *WSController) Stream(c *gin.Context) {
	shopID := c.GetString("shopID")
	role := c.GetString("role")

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		utils.ErrorLogger.Printf("ws upgrade failed: %v", err)
		return
	}

	wc.Hub.Register(shopID, conn, role)
	defer wc.Hub.Unregister(shopID, conn)

	// Drain control frames until the peer goes away.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}
