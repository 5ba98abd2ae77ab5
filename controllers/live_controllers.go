package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/office/restobook/live"
	"github.com/office/restobook/utils"
)

type LiveController struct {
	Hub *live.Hub
}

func NewLiveController(hub *live.Hub) *LiveController {
	return &LiveController{Hub: hub}
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Single-operator app on a trusted network; no origin policy.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Handle -> upgrade the connection and keep it registered until the
// client goes away. Clients only listen; inbound frames are drained and
// discarded.
func (lc *LiveController) Handle(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		utils.ErrorLogger.Printf("websocket upgrade failed: %v", err)
		return
	}

	lc.Hub.RegisterClient(conn)
	defer lc.Hub.UnregisterClient(conn)

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}
