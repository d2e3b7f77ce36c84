package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/tiannys/buffet-restaurant/kds"
	"github.com/tiannys/buffet-restaurant/middlewares"
	"github.com/tiannys/buffet-restaurant/models"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

type KDSController struct {
	Hub *kds.Hub
}

func NewKDSController(hub *kds.Hub) *KDSController {
	return &KDSController{Hub: hub}
}

// KDSHandler upgrades to a websocket that receives the events for the
// requested role. Only admins may watch another role's screen.
func (kc *KDSController) KDSHandler(c *gin.Context) {
	roleValue, exists := c.Get(middlewares.ContextRole)
	if !exists {
		c.AbortWithStatus(http.StatusUnauthorized)
		return
	}
	tokenRole, _ := roleValue.(string)
	role := c.Param("role")
	if !staffRoles[role] {
		c.AbortWithStatus(http.StatusNotFound)
		return
	}
	if tokenRole != role && tokenRole != models.RoleAdmin {
		c.AbortWithStatus(http.StatusForbidden)
		return
	}

	ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		return
	}
	kc.Hub.RegisterClient(ws, role)

	for {
		if _, _, err := ws.ReadMessage(); err != nil {
			break
		}
	}

	kc.Hub.UnregisterClient(ws)
}
