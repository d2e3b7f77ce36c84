package controllers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/tiannys/buffet-restaurant/services"
	"github.com/tiannys/buffet-restaurant/utils"
)

type NotificationController struct {
	Monitor *services.WarningMonitor
}

func NewNotificationController(monitor *services.WarningMonitor) *NotificationController {
	return &NotificationController{Monitor: monitor}
}

// GetNotifications lists the latest stored warnings. limit defaults to 50.
func (nc *NotificationController) GetNotifications(c *gin.Context) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "50"))
	if err != nil || limit <= 0 {
		limit = 50
	}
	notifications, err := nc.Monitor.RecentNotifications(c.Request.Context(), limit)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Notifications", notifications)
}
