package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/tiannys/buffet-restaurant/services"
	"github.com/tiannys/buffet-restaurant/utils"
)

// CustomerController serves the QR-code pages. The session id in the URL is
// the bearer secret.
type CustomerController struct {
	Sessions *services.SessionService
	Orders   *services.OrderService
}

func NewCustomerController(sessions *services.SessionService, orders *services.OrderService) *CustomerController {
	return &CustomerController{Sessions: sessions, Orders: orders}
}

func (cc *CustomerController) GetSession(c *gin.Context) {
	view, err := cc.Sessions.GetSessionForCustomer(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Session", view)
}

func (cc *CustomerController) PlaceOrder(c *gin.Context) {
	var in services.PlaceOrderInput
	if err := c.ShouldBindJSON(&in); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	order, err := cc.Orders.PlaceOrder(c.Request.Context(), c.Param("id"), in)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusCreated, "Order placed", order)
}
