package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/tiannys/buffet-restaurant/services"
	"github.com/tiannys/buffet-restaurant/utils"
)

type MenuController struct {
	Stock *services.StockService
}

func NewMenuController(stock *services.StockService) *MenuController {
	return &MenuController{Stock: stock}
}

func (mc *MenuController) GetLowStock(c *gin.Context) {
	menus, err := mc.Stock.LowStock(c.Request.Context())
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Low stock menus", menus)
}

func (mc *MenuController) Restock(c *gin.Context) {
	id, ok := uintParam(c, "id")
	if !ok {
		return
	}
	var body struct {
		Quantity int `json:"quantity" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	if err := mc.Stock.Restock(c.Request.Context(), id, body.Quantity); err != nil {
		respondServiceError(c, err)
		return
	}
	utils.InfoLogger.Printf("Menu %d restocked by %d", id, body.Quantity)
	utils.RespondJSON(c, http.StatusOK, "Menu restocked", nil)
}
