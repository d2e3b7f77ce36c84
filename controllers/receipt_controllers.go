package controllers

import (
	"bytes"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/tiannys/buffet-restaurant/services"
	"github.com/tiannys/buffet-restaurant/utils"
)

type ReceiptController struct {
	Settlement     *services.SettlementService
	RestaurantName string
}

func NewReceiptController(settlement *services.SettlementService, restaurantName string) *ReceiptController {
	return &ReceiptController{Settlement: settlement, RestaurantName: restaurantName}
}

func (rc *ReceiptController) GetReceipt(c *gin.Context) {
	id, ok := uintParam(c, "id")
	if !ok {
		return
	}
	receipt, err := rc.Settlement.GetReceipt(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Receipt detail", receipt)
}

// GetReceiptPDF renders the receipt for the counter printer.
func (rc *ReceiptController) GetReceiptPDF(c *gin.Context) {
	id, ok := uintParam(c, "id")
	if !ok {
		return
	}
	receipt, err := rc.Settlement.GetReceipt(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	var buf bytes.Buffer
	if err := services.RenderReceiptPDF(&buf, receipt, rc.RestaurantName); err != nil {
		utils.ErrorLogger.Printf("Error rendering receipt %s: %v", receipt.ReceiptNumber, err)
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("inline; filename=%s.pdf", receipt.ReceiptNumber))
	c.Data(http.StatusOK, "application/pdf", buf.Bytes())
}
