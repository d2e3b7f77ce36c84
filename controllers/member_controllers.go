package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/tiannys/buffet-restaurant/middlewares"
	"github.com/tiannys/buffet-restaurant/services"
	"github.com/tiannys/buffet-restaurant/utils"
)

type MemberController struct {
	Loyalty *services.LoyaltyService
}

func NewMemberController(loyalty *services.LoyaltyService) *MemberController {
	return &MemberController{Loyalty: loyalty}
}

// GetPoints returns the member's balance and ledger, newest first.
func (mc *MemberController) GetPoints(c *gin.Context) {
	id, ok := uintParam(c, "id")
	if !ok {
		return
	}
	member, err := mc.Loyalty.GetMember(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	history, err := mc.Loyalty.History(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Member points", gin.H{
		"member":  member,
		"history": history,
	})
}

func (mc *MemberController) AdjustPoints(c *gin.Context) {
	id, ok := uintParam(c, "id")
	if !ok {
		return
	}
	var body struct {
		Delta  int    `json:"delta"`
		Reason string `json:"reason"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}
	var operatorID *uint
	if userID, ok := middlewares.CurrentUserID(c); ok {
		operatorID = &userID
	}

	entry, err := mc.Loyalty.Adjust(c.Request.Context(), id, body.Delta, body.Reason, operatorID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Points adjusted", entry)
}
