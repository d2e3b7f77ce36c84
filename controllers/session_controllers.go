package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/tiannys/buffet-restaurant/middlewares"
	"github.com/tiannys/buffet-restaurant/services"
	"github.com/tiannys/buffet-restaurant/utils"
)

type SessionController struct {
	Sessions   *services.SessionService
	Billing    *services.BillingService
	Settlement *services.SettlementService
}

func NewSessionController(sessions *services.SessionService, billing *services.BillingService, settlement *services.SettlementService) *SessionController {
	return &SessionController{Sessions: sessions, Billing: billing, Settlement: settlement}
}

// StartSession seats a party at a table.
func (sc *SessionController) StartSession(c *gin.Context) {
	var in services.StartSessionInput
	if err := c.ShouldBindJSON(&in); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}
	if userID, ok := middlewares.CurrentUserID(c); ok {
		in.OperatorID = &userID
	}

	session, err := sc.Sessions.Start(c.Request.Context(), in)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusCreated, "Session started", gin.H{
		"session":    session,
		"qr_payload": session.QRPayload,
	})
}

func (sc *SessionController) ListSessions(c *gin.Context) {
	sessions, err := sc.Sessions.List(c.Request.Context(), c.Query("status"))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "List of sessions", sessions)
}

func (sc *SessionController) GetSession(c *gin.Context) {
	session, err := sc.Sessions.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Session detail", session)
}

func (sc *SessionController) PauseSession(c *gin.Context) {
	session, err := sc.Sessions.Pause(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Session paused", session)
}

func (sc *SessionController) ResumeSession(c *gin.Context) {
	session, err := sc.Sessions.Resume(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Session resumed", session)
}

func (sc *SessionController) UpdateGuests(c *gin.Context) {
	var body struct {
		AdultCount int `json:"adult_count"`
		ChildCount int `json:"child_count"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	session, err := sc.Sessions.UpdateGuestCount(c.Request.Context(), c.Param("id"), body.AdultCount, body.ChildCount)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Guest count updated", session)
}

func (sc *SessionController) UpdatePackage(c *gin.Context) {
	var body struct {
		PackageID uint `json:"package_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	session, err := sc.Sessions.UpdatePackage(c.Request.Context(), c.Param("id"), body.PackageID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Package updated", session)
}

func (sc *SessionController) TransferTable(c *gin.Context) {
	var body struct {
		TableID uint `json:"table_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	session, err := sc.Sessions.TransferTable(c.Request.Context(), c.Param("id"), body.TableID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Session moved", session)
}

// endRequest optionally settles the session while ending it.
type endRequest struct {
	Settle bool `json:"settle"`
	services.SettleInput
}

// EndSession completes a session. With "settle": true the authenticated user
// is recorded as cashier and the receipt is issued in the same step.
func (sc *SessionController) EndSession(c *gin.Context) {
	var body endRequest
	if err := bindOptionalJSON(c, &body); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	in := services.EndSessionInput{Settlement: body.SettleInput}
	if body.Settle {
		userID, ok := middlewares.CurrentUserID(c)
		if !ok {
			utils.RespondError(c, http.StatusUnauthorized, errUnauthenticated)
			return
		}
		in.CashierID = &userID
	}

	result, err := sc.Sessions.End(c.Request.Context(), c.Param("id"), in)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Session ended", result)
}

func (sc *SessionController) CancelSession(c *gin.Context) {
	var body struct {
		Reason string `json:"reason"`
	}
	if err := bindOptionalJSON(c, &body); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	session, err := sc.Sessions.Cancel(c.Request.Context(), c.Param("id"), body.Reason)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Session cancelled", session)
}

func (sc *SessionController) GetTimeRemaining(c *gin.Context) {
	remaining, err := sc.Sessions.GetTimeRemaining(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Time remaining", remaining)
}

// GetBill previews the bill with the current settings.
func (sc *SessionController) GetBill(c *gin.Context) {
	bill, err := sc.Billing.CalculateSessionBill(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Session bill", bill)
}

// CreateReceipt settles an active session without ending it.
func (sc *SessionController) CreateReceipt(c *gin.Context) {
	var in services.SettleInput
	if err := bindOptionalJSON(c, &in); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}
	cashierID, ok := middlewares.CurrentUserID(c)
	if !ok {
		utils.RespondError(c, http.StatusUnauthorized, errUnauthenticated)
		return
	}

	receipt, err := sc.Settlement.Settle(c.Request.Context(), c.Param("id"), cashierID, in)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusCreated, "Receipt created", receipt)
}

func (sc *SessionController) GetWarnings(c *gin.Context) {
	warnings, err := sc.Sessions.GetSessionsNeedingWarning(c.Request.Context())
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Sessions needing warning", warnings)
}

func (sc *SessionController) MarkWarningSent(c *gin.Context) {
	if err := sc.Sessions.MarkWarningAsSent(c.Request.Context(), c.Param("id")); err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Warning marked as sent", nil)
}
