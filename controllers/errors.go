package controllers

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/tiannys/buffet-restaurant/services"
	"github.com/tiannys/buffet-restaurant/utils"
)

var errUnauthenticated = errors.New("user id not found in context")

// statusFor maps a service error kind to its HTTP status.
func statusFor(err error) int {
	switch {
	case errors.Is(err, services.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, services.ErrInvalidState):
		return http.StatusConflict
	case errors.Is(err, services.ErrInsufficientResource), errors.Is(err, services.ErrOutOfStock):
		return http.StatusUnprocessableEntity
	case errors.Is(err, services.ErrValidation):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// respondServiceError writes err with its mapped status. Shortage errors
// carry their details in data.
func respondServiceError(c *gin.Context, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		utils.ErrorLogger.Printf("%s %s failed: %v", c.Request.Method, c.FullPath(), err)
	}

	var stockErr *services.StockError
	var pointsErr *services.PointsError
	switch {
	case errors.As(err, &stockErr):
		c.JSON(status, utils.JSONResponse{Status: false, Message: err.Error(), Data: stockErr})
	case errors.As(err, &pointsErr):
		c.JSON(status, utils.JSONResponse{Status: false, Message: err.Error(), Data: pointsErr})
	default:
		utils.RespondError(c, status, err)
	}
}

// uintParam parses a numeric path parameter, answering 400 when it is not one.
func uintParam(c *gin.Context, name string) (uint, bool) {
	v, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || v == 0 {
		utils.RespondError(c, http.StatusBadRequest, fmt.Errorf("invalid %s", name))
		return 0, false
	}
	return uint(v), true
}

// bindOptionalJSON binds the body when one was sent. An empty chunked body
// reads as EOF and counts as no body.
func bindOptionalJSON(c *gin.Context, obj interface{}) error {
	if c.Request.Body == nil || c.Request.ContentLength == 0 {
		return nil
	}
	if err := c.ShouldBindJSON(obj); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}
