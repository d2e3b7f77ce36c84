package controllers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/tiannys/buffet-restaurant/models"
	"github.com/tiannys/buffet-restaurant/services"
	"github.com/tiannys/buffet-restaurant/utils"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type SettingController struct {
	DB *gorm.DB
}

func NewSettingController(db *gorm.DB) *SettingController {
	return &SettingController{DB: db}
}

func (sc *SettingController) GetSettings(c *gin.Context) {
	settings := []models.Setting{}
	if err := sc.DB.WithContext(c.Request.Context()).Order(clause.OrderByColumn{Column: clause.Column{Name: "key"}}).Find(&settings).Error; err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Settings", settings)
}

// UpdateSetting changes a billing or loyalty rate. It applies to the next
// bill calculated.
func (sc *SettingController) UpdateSetting(c *gin.Context) {
	key := c.Param("key")
	if _, ok := models.DefaultSettings[key]; !ok {
		utils.RespondError(c, http.StatusNotFound, errors.New("unknown setting"))
		return
	}
	var body struct {
		Value decimal.Decimal `json:"value"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}
	if body.Value.IsNegative() {
		utils.RespondError(c, http.StatusBadRequest, errors.New("setting value must not be negative"))
		return
	}

	if err := services.SetSetting(sc.DB.WithContext(c.Request.Context()), key, body.Value); err != nil {
		respondServiceError(c, err)
		return
	}
	utils.InfoLogger.Printf("Setting %s changed to %s", key, body.Value)
	utils.RespondJSON(c, http.StatusOK, "Setting updated", gin.H{"key": key, "value": body.Value})
}
