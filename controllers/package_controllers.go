package controllers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/tiannys/buffet-restaurant/services"
	"github.com/tiannys/buffet-restaurant/utils"
	"gorm.io/gorm"
)

// invalidator is implemented by resolvers that cache package catalogs.
type invalidator interface {
	Invalidate(ctx context.Context) error
}

type PackageController struct {
	DB       *gorm.DB
	Resolver services.MenuResolver
	Catalog  *services.CatalogService
}

func NewPackageController(db *gorm.DB, resolver services.MenuResolver, catalog *services.CatalogService) *PackageController {
	return &PackageController{DB: db, Resolver: resolver, Catalog: catalog}
}

// GetPackageMenus lists every menu the package entitles, inherited ones
// included.
func (pc *PackageController) GetPackageMenus(c *gin.Context) {
	id, ok := uintParam(c, "id")
	if !ok {
		return
	}
	menus, err := services.LoadMenus(c.Request.Context(), pc.DB, pc.Resolver, id)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Package menus", menus)
}

// AssignMenus replaces the package's own menus and drops cached catalogs,
// since child packages inherit them.
func (pc *PackageController) AssignMenus(c *gin.Context) {
	id, ok := uintParam(c, "id")
	if !ok {
		return
	}
	var body struct {
		MenuIDs []uint `json:"menu_ids"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	if err := pc.Catalog.AssignMenus(c.Request.Context(), id, body.MenuIDs); err != nil {
		respondServiceError(c, err)
		return
	}
	if inv, ok := pc.Resolver.(invalidator); ok {
		if err := inv.Invalidate(c.Request.Context()); err != nil {
			utils.ErrorLogger.Printf("Error invalidating catalog cache: %v", err)
		}
	}

	menus, err := services.LoadMenus(c.Request.Context(), pc.DB, pc.Resolver, id)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Package menus updated", menus)
}
