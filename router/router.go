package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/tiannys/buffet-restaurant/controllers"
	"github.com/tiannys/buffet-restaurant/kds"
	"github.com/tiannys/buffet-restaurant/middlewares"
	"github.com/tiannys/buffet-restaurant/models"
	"github.com/tiannys/buffet-restaurant/services"
	"gorm.io/gorm"
)

// Deps carries everything the HTTP layer talks to.
type Deps struct {
	DB         *gorm.DB
	Resolver   services.MenuResolver
	Catalog    *services.CatalogService
	Stock      *services.StockService
	Tables     *services.TableService
	Loyalty    *services.LoyaltyService
	Billing    *services.BillingService
	Settlement *services.SettlementService
	Sessions   *services.SessionService
	Orders     *services.OrderService
	Monitor    *services.WarningMonitor
	Hub        *kds.Hub

	RestaurantName    string
	CORSOrigin        string
	CustomerRateLimit int
}

func SetupRouter(d Deps) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middlewares.SecurityHeaders())
	r.Use(middlewares.CORSMiddlewares(d.CORSOrigin))
	r.Use(middlewares.LoggerMiddleware())

	userCtrl := controllers.NewUserController(d.DB)
	sessionCtrl := controllers.NewSessionController(d.Sessions, d.Billing, d.Settlement)
	customerCtrl := controllers.NewCustomerController(d.Sessions, d.Orders)
	orderCtrl := controllers.NewOrderController(d.Orders)
	receiptCtrl := controllers.NewReceiptController(d.Settlement, d.RestaurantName)
	packageCtrl := controllers.NewPackageController(d.DB, d.Resolver, d.Catalog)
	menuCtrl := controllers.NewMenuController(d.Stock)
	tableCtrl := controllers.NewTableController(d.Tables)
	memberCtrl := controllers.NewMemberController(d.Loyalty)
	settingCtrl := controllers.NewSettingController(d.DB)
	kdsCtrl := controllers.NewKDSController(d.Hub)

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	public := r.Group("/")
	public.Use(middlewares.NewStrictRateLimiter())
	{
		public.POST("/login", userCtrl.Login)
		public.POST("/register", userCtrl.Register)
	}

	customer := r.Group("/customer")
	customer.Use(middlewares.NewIPRateLimiter(d.CustomerRateLimit).Middleware())
	{
		customer.GET("/sessions/:id", customerCtrl.GetSession)
		customer.POST("/sessions/:id/orders", customerCtrl.PlaceOrder)
	}

	auth := r.Group("/admin")
	auth.Use(middlewares.AuthMiddleware())

	floor := auth.Group("/")
	floor.Use(middlewares.RequireRoles(models.RoleCashier, models.RoleStaff))
	{
		floor.POST("/sessions", sessionCtrl.StartSession)
		floor.GET("/sessions", sessionCtrl.ListSessions)
		floor.GET("/sessions/warnings", sessionCtrl.GetWarnings)
		floor.GET("/sessions/:id", sessionCtrl.GetSession)
		floor.POST("/sessions/:id/pause", sessionCtrl.PauseSession)
		floor.POST("/sessions/:id/resume", sessionCtrl.ResumeSession)
		floor.POST("/sessions/:id/transfer", sessionCtrl.TransferTable)
		floor.POST("/sessions/:id/cancel", sessionCtrl.CancelSession)
		floor.PATCH("/sessions/:id/guests", sessionCtrl.UpdateGuests)
		floor.PATCH("/sessions/:id/package", sessionCtrl.UpdatePackage)
		floor.GET("/sessions/:id/time-remaining", sessionCtrl.GetTimeRemaining)
		floor.GET("/sessions/:id/bill", sessionCtrl.GetBill)
		floor.POST("/sessions/:id/warnings/sent", sessionCtrl.MarkWarningSent)
		floor.POST("/sessions/:id/orders", orderCtrl.PlaceOrder)
		floor.GET("/tables", tableCtrl.GetAllTables)
		floor.GET("/packages/:id/menus", packageCtrl.GetPackageMenus)
	}

	settlement := auth.Group("/sessions")
	settlement.Use(middlewares.RequireRoles(models.RoleCashier), middlewares.SettlementLoggerMiddleware())
	{
		settlement.POST("/:id/end", sessionCtrl.EndSession)
		settlement.POST("/:id/receipt", sessionCtrl.CreateReceipt)
	}

	cashier := auth.Group("/")
	cashier.Use(middlewares.RequireRoles(models.RoleCashier))
	{
		cashier.GET("/receipts/:id", receiptCtrl.GetReceipt)
		cashier.GET("/receipts/:id/pdf", receiptCtrl.GetReceiptPDF)
		cashier.GET("/members/:id/points", memberCtrl.GetPoints)
	}

	kitchen := auth.Group("/")
	kitchen.Use(middlewares.RequireRoles(models.RoleChef, models.RoleStaff))
	{
		kitchen.PATCH("/orders/:id/status", orderCtrl.UpdateStatus)
		kitchen.POST("/order-items/:id/waste", orderCtrl.RecordWaste)
		kitchen.GET("/menus/low-stock", menuCtrl.GetLowStock)
	}

	cleaning := auth.Group("/")
	cleaning.Use(middlewares.RequireRoles(models.RoleCleaner, models.RoleStaff))
	{
		cleaning.PATCH("/tables/:id/clean", tableCtrl.MarkClean)
	}

	admin := auth.Group("/")
	admin.Use(middlewares.RequireRoles(models.RoleAdmin))
	{
		admin.PATCH("/tables/:id/status", tableCtrl.UpdateTableStatus)
		admin.PATCH("/tables/:id/service", tableCtrl.SetOutOfService)
		admin.PUT("/packages/:id/menus", packageCtrl.AssignMenus)
		admin.POST("/menus/:id/restock", menuCtrl.Restock)
		admin.POST("/members/:id/points/adjust", memberCtrl.AdjustPoints)
		admin.GET("/settings", settingCtrl.GetSettings)
		admin.PUT("/settings/:key", settingCtrl.UpdateSetting)
	}

	if d.Monitor != nil {
		notificationCtrl := controllers.NewNotificationController(d.Monitor)
		auth.GET("/notifications", middlewares.RequireRoles(models.RoleCashier, models.RoleStaff), notificationCtrl.GetNotifications)
	}

	wsGroup := r.Group("/ws")
	wsGroup.Use(middlewares.WebSocketAuthMiddleware())
	{
		wsGroup.GET("/:role", kdsCtrl.KDSHandler)
	}

	return r
}
