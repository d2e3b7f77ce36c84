package main

import (
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/tiannys/buffet-restaurant/cache"
	"github.com/tiannys/buffet-restaurant/config"
	"github.com/tiannys/buffet-restaurant/database"
	"github.com/tiannys/buffet-restaurant/kds"
	"github.com/tiannys/buffet-restaurant/queue"
	"github.com/tiannys/buffet-restaurant/router"
	"github.com/tiannys/buffet-restaurant/services"
	"github.com/tiannys/buffet-restaurant/utils"
	"gorm.io/gorm"
)

// app is the wired service graph.
type app struct {
	engine  *gin.Engine
	monitor *services.WarningMonitor
	hub     *kds.Hub
}

// buildApp wires services, notifiers and routes. rdb may be nil, in which
// case the catalog is resolved straight from the database.
func buildApp(cfg config.Config, db *gorm.DB, rdb *redis.Client) *app {
	hub := kds.NewHub()
	notifiers := services.MultiNotifier{hub}
	if cfg.AMQPURL != "" {
		notifiers = append(notifiers, queue.NewPublisher(cfg.AMQPURL))
	}

	catalog := services.NewCatalogService(db)
	var resolver services.MenuResolver = catalog
	if rdb != nil {
		resolver = cache.NewCatalogCache(catalog, rdb, cfg.CatalogCacheTTL)
	}

	settlement := services.NewSettlementService(db, notifiers)
	sessions := services.NewSessionService(db, resolver, settlement, notifiers, cfg.PublicBaseURL)
	monitor := services.NewWarningMonitor(db, sessions, notifiers)
	if cfg.WarningPollInterval > 0 {
		monitor.Interval = cfg.WarningPollInterval
	}

	engine := router.SetupRouter(router.Deps{
		DB:         db,
		Resolver:   resolver,
		Catalog:    catalog,
		Stock:      services.NewStockService(db),
		Tables:     services.NewTableService(db),
		Loyalty:    services.NewLoyaltyService(db),
		Billing:    services.NewBillingService(db),
		Settlement: settlement,
		Sessions:   sessions,
		Orders:     services.NewOrderService(db, resolver, notifiers),
		Monitor:    monitor,
		Hub:        hub,

		RestaurantName:    cfg.RestaurantName,
		CORSOrigin:        cfg.CORSOrigin,
		CustomerRateLimit: cfg.CustomerRateLimit,
	})

	return &app{engine: engine, monitor: monitor, hub: hub}
}

func main() {
	cfg := config.Load()
	utils.InitLogger(cfg.AppEnv)
	utils.ConfigureJWT(cfg.JWTSecret, cfg.JWTTTL)
	if cfg.JWTSecret == "" {
		utils.ErrorLogger.Println("JWT_SECRET is not set, using the development secret")
	}

	if cfg.GinMode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := config.InitDB(cfg)
	if err != nil {
		utils.ErrorLogger.Fatalf("Failed to connect to database: %v", err)
	}
	if err := database.Migrate(db); err != nil {
		utils.ErrorLogger.Fatalf("Failed to migrate: %v", err)
	}

	rdb := config.NewRedisClient(cfg)
	if rdb != nil {
		defer rdb.Close()
		utils.InfoLogger.Printf("Catalog cache enabled (%s, ttl %s)", cfg.RedisAddr, cfg.CatalogCacheTTL)
	}

	a := buildApp(cfg, db, rdb)
	a.monitor.Start()
	defer a.monitor.Stop()

	utils.InfoLogger.Printf("Listening on port %s", cfg.Port)
	if err := a.engine.Run(":" + cfg.Port); err != nil {
		utils.ErrorLogger.Fatal(err)
	}
}
