package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/tiannys/buffet-restaurant/utils"
	"gorm.io/driver/mysql"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type Config struct {
	AppEnv  string
	Port    string
	GinMode string

	DBDriver   string
	DBUser     string
	DBPass     string
	DBHost     string
	DBPort     string
	DBName     string
	SQLitePath string

	JWTSecret string
	JWTTTL    time.Duration

	RedisAddr       string
	RedisPassword   string
	RedisDB         int
	CatalogCacheTTL time.Duration

	AMQPURL string

	PublicBaseURL       string
	WarningPollInterval time.Duration
	CustomerRateLimit   int
	RestaurantName      string
	CORSOrigin          string
}

// Load reads .env (if present) and the process environment.
func Load() Config {
	if err := godotenv.Load(); err != nil {
		utils.InfoLogger.Println("Warning: .env file not found, using environment")
	}

	return Config{
		AppEnv:  envStr("APP_ENV", "development"),
		Port:    envStr("PORT", "8080"),
		GinMode: envStr("GIN_MODE", "debug"),

		DBDriver:   envStr("DB_DRIVER", "mysql"),
		DBUser:     envStr("DB_USER", "root"),
		DBPass:     envStr("DB_PASS", ""),
		DBHost:     envStr("DB_HOST", "127.0.0.1"),
		DBPort:     envStr("DB_PORT", "3306"),
		DBName:     envStr("DB_NAME", "buffet_restaurant"),
		SQLitePath: envStr("SQLITE_PATH", "buffet.db"),

		JWTSecret: envStr("JWT_SECRET", ""),
		JWTTTL:    envDur("JWT_TTL", 12*time.Hour),

		RedisAddr:       envStr("REDIS_ADDR", ""),
		RedisPassword:   envStr("REDIS_PASSWORD", ""),
		RedisDB:         envInt("REDIS_DB", 0),
		CatalogCacheTTL: envDur("CATALOG_CACHE_TTL", 5*time.Minute),

		AMQPURL: envStr("AMQP_URL", ""),

		PublicBaseURL:       envStr("PUBLIC_BASE_URL", "http://localhost:8080"),
		WarningPollInterval: envDur("WARNING_POLL_INTERVAL", time.Minute),
		CustomerRateLimit:   envInt("CUSTOMER_RATE_LIMIT", 10),
		RestaurantName:      envStr("RESTAURANT_NAME", "Buffet Restaurant"),
		CORSOrigin:          envStr("CORS_ORIGIN", ""),
	}
}

// DSN returns the MySQL connection string.
func (c Config) DSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=Local",
		c.DBUser, c.DBPass, c.DBHost, c.DBPort, c.DBName)
}

// InitDB opens the configured database.
func InitDB(c Config) (*gorm.DB, error) {
	gormCfg := &gorm.Config{Logger: logger.Default.LogMode(logger.Warn)}

	var (
		db  *gorm.DB
		err error
	)
	switch c.DBDriver {
	case "sqlite":
		db, err = gorm.Open(sqlite.Open(c.SQLitePath), gormCfg)
	case "mysql":
		db, err = gorm.Open(mysql.Open(c.DSN()), gormCfg)
	default:
		return nil, fmt.Errorf("unsupported DB_DRIVER %q", c.DBDriver)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to connect database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get sql.DB: %w", err)
	}
	if c.DBDriver == "sqlite" {
		sqlDB.SetMaxOpenConns(1)
	} else {
		sqlDB.SetMaxOpenConns(25)
		sqlDB.SetMaxIdleConns(10)
		sqlDB.SetConnMaxLifetime(30 * time.Minute)
	}

	utils.InfoLogger.Printf("Database connected (%s)", c.DBDriver)
	return db, nil
}

func envStr(k, d string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return d
}

func envInt(k string, d int) int {
	v := os.Getenv(k)
	if v == "" {
		return d
	}
	if n, err := strconv.Atoi(v); err == nil {
		return n
	}
	return d
}

func envDur(k string, d time.Duration) time.Duration {
	v := os.Getenv(k)
	if v == "" {
		return d
	}
	if dur, err := time.ParseDuration(v); err == nil {
		return dur
	}
	return d
}
