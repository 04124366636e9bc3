package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	catalogapp "github.com/retail-erp/backend/internal/application/catalog"
	inventoryapp "github.com/retail-erp/backend/internal/application/inventory"
	partnerapp "github.com/retail-erp/backend/internal/application/partner"
	tradeapp "github.com/retail-erp/backend/internal/application/trade"
	"github.com/retail-erp/backend/internal/domain/shared"
	"github.com/retail-erp/backend/internal/infrastructure/config"
	"github.com/retail-erp/backend/internal/infrastructure/logger"
	"github.com/retail-erp/backend/internal/infrastructure/notification"
	"github.com/retail-erp/backend/internal/infrastructure/persistence"
	"github.com/retail-erp/backend/internal/infrastructure/printing"
	"github.com/retail-erp/backend/internal/interfaces/http/handler"
	"github.com/retail-erp/backend/internal/interfaces/http/middleware"
	"github.com/retail-erp/backend/internal/interfaces/http/router"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	log := logger.New(cfg.Log)
	defer func() {
		_ = log.Sync()
	}()

	log.Info("Starting retail ERP backend",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	gormLog := logger.NewGormLogger(log, logger.MapGormLogLevel(cfg.Log.Level))
	db, err := persistence.NewDatabaseWithLogger(&cfg.Database, gormLog)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	log.Info("Database connected")

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr(),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer func() {
		if err := redisClient.Close(); err != nil {
			log.Error("Error closing redis client", zap.Error(err))
		}
	}()
	if err := redisClient.Ping(context.Background()).Err(); err != nil {
		// POS printing and events degrade gracefully without Redis.
		log.Warn("Redis unreachable, receipts and events will be dropped", zap.Error(err))
	}

	clock := shared.SystemClock{}

	productService := catalogapp.NewProductService(
		persistence.NewGormProductRepository(db.DB),
		persistence.NewGormProductUnitRepository(db.DB),
		log,
	)

	saleService := tradeapp.NewSaleService(persistence.NewGormTradeTransactionScope(db.DB), clock, log)
	saleService.SetReceiptPrinter(printing.NewRedisPrintQueue(redisClient))
	saleService.SetNotificationSink(notification.NewRedisNotificationSink(redisClient))

	inventoryService := inventoryapp.NewInventoryService(persistence.NewGormInventoryTransactionScope(db.DB), clock, log)
	debtService := partnerapp.NewDebtService(persistence.NewGormPartnerTransactionScope(db.DB), clock, log)

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	if err := handler.RegisterValidations(); err != nil {
		log.Fatal("Failed to register validations", zap.Error(err))
	}
	engine := gin.New()
	engine.Use(
		middleware.RequestID(),
		middleware.Tracing(cfg.App.Name),
		middleware.RequestLogger(log),
		middleware.Recovery(log),
	)
	if len(cfg.HTTP.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
			log.Fatal("Invalid trusted proxies", zap.Error(err))
		}
	}

	engine.GET("/health", func(c *gin.Context) {
		if err := db.Ping(); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "down"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "up"})
	})

	router.NewRouter(engine).
		Register(handler.NewProductHandler(productService)).
		Register(handler.NewSaleHandler(saleService)).
		Register(handler.NewInventoryHandler(inventoryService)).
		Register(handler.NewDebtHandler(debtService)).
		Setup()

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	go func() {
		log.Info("HTTP server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("HTTP server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error("Forced shutdown", zap.Error(err))
	}
	log.Info("Server stopped")
}
