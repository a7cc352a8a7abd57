package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	billingapp "github.com/granary/backend/internal/application/billing"
	identityapp "github.com/granary/backend/internal/application/identity"
	storageapp "github.com/granary/backend/internal/application/storage"
	"github.com/granary/backend/internal/infrastructure/auth"
	"github.com/granary/backend/internal/infrastructure/config"
	"github.com/granary/backend/internal/infrastructure/event"
	"github.com/granary/backend/internal/infrastructure/logger"
	"github.com/granary/backend/internal/infrastructure/notification"
	"github.com/granary/backend/internal/infrastructure/persistence"
	"github.com/granary/backend/internal/interfaces/http/handler"
	"github.com/granary/backend/internal/interfaces/http/router"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const version = "1.0.0"

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	log, err := logger.New(&logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		TimeFormat: "2006-01-02T15:04:05.000Z07:00",
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = log.Sync()
	}()

	log.Info("Starting granary backend",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

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

	// Repositories
	locationRepo := persistence.NewGormStorageLocationRepository(db)
	areaRepo := persistence.NewGormStorageAreaRepository(db)
	cropTypeRepo := persistence.NewGormCropTypeRepository(db)
	inflowRepo := persistence.NewGormInflowRepository(db)
	outflowRepo := persistence.NewGormOutflowRepository(db)
	paymentRepo := persistence.NewGormPaymentRepository(db)
	userRepo := persistence.NewGormUserRepository(db)
	usageReader := persistence.NewGormAreaUsageReader(db)
	txManager := persistence.NewGormTransactionManager(db)

	// Event bus and handlers
	eventBus := event.NewInMemoryEventBus(log)
	if cfg.SMS.Enabled {
		smsClient := notification.NewSMSClient(cfg.SMS)
		phoneDirectory := notification.NewUserPhoneDirectory(userRepo)
		receiptHandler := notification.NewBillReceiptHandler(smsClient, phoneDirectory, log)
		eventBus.Subscribe(receiptHandler)
		log.Info("SMS receipts enabled",
			zap.Strings("event_types", receiptHandler.EventTypes()),
		)
	}

	// Application services
	jwtService := auth.NewJWTService(cfg.JWT)
	authService := identityapp.NewAuthService(userRepo, jwtService, log)
	storageService := storageapp.NewStorageService(locationRepo, areaRepo, cropTypeRepo, usageReader)
	inflowService := storageapp.NewInflowService(inflowRepo, areaRepo, cropTypeRepo, usageReader, txManager, eventBus)
	settlementService := billingapp.NewSettlementService(
		inflowRepo, areaRepo, locationRepo, cropTypeRepo,
		outflowRepo, paymentRepo, txManager, eventBus,
	)
	paymentService := billingapp.NewPaymentService(outflowRepo, paymentRepo, txManager, eventBus)

	engine := router.Setup(router.Handlers{
		System:  handler.NewSystemHandler(db, version),
		Auth:    handler.NewAuthHandler(authService),
		Storage: handler.NewStorageHandler(storageService),
		Inflow:  handler.NewInflowHandler(inflowService),
		Billing: handler.NewBillingHandler(settlementService, paymentService),
	}, jwtService, log)

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown", zap.Error(err))
	}

	log.Info("Server exited gracefully")
}
