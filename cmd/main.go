package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"returns-service/internal/config"
	"returns-service/internal/events"
	"returns-service/internal/handlers"
	"returns-service/internal/jobs"
	"returns-service/internal/middleware"
	"returns-service/internal/models"
	"returns-service/internal/repository"
	"returns-service/internal/services"
)

// @title Returns Service API
// @version 1.0
// @description Return and refund request lifecycle for the marketplace

// @host localhost:8080
// @BasePath /api/v1
func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	if level, err := logrus.ParseLevel(cfg.App.LogLevel); err == nil {
		logger.SetLevel(level)
	}

	// Initialize database
	db, err := initDatabase(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}

	// Auto-migrate database schema
	if err := migrateDatabase(db); err != nil {
		log.Fatalf("Failed to migrate database: %v", err)
	}

	// Initialize Redis client (optional - graceful degradation if Redis unavailable)
	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := redisClient.Ping(ctx).Err(); err != nil {
			log.Printf("Warning: Failed to connect to Redis: %v", err)
			log.Println("Continuing without Redis caching...")
			redisClient = nil
		} else {
			log.Println("Connected to Redis for caching")
		}
		cancel()
	} else {
		log.Println("REDIS_ADDR not configured, caching disabled")
	}

	// Initialize NATS events publisher (optional)
	var publisher events.ReturnPublisher
	if cfg.NATS.URL != "" {
		publisher, err = events.NewPublisher(cfg.NATS.URL, logger)
		if err != nil {
			log.Printf("WARNING: Failed to initialize NATS publisher: %v (continuing without event publication)", err)
			publisher = nil
		} else {
			log.Println("NATS events publisher initialized")
		}
	} else {
		log.Println("NATS_URL not configured, event publication disabled")
	}

	// Initialize repositories
	returnRepo := repository.NewReturnRepository(db, redisClient)
	subOrderRepo := repository.NewSubOrderRepository(db)

	// Initialize services
	returnService := services.NewReturnService(
		returnRepo,
		subOrderRepo,
		publisher,
		logger,
		cfg.Returns.WindowDays,
		cfg.Returns.ResponseDeadlineDays,
	)
	slipService := services.NewSlipService(logger)

	// Initialize handlers
	returnHandler := handlers.NewReturnHandlers(returnService, slipService)

	// Start expiry sweep when enabled
	var expiryJob *jobs.ExpiryJob
	if cfg.Returns.AutoApproveExpired {
		expiryJob = jobs.NewExpiryJob(
			returnService,
			logger,
			time.Duration(cfg.Returns.SweepIntervalMinutes)*time.Minute,
			cfg.Returns.SweepBatchSize,
		)
		go expiryJob.Start(context.Background())
		log.Println("Expiry sweep enabled")
	}

	// Setup router
	router := setupRouter(cfg, returnHandler)

	// Graceful shutdown handling
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-quit
		log.Println("Shutting down Returns Service...")

		if expiryJob != nil {
			expiryJob.Stop()
			log.Println("Expiry sweep stopped")
		}

		if publisher != nil {
			publisher.Close()
			log.Println("Events publisher closed")
		}

		log.Println("Returns service stopped")
		os.Exit(0)
	}()

	// Start server
	log.Printf("Starting Returns Service on %s", cfg.GetServerAddress())
	if err := router.Run(cfg.GetServerAddress()); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}

func setupRouter(cfg *config.Config, returnHandler *handlers.ReturnHandlers) *gin.Engine {
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	} else {
		gin.SetMode(gin.DebugMode)
	}

	router := gin.New()

	router.Use(middleware.Recovery())
	router.Use(middleware.RequestID())
	router.Use(middleware.Logger())
	router.Use(middleware.SetupCORS())

	// Health check endpoints
	router.GET("/health", returnHandler.HealthCheck)
	router.GET("/ready", returnHandler.HealthCheck)

	// Swagger documentation
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	api := router.Group("/api/v1")
	{
		// Public reason catalog
		api.GET("/returns/reasons", returnHandler.ListReturnReasons)

		// Customer routes - storefront JWT
		my := api.Group("/my/returns")
		my.Use(middleware.CustomerAuth())
		{
			my.POST("", returnHandler.CreateReturn)
			my.GET("", returnHandler.ListMyReturns)
			my.GET("/:id", returnHandler.GetMyReturn)
			my.PATCH("/:id/status", returnHandler.UpdateMyReturnStatus)
			my.POST("/:id/escalate", returnHandler.EscalateReturn)
			my.GET("/:id/slip", returnHandler.DownloadReturnSlip)
		}

		// Shop routes - gateway resolved identity
		shop := api.Group("/shop/returns")
		shop.Use(middleware.ShopAuth())
		{
			shop.GET("", returnHandler.ListShopReturns)
			shop.GET("/stats", returnHandler.GetShopReturnStats)
			shop.GET("/:id", returnHandler.GetShopReturn)
			shop.PATCH("/:id/status", returnHandler.UpdateShopReturnStatus)
		}

		// Admin routes - dispute queue
		admin := api.Group("/admin/returns")
		admin.Use(middleware.AdminAuth())
		{
			admin.GET("/escalations", returnHandler.ListEscalations)
			admin.GET("/:id", returnHandler.GetAdminReturn)
			admin.POST("/:id/resolve", returnHandler.ResolveEscalation)
		}
	}

	return router
}

// initDatabase initializes the database connection
func initDatabase(cfg *config.Config) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(cfg.GetDatabaseDSN()), &gorm.Config{})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}

	// Configure connection pool
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(100)

	return db, nil
}

// migrateDatabase runs schema migrations
func migrateDatabase(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.Shop{},
		&models.Customer{},
		&models.SubOrder{},
		&models.OrderItem{},
		&models.ReturnRequest{},
		&models.ReturnRequestItem{},
		&models.ReturnRequestHistory{},
	)
}
