package main

import (
	"fmt"
	"log"

	"nextbus-api/catalog"
	"nextbus-api/config"
	"nextbus-api/handlers"
	"nextbus-api/middleware"
	"nextbus-api/models"
	"nextbus-api/services"

	"github.com/gin-gonic/gin"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	db, err := gorm.Open(postgres.Open(cfg.Database.GetDSN()), &gorm.Config{})
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		log.Fatalf("Failed to get sql db handle: %v", err)
	}
	if err := sqlDB.Ping(); err != nil {
		log.Fatalf("Failed to ping database: %v", err)
	}

	if err := db.AutoMigrate(
		&models.User{},
		&models.Bus{},
		&models.BusTelemetry{},
		&models.PredictionHistory{},
		&models.CrowdPrediction{},
	); err != nil {
		log.Fatalf("Failed to migrate database: %v", err)
	}

	cache, err := services.NewCacheService(cfg.Redis)
	if err != nil {
		// The cache degrades to no-ops; prediction still works without it.
		log.Printf("Redis unavailable, running without cache: %v", err)
	}

	routeCatalog := catalog.Default()
	if cfg.Catalog.RoutesFile != "" {
		routeCatalog, err = catalog.LoadFile(cfg.Catalog.RoutesFile)
		if err != nil {
			log.Fatalf("Failed to load route catalog: %v", err)
		}
	}
	log.Printf("route catalog loaded: %d routes", len(routeCatalog.List()))

	authService := services.NewAuthService(cfg.JWT)
	telemetryService := services.NewTelemetryService(db)
	journeyService := services.NewJourneyService(
		telemetryService,
		services.NewDistanceClient(cfg.Providers),
		services.NewJourneyPredictClient(cfg.Providers),
		services.NewGormHistoryRecorder(db),
	)

	adminAuth := handlers.NewAuthHandler(db, authService, models.RoleAdmin)
	superAdminAuth := handlers.NewAuthHandler(db, authService, models.RoleSuperAdmin)
	busHandler := handlers.NewBusHandler(db)
	routeHandler := handlers.NewRouteHandler(routeCatalog)
	telemetryHandler := handlers.NewTelemetryHandler(telemetryService, cache)
	predictHandler := handlers.NewPredictHandler(
		journeyService,
		services.NewCrowdPredictClient(cfg.Providers),
		db,
		cache,
	)

	router := gin.Default()
	router.Use(middleware.SetupCORS(cfg.CORS))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":  "UP",
			"message": "NextBus Transit API is running",
		})
	})

	api := router.Group("/api")
	{
		admin := api.Group("/admin")
		{
			admin.POST("/register", adminAuth.Register)
			admin.POST("/login", adminAuth.Login)
			admin.GET("/profile", middleware.RequireAuth(authService, models.RoleAdmin, models.RoleSuperAdmin), adminAuth.Profile)
			admin.PUT("/profile", middleware.RequireAuth(authService, models.RoleAdmin, models.RoleSuperAdmin), adminAuth.UpdateProfile)
		}

		superadmin := api.Group("/superadmin")
		{
			superadmin.POST("/register", superAdminAuth.Register)
			superadmin.POST("/login", superAdminAuth.Login)
			superadmin.GET("/profile", middleware.RequireAuth(authService, models.RoleSuperAdmin), superAdminAuth.Profile)
			superadmin.PUT("/profile", middleware.RequireAuth(authService, models.RoleSuperAdmin), superAdminAuth.UpdateProfile)
		}

		buses := api.Group("/buses")
		{
			buses.POST("", busHandler.Create)
			buses.GET("", busHandler.List)
			buses.GET("/:id", busHandler.Get)
			buses.GET("/:id/image", busHandler.Image)
			buses.PUT("/:id", busHandler.Update)
			buses.DELETE("/:id", middleware.RequireAuth(authService, models.RoleAdmin, models.RoleSuperAdmin), busHandler.Delete)
			buses.PATCH("/:id/approve", middleware.RequireAuth(authService, models.RoleAdmin, models.RoleSuperAdmin), busHandler.Approve)
			buses.PATCH("/:id/reject", middleware.RequireAuth(authService, models.RoleAdmin, models.RoleSuperAdmin), busHandler.Reject)
		}

		api.GET("/routes", routeHandler.List)
		api.GET("/routes/:routeNumber/stops", routeHandler.Stops)
		api.GET("/locations", routeHandler.Locations)
		api.POST("/stops-between", routeHandler.StopsBetween)

		api.POST("/predictive-time/data", telemetryHandler.Ingest)
		api.POST("/predictive-time/predict", predictHandler.PredictTime)
		api.GET("/telemetry/:busId/latest", telemetryHandler.Latest)
		api.GET("/telemetry/:busId/stats", telemetryHandler.Stats)
		api.GET("/telemetry/live", handlers.Live(cache, authService))

		api.POST("/crowd/predict", predictHandler.PredictCrowd)
		api.GET("/predictions/history", predictHandler.History)
	}

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	log.Printf("Starting server on %s", addr)
	if err := router.Run(addr); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
