package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/saferoute/fleet-safety-backend/internal/config"
	"github.com/saferoute/fleet-safety-backend/internal/database"
	"github.com/saferoute/fleet-safety-backend/internal/handlers"
	"github.com/saferoute/fleet-safety-backend/internal/middleware"
	"github.com/saferoute/fleet-safety-backend/internal/models"
	"github.com/saferoute/fleet-safety-backend/internal/notify"
	"github.com/saferoute/fleet-safety-backend/internal/services"
	"github.com/saferoute/fleet-safety-backend/pkg/jwt"
	"github.com/saferoute/fleet-safety-backend/pkg/sms"
)

var (
	version   = "1.0.0"
	buildTime = "unknown"
)

func main() {
	// Initialize logger
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	logger.SetOutput(os.Stdout)

	logger.Info("Starting SafeRoute Fleet Safety Backend")
	logger.Infof("Version: %s, Build Time: %s", version, buildTime)

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.Fatalf("Failed to load configuration: %v", err)
	}

	// Set log level
	logLevel, err := logrus.ParseLevel(cfg.Server.LogLevel)
	if err != nil {
		logger.Warn("Invalid log level, using INFO")
		logLevel = logrus.InfoLevel
	}
	logger.SetLevel(logLevel)

	// Set Gin mode
	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	} else {
		gin.SetMode(gin.DebugMode)
	}

	// Apply schema migrations before opening the pool
	logger.Info("Running database migrations...")
	if err := database.RunMigrations(cfg.Database.URL, "migrations"); err != nil {
		logger.Fatalf("Failed to run migrations: %v", err)
	}
	logger.Info("Database migrations applied")

	// Initialize database connection
	logger.Info("Connecting to database...")
	db, err := database.NewConnection(cfg.Database)
	if err != nil {
		logger.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()
	logger.Info("Database connection established")

	// Context for background workers
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Dispatch webhook queue: Redis-backed when configured, dropped otherwise
	var publisher notify.DispatchPublisher = notify.NoopDispatchPublisher{}
	if cfg.Redis.Addr != "" {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := redisClient.Ping(ctx).Err(); err != nil {
			logger.Fatalf("Failed to connect to Redis: %v", err)
		}
		defer redisClient.Close()
		logger.Info("Redis connection established")

		publisher = notify.NewRedisDispatchPublisher(redisClient)
		worker := notify.NewDispatchWorker(redisClient, logger, cfg.Webhook)
		worker.Start(ctx)
	} else {
		logger.Warn("REDIS_ADDR not set, dispatch webhook delivery disabled")
	}

	// SMS gateway: real gateway in production, log-only in dev mode
	var gateway sms.Gateway
	if cfg.SMS.Mode == "dev" {
		gateway = sms.NewLogGateway(logger)
		logger.Warn("SMS gateway in dev mode, messages will be logged only")
	} else {
		gateway = sms.NewBulkGateway(sms.BulkConfig{
			APIURL:   cfg.SMS.APIURL,
			Username: cfg.SMS.Username,
			Password: cfg.SMS.Password,
			Sender:   cfg.SMS.Sender,
		})
	}

	// Initialize repositories
	userRepo := database.NewUserRepository(db)
	refreshTokenRepo := database.NewRefreshTokenRepository(db)
	sessionRepo := database.NewUserSessionRepository(db)
	driverRepo := database.NewDriverRepository(db)
	routeRepo := database.NewRouteRepository(db)
	zoneRepo := database.NewRiskZoneRepository(db)
	alertRepo := database.NewPanicAlertRepository(db)
	incidentRepo := database.NewIncidentRepository(db)
	contactRepo := database.NewEmergencyContactRepository(db)
	notificationRepo := database.NewNotificationRepository(db)
	dashboardRepo := database.NewDashboardRepository(db)
	companyRepo := database.NewCompanyRepository(db)
	dispatcherRepo := database.NewDispatcherRepository(db)

	// Initialize services
	logger.Info("Initializing services...")
	jwtService := jwt.NewService(
		cfg.JWT.Secret,
		cfg.JWT.RefreshSecret,
		cfg.JWT.AccessTokenExpiry,
		cfg.JWT.RefreshTokenExpiry,
	)
	smsDispatcher := notify.NewSMSDispatcher(gateway, logger, cfg.Alert)

	authService := services.NewAuthService(
		userRepo, refreshTokenRepo, sessionRepo, driverRepo,
		jwtService, logger,
		cfg.JWT.AccessTokenExpiry, cfg.JWT.RefreshTokenExpiry,
	)
	alertService := services.NewAlertService(
		alertRepo, driverRepo, contactRepo,
		smsDispatcher, publisher, logger, cfg.Alert,
	)
	proximityService := services.NewProximityService(zoneRepo, incidentRepo, logger, cfg.Proximity)
	incidentService := services.NewIncidentService(incidentRepo, proximityService, publisher, logger)
	zoneService := services.NewRiskZoneService(zoneRepo, logger)
	routeService := services.NewRouteService(routeRepo, proximityService, logger)
	driverService := services.NewDriverService(driverRepo, logger)
	contactService := services.NewContactService(contactRepo, logger)
	notificationService := services.NewNotificationService(notificationRepo, logger)
	dashboardService := services.NewDashboardService(dashboardRepo, alertRepo)
	fleetService := services.NewFleetService(companyRepo, dispatcherRepo, logger)

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(authService)
	alertHandler := handlers.NewPanicAlertHandler(alertService)
	incidentHandler := handlers.NewIncidentHandler(incidentService)
	zoneHandler := handlers.NewRiskZoneHandler(zoneService, proximityService)
	driverHandler := handlers.NewDriverHandler(driverService)
	routeHandler := handlers.NewRouteHandler(routeService)
	contactHandler := handlers.NewEmergencyContactHandler(contactService)
	notificationHandler := handlers.NewNotificationHandler(notificationService)
	dashboardHandler := handlers.NewDashboardHandler(dashboardService)
	fleetHandler := handlers.NewFleetHandler(fleetService)

	// Initialize Gin router
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(requestLogger(logger))

	// CORS configuration
	corsConfig := cors.Config{
		AllowOrigins:     cfg.CORS.AllowedOrigins,
		AllowMethods:     cfg.CORS.AllowedMethods,
		AllowHeaders:     cfg.CORS.AllowedHeaders,
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	router.Use(cors.New(corsConfig))

	// Health check endpoint
	router.GET("/health", healthCheckHandler(db))

	api := router.Group("/api")
	{
		auth := api.Group("/auth")
		{
			auth.POST("/register", authHandler.Register)
			auth.POST("/login", authHandler.Login)
			auth.POST("/refresh", authHandler.Refresh)

			authProtected := auth.Group("")
			authProtected.Use(middleware.AuthMiddleware(jwtService))
			{
				authProtected.GET("/me", authHandler.Me)
				authProtected.POST("/logout", authHandler.Logout)
				authProtected.POST("/change-password", authHandler.ChangePassword)
			}
		}

		// Location checks are called from vehicles in the field without a session
		riskzones := api.Group("/riskzones")
		{
			riskzones.GET("/nearby", zoneHandler.Nearby)
			riskzones.POST("/check", zoneHandler.Check)

			zonesProtected := riskzones.Group("")
			zonesProtected.Use(middleware.AuthMiddleware(jwtService))
			{
				zonesProtected.GET("", zoneHandler.List)
				zonesProtected.GET("/:id", zoneHandler.Get)
				zonesProtected.POST("", middleware.RequireRole(models.RoleDispatcher, models.RoleAdmin), zoneHandler.Create)
				zonesProtected.PUT("/:id", middleware.RequireRole(models.RoleDispatcher, models.RoleAdmin), zoneHandler.Update)
				zonesProtected.DELETE("/:id", middleware.RequireRole(models.RoleAdmin), zoneHandler.Deactivate)
			}
		}

		alerts := api.Group("/panicalerts")
		alerts.Use(middleware.AuthMiddleware(jwtService))
		{
			alerts.POST("", middleware.RequireDriverProfile(), alertHandler.Trigger)
			alerts.GET("", alertHandler.List)
			alerts.GET("/active", alertHandler.ListActive)
			alerts.GET("/stats", alertHandler.GetStats)
			alerts.GET("/driver/:driverId", alertHandler.ListByDriver)
			alerts.GET("/:id", alertHandler.Get)
			alerts.PUT("/:id/acknowledge", middleware.RequireRole(models.RoleDispatcher, models.RoleAdmin), alertHandler.Acknowledge)
			alerts.PUT("/:id/respond", middleware.RequireRole(models.RoleDispatcher, models.RoleAdmin), alertHandler.Respond)
			alerts.PUT("/:id/resolve", middleware.RequireRole(models.RoleDispatcher, models.RoleAdmin), alertHandler.Resolve)
			alerts.DELETE("/:id", middleware.RequireRole(models.RoleDriver), alertHandler.Cancel)
		}

		incidents := api.Group("/incidents")
		incidents.Use(middleware.AuthMiddleware(jwtService))
		{
			incidents.POST("", incidentHandler.Report)
			incidents.GET("", incidentHandler.List)
			incidents.GET("/driver/:driverId", incidentHandler.ListByDriver)
			incidents.GET("/:id", incidentHandler.Get)
			incidents.PUT("/:id/review", middleware.RequireRole(models.RoleDispatcher, models.RoleAdmin), incidentHandler.Review)
			incidents.PUT("/:id/verify", middleware.RequireRole(models.RoleDispatcher, models.RoleAdmin), incidentHandler.Verify)
			incidents.PUT("/:id/resolve", middleware.RequireRole(models.RoleDispatcher, models.RoleAdmin), incidentHandler.Resolve)
		}

		drivers := api.Group("/drivers")
		drivers.Use(middleware.AuthMiddleware(jwtService))
		{
			drivers.POST("", middleware.RequireRole(models.RoleDispatcher, models.RoleAdmin), driverHandler.Create)
			drivers.GET("", driverHandler.List)
			drivers.GET("/:id", driverHandler.Get)
			drivers.GET("/:id/stats", driverHandler.GetStats)
			drivers.PUT("/:id", driverHandler.Update)
			drivers.DELETE("/:id", middleware.RequireRole(models.RoleAdmin), driverHandler.Delete)
		}

		routes := api.Group("/routes")
		routes.Use(middleware.AuthMiddleware(jwtService))
		{
			routes.POST("", routeHandler.Plan)
			routes.GET("", routeHandler.List)
			routes.GET("/driver/:driverId", routeHandler.ListByDriver)
			routes.GET("/:id", routeHandler.Get)
			routes.PUT("/:id/status", routeHandler.UpdateStatus)
			routes.DELETE("/:id", middleware.RequireRole(models.RoleDispatcher, models.RoleAdmin), routeHandler.Delete)
		}

		contacts := api.Group("/emergencycontacts")
		contacts.Use(middleware.AuthMiddleware(jwtService))
		{
			contacts.POST("", contactHandler.Create)
			contacts.GET("/driver/:driverId", contactHandler.ListByDriver)
			contacts.PUT("/:id", contactHandler.Update)
			contacts.DELETE("/:id", contactHandler.Delete)
		}

		notifications := api.Group("/notifications")
		notifications.Use(middleware.AuthMiddleware(jwtService))
		{
			notifications.POST("", middleware.RequireRole(models.RoleDispatcher, models.RoleAdmin), notificationHandler.Send)
			notifications.GET("/driver/:driverId", notificationHandler.ListByDriver)
			notifications.GET("/driver/:driverId/unread", notificationHandler.CountUnread)
			notifications.PUT("/:id/read", notificationHandler.MarkRead)
			notifications.PUT("/driver/:driverId/mark-all-read", notificationHandler.MarkAllRead)
			notifications.DELETE("/:id", middleware.RequireRole(models.RoleDispatcher, models.RoleAdmin), notificationHandler.Delete)
		}

		companies := api.Group("/companies")
		companies.Use(middleware.AuthMiddleware(jwtService), middleware.RequireRole(models.RoleDispatcher, models.RoleAdmin))
		{
			companies.POST("", middleware.RequireRole(models.RoleAdmin), fleetHandler.CreateCompany)
			companies.GET("", fleetHandler.ListCompanies)
			companies.GET("/:id", fleetHandler.GetCompany)
		}

		dispatchers := api.Group("/dispatchers")
		dispatchers.Use(middleware.AuthMiddleware(jwtService), middleware.RequireRole(models.RoleDispatcher, models.RoleAdmin))
		{
			dispatchers.POST("", middleware.RequireRole(models.RoleAdmin), fleetHandler.CreateDispatcher)
			dispatchers.GET("/onduty", fleetHandler.ListOnDutyDispatchers)
			dispatchers.GET("/:id", fleetHandler.GetDispatcher)
			dispatchers.PUT("/:id/duty", fleetHandler.SetDispatcherDuty)
		}

		dashboard := api.Group("/dashboard")
		dashboard.Use(middleware.AuthMiddleware(jwtService), middleware.RequireRole(models.RoleDispatcher, models.RoleAdmin))
		{
			dashboard.GET("/stats", dashboardHandler.Stats)
			dashboard.GET("/drivers/:id/safety", dashboardHandler.DriverSafety)
			dashboard.POST("/drivers/:id/safety/recalculate", dashboardHandler.RecalculateDriverSafety)
			dashboard.GET("/reports", dashboardHandler.ListMonthlyReports)
			dashboard.POST("/reports", dashboardHandler.GenerateMonthlyReport)
		}
	}

	// Create HTTP server
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		logger.Infof("Server starting on port %s", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Errorf("Server forced to shutdown: %v", err)
	}

	logger.Info("Server exited successfully")
}

// requestLogger middleware for logging HTTP requests
func requestLogger(logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		query := c.Request.URL.RawQuery

		c.Next()

		latency := time.Since(start)

		fields := logrus.Fields{
			"status":     c.Writer.Status(),
			"method":     c.Request.Method,
			"path":       path,
			"query":      query,
			"ip":         c.ClientIP(),
			"latency_ms": latency.Milliseconds(),
			"user_agent": c.Request.UserAgent(),
		}

		if c.Writer.Status() >= 500 {
			logger.WithFields(fields).Error("Request failed")
		} else {
			logger.WithFields(fields).Info("Request completed")
		}
	}
}

// healthCheckHandler returns a health check endpoint
func healthCheckHandler(db database.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := db.Ping(); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":   "unhealthy",
				"database": "unhealthy",
				"error":    err.Error(),
			})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"status":   "healthy",
			"database": "healthy",
			"version":  version,
			"time":     time.Now().UTC().Format(time.RFC3339),
		})
	}
}
