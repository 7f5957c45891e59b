package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"deplodash/internal/auth"
	"deplodash/internal/bot"
	"deplodash/internal/config"
	"deplodash/internal/database"
	"deplodash/internal/handlers"
	"deplodash/internal/middleware"
	"deplodash/internal/realtime"
	"deplodash/internal/repositories"
	"deplodash/internal/services"
	"deplodash/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func main() {
	// =========================================================================
	// Load configuration
	// =========================================================================
	cfg, err := config.Load("configs/config.yaml")
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// =========================================================================
	// Initialize Logger
	// =========================================================================
	log, err := logger.NewLogger(cfg.Logging.Level, cfg.Logging.Format)
	if err != nil {
		fmt.Printf("Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	log.Info("starting server",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.Int("port", cfg.App.Port),
	)

	// =========================================================================
	// Connect Database
	// =========================================================================
	db, err := database.NewConnection(&cfg.Database, log)
	if err != nil {
		log.Fatal("failed to connect to database", zap.Error(err))
	}
	defer database.Close(db)

	// Auto migrate in development mode
	if cfg.App.IsDevelopment() {
		if err := database.AutoMigrate(db); err != nil {
			log.Warn("auto migrate failed", zap.Error(err))
		} else {
			log.Info("database auto migration completed")
		}
	}

	// =========================================================================
	// Initialize Repositories
	// =========================================================================
	profileRepo := repositories.NewProfileRepository(db)
	domainRepo := repositories.NewDomainRepository(db)
	settingsRepo := repositories.NewDomainSettingsRepository(db)
	conversationRepo := repositories.NewConversationRepository(db)
	messageRepo := repositories.NewMessageRepository(db)
	tagRepo := repositories.NewTagRepository(db)
	faqRepo := repositories.NewFAQRepository(db)
	trainingDataRepo := repositories.NewTrainingDataRepository(db)

	log.Info("repositories initialized")

	// =========================================================================
	// Initialize Bot (FAQ matching + auto replies)
	// =========================================================================
	matcher := bot.NewMatcher(log)
	botResponder := bot.NewResponder(faqRepo, matcher, log)

	log.Info("bot responder initialized")

	// =========================================================================
	// Initialize Realtime Publisher
	// Preference order: Redis pub/sub, Centrifugo, in-process noop
	// =========================================================================
	var publisher realtime.Publisher

	if cfg.Redis.URL != "" {
		redisOpts, err := redis.ParseURL(cfg.Redis.URL)
		if err != nil {
			log.Fatal("invalid redis url", zap.Error(err))
		}
		redisClient := redis.NewClient(redisOpts)
		if err := redisClient.Ping(context.Background()).Err(); err != nil {
			log.Fatal("redis unreachable", zap.Error(err))
		}
		publisher = realtime.NewRedisBroker(redisClient, log)
		log.Info("redis realtime broker initialized", zap.String("addr", redisOpts.Addr))
	} else if cfg.Centrifugo.URL != "" && cfg.Centrifugo.APIKey != "" {
		publisher = realtime.NewCentrifugoClient(cfg.Centrifugo.URL, cfg.Centrifugo.APIKey, log)
		log.Info("centrifugo publisher initialized", zap.String("url", cfg.Centrifugo.URL))
	} else {
		publisher = realtime.NewNoopPublisher()
		log.Warn("no realtime backend configured, using noop publisher")
	}

	// =========================================================================
	// Initialize Services
	// =========================================================================
	jwtService := auth.NewJWTService(cfg.JWT)
	authService := services.NewAuthService(profileRepo, jwtService, log)
	widgetService := services.NewWidgetService(
		conversationRepo,
		messageRepo,
		botResponder,
		publisher,
		cfg.Widget.ConversationExpiry(),
		log,
	)

	log.Info("services initialized")

	// =========================================================================
	// Initialize Handlers
	// =========================================================================
	authHandler := handlers.NewAuthHandler(authService, log)
	domainHandler := handlers.NewDomainHandler(domainRepo, settingsRepo, faqRepo, trainingDataRepo, log)
	tagHandler := handlers.NewTagHandler(tagRepo, domainRepo, log)
	conversationHandler := handlers.NewConversationHandler(
		conversationRepo,
		messageRepo,
		tagRepo,
		domainRepo,
		publisher,
		log,
	)
	widgetHandler := handlers.NewWidgetHandler(
		widgetService,
		conversationRepo,
		messageRepo,
		settingsRepo,
		log,
	)

	authMiddleware := middleware.AuthMiddleware(jwtService)
	anonymousAuth := middleware.AnonymousAuthMiddleware(jwtService)

	log.Info("handlers initialized")

	// =========================================================================
	// Set up Gin Router
	// =========================================================================
	if cfg.App.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	// The embed contract requires 405 on wrong methods, not 404
	router.HandleMethodNotAllowed = true

	// Middleware
	router.Use(middleware.RequestID())
	router.Use(middleware.Recovery(log))
	router.Use(middleware.Logging(log))

	// Health check endpoint
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"service": cfg.App.Name,
			"version": "1.0.0",
		})
	})

	// Prometheus metrics
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// =========================================================================
	// Embed API Routes (permissive CORS, anonymous tokens)
	// =========================================================================
	embed := router.Group("/api")
	embed.Use(middleware.WidgetCORS())
	widgetHandler.RegisterRoutes(embed, anonymousAuth)

	// =========================================================================
	// Dashboard API Routes
	// =========================================================================
	api := router.Group("/api/v1")
	api.Use(middleware.CORS([]string{"*"}))
	{
		// Ping endpoint (public)
		api.GET("/ping", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{"message": "pong"})
		})

		// Auth routes (signup, login, refresh, anonymous: public | me, logout: protected)
		authHandler.RegisterRoutes(api, authMiddleware)

		// Protected routes - require authentication
		protected := api.Group("")
		protected.Use(authMiddleware)
		{
			domainHandler.RegisterRoutes(protected)
			tagHandler.RegisterRoutes(protected)
			conversationHandler.RegisterRoutes(protected)
		}
	}

	log.Info("routes registered",
		zap.Strings("endpoints", []string{
			"/api/conversations",
			"/api/messages",
			"/api/widget/*",
			"/api/v1/auth/*",
			"/api/v1/domains",
			"/api/v1/conversations",
			"/api/v1/tags",
		}),
	)

	// =========================================================================
	// Start HTTP Server
	// =========================================================================
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.App.Port),
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info("server listening", zap.Int("port", cfg.App.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("failed to start server", zap.Error(err))
		}
	}()

	// =========================================================================
	// Graceful Shutdown
	// =========================================================================
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error("server forced to shutdown", zap.Error(err))
	}

	log.Info("server exited")
}
