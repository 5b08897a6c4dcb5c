package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	appchannels "github.com/onecube/backend/internal/application/channels"
	"github.com/onecube/backend/internal/domain/channel"
	"github.com/onecube/backend/internal/infrastructure/auth"
	"github.com/onecube/backend/internal/infrastructure/cache"
	"github.com/onecube/backend/internal/infrastructure/channels"
	"github.com/onecube/backend/internal/infrastructure/config"
	"github.com/onecube/backend/internal/infrastructure/logger"
	"github.com/onecube/backend/internal/infrastructure/persistence"
	"github.com/onecube/backend/internal/interfaces/http/handler"
	"github.com/onecube/backend/internal/interfaces/http/middleware"
	"github.com/onecube/backend/internal/interfaces/http/router"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize logger
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
		_ = logger.Sync(log)
	}()

	log.Info("Starting OneCube channel service",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	// Create GORM logger backed by zap
	gormLogLevel := logger.MapGormLogLevel(cfg.Log.Level)
	gormLog := logger.NewGormLogger(log, gormLogLevel)

	// Initialize database connection with custom logger
	db, err := persistence.NewDatabaseWithCustomLogger(&cfg.Database, gormLog)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	log.Info("Database connected successfully")

	// Initialize repositories
	connectionRepo := persistence.NewGormTeamChannelRepository(db.DB)
	membershipRepo := persistence.NewGormTeamMembershipRepository(db.DB)

	// OAuth state store: postgres table or redis, per config
	stateFactory := cache.NewStateStoreFactory(cfg.Redis, cache.WithLogger(log))
	stateStore, err := stateFactory.CreateStore(cfg.OAuth.StateBackend, db.DB)
	if err != nil {
		log.Fatal("Failed to create oauth state store", zap.Error(err))
	}
	log.Info("OAuth state store ready", zap.String("backend", cfg.OAuth.StateBackend))

	// Channel catalog: config override or the built-in definitions
	catalog, err := buildCatalog(cfg)
	if err != nil {
		log.Fatal("Failed to build channel catalog", zap.Error(err))
	}

	// Connectors are registered only for channels with configured credentials
	connectors := appchannels.NewConnectorRegistry(catalog)
	registerConnectors(cfg, catalog, connectors, log)

	// Default team fallback for users without a membership row
	var defaultTeamID *uuid.UUID
	if cfg.OAuth.DefaultTeamID != "" {
		id, err := uuid.Parse(cfg.OAuth.DefaultTeamID)
		if err != nil {
			log.Fatal("Invalid oauth.default_team_id", zap.Error(err))
		}
		defaultTeamID = &id
	}

	// Application services
	connectService := appchannels.NewConnectService(connectors, stateStore, cfg.OAuth.StateTTL, log)
	callbackService := appchannels.NewCallbackService(connectors, stateStore, connectionRepo, membershipRepo, defaultTeamID, log)
	connectionService := appchannels.NewConnectionService(catalog, connectionRepo, membershipRepo, defaultTeamID, log)

	jwtService := auth.NewJWTService(cfg.JWT)

	// HTTP handlers
	channelHandler := handler.NewChannelHandler(connectService, connectionService, log)
	callbackHandler := handler.NewCallbackHandler(callbackService, cfg.OAuth.SettingsRedirectURL, log)
	systemHandler := handler.NewSystemHandler(cfg.App.Name)

	// Set Gin mode based on environment
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	// Setup validation
	middleware.SetupValidator()

	engine := gin.New()

	// Configure trusted proxies
	if len(cfg.HTTP.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
			log.Warn("Failed to set trusted proxies", zap.Error(err))
		}
	}

	// Apply middleware stack in order:
	// 1. RequestID - Generate/propagate request ID
	// 2. Recovery - Catch panics
	// 3. Logger - Log requests
	// 4. Security - Add security headers
	// 5. CORS - Handle cross-origin requests
	// 6. BodyLimit - Limit request body size
	// 7. RateLimit - Apply rate limiting (if enabled)
	engine.Use(middleware.RequestID())
	engine.Use(logger.Recovery(log))
	engine.Use(logger.GinMiddleware(log))
	engine.Use(middleware.Secure())

	corsConfig := middleware.CORSConfig{
		AllowOrigins:     cfg.HTTP.CORSAllowOrigins,
		AllowMethods:     cfg.HTTP.CORSAllowMethods,
		AllowHeaders:     cfg.HTTP.CORSAllowHeaders,
		ExposeHeaders:    []string{"X-Request-ID", "X-RateLimit-Limit", "X-RateLimit-Remaining"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	engine.Use(middleware.CORSWithConfig(corsConfig))

	engine.Use(middleware.BodyLimit(cfg.HTTP.MaxBodySize))

	if cfg.HTTP.RateLimitEnabled {
		rateLimiter := middleware.NewRateLimiter(cfg.HTTP.RateLimitRequests, cfg.HTTP.RateLimitWindow)
		engine.Use(middleware.RateLimit(rateLimiter))
		log.Info("Rate limiting enabled",
			zap.Int("requests", cfg.HTTP.RateLimitRequests),
			zap.Duration("window", cfg.HTTP.RateLimitWindow),
		)
	}

	// Health check endpoint (outside API versioning)
	engine.GET("/health", healthHandler(db, log))

	// OAuth provider callbacks (no authentication; the provider drives the
	// user's browser here)
	engine.GET("/callback/auth/:channel", callbackHandler.HandleCallback)

	// Setup API routes using router
	r := router.NewRouter(engine, router.WithAPIVersion("v1"))

	jwtConfig := middleware.JWTMiddlewareConfig{
		JWTService: jwtService,
		SkipPaths: []string{
			"/api/v1/system/ping",
		},
		SkipPathPrefixes: []string{
			"/callback/auth",
		},
		Logger: log,
	}
	engine.Use(middleware.JWTAuthMiddlewareWithConfig(jwtConfig))

	r.Register(channelHandler)
	r.Register(systemHandler)
	r.Setup()

	// Background sweep of expired oauth states. The redis backend expires
	// keys on its own; its PurgeExpired is a no-op.
	purgeCtx, stopPurge := context.WithCancel(context.Background())
	defer stopPurge()
	go purgeExpiredStates(purgeCtx, stateStore, cfg.OAuth.PurgeInterval, log)

	// Create HTTP server with config
	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	// Start server in goroutine
	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	stopPurge()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown", zap.Error(err))
	}

	log.Info("Server exited gracefully")
}

// buildCatalog returns the channel catalog, preferring the config override
// when definitions are present
func buildCatalog(cfg *config.Config) (*channel.Registry, error) {
	if len(cfg.Channels.Definitions) == 0 {
		return channel.NewRegistry(channel.DefaultDefinitions())
	}

	defs := make([]channel.Definition, 0, len(cfg.Channels.Definitions))
	for _, d := range cfg.Channels.Definitions {
		defs = append(defs, channel.Definition{
			ID:                  d.ID,
			Name:                d.Name,
			Icon:                d.Icon,
			Description:         d.Description,
			AuthType:            channel.AuthType(d.AuthType),
			RequiredCredentials: d.RequiredCredentials,
			OptionalCredentials: d.OptionalCredentials,
		})
	}
	return channel.NewRegistry(defs)
}

// registerConnectors wires OAuth connectors for every channel whose provider
// credentials are configured. Unconfigured channels stay in the catalog but
// report ErrChannelUnsupported on connect.
func registerConnectors(cfg *config.Config, catalog *channel.Registry, connectors *appchannels.ConnectorRegistry, log *zap.Logger) {
	if cfg.Shopee.PartnerID != 0 {
		def, err := catalog.Get("shopee")
		if err != nil {
			log.Warn("Shopee configured but not in catalog", zap.Error(err))
		} else {
			conn, err := channels.NewShopeeConnector(&channels.ShopeeConfig{
				Host:        cfg.Shopee.Host,
				PartnerID:   cfg.Shopee.PartnerID,
				PartnerKey:  cfg.Shopee.PartnerKey,
				RedirectURI: cfg.Shopee.RedirectURI,
			}, def)
			if err != nil {
				log.Fatal("Invalid shopee configuration", zap.Error(err))
			}
			if err := connectors.Register(conn); err != nil {
				log.Fatal("Failed to register shopee connector", zap.Error(err))
			}
			log.Info("Registered connector", zap.String("channel", "shopee"))
		}
	}

	if cfg.TikTok.ClientKey != "" {
		def, err := catalog.Get("tiktok")
		if err != nil {
			log.Warn("TikTok configured but not in catalog", zap.Error(err))
		} else {
			conn, err := channels.NewTikTokConnector(&channels.TikTokConfig{
				AuthHost:     cfg.TikTok.AuthHost,
				ClientKey:    cfg.TikTok.ClientKey,
				ClientSecret: cfg.TikTok.ClientSecret,
				RedirectURI:  cfg.TikTok.RedirectURI,
				Scopes:       cfg.TikTok.Scopes,
			}, def)
			if err != nil {
				log.Fatal("Invalid tiktok configuration", zap.Error(err))
			}
			if err := connectors.Register(conn); err != nil {
				log.Fatal("Failed to register tiktok connector", zap.Error(err))
			}
			log.Info("Registered connector", zap.String("channel", "tiktok"))
		}
	}

	for _, def := range catalog.ByAuthType(channel.AuthTypeOAuth) {
		if _, err := connectors.Get(def.Name); err != nil {
			log.Warn("OAuth channel has no configured connector, connect requests will be rejected",
				zap.String("channel", def.Name))
		}
	}
}

// purgeExpiredStates periodically deletes expired oauth states
func purgeExpiredStates(ctx context.Context, store channel.StateStore, interval time.Duration, log *zap.Logger) {
	if interval <= 0 {
		interval = time.Hour
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			purged, err := store.PurgeExpired(ctx)
			if err != nil {
				log.Error("Failed to purge expired oauth states", zap.Error(err))
				continue
			}
			if purged > 0 {
				log.Info("Purged expired oauth states", zap.Int64("count", purged))
			}
		}
	}
}

// healthHandler returns a handler for health check endpoints
func healthHandler(db *persistence.Database, _ *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		reqLog := logger.GetGinLogger(c)
		if err := db.Ping(); err != nil {
			reqLog.Warn("Health check failed", zap.Error(err))
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":   "unhealthy",
				"time":     time.Now().Format(time.RFC3339),
				"database": "error",
			})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"status":   "healthy",
			"time":     time.Now().Format(time.RFC3339),
			"database": "ok",
		})
	}
}
