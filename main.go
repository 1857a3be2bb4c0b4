package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"civictrack/config"
	"civictrack/controllers"
	"civictrack/middlewares"
	"civictrack/routes"
	"civictrack/services"
	"civictrack/store"

	"github.com/getsentry/sentry-go"
	sentrygin "github.com/getsentry/sentry-go/gin"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/mongo"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		bootLogger := zerolog.New(os.Stderr)
		bootLogger.Fatal().Err(err).Msg("invalid configuration")
	}
	logger := config.NewLogger(cfg)

	if cfg.SentryDSN != "" {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:              cfg.SentryDSN,
			EnableTracing:    true,
			TracesSampleRate: 0.2,
			Environment:      cfg.AppEnv,
		}); err != nil {
			logger.Error().Err(err).Msg("sentry init failed")
		} else {
			defer sentry.Flush(2 * time.Second)
		}
	}

	ctx := context.Background()

	st, mongoDB, err := openStore(ctx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Str("driver", cfg.StoreDriver).Msg("failed to open store")
	}
	logger.Info().Str("driver", cfg.StoreDriver).Msg("store connection established")

	redisClient, err := config.ConnectRedis(ctx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to redis")
	}
	if redisClient == nil {
		logger.Warn().Msg("REDIS_ADDRESS not set, issue rate limiting disabled")
	}

	policy, err := services.PolicyByName(cfg.StatusPolicy)
	if err != nil {
		logger.Fatal().Err(err).Msg("invalid STATUS_POLICY")
	}

	users := services.NewUserService(st, logger)
	issues := services.NewIssueService(st, st, st, logger, services.WithTransitionPolicy(policy))
	analytics := services.NewAnalyticsService(st, st)

	if err := controllers.RegisterValidators(); err != nil {
		logger.Fatal().Err(err).Msg("failed to register validators")
	}

	deps := routes.Dependencies{
		Config: cfg,
		Logger: logger,
		Redis:  redisClient,
		Users:  users,
		Issues: controllers.NewIssueController(issues, users, cfg.DefaultLocation, cfg.DefaultRadiusKm, logger),
		Admin:  controllers.NewAdminController(issues, users, analytics, logger),
	}
	if mongoDB != nil && cfg.LegacyEnabled {
		legacy := controllers.NewLegacyController(mongoDB, users, cfg.JWTSecret, cfg.IsProduction(), cfg.StoreTimeout, logger)
		if err := legacy.EnsureIndexes(ctx); err != nil {
			logger.Fatal().Err(err).Msg("failed to create legacy indexes")
		}
		deps.Legacy = legacy
	}

	gin.SetMode(cfg.GinMode)
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(sentrygin.New(sentrygin.Options{Repanic: true}))
	r.Use(middlewares.RequestLogger(logger))
	r.Use(middlewares.Metrics())
	r.Use(cors.New(corsConfig(cfg)))

	routes.Setup(r, deps)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info().Str("port", cfg.Port).Msg("server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("server failed to start")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info().Msg("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("server shutdown error")
	}
	if redisClient != nil {
		if err := redisClient.Close(); err != nil {
			logger.Error().Err(err).Msg("redis close error")
		}
	}
	if err := st.Close(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("store close error")
	}
	logger.Info().Msg("server stopped")
}

// openStore connects the configured backend. The Mongo database handle is
// returned as well so the legacy surface can share the connection.
func openStore(ctx context.Context, cfg *config.Config) (store.Store, *mongo.Database, error) {
	switch cfg.StoreDriver {
	case config.DriverPostgres:
		db, err := config.ConnectPostgres(cfg)
		if err != nil {
			return nil, nil, err
		}
		pg := store.NewPostgresStore(db, cfg.StoreTimeout)
		if err := pg.Migrate(); err != nil {
			return nil, nil, err
		}
		return pg, nil, nil
	case config.DriverMemory:
		return store.NewMemoryStore(), nil, nil
	default:
		db, err := config.ConnectDB(ctx, cfg)
		if err != nil {
			return nil, nil, err
		}
		ms := store.NewMongoStore(db, cfg.StoreTimeout)
		if err := ms.EnsureIndexes(ctx); err != nil {
			return nil, nil, err
		}
		return ms, db, nil
	}
}

func corsConfig(cfg *config.Config) cors.Config {
	c := cors.DefaultConfig()
	c.AllowMethods = []string{"GET", "POST", "PATCH", "OPTIONS"}
	c.AllowHeaders = []string{"Origin", "Content-Type", "Authorization", "X-Request-ID"}
	c.ExposeHeaders = []string{"X-Request-ID"}
	if len(cfg.CORSOrigins) == 0 || (len(cfg.CORSOrigins) == 1 && cfg.CORSOrigins[0] == "*") {
		c.AllowAllOrigins = true
		return c
	}
	c.AllowOrigins = cfg.CORSOrigins
	c.AllowCredentials = true
	return c
}
