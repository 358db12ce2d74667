package server

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"time"

	"artify-catalog/internal/cache"
	"artify-catalog/internal/config"
	"artify-catalog/internal/database"
	"artify-catalog/internal/events"
	"artify-catalog/internal/logger"
	custommiddleware "artify-catalog/internal/middleware"
	"artify-catalog/internal/repository"
	"artify-catalog/internal/service"
	"artify-catalog/internal/transport"

	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"
)

type Server struct {
	*http.Server
	config *config.Config
	logger *zap.Logger
	db     *sql.DB
	redis  redis.UniversalClient
}

// NewServer wires the catalog over the given store, Redis client and event publisher.
// The server takes ownership of db and redisClient and closes them in Close.
func NewServer(cfg *config.Config, log *zap.Logger, db *sql.DB, redisClient redis.UniversalClient, publisher events.Publisher) *Server {
	router := chi.NewRouter()

	for _, mw := range custommiddleware.DefaultMiddlewareStack() {
		router.Use(mw)
	}
	router.Use(custommiddleware.LoggingMiddleware(logger.Component(log, "http")))
	router.Use(custommiddleware.ErrorHandlingMiddleware(log))
	router.Use(custommiddleware.CORSMiddleware(cfg.Server))

	redisCache := cache.NewRedisCache(redisClient)
	router.Get("/health", healthHandler(db, redisCache))

	// Initialize repositories
	artistRepo := repository.NewArtistRepository(db)
	productRepo := repository.NewProductRepository(db)

	// Initialize services
	gateway := service.NewJWTGateway(cfg.JWT.Secret, time.Duration(cfg.JWT.AccessExpiry)*time.Minute)
	artistService := service.NewArtistService(artistRepo, gateway)
	catalogService := service.NewCatalogService(
		productRepo,
		redisCache,
		events.NewEmitter(publisher, cfg.Events.ProductCreatedTopic, cfg.Events.PublishTimeout),
		service.CatalogOptions{
			CacheTTL: cfg.Cache.TTL,
			Keys:     cache.Keys{Prefix: cfg.Cache.KeyPrefix},
		},
		logger.Component(log, "catalog"),
	)

	// Initialize handlers
	artistHandler := transport.NewArtistHandler(artistService, log)
	productHandler := transport.NewProductHandler(catalogService, log)

	authMiddleware := custommiddleware.AuthMiddleware(gateway, log)
	rateLimit := custommiddleware.RateLimitMiddleware(redisClient, custommiddleware.RateLimitConfig{
		RequestsPerWindow: cfg.RateLimit.Requests,
		Window:            cfg.RateLimit.Window,
		KeyPrefix:         cfg.Cache.KeyPrefix + "ratelimit:auth",
	}, log)

	// Register routes
	artistHandler.RegisterRoutes(router, rateLimit)
	productHandler.RegisterRoutes(router, authMiddleware)

	return &Server{
		Server: &http.Server{
			Addr:         fmt.Sprintf(":%s", cfg.Server.Port),
			Handler:      otelhttp.NewHandler(router, "artify-catalog"),
			IdleTimeout:  time.Minute,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 30 * time.Second,
		},
		config: cfg,
		logger: log,
		db:     db,
		redis:  redisClient,
	}
}

// healthHandler reports 200 only when both the database and the cache answer.
func healthHandler(db *sql.DB, c *cache.RedisCache) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		dbStats := database.Health(r.Context(), db)

		cacheStatus := map[string]string{"status": "up"}
		ctx, cancel := context.WithTimeout(r.Context(), time.Second)
		defer cancel()
		if err := c.Ping(ctx); err != nil {
			cacheStatus = map[string]string{"status": "down", "error": err.Error()}
		}

		status, code := "ok", http.StatusOK
		if dbStats["status"] != "up" || cacheStatus["status"] != "up" {
			status, code = "degraded", http.StatusServiceUnavailable
		}

		custommiddleware.RespondWithJSON(w, code, map[string]any{
			"status":   status,
			"database": dbStats,
			"cache":    cacheStatus,
		})
	}
}

func (s *Server) Close() error {
	s.logger.Info("Closing server resources")

	if s.redis != nil {
		if err := s.redis.Close(); err != nil {
			s.logger.Error("Failed to close redis connection", zap.Error(err))
		}
	}

	if s.db != nil {
		if err := s.db.Close(); err != nil {
			s.logger.Error("Failed to close database connection", zap.Error(err))
		}
	}

	s.logger.Sync()
	return nil
}
