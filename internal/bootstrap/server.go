package bootstrap

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"

	infragin "github.com/cybersalt/cs-sponsored-articles/infrastructure/gin"
	infralogger "github.com/cybersalt/cs-sponsored-articles/infrastructure/logger"
	inframetrics "github.com/cybersalt/cs-sponsored-articles/infrastructure/metrics"
	"github.com/cybersalt/cs-sponsored-articles/internal/api"
	"github.com/cybersalt/cs-sponsored-articles/internal/config"
	"github.com/cybersalt/cs-sponsored-articles/internal/metrics"
)

// SetupHTTPServer builds the gin server: health checks, the admin API and
// the proxy as fallback for every other path.
func SetupHTTPServer(
	cfg *config.Config,
	svc *Services,
	db *sqlx.DB,
	redisClient *redis.Client,
	reg *prometheus.Registry,
	log infralogger.Logger,
) *infragin.Server {
	handler := api.NewHandler(api.Deps{
		Renderer:     svc.Tagger,
		Provisioner:  svc.Provisioner,
		Cache:        cacheOrNil(svc),
		Detector:     svc.Detector,
		LookupMode:   cfg.Plugin.LookupMode,
		MaxBodyBytes: cfg.Upstream.MaxBodyBytes,
		Logger:       log,
	})
	if cfg.Auth.JWTSecret == "" {
		log.Warn("Admin API disabled; set auth.jwt_secret to enable it")
	}

	builder := infragin.NewServerBuilder(cfg.Service.Name, cfg.Service.Port).
		WithLogger(log).
		WithHost(cfg.Service.Host).
		WithDebug(cfg.Service.Debug).
		WithVersion(cfg.Service.Version).
		WithTimeouts(cfg.Service.ReadTimeout, cfg.Service.WriteTimeout, cfg.Service.IdleTimeout).
		WithDatabaseHealthCheck(db.Ping).
		WithMiddleware(inframetrics.New(reg, metrics.Namespace).Middleware()).
		WithRoutes(func(router *gin.Engine) {
			api.SetupRoutes(router, handler, cfg.Auth.JWTSecret, reg)
		}).
		WithFallback(gin.WrapH(svc.Proxy))

	if redisClient != nil {
		builder = builder.WithRedisHealthCheck(func() error {
			return redisClient.Ping(context.Background()).Err()
		})
	}

	return builder.Build()
}

// cacheOrNil keeps a nil *CachedSource from becoming a non-nil interface.
func cacheOrNil(svc *Services) api.CacheInvalidator {
	if svc.Cache == nil {
		return nil
	}
	return svc.Cache
}
