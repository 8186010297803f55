package gin

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/cybersalt/cs-sponsored-articles/infrastructure/jwt"
	"github.com/cybersalt/cs-sponsored-articles/infrastructure/logger"
)

// ServerBuilder provides a fluent API for building HTTP servers.
type ServerBuilder struct {
	config       *Config
	logger       logger.Logger
	setupRoutes  func(*gin.Engine)
	fallback     gin.HandlerFunc
	middleware   []gin.HandlerFunc
	healthChecks map[string]HealthChecker
}

// NewServerBuilder creates a new server builder with the given configuration.
func NewServerBuilder(serviceName string, port int) *ServerBuilder {
	return &ServerBuilder{
		config:       NewConfig(serviceName, port),
		healthChecks: make(map[string]HealthChecker),
	}
}

// WithLogger sets the logger.
func (b *ServerBuilder) WithLogger(log logger.Logger) *ServerBuilder {
	b.logger = log
	return b
}

// WithHost sets the bind address.
func (b *ServerBuilder) WithHost(host string) *ServerBuilder {
	b.config.Host = host
	return b
}

// WithDebug enables or disables debug mode.
func (b *ServerBuilder) WithDebug(debug bool) *ServerBuilder {
	b.config.Debug = debug
	return b
}

// WithVersion sets the service version.
func (b *ServerBuilder) WithVersion(version string) *ServerBuilder {
	b.config.ServiceVersion = version
	return b
}

// WithTimeouts sets all timeout values for the HTTP server.
func (b *ServerBuilder) WithTimeouts(read, write, idle time.Duration) *ServerBuilder {
	b.config.ReadTimeout = read
	b.config.WriteTimeout = write
	b.config.IdleTimeout = idle
	return b
}

// WithHealthCheck adds a named health check.
func (b *ServerBuilder) WithHealthCheck(name string, checker HealthChecker) *ServerBuilder {
	b.healthChecks[name] = checker
	return b
}

// WithDatabaseHealthCheck adds a database health check.
func (b *ServerBuilder) WithDatabaseHealthCheck(pingFunc func() error) *ServerBuilder {
	b.healthChecks["database"] = DatabaseHealthChecker(pingFunc)
	return b
}

// WithRedisHealthCheck adds a Redis health check.
func (b *ServerBuilder) WithRedisHealthCheck(pingFunc func() error) *ServerBuilder {
	b.healthChecks["redis"] = RedisHealthChecker(pingFunc)
	return b
}

// WithRoutes sets the route setup function.
func (b *ServerBuilder) WithRoutes(setupRoutes func(*gin.Engine)) *ServerBuilder {
	b.setupRoutes = setupRoutes
	return b
}

// WithMiddleware adds handlers that run after the standard middleware on
// every request, health checks and fallback included.
func (b *ServerBuilder) WithMiddleware(handlers ...gin.HandlerFunc) *ServerBuilder {
	b.middleware = append(b.middleware, handlers...)
	return b
}

// WithFallback sets the handler for every request no route matched.
// The proxy is mounted here so the CMS keeps its whole URL space.
func (b *ServerBuilder) WithFallback(h gin.HandlerFunc) *ServerBuilder {
	b.fallback = h
	return b
}

// Build creates the server with all configured options.
func (b *ServerBuilder) Build() *Server {
	if b.logger == nil {
		b.logger = logger.NewNop()
	}

	wrappedSetup := func(router *gin.Engine) {
		if len(b.middleware) > 0 {
			router.Use(b.middleware...)
		}

		RegisterHealthRoutes(router, HealthOptions{
			ServiceName:    b.config.ServiceName,
			ServiceVersion: b.config.ServiceVersion,
			Checks:         b.healthChecks,
		})

		if b.setupRoutes != nil {
			b.setupRoutes(router)
		}

		if b.fallback != nil {
			router.NoRoute(b.fallback)
			router.NoMethod(b.fallback)
		}
	}

	return NewServer(b.config, b.logger, wrappedSetup)
}

// ProtectedGroup creates a router group guarded by JWT authentication when
// jwtSecret is non-empty.
func ProtectedGroup(router *gin.Engine, path, jwtSecret string) *gin.RouterGroup {
	group := router.Group(path)
	if jwtSecret != "" {
		group.Use(jwt.Middleware(jwtSecret))
	}
	return group
}
