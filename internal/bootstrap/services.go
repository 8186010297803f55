package bootstrap

import (
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"

	"github.com/cybersalt/cs-sponsored-articles/infrastructure/circuitbreaker"
	infrahttp "github.com/cybersalt/cs-sponsored-articles/infrastructure/http"
	infralogger "github.com/cybersalt/cs-sponsored-articles/infrastructure/logger"
	"github.com/cybersalt/cs-sponsored-articles/internal/classifier"
	"github.com/cybersalt/cs-sponsored-articles/internal/config"
	"github.com/cybersalt/cs-sponsored-articles/internal/database"
	"github.com/cybersalt/cs-sponsored-articles/internal/detect"
	"github.com/cybersalt/cs-sponsored-articles/internal/lookup"
	"github.com/cybersalt/cs-sponsored-articles/internal/metrics"
	"github.com/cybersalt/cs-sponsored-articles/internal/patcher"
	"github.com/cybersalt/cs-sponsored-articles/internal/provision"
	"github.com/cybersalt/cs-sponsored-articles/internal/proxy"
	"github.com/cybersalt/cs-sponsored-articles/internal/repository"
	"github.com/cybersalt/cs-sponsored-articles/internal/tagger"
)

// Services holds the wired domain components.
type Services struct {
	Tagger      *tagger.Tagger
	Provisioner *provision.Provisioner
	// Cache is nil when Redis is not in use.
	Cache    *lookup.CachedSource
	Detector *detect.Detector
	Proxy    *proxy.Proxy
	Breaker  *circuitbreaker.Breaker
}

// NewPatcher builds the patcher from the plugin settings.
func NewPatcher(cfg *config.Config) *patcher.Patcher {
	return patcher.New(patcher.Options{
		MarkerClass:     cfg.Plugin.MarkerClass,
		FieldName:       cfg.Plugin.FieldName,
		BackgroundColor: cfg.Plugin.BackgroundColor,
		Mode:            cfg.Plugin.BoundaryMode,
	})
}

// NewCandidates resolves the container classes from the plugin settings.
func NewCandidates(cfg *config.Config) []string {
	return classifier.Candidates(cfg.Plugin.TemplateType, cfg.Plugin.CustomContainerClass)
}

// NewProvisioner builds the field provisioner on db.
func NewProvisioner(cfg *config.Config, db *sqlx.DB, log infralogger.Logger) *provision.Provisioner {
	tables := database.NewTables(cfg.Database.TablePrefix)
	return provision.New(repository.NewFieldRepository(db, tables), cfg.Plugin.FieldName, log)
}

// SetupServices wires lookup, tagging, provisioning, detection and the
// proxy. redisClient and m may be nil.
func SetupServices(
	cfg *config.Config,
	db *sqlx.DB,
	redisClient *redis.Client,
	m *metrics.Metrics,
	log infralogger.Logger,
) *Services {
	tables := database.NewTables(cfg.Database.TablePrefix)

	breaker := circuitbreaker.New(circuitbreaker.Config{
		FailureThreshold: cfg.Breaker.FailureThreshold,
		Timeout:          cfg.Breaker.OpenTimeout,
		OnStateChange: func(from, to circuitbreaker.State) {
			m.Breaker(int(to))
			log.Warn("Lookup breaker state changed",
				infralogger.String("from", from.String()),
				infralogger.String("to", to.String()),
			)
		},
	})

	var source lookup.Source = lookup.NewDatabaseSource(
		repository.NewSponsorRepository(db, tables),
		cfg.Plugin.LookupMode,
		cfg.Plugin.FieldName,
		breaker,
		m,
	)

	var cache *lookup.CachedSource
	if redisClient != nil {
		cache = lookup.NewCachedSource(source, redisClient, cfg.Plugin.LookupMode, cfg.Redis.TTL, log, m)
		source = cache
	}

	t := tagger.New(source, NewCandidates(cfg), NewPatcher(cfg), log, m)

	clientCfg := infrahttp.ClientConfig{Timeout: cfg.Upstream.Timeout}
	upstream := cfg.UpstreamURL()

	return &Services{
		Tagger:      t,
		Provisioner: NewProvisioner(cfg, db, log),
		Cache:       cache,
		Detector:    detect.New(infrahttp.NewClient(clientCfg), upstream, log),
		Proxy: proxy.New(proxy.Options{
			Upstream:     upstream,
			AdminPrefix:  cfg.Upstream.AdminPrefix,
			MaxBodyBytes: cfg.Upstream.MaxBodyBytes,
			Transport:    infrahttp.NewTransport(clientCfg),
			Logger:       log,
			Metrics:      m,
		}, t),
		Breaker: breaker,
	}
}
