// Package config defines the sponsored-articles service configuration.
package config

import (
	"net/url"
	"regexp"
	"strings"
	"time"

	infraconfig "github.com/cybersalt/cs-sponsored-articles/infrastructure/config"
	"github.com/cybersalt/cs-sponsored-articles/infrastructure/profiling"
)

// Default configuration values.
const (
	defaultServiceName   = "sponsored-articles"
	defaultServicePort   = 8095
	DefaultVersion       = "0.1.0"
	defaultUpstreamURL   = "http://localhost:8080"
	defaultAdminPrefix   = "/administrator"
	defaultMaxBodyBytes  = 8 << 20
	defaultUpstreamTO    = 30 * time.Second
	defaultDBName        = "joomla"
	defaultDBUser        = "joomla"
	defaultTablePrefix   = "jos_"
	defaultTemplateType  = "auto"
	defaultBackground    = "#fff8e1"
	defaultMarkerClass   = "cs-sponsored-item"
	defaultFieldName     = "sponsored-article"
	defaultBoundaryMode  = BoundaryExact
	defaultLookupMode    = LookupField
	defaultBreakerFails  = 5
	defaultBreakerWindow = 30 * time.Second
)

// Boundary modes.
const (
	BoundaryExact     = "exact"
	BoundaryHeuristic = "heuristic"
)

// Lookup modes.
const (
	LookupField = "field"
	LookupLinkC = "link_c"
)

var (
	colorPattern  = regexp.MustCompile(`^#(?:[0-9a-fA-F]{3}|[0-9a-fA-F]{4}|[0-9a-fA-F]{6}|[0-9a-fA-F]{8})$|^[a-zA-Z]+$`)
	classPattern  = regexp.MustCompile(`^-?[_a-zA-Z]+[_a-zA-Z0-9-]*$`)
	prefixPattern = regexp.MustCompile(`^[a-zA-Z0-9_]*$`)
)

// Config holds the application configuration.
type Config struct {
	Service   ServiceConfig             `yaml:"service"`
	Upstream  UpstreamConfig            `yaml:"upstream"`
	Database  DatabaseConfig            `yaml:"database"`
	Redis     infraconfig.RedisConfig   `yaml:"redis"`
	Plugin    PluginConfig              `yaml:"plugin"`
	Breaker   BreakerConfig             `yaml:"breaker"`
	Provision ProvisionConfig           `yaml:"provision"`
	Auth      AuthConfig                `yaml:"auth"`
	Profiling profiling.Config          `yaml:"profiling"`
	Logging   infraconfig.LoggingConfig `yaml:"logging"`
}

// ServiceConfig holds service-level configuration and the listener.
type ServiceConfig struct {
	infraconfig.ServerConfig `yaml:",inline"`

	Name    string `yaml:"name"`
	Version string `yaml:"version"`
	Debug   bool   `env:"APP_DEBUG" yaml:"debug"`
}

// UpstreamConfig describes the CMS origin.
type UpstreamConfig struct {
	URL          string        `env:"UPSTREAM_URL" yaml:"url"`
	Timeout      time.Duration `yaml:"timeout"`
	AdminPrefix  string        `yaml:"admin_prefix"`
	MaxBodyBytes int64         `yaml:"max_body_bytes"`
}

// DatabaseConfig is the CMS database plus its table prefix.
type DatabaseConfig struct {
	infraconfig.DatabaseConfig `yaml:",inline"`

	TablePrefix string `env:"DB_TABLE_PREFIX" yaml:"table_prefix"`
}

// PluginConfig holds the tagging options.
type PluginConfig struct {
	TemplateType         string `env:"SPONSORED_TEMPLATE_TYPE" yaml:"template_type"`
	CustomContainerClass string `yaml:"custom_container_class"`
	BackgroundColor      string `yaml:"background_color"`
	MarkerClass          string `yaml:"marker_class"`
	BoundaryMode         string `yaml:"boundary_mode"`
	LookupMode           string `env:"SPONSORED_LOOKUP_MODE" yaml:"lookup_mode"`
	FieldName            string `yaml:"field_name"`
}

// BreakerConfig configures the circuit breaker around database lookups.
type BreakerConfig struct {
	FailureThreshold int           `yaml:"failure_threshold"`
	OpenTimeout      time.Duration `yaml:"open_timeout"`
}

// ProvisionConfig controls field provisioning during serve start-up.
type ProvisionConfig struct {
	OnStartup bool `env:"SPONSORED_PROVISION_ON_STARTUP" yaml:"on_startup"`
}

// AuthConfig protects the admin API. An empty secret disables the API.
type AuthConfig struct {
	JWTSecret string `env:"AUTH_JWT_SECRET" yaml:"jwt_secret"`
}

// Load loads configuration from path. A missing file is not an error; the
// service can be configured from the environment alone.
func Load(path string) (*Config, error) {
	return infraconfig.LoadOptional[Config](path, setDefaults)
}

// Default returns a configuration with every default applied.
func Default() *Config {
	cfg := &Config{}
	setDefaults(cfg)
	return cfg
}

func setDefaults(cfg *Config) {
	setServiceDefaults(&cfg.Service)
	setUpstreamDefaults(&cfg.Upstream)
	setDatabaseDefaults(&cfg.Database)
	cfg.Redis.SetDefaults()
	setPluginDefaults(&cfg.Plugin)
	setBreakerDefaults(&cfg.Breaker)
	cfg.Logging.SetDefaults()
}

func setServiceDefaults(svc *ServiceConfig) {
	if svc.Name == "" {
		svc.Name = defaultServiceName
	}
	if svc.Version == "" {
		svc.Version = DefaultVersion
	}
	if svc.Port == 0 {
		svc.Port = defaultServicePort
	}
	svc.ServerConfig.SetDefaults()
}

func setUpstreamDefaults(up *UpstreamConfig) {
	if up.URL == "" {
		up.URL = defaultUpstreamURL
	}
	if up.Timeout == 0 {
		up.Timeout = defaultUpstreamTO
	}
	if up.AdminPrefix == "" {
		up.AdminPrefix = defaultAdminPrefix
	}
	if up.MaxBodyBytes == 0 {
		up.MaxBodyBytes = defaultMaxBodyBytes
	}
}

func setDatabaseDefaults(db *DatabaseConfig) {
	db.DatabaseConfig.SetDefaults()
	if db.User == "" {
		db.User = defaultDBUser
	}
	if db.Database == "" {
		db.Database = defaultDBName
	}
	if db.TablePrefix == "" {
		db.TablePrefix = defaultTablePrefix
	}
}

func setPluginDefaults(p *PluginConfig) {
	if p.TemplateType == "" {
		p.TemplateType = defaultTemplateType
	}
	if p.BackgroundColor == "" {
		p.BackgroundColor = defaultBackground
	}
	if p.MarkerClass == "" {
		p.MarkerClass = defaultMarkerClass
	}
	if p.BoundaryMode == "" {
		p.BoundaryMode = defaultBoundaryMode
	}
	if p.LookupMode == "" {
		p.LookupMode = defaultLookupMode
	}
	if p.FieldName == "" {
		p.FieldName = defaultFieldName
	}
	p.TemplateType = strings.ToLower(strings.TrimSpace(p.TemplateType))
	p.CustomContainerClass = strings.TrimSpace(p.CustomContainerClass)
}

func setBreakerDefaults(b *BreakerConfig) {
	if b.FailureThreshold == 0 {
		b.FailureThreshold = defaultBreakerFails
	}
	if b.OpenTimeout == 0 {
		b.OpenTimeout = defaultBreakerWindow
	}
}

// Validate checks the configuration for values the service cannot run with.
func (c *Config) Validate() error {
	if err := c.Service.ServerConfig.Validate(); err != nil {
		return err
	}
	if err := infraconfig.ValidateHTTPURL("upstream.url", c.Upstream.URL); err != nil {
		return err
	}
	if !strings.HasPrefix(c.Upstream.AdminPrefix, "/") {
		return &infraconfig.ValidationError{Field: "upstream.admin_prefix", Message: "must start with /"}
	}
	if c.Upstream.MaxBodyBytes < 0 {
		return &infraconfig.ValidationError{Field: "upstream.max_body_bytes", Message: "must not be negative"}
	}
	if err := c.Database.Validate(); err != nil {
		return err
	}
	if !prefixPattern.MatchString(c.Database.TablePrefix) {
		return &infraconfig.ValidationError{Field: "database.table_prefix", Message: "may only contain letters, digits and underscores"}
	}
	if err := c.Redis.Validate(); err != nil {
		return err
	}
	if err := c.Plugin.Validate(); err != nil {
		return err
	}
	return c.Logging.Validate()
}

// Validate checks values that end up inside injected markup.
func (p *PluginConfig) Validate() error {
	if !colorPattern.MatchString(p.BackgroundColor) {
		return &infraconfig.ValidationError{Field: "plugin.background_color", Message: "must be a hex colour or a colour name"}
	}
	if !classPattern.MatchString(p.MarkerClass) {
		return &infraconfig.ValidationError{Field: "plugin.marker_class", Message: "must be a valid CSS class name"}
	}
	if !classPattern.MatchString(p.FieldName) {
		return &infraconfig.ValidationError{Field: "plugin.field_name", Message: "must be a valid CSS class name"}
	}
	if p.CustomContainerClass != "" && !classPattern.MatchString(p.CustomContainerClass) {
		return &infraconfig.ValidationError{Field: "plugin.custom_container_class", Message: "must be a valid CSS class name"}
	}
	if err := infraconfig.ValidateOneOf("plugin.boundary_mode", p.BoundaryMode, BoundaryExact, BoundaryHeuristic); err != nil {
		return err
	}
	return infraconfig.ValidateOneOf("plugin.lookup_mode", p.LookupMode, LookupField, LookupLinkC)
}

// UpstreamURL returns the parsed origin URL. Validate must have passed.
func (c *Config) UpstreamURL() *url.URL {
	u, _ := url.Parse(c.Upstream.URL)
	return u
}
