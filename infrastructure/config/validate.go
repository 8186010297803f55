package config

import (
	"fmt"
	"net/url"
)

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidateRequired checks that value is not empty.
func ValidateRequired(field, value string) error {
	if value == "" {
		return &ValidationError{Field: field, Message: "is required"}
	}
	return nil
}

// ValidatePort checks that port is in 1..65535.
func ValidatePort(field string, port int) error {
	if port < 1 || port > 65535 {
		return &ValidationError{Field: field, Message: "must be between 1 and 65535"}
	}
	return nil
}

// ValidateHTTPURL checks that raw is an absolute http(s) URL.
func ValidateHTTPURL(field, raw string) error {
	if raw == "" {
		return &ValidationError{Field: field, Message: "is required"}
	}
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return &ValidationError{Field: field, Message: "must be an absolute http or https URL"}
	}
	return nil
}

// ValidateOneOf checks that value is one of allowed.
func ValidateOneOf(field, value string, allowed ...string) error {
	for _, a := range allowed {
		if value == a {
			return nil
		}
	}
	return &ValidationError{Field: field, Message: fmt.Sprintf("must be one of: %v", allowed)}
}

// Validate validates a ServerConfig.
func (c *ServerConfig) Validate() error {
	return ValidatePort("server.port", c.Port)
}

// Validate validates a DatabaseConfig.
func (c *DatabaseConfig) Validate() error {
	if err := ValidateRequired("database.host", c.Host); err != nil {
		return err
	}
	if err := ValidatePort("database.port", c.Port); err != nil {
		return err
	}
	if err := ValidateRequired("database.user", c.User); err != nil {
		return err
	}
	return ValidateRequired("database.database", c.Database)
}

// Validate validates a RedisConfig. A disabled Redis is always valid.
func (c *RedisConfig) Validate() error {
	if !c.Enabled {
		return nil
	}
	if err := ValidateRequired("redis.address", c.Address); err != nil {
		return err
	}
	if c.TTL < 0 {
		return &ValidationError{Field: "redis.ttl", Message: "must not be negative"}
	}
	return nil
}

// Validate validates a LoggingConfig.
func (c *LoggingConfig) Validate() error {
	if err := ValidateOneOf("logging.level", c.Level, "debug", "info", "warn", "warning", "error"); err != nil {
		return err
	}
	return ValidateOneOf("logging.format", c.Format, "json", "console")
}
