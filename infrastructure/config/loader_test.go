package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sampleConfig struct {
	Name    string        `yaml:"name"    env:"SAMPLE_NAME"`
	Port    int           `yaml:"port"    env:"SAMPLE_PORT"`
	Timeout time.Duration `yaml:"timeout" env:"SAMPLE_TIMEOUT"`
	Enabled bool          `yaml:"enabled" env:"SAMPLE_ENABLED"`
	Tags    []string      `yaml:"tags"    env:"SAMPLE_TAGS"`
	Nested  struct {
		Value string `yaml:"value" env:"SAMPLE_NESTED"`
	} `yaml:"nested"`
}

func writeConfig(t *testing.T, body string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad_ParsesYAML(t *testing.T) {
	t.Setenv(EnvFileVar, filepath.Join(t.TempDir(), "missing.env"))
	path := writeConfig(t, "name: site\nport: 9000\ntimeout: 3s\nnested:\n  value: inner\n")

	cfg, err := Load[sampleConfig](path)
	require.NoError(t, err)

	assert.Equal(t, "site", cfg.Name)
	assert.Equal(t, 9000, cfg.Port)
	assert.Equal(t, 3*time.Second, cfg.Timeout)
	assert.Equal(t, "inner", cfg.Nested.Value)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv(EnvFileVar, filepath.Join(t.TempDir(), "missing.env"))
	t.Setenv("SAMPLE_PORT", "7000")
	t.Setenv("SAMPLE_TIMEOUT", "250ms")
	t.Setenv("SAMPLE_ENABLED", "yes")
	t.Setenv("SAMPLE_TAGS", "a, b ,c")
	t.Setenv("SAMPLE_NESTED", "from-env")
	path := writeConfig(t, "name: site\nport: 9000\n")

	cfg, err := Load[sampleConfig](path)
	require.NoError(t, err)

	assert.Equal(t, 7000, cfg.Port)
	assert.Equal(t, 250*time.Millisecond, cfg.Timeout)
	assert.True(t, cfg.Enabled)
	assert.Equal(t, []string{"a", "b", "c"}, cfg.Tags)
	assert.Equal(t, "from-env", cfg.Nested.Value)
}

func TestLoad_MissingFile(t *testing.T) {
	t.Setenv(EnvFileVar, filepath.Join(t.TempDir(), "missing.env"))

	_, err := Load[sampleConfig](filepath.Join(t.TempDir(), "nope.yml"))
	require.Error(t, err)
}

func TestLoadWithDefaults_EnvWinsOverDefaults(t *testing.T) {
	t.Setenv(EnvFileVar, filepath.Join(t.TempDir(), "missing.env"))
	t.Setenv("SAMPLE_NAME", "env-name")
	path := writeConfig(t, "port: 1\n")

	cfg, err := LoadWithDefaults(path, func(c *sampleConfig) {
		c.Name = "default-name"
		if c.Port == 0 {
			c.Port = 8080
		}
	})
	require.NoError(t, err)

	assert.Equal(t, "env-name", cfg.Name)
	assert.Equal(t, 1, cfg.Port)
}

func TestLoadOptional_NoFile(t *testing.T) {
	t.Setenv(EnvFileVar, filepath.Join(t.TempDir(), "missing.env"))
	t.Setenv("SAMPLE_PORT", "8181")

	cfg, err := LoadOptional(filepath.Join(t.TempDir(), "absent.yml"), func(c *sampleConfig) {
		if c.Name == "" {
			c.Name = "fallback"
		}
	})
	require.NoError(t, err)

	assert.Equal(t, "fallback", cfg.Name)
	assert.Equal(t, 8181, cfg.Port)
}

func TestLoad_EnvFile(t *testing.T) {
	dir := t.TempDir()
	envPath := filepath.Join(dir, "test.env")
	require.NoError(t, os.WriteFile(envPath, []byte("SAMPLE_NAME_FROM_FILE=x\n"), 0o600))
	t.Setenv(EnvFileVar, envPath)
	t.Cleanup(func() { os.Unsetenv("SAMPLE_NAME_FROM_FILE") })

	_, err := Load[sampleConfig](writeConfig(t, "name: a\n"))
	require.NoError(t, err)
	assert.Equal(t, "x", os.Getenv("SAMPLE_NAME_FROM_FILE"))
}

func TestGetConfigPath(t *testing.T) {
	t.Setenv("CONFIG_PATH", "")
	assert.Equal(t, "config.yml", GetConfigPath("config.yml"))

	t.Setenv("CONFIG_PATH", "/etc/sponsored.yml")
	assert.Equal(t, "/etc/sponsored.yml", GetConfigPath("config.yml"))
}

func TestValidators(t *testing.T) {
	t.Parallel()

	var vErr *ValidationError
	require.ErrorAs(t, ValidatePort("server.port", 0), &vErr)
	assert.Equal(t, "server.port", vErr.Field)
	assert.NoError(t, ValidatePort("server.port", 8080))

	assert.Error(t, ValidateHTTPURL("upstream.url", "ftp://example.com"))
	assert.Error(t, ValidateHTTPURL("upstream.url", "/relative"))
	assert.NoError(t, ValidateHTTPURL("upstream.url", "http://cms.local:8000"))

	assert.Error(t, ValidateOneOf("mode", "x", "a", "b"))
	assert.NoError(t, ValidateOneOf("mode", "b", "a", "b"))

	disabled := RedisConfig{}
	assert.NoError(t, disabled.Validate())
}

func TestDatabaseConfig_URL(t *testing.T) {
	t.Parallel()

	c := DatabaseConfig{Host: "db", Port: 5433, User: "joomla", Password: "p@ss", Database: "cms", SSLMode: "disable"}
	assert.Equal(t, "postgres://joomla:p%40ss@db:5433/cms?sslmode=disable", c.URL())
	assert.Equal(t, "host=db port=5433 user=joomla password=p@ss dbname=cms sslmode=disable", c.DSN())
}
