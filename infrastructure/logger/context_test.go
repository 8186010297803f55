package logger_test

import (
	"context"
	"testing"

	"github.com/cybersalt/cs-sponsored-articles/infrastructure/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWithContext_FromContext_RoundTrip(t *testing.T) {
	t.Parallel()

	base := mustTestLogger(t)
	ctx := logger.WithContext(context.Background(), base)

	assert.Same(t, base, logger.FromContext(ctx))
}

func TestFromContext_FallbackIsSingleton(t *testing.T) {
	t.Parallel()

	a := logger.FromContext(context.Background())
	b := logger.FromContext(context.Background())

	require.NotNil(t, a)
	assert.Same(t, a, b)

	// warn-level fallback still accepts lower levels without panicking
	a.Debug("debug message")
	a.Warn("message with field", logger.String("alias", "foo"))
}

func TestWith_ReturnsDistinctLogger(t *testing.T) {
	t.Parallel()

	base := mustTestLogger(t)
	enriched := base.With(logger.String("service", "sponsored-articles"))

	assert.NotSame(t, base, enriched)
}

func TestNew_ConsoleFormat(t *testing.T) {
	t.Parallel()

	l, err := logger.New(logger.Config{Format: logger.FormatConsole, OutputPaths: []string{"stderr"}})
	require.NoError(t, err)
	l.Info("console logger works", logger.Int("containers", 2))
}

func mustTestLogger(t *testing.T) logger.Logger {
	t.Helper()

	l, err := logger.New(logger.Config{Level: "warn", OutputPaths: []string{"stderr"}})
	require.NoError(t, err)
	return l
}
