package lookup_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cybersalt/cs-sponsored-articles/infrastructure/circuitbreaker"
	"github.com/cybersalt/cs-sponsored-articles/internal/config"
	"github.com/cybersalt/cs-sponsored-articles/internal/domain"
	"github.com/cybersalt/cs-sponsored-articles/internal/lookup"
)

type fakeFinder struct {
	byField   []domain.Article
	byLinkC   []domain.Article
	err       error
	fieldName string
	calls     int
}

func (f *fakeFinder) ByField(_ context.Context, fieldName string) ([]domain.Article, error) {
	f.calls++
	f.fieldName = fieldName
	return f.byField, f.err
}

func (f *fakeFinder) ByLinkC(context.Context) ([]domain.Article, error) {
	f.calls++
	return f.byLinkC, f.err
}

func TestDatabaseSource_FieldMode(t *testing.T) {
	t.Parallel()

	finder := &fakeFinder{byField: []domain.Article{
		{ID: 1, Alias: "foo"},
		{ID: 2, Alias: " bar "},
		{ID: 3, Alias: "foo"},
		{ID: 4, Alias: ""},
	}}
	src := lookup.NewDatabaseSource(finder, config.LookupField, "sponsored-article", nil, nil)

	aliases, err := src.Aliases(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []string{"foo", "bar"}, aliases)
	assert.Equal(t, "sponsored-article", finder.fieldName)
}

func TestDatabaseSource_LinkCMode(t *testing.T) {
	t.Parallel()

	finder := &fakeFinder{byLinkC: []domain.Article{{ID: 9, Alias: "legacy"}}}
	src := lookup.NewDatabaseSource(finder, config.LookupLinkC, "ignored", nil, nil)

	aliases, err := src.Aliases(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"legacy"}, aliases)
	assert.Equal(t, config.LookupLinkC, src.Mode())
}

func TestDatabaseSource_BreakerOpens(t *testing.T) {
	t.Parallel()

	cause := errors.New("connection refused")
	finder := &fakeFinder{err: cause}
	breaker := circuitbreaker.New(circuitbreaker.Config{FailureThreshold: 2, Timeout: time.Hour})
	src := lookup.NewDatabaseSource(finder, config.LookupField, "sponsored-article", breaker, nil)

	for range 2 {
		_, err := src.Aliases(context.Background())
		require.ErrorIs(t, err, cause)
	}

	_, err := src.Aliases(context.Background())
	require.ErrorIs(t, err, circuitbreaker.ErrCircuitOpen)
	assert.Equal(t, 2, finder.calls)
}

func TestUniqueAliases_Empty(t *testing.T) {
	t.Parallel()

	assert.Empty(t, lookup.UniqueAliases(nil))
}
