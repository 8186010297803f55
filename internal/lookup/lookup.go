// Package lookup resolves the aliases of sponsored, published articles.
package lookup

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/cybersalt/cs-sponsored-articles/infrastructure/circuitbreaker"
	"github.com/cybersalt/cs-sponsored-articles/internal/config"
	"github.com/cybersalt/cs-sponsored-articles/internal/domain"
	"github.com/cybersalt/cs-sponsored-articles/internal/metrics"
)

// Source returns the current sponsored alias set.
type Source interface {
	Aliases(ctx context.Context) ([]string, error)
}

// ArticleFinder queries the CMS for sponsored articles.
type ArticleFinder interface {
	ByField(ctx context.Context, fieldName string) ([]domain.Article, error)
	ByLinkC(ctx context.Context) ([]domain.Article, error)
}

// DatabaseSource reads aliases from the CMS database behind a breaker.
type DatabaseSource struct {
	finder    ArticleFinder
	mode      string
	fieldName string
	breaker   *circuitbreaker.Breaker
	metrics   *metrics.Metrics
}

// NewDatabaseSource creates a source for lookup mode (field or link_c).
// breaker and m may be nil.
func NewDatabaseSource(
	finder ArticleFinder,
	mode, fieldName string,
	breaker *circuitbreaker.Breaker,
	m *metrics.Metrics,
) *DatabaseSource {
	return &DatabaseSource{
		finder:    finder,
		mode:      mode,
		fieldName: fieldName,
		breaker:   breaker,
		metrics:   m,
	}
}

// Mode returns the lookup mode.
func (s *DatabaseSource) Mode() string {
	return s.mode
}

// Aliases implements Source.
func (s *DatabaseSource) Aliases(ctx context.Context) ([]string, error) {
	start := time.Now()

	var articles []domain.Article
	query := func(ctx context.Context) error {
		var err error
		articles, err = s.find(ctx)
		return err
	}

	var err error
	if s.breaker != nil {
		err = s.breaker.Execute(ctx, query)
	} else {
		err = query(ctx)
	}
	s.metrics.Lookup(metrics.SourceDatabase, time.Since(start), err)
	if err != nil {
		return nil, fmt.Errorf("lookup sponsored articles (%s): %w", s.mode, err)
	}

	aliases := UniqueAliases(articles)
	s.metrics.Aliases(len(aliases))
	return aliases, nil
}

func (s *DatabaseSource) find(ctx context.Context) ([]domain.Article, error) {
	if s.mode == config.LookupLinkC {
		return s.finder.ByLinkC(ctx)
	}
	return s.finder.ByField(ctx, s.fieldName)
}

// UniqueAliases returns the trimmed, non-empty aliases of articles in
// first-seen order.
func UniqueAliases(articles []domain.Article) []string {
	seen := make(map[string]struct{}, len(articles))
	aliases := make([]string, 0, len(articles))
	for _, a := range articles {
		alias := strings.TrimSpace(a.Alias)
		if alias == "" {
			continue
		}
		if _, dup := seen[alias]; dup {
			continue
		}
		seen[alias] = struct{}{}
		aliases = append(aliases, alias)
	}
	return aliases
}

// Static is a fixed alias set, used by the offline patch command and tests.
type Static []string

// Aliases implements Source.
func (s Static) Aliases(context.Context) ([]string, error) {
	return s, nil
}
