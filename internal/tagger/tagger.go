// Package tagger renders the sponsored markup for one page: it resolves the
// current sponsored aliases and hands them to the patcher.
package tagger

import (
	"context"
	"time"

	infralogger "github.com/cybersalt/cs-sponsored-articles/infrastructure/logger"
	"github.com/cybersalt/cs-sponsored-articles/internal/domain"
	"github.com/cybersalt/cs-sponsored-articles/internal/lookup"
	"github.com/cybersalt/cs-sponsored-articles/internal/metrics"
	"github.com/cybersalt/cs-sponsored-articles/internal/patcher"
)

// Tagger is immutable after construction.
type Tagger struct {
	source     lookup.Source
	candidates []string
	patcher    *patcher.Patcher
	log        infralogger.Logger
	metrics    *metrics.Metrics
}

// New creates a Tagger. m may be nil.
func New(
	source lookup.Source,
	candidates []string,
	p *patcher.Patcher,
	log infralogger.Logger,
	m *metrics.Metrics,
) *Tagger {
	return &Tagger{
		source:     source,
		candidates: append([]string(nil), candidates...),
		patcher:    p,
		log:        log,
		metrics:    m,
	}
}

// Candidates returns the container classes the tagger looks for.
func (t *Tagger) Candidates() []string {
	return append([]string(nil), t.candidates...)
}

// Render patches body. A failed lookup is logged and treated as an empty
// alias set, so the page still receives the stylesheet. The returned outcome
// is metrics.OutcomePatched when at least one container was marked and
// metrics.OutcomeCSSOnly otherwise.
func (t *Tagger) Render(ctx context.Context, body string) (string, domain.PatchResult, string) {
	aliases, err := t.source.Aliases(ctx)
	if err != nil {
		t.log.Warn("Sponsor lookup failed, rendering without markers",
			infralogger.Error(err),
		)
		aliases = nil
	}

	start := time.Now()
	out, result := t.patcher.Patch(body, t.candidates, aliases)
	t.metrics.Patch(time.Since(start))

	outcome := metrics.OutcomeCSSOnly
	if result.Marked > 0 {
		outcome = metrics.OutcomePatched
	}

	t.log.Debug("Page rendered",
		infralogger.String("outcome", outcome),
		infralogger.Int("aliases", len(aliases)),
		infralogger.Int("containers", result.Containers),
		infralogger.Int("anchors", result.Anchors),
		infralogger.Int("marked", result.Marked),
	)
	return out, result, outcome
}

// Aliases returns the current alias set from the underlying source.
func (t *Tagger) Aliases(ctx context.Context) ([]string, error) {
	return t.source.Aliases(ctx)
}
