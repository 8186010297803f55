// Package detect inspects a rendered CMS page and reports which container
// classes and permalinks it carries, suggesting a template setting.
package detect

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/time/rate"

	infraerrors "github.com/cybersalt/cs-sponsored-articles/infrastructure/errors"
	infralogger "github.com/cybersalt/cs-sponsored-articles/infrastructure/logger"
	"github.com/cybersalt/cs-sponsored-articles/internal/classifier"
)

const (
	defaultMaxBytes   = 8 << 20
	permalinkSelector = "a[itemprop~='url']"

	// origin fetches are throttled so the admin API cannot be used to load
	// the CMS
	defaultFetchInterval = time.Second
	defaultFetchBurst    = 2
)

// ErrInvalidPath is returned for paths that are not origin-relative.
var ErrInvalidPath = errors.New("path must be relative to the site root")

// ClassMatch is one candidate class found on the page.
type ClassMatch struct {
	Class string `json:"class"`
	// Containers is the number of div/article elements carrying the class.
	Containers int `json:"containers"`
	// WithPermalink counts the containers holding at least one permalink.
	WithPermalink int      `json:"with_permalink"`
	Templates     []string `json:"templates,omitempty"`
}

// Report is the result of analysing one page.
type Report struct {
	URL               string       `json:"url"`
	Permalinks        int          `json:"permalinks"`
	Matches           []ClassMatch `json:"matches"`
	SuggestedTemplate string       `json:"suggested_template"`
	SuggestedClass    string       `json:"suggested_class,omitempty"`
}

// Detector fetches pages from the CMS origin.
type Detector struct {
	client   *http.Client
	base     *url.URL
	maxBytes int64
	limiter  *rate.Limiter
	log      infralogger.Logger
}

// New creates a Detector for the origin at base.
func New(client *http.Client, base *url.URL, log infralogger.Logger) *Detector {
	return &Detector{
		client:   client,
		base:     base,
		maxBytes: defaultMaxBytes,
		limiter:  rate.NewLimiter(rate.Every(defaultFetchInterval), defaultFetchBurst),
		log:      log,
	}
}

// Detect fetches path from the origin and analyses it.
func (d *Detector) Detect(ctx context.Context, path string) (*Report, error) {
	target, err := d.resolve(path)
	if err != nil {
		return nil, err
	}
	if err = d.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("wait for fetch slot: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target.String(), http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "text/html")

	resp, err := d.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", target, err)
	}
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil {
			d.log.Debug("Failed to close response body", infralogger.Error(closeErr))
		}
	}()

	if err = infraerrors.CheckResponse(resp); err != nil {
		return nil, err
	}

	doc, err := goquery.NewDocumentFromReader(io.LimitReader(resp.Body, d.maxBytes))
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", target, err)
	}

	report := Analyze(doc)
	report.URL = target.String()

	d.log.Info("Page analysed",
		infralogger.String("url", report.URL),
		infralogger.Int("permalinks", report.Permalinks),
		infralogger.String("suggested_template", report.SuggestedTemplate),
	)
	return &report, nil
}

func (d *Detector) resolve(path string) (*url.URL, error) {
	if path == "" {
		path = "/"
	}
	ref, err := url.Parse(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidPath, err)
	}
	if ref.IsAbs() || ref.Host != "" || !strings.HasPrefix(ref.Path, "/") {
		return nil, ErrInvalidPath
	}
	return d.base.ResolveReference(ref), nil
}

// Analyze reports the known container classes present in doc, in priority
// order, and suggests the template setting that would select them.
func Analyze(doc *goquery.Document) Report {
	report := Report{
		Permalinks: doc.Find(permalinkSelector).Length(),
		Matches:    []ClassMatch{},
	}

	for _, class := range classifier.AutoCandidates() {
		containers := doc.Find("div." + class + ", article." + class)
		if containers.Length() == 0 {
			continue
		}

		match := ClassMatch{
			Class:      class,
			Containers: containers.Length(),
			Templates:  classifier.ForClass(class),
		}
		containers.Each(func(_ int, s *goquery.Selection) {
			if s.Find(permalinkSelector).Length() > 0 {
				match.WithPermalink++
			}
		})
		report.Matches = append(report.Matches, match)
	}

	report.SuggestedTemplate = classifier.TemplateAuto
	for _, m := range report.Matches {
		if m.WithPermalink == 0 {
			continue
		}
		report.SuggestedClass = m.Class
		if len(m.Templates) > 0 {
			report.SuggestedTemplate = m.Templates[0]
		}
		break
	}
	return report
}
