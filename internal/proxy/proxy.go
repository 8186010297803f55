// Package proxy forwards requests to the CMS origin and tags eligible HTML
// responses on the way back.
package proxy

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/http/httputil"
	"net/url"
	"strconv"
	"strings"

	"github.com/klauspost/compress/gzip"

	infralogger "github.com/cybersalt/cs-sponsored-articles/infrastructure/logger"
	"github.com/cybersalt/cs-sponsored-articles/internal/domain"
	"github.com/cybersalt/cs-sponsored-articles/internal/metrics"
)

// HeaderOutcome reports what happened to a proxied response.
const HeaderOutcome = "X-Sponsored-Articles"

// Renderer patches one HTML page.
type Renderer interface {
	Render(ctx context.Context, body string) (string, domain.PatchResult, string)
}

// Options configure a Proxy.
type Options struct {
	Upstream *url.URL
	// AdminPrefix is the CMS back-end path; responses below it are never
	// rewritten.
	AdminPrefix string
	// MaxBodyBytes bounds the body size that is rewritten, both on the wire
	// and decoded. Larger responses pass through.
	MaxBodyBytes int64
	Transport    http.RoundTripper
	Logger       infralogger.Logger
	Metrics      *metrics.Metrics
}

// Proxy is an http.Handler in front of the CMS.
type Proxy struct {
	reverse     *httputil.ReverseProxy
	renderer    Renderer
	adminPrefix string
	maxBody     int64
	log         infralogger.Logger
	metrics     *metrics.Metrics
}

// New creates a Proxy. The inbound Host header is forwarded so the CMS
// builds links for the public site name.
func New(opts Options, renderer Renderer) *Proxy {
	p := &Proxy{
		renderer:    renderer,
		adminPrefix: strings.TrimSuffix(opts.AdminPrefix, "/"),
		maxBody:     opts.MaxBodyBytes,
		log:         opts.Logger,
		metrics:     opts.Metrics,
	}
	if p.log == nil {
		p.log = infralogger.NewNop()
	}

	upstream := opts.Upstream
	p.reverse = &httputil.ReverseProxy{
		Rewrite: func(r *httputil.ProxyRequest) {
			r.SetURL(upstream)
			r.SetXForwarded()
			r.Out.Host = r.In.Host
			p.negotiateEncoding(r.Out)
		},
		Transport:      opts.Transport,
		ModifyResponse: p.modifyResponse,
		ErrorHandler:   p.handleError,
	}
	return p
}

func (p *Proxy) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	p.reverse.ServeHTTP(w, r)
}

// negotiateEncoding narrows Accept-Encoding on requests whose response may
// be rewritten to the codings the proxy can decode.
func (p *Proxy) negotiateEncoding(out *http.Request) {
	if !p.candidateRequest(out) {
		return
	}
	if acceptsGzip(out.Header.Values("Accept-Encoding")) {
		out.Header.Set("Accept-Encoding", "gzip")
	} else {
		out.Header.Del("Accept-Encoding")
	}
}

func (p *Proxy) candidateRequest(r *http.Request) bool {
	return r.Method == http.MethodGet && !p.isAdminPath(r.URL.Path)
}

func (p *Proxy) isAdminPath(path string) bool {
	if p.adminPrefix == "" {
		return false
	}
	return path == p.adminPrefix || strings.HasPrefix(path, p.adminPrefix+"/")
}

func (p *Proxy) modifyResponse(resp *http.Response) error {
	if !isHTML(resp.Header.Get("Content-Type")) {
		return nil
	}

	outcome, marked, err := p.rewrite(resp)
	if err != nil {
		return err
	}
	resp.Header.Set(HeaderOutcome, outcome)
	p.metrics.Page(outcome, marked)
	return nil
}

// rewrite patches resp in place when it is eligible and returns the outcome
// with the number of marked containers. An error means the body was lost.
func (p *Proxy) rewrite(resp *http.Response) (string, int, error) {
	if resp.Request == nil || !p.candidateRequest(resp.Request) || resp.StatusCode != http.StatusOK {
		return metrics.OutcomeSkipped, 0, nil
	}

	encoding := strings.ToLower(strings.TrimSpace(resp.Header.Get("Content-Encoding")))
	if encoding != "" && encoding != "identity" && encoding != "gzip" {
		return metrics.OutcomeSkipped, 0, nil
	}
	if p.maxBody > 0 && resp.ContentLength > p.maxBody {
		return metrics.OutcomeSkipped, 0, nil
	}

	raw, complete, err := p.readBody(resp)
	if err != nil {
		return "", 0, err
	}
	if !complete {
		return metrics.OutcomeSkipped, 0, nil
	}

	body := raw
	if encoding == "gzip" {
		decoded, ok := p.gunzip(raw)
		if !ok {
			resp.Body = io.NopCloser(bytes.NewReader(raw))
			return metrics.OutcomeSkipped, 0, nil
		}
		body = decoded
	}

	out, result, outcome := p.renderer.Render(resp.Request.Context(), string(body))

	resp.Body = io.NopCloser(strings.NewReader(out))
	resp.ContentLength = int64(len(out))
	resp.Header.Set("Content-Length", strconv.Itoa(len(out)))
	resp.Header.Del("Content-Encoding")
	resp.Header.Del("ETag")
	return outcome, result.Marked, nil
}

// readBody reads at most maxBody bytes. When the body is larger, what was
// read is stitched back in front of the remainder and complete is false.
func (p *Proxy) readBody(resp *http.Response) ([]byte, bool, error) {
	if p.maxBody <= 0 {
		raw, err := io.ReadAll(resp.Body)
		_ = resp.Body.Close()
		if err != nil {
			return nil, false, fmt.Errorf("read body: %w", err)
		}
		return raw, true, nil
	}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, p.maxBody+1))
	if err != nil {
		_ = resp.Body.Close()
		return nil, false, fmt.Errorf("read body: %w", err)
	}
	if int64(len(raw)) > p.maxBody {
		resp.Body = &joinedBody{
			Reader: io.MultiReader(bytes.NewReader(raw), resp.Body),
			Closer: resp.Body,
		}
		return nil, false, nil
	}
	_ = resp.Body.Close()
	return raw, true, nil
}

func (p *Proxy) gunzip(raw []byte) ([]byte, bool) {
	zr, err := gzip.NewReader(bytes.NewReader(raw))
	if err != nil {
		p.log.Warn("Invalid gzip body from origin", infralogger.Error(err))
		return nil, false
	}
	defer zr.Close()

	limit := p.maxBody
	if limit <= 0 {
		limit = 1<<63 - 2
	}
	decoded, err := io.ReadAll(io.LimitReader(zr, limit+1))
	if err != nil {
		p.log.Warn("Invalid gzip body from origin", infralogger.Error(err))
		return nil, false
	}
	if int64(len(decoded)) > limit {
		return nil, false
	}
	return decoded, true
}

type joinedBody struct {
	io.Reader
	io.Closer
}

type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

func (p *Proxy) handleError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, context.Canceled) {
		p.log.Debug("Client went away", infralogger.String("path", r.URL.Path))
	} else {
		p.log.Error("Origin request failed",
			infralogger.String("method", r.Method),
			infralogger.String("path", r.URL.Path),
			infralogger.Error(err),
		)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusBadGateway)
	if encodeErr := json.NewEncoder(w).Encode(errorResponse{
		Error:   "bad_gateway",
		Message: "origin unavailable",
	}); encodeErr != nil {
		p.log.Debug("Failed to write error response", infralogger.Error(encodeErr))
	}
}

func isHTML(contentType string) bool {
	if contentType == "" {
		return false
	}
	mediaType, _, err := mime.ParseMediaType(contentType)
	return err == nil && mediaType == "text/html"
}

func acceptsGzip(values []string) bool {
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			coding, params, _ := strings.Cut(strings.TrimSpace(part), ";")
			coding = strings.ToLower(strings.TrimSpace(coding))
			if coding != "gzip" && coding != "*" {
				continue
			}
			if q, ok := strings.CutPrefix(strings.TrimSpace(params), "q="); ok {
				if f, err := strconv.ParseFloat(q, 64); err == nil && f == 0 {
					continue
				}
			}
			return true
		}
	}
	return false
}
