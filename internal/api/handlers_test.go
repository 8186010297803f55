package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	infraerrors "github.com/cybersalt/cs-sponsored-articles/infrastructure/errors"
	"github.com/cybersalt/cs-sponsored-articles/infrastructure/jwt"
	infralogger "github.com/cybersalt/cs-sponsored-articles/infrastructure/logger"
	"github.com/cybersalt/cs-sponsored-articles/internal/api"
	"github.com/cybersalt/cs-sponsored-articles/internal/config"
	"github.com/cybersalt/cs-sponsored-articles/internal/detect"
	"github.com/cybersalt/cs-sponsored-articles/internal/domain"
	"github.com/cybersalt/cs-sponsored-articles/internal/metrics"
	"github.com/cybersalt/cs-sponsored-articles/internal/provision"
)

const (
	testSecret  = "test-secret"
	testMaxBody = 1 << 10
)

type MockRenderer struct {
	mock.Mock
}

func (m *MockRenderer) Aliases(ctx context.Context) ([]string, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

func (m *MockRenderer) Render(ctx context.Context, body string) (string, domain.PatchResult, string) {
	args := m.Called(ctx, body)
	return args.String(0), args.Get(1).(domain.PatchResult), args.String(2)
}

type MockProvisioner struct {
	mock.Mock
}

func (m *MockProvisioner) Ensure(ctx context.Context) (provision.Outcome, error) {
	args := m.Called(ctx)
	return args.Get(0).(provision.Outcome), args.Error(1)
}

type MockCache struct {
	mock.Mock
}

func (m *MockCache) Invalidate(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

type MockDetector struct {
	mock.Mock
}

func (m *MockDetector) Detect(ctx context.Context, path string) (*detect.Report, error) {
	args := m.Called(ctx, path)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*detect.Report), args.Error(1)
}

type fixture struct {
	token       string
	router      *gin.Engine
	renderer    *MockRenderer
	provisioner *MockProvisioner
	cache       *MockCache
	detector    *MockDetector
}

func newFixture(t *testing.T, secret string, withCache bool) *fixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	f := &fixture{
		router:      gin.New(),
		renderer:    new(MockRenderer),
		provisioner: new(MockProvisioner),
		cache:       new(MockCache),
		detector:    new(MockDetector),
	}

	deps := api.Deps{
		Renderer:     f.renderer,
		Provisioner:  f.provisioner,
		Detector:     f.detector,
		LookupMode:   "field",
		MaxBodyBytes: testMaxBody,
		Logger:       infralogger.NewNop(),
	}
	if withCache {
		deps.Cache = f.cache
	}
	if secret != "" {
		token, err := jwt.Sign(secret, "admin", time.Minute)
		require.NoError(t, err)
		f.token = token
	}

	reg := prometheus.NewRegistry()
	metrics.New(reg).Page(metrics.OutcomePatched, 1)
	api.SetupRoutes(f.router, api.NewHandler(deps), secret, reg)
	return f
}

func (f *fixture) do(t *testing.T, method, path string, body any, token string) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

func TestSponsored(t *testing.T) {
	f := newFixture(t, testSecret, false)
	f.renderer.On("Aliases", mock.Anything).Return([]string{"foo", "bar"}, nil)

	w := f.do(t, http.MethodGet, "/_sponsored/api/v1/sponsored", nil, f.token)

	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.Equal(t, []any{"foo", "bar"}, body["aliases"])
	assert.InDelta(t, 2, body["count"], 0)
	assert.Equal(t, "field", body["mode"])
}

func TestSponsored_LookupError(t *testing.T) {
	f := newFixture(t, testSecret, false)
	f.renderer.On("Aliases", mock.Anything).Return(nil, errors.New("db down"))

	w := f.do(t, http.MethodGet, "/_sponsored/api/v1/sponsored", nil, f.token)

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestPreview(t *testing.T) {
	f := newFixture(t, testSecret, false)
	f.renderer.On("Render", mock.Anything, "<html></html>").
		Return("<html>patched</html>", domain.PatchResult{Marked: 1}, metrics.OutcomePatched)

	w := f.do(t, http.MethodPost, "/_sponsored/api/v1/preview", map[string]string{"html": "<html></html>"}, f.token)

	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.Equal(t, "<html>patched</html>", body["html"])
	assert.Equal(t, metrics.OutcomePatched, body["outcome"])
	result, ok := body["result"].(map[string]any)
	require.True(t, ok)
	assert.InDelta(t, 1, result["marked"], 0)
}

func TestPreview_MissingHTML(t *testing.T) {
	f := newFixture(t, testSecret, false)

	w := f.do(t, http.MethodPost, "/_sponsored/api/v1/preview", map[string]string{}, f.token)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	f.renderer.AssertNotCalled(t, "Render", mock.Anything, mock.Anything)
}

func TestPreview_BodyTooLarge(t *testing.T) {
	f := newFixture(t, testSecret, false)
	html := "<html>" + strings.Repeat("x", testMaxBody) + "</html>"

	w := f.do(t, http.MethodPost, "/_sponsored/api/v1/preview", map[string]string{"html": html}, f.token)

	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
	f.renderer.AssertNotCalled(t, "Render", mock.Anything, mock.Anything)
}

func TestProvision(t *testing.T) {
	f := newFixture(t, testSecret, false)
	f.provisioner.On("Ensure", mock.Anything).
		Return(provision.Outcome{GroupID: 3, FieldID: 7, FieldCreated: true}, nil)

	w := f.do(t, http.MethodPost, "/_sponsored/api/v1/provision", map[string]string{"action": "update"}, f.token)

	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.Equal(t, "update", body["action"])
	outcome, ok := body["outcome"].(map[string]any)
	require.True(t, ok)
	assert.InDelta(t, 7, outcome["field_id"], 0)
	assert.Equal(t, true, outcome["field_created"])
}

func TestProvision_DefaultsToInstall(t *testing.T) {
	f := newFixture(t, testSecret, false)
	f.provisioner.On("Ensure", mock.Anything).Return(provision.Outcome{GroupID: 1, FieldID: 2}, nil)

	w := f.do(t, http.MethodPost, "/_sponsored/api/v1/provision", nil, f.token)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "install", decode(t, w)["action"])
}

func TestProvision_UninstallIsNoop(t *testing.T) {
	f := newFixture(t, testSecret, false)

	w := f.do(t, http.MethodPost, "/_sponsored/api/v1/provision", map[string]string{"action": "uninstall"}, f.token)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, decode(t, w)["skipped"])
	f.provisioner.AssertNotCalled(t, "Ensure", mock.Anything)
}

func TestProvision_Errors(t *testing.T) {
	f := newFixture(t, testSecret, false)
	f.provisioner.On("Ensure", mock.Anything).Return(provision.Outcome{}, errors.New("insert failed"))

	w := f.do(t, http.MethodPost, "/_sponsored/api/v1/provision", map[string]string{"action": "bogus"}, f.token)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = f.do(t, http.MethodPost, "/_sponsored/api/v1/provision", map[string]string{"action": "install"}, f.token)
	require.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, w.Body.String(), "insert failed")
}

func TestInvalidateCache(t *testing.T) {
	f := newFixture(t, testSecret, true)
	f.cache.On("Invalidate", mock.Anything).Return(nil).Once()

	w := f.do(t, http.MethodDelete, "/_sponsored/api/v1/cache", nil, f.token)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, decode(t, w)["invalidated"])
	f.cache.AssertExpectations(t)
}

func TestInvalidateCache_Disabled(t *testing.T) {
	f := newFixture(t, testSecret, false)

	w := f.do(t, http.MethodDelete, "/_sponsored/api/v1/cache", nil, f.token)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, false, decode(t, w)["invalidated"])
}

func TestDetect(t *testing.T) {
	f := newFixture(t, testSecret, false)
	f.detector.On("Detect", mock.Anything, "/blog").
		Return(&detect.Report{URL: "http://cms/blog", SuggestedTemplate: "cassiopeia"}, nil)

	w := f.do(t, http.MethodGet, "/_sponsored/api/v1/detect?path=/blog", nil, f.token)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "cassiopeia", decode(t, w)["suggested_template"])
}

func TestDetect_Errors(t *testing.T) {
	f := newFixture(t, testSecret, false)
	f.detector.On("Detect", mock.Anything, "//evil").Return(nil, detect.ErrInvalidPath)
	f.detector.On("Detect", mock.Anything, "/gone").
		Return(nil, &infraerrors.HTTPError{StatusCode: http.StatusNotFound, Status: "404 Not Found"})

	w := f.do(t, http.MethodGet, "/_sponsored/api/v1/detect?path=//evil", nil, f.token)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = f.do(t, http.MethodGet, "/_sponsored/api/v1/detect?path=/gone", nil, f.token)
	require.Equal(t, http.StatusBadGateway, w.Code)
	assert.InDelta(t, http.StatusNotFound, decode(t, w)["origin_status"], 0)
}

func TestAuth(t *testing.T) {
	f := newFixture(t, testSecret, false)
	f.renderer.On("Aliases", mock.Anything).Return([]string{}, nil)

	w := f.do(t, http.MethodGet, "/_sponsored/api/v1/sponsored", nil, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	token, err := jwt.Sign(testSecret, "admin", time.Minute)
	require.NoError(t, err)

	w = f.do(t, http.MethodGet, "/_sponsored/api/v1/sponsored", nil, token)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestAPI_DisabledWithoutSecret(t *testing.T) {
	f := newFixture(t, config.Default().Auth.JWTSecret, true)

	requests := []struct {
		method string
		path   string
		body   any
	}{
		{http.MethodGet, "/_sponsored/api/v1/sponsored", nil},
		{http.MethodPost, "/_sponsored/api/v1/preview", map[string]string{"html": "<html></html>"}},
		{http.MethodPost, "/_sponsored/api/v1/provision", map[string]string{"action": "install"}},
		{http.MethodDelete, "/_sponsored/api/v1/cache", nil},
		{http.MethodGet, "/_sponsored/api/v1/detect?path=/", nil},
	}
	for _, r := range requests {
		w := f.do(t, r.method, r.path, r.body, "")
		assert.Equal(t, http.StatusNotFound, w.Code, "%s %s", r.method, r.path)
	}

	f.renderer.AssertNotCalled(t, "Aliases", mock.Anything)
	f.renderer.AssertNotCalled(t, "Render", mock.Anything, mock.Anything)
	f.provisioner.AssertNotCalled(t, "Ensure", mock.Anything)
	f.cache.AssertNotCalled(t, "Invalidate", mock.Anything)
	f.detector.AssertNotCalled(t, "Detect", mock.Anything, mock.Anything)
}

func TestMetricsEndpoint(t *testing.T) {
	f := newFixture(t, testSecret, false)

	w := f.do(t, http.MethodGet, "/_sponsored/metrics", nil, "")

	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, strings.Contains(w.Body.String(), "sponsored_articles_pages_total"))
}
