package jwt_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	gojwt "github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cybersalt/cs-sponsored-articles/infrastructure/jwt"
)

const secret = "test-secret"

func newRouter(t *testing.T) *gin.Engine {
	t.Helper()

	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(jwt.Middleware(secret))
	r.GET("/admin", func(c *gin.Context) {
		claims, ok := jwt.GetClaims(c)
		if !ok {
			c.Status(http.StatusInternalServerError)
			return
		}
		c.String(http.StatusOK, claims.Sub)
	})
	return r
}

func do(r *gin.Engine, auth string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/admin", http.NoBody)
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}
	r.ServeHTTP(w, req)
	return w
}

func TestMiddleware_ValidToken(t *testing.T) {
	r := newRouter(t)

	token, err := jwt.Sign(secret, "operator", time.Minute)
	require.NoError(t, err)

	w := do(r, "Bearer "+token)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "operator", w.Body.String())
}

func TestMiddleware_Rejects(t *testing.T) {
	r := newRouter(t)

	wrongKey, err := jwt.Sign("other-secret", "operator", time.Minute)
	require.NoError(t, err)
	expired, err := jwt.Sign(secret, "operator", -time.Minute)
	require.NoError(t, err)
	none, err := gojwt.NewWithClaims(gojwt.SigningMethodNone, gojwt.MapClaims{"sub": "x"}).
		SignedString(gojwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	for name, header := range map[string]string{
		"missing":   "",
		"no scheme": wrongKey,
		"basic":     "Basic dXNlcjpwYXNz",
		"wrong key": "Bearer " + wrongKey,
		"expired":   "Bearer " + expired,
		"alg none":  "Bearer " + none,
	} {
		w := do(r, header)
		assert.Equal(t, http.StatusUnauthorized, w.Code, name)
	}
}
