// Package api wires the admin endpoints onto the gin engine.
package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	infragin "github.com/cybersalt/cs-sponsored-articles/infrastructure/gin"
)

const (
	// BasePath prefixes every endpoint the service owns. Everything else
	// belongs to the CMS.
	BasePath    = "/_sponsored"
	apiPath     = BasePath + "/api/v1"
	metricsPath = BasePath + "/metrics"
)

// SetupRoutes registers the admin API and the metrics endpoint. The API
// shares the public listener with the CMS, so without jwtSecret every API
// path answers 404 instead of reaching a handler. gatherer may be nil.
func SetupRoutes(router *gin.Engine, h *Handler, jwtSecret string, gatherer prometheus.Gatherer) {
	if gatherer != nil {
		router.GET(metricsPath, gin.WrapH(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))
	}

	if jwtSecret == "" {
		router.Any(apiPath+"/*path", apiDisabled)
		return
	}

	v1 := infragin.ProtectedGroup(router, apiPath, jwtSecret)

	v1.GET("/sponsored", h.Sponsored)
	v1.POST("/preview", h.Preview)
	v1.POST("/provision", h.Provision)
	v1.DELETE("/cache", h.InvalidateCache)
	v1.GET("/detect", h.Detect)
}

func apiDisabled(c *gin.Context) {
	c.JSON(http.StatusNotFound, gin.H{"error": "admin API disabled: auth.jwt_secret is not set"})
}
