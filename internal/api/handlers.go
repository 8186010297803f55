package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	infraerrors "github.com/cybersalt/cs-sponsored-articles/infrastructure/errors"
	infralogger "github.com/cybersalt/cs-sponsored-articles/infrastructure/logger"
	"github.com/cybersalt/cs-sponsored-articles/internal/detect"
	"github.com/cybersalt/cs-sponsored-articles/internal/domain"
	"github.com/cybersalt/cs-sponsored-articles/internal/provision"
)

// Renderer resolves aliases and patches pages.
type Renderer interface {
	Aliases(ctx context.Context) ([]string, error)
	Render(ctx context.Context, body string) (string, domain.PatchResult, string)
}

// Provisioner ensures the sponsor field exists.
type Provisioner interface {
	Ensure(ctx context.Context) (provision.Outcome, error)
}

// CacheInvalidator drops cached aliases.
type CacheInvalidator interface {
	Invalidate(ctx context.Context) error
}

// Detector analyses a page on the CMS origin.
type Detector interface {
	Detect(ctx context.Context, path string) (*detect.Report, error)
}

// Handler serves the admin API. Cache may be nil when Redis is disabled.
type Handler struct {
	renderer    Renderer
	provisioner Provisioner
	cache       CacheInvalidator
	detector    Detector
	lookupMode  string
	maxBody     int64
	logger      infralogger.Logger
}

// Deps groups the Handler collaborators. MaxBodyBytes caps request bodies;
// zero means no limit.
type Deps struct {
	Renderer     Renderer
	Provisioner  Provisioner
	Cache        CacheInvalidator
	Detector     Detector
	LookupMode   string
	MaxBodyBytes int64
	Logger       infralogger.Logger
}

// NewHandler creates a Handler.
func NewHandler(deps Deps) *Handler {
	return &Handler{
		renderer:    deps.Renderer,
		provisioner: deps.Provisioner,
		cache:       deps.Cache,
		detector:    deps.Detector,
		lookupMode:  deps.LookupMode,
		maxBody:     deps.MaxBodyBytes,
		logger:      deps.Logger,
	}
}

// Sponsored lists the current sponsored aliases.
func (h *Handler) Sponsored(c *gin.Context) {
	aliases, err := h.renderer.Aliases(c.Request.Context())
	if err != nil {
		h.logger.Error("Failed to look up sponsored articles", infralogger.Error(err))
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Sponsor lookup failed"})
		return
	}
	if aliases == nil {
		aliases = []string{}
	}

	c.JSON(http.StatusOK, gin.H{
		"aliases": aliases,
		"count":   len(aliases),
		"mode":    h.lookupMode,
	})
}

type previewRequest struct {
	HTML string `binding:"required" json:"html"`
}

// Preview patches the posted HTML with the live alias set.
func (h *Handler) Preview(c *gin.Context) {
	if h.maxBody > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxBody)
	}

	var req previewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "Request body too large", "limit": tooLarge.Limit})
			return
		}
		h.logger.Debug("Invalid request body", infralogger.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	out, result, outcome := h.renderer.Render(c.Request.Context(), req.HTML)
	c.JSON(http.StatusOK, gin.H{
		"html":    out,
		"result":  result,
		"outcome": outcome,
	})
}

type provisionRequest struct {
	Action string `json:"action"`
}

// Provision runs field provisioning for an install, update or uninstall
// action. The default action is install.
func (h *Handler) Provision(c *gin.Context) {
	var req provisionRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
			return
		}
	}
	if req.Action == "" {
		req.Action = string(provision.ActionInstall)
	}

	action, err := provision.ParseAction(req.Action)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if action == provision.ActionUninstall {
		c.JSON(http.StatusOK, gin.H{"action": action, "skipped": true})
		return
	}

	outcome, err := h.provisioner.Ensure(c.Request.Context())
	if err != nil {
		h.logger.Warn("Failed to create custom field",
			infralogger.String("action", string(action)),
			infralogger.Error(err),
		)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Provisioning failed"})
		return
	}

	h.logger.Info("Custom field provisioned",
		infralogger.String("action", string(action)),
		infralogger.Bool("field_created", outcome.FieldCreated),
	)
	c.JSON(http.StatusOK, gin.H{"action": action, "outcome": outcome})
}

// InvalidateCache drops the cached alias set.
func (h *Handler) InvalidateCache(c *gin.Context) {
	if h.cache == nil {
		c.JSON(http.StatusOK, gin.H{"invalidated": false, "reason": "cache disabled"})
		return
	}
	if err := h.cache.Invalidate(c.Request.Context()); err != nil {
		h.logger.Error("Failed to invalidate alias cache", infralogger.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to invalidate cache"})
		return
	}

	h.logger.Info("Alias cache invalidated")
	c.JSON(http.StatusOK, gin.H{"invalidated": true})
}

// Detect analyses a page on the origin.
func (h *Handler) Detect(c *gin.Context) {
	path := c.DefaultQuery("path", "/")

	report, err := h.detector.Detect(c.Request.Context(), path)
	if err != nil {
		if errors.Is(err, detect.ErrInvalidPath) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		h.logger.Warn("Template detection failed",
			infralogger.String("path", path),
			infralogger.Error(err),
		)
		resp := gin.H{"error": "Failed to analyse page"}
		if status, ok := infraerrors.StatusCode(err); ok {
			resp["origin_status"] = status
		}
		c.JSON(http.StatusBadGateway, resp)
		return
	}

	c.JSON(http.StatusOK, report)
}
