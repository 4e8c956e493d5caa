package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/direct-system/labdesk-api/internal/middleware"
	"github.com/direct-system/labdesk-api/internal/models"
	appErrors "github.com/direct-system/labdesk-api/pkg/errors"
	"github.com/direct-system/labdesk-api/pkg/response"
)

type stateController interface {
	Bootstrap(ctx context.Context) (*models.Snapshot, models.Phase, error)
	Phase() (models.Phase, error)
	Notifications() []models.Notification
	Load(ctx context.Context) error
	ClearSetupRequired()
}

type metricsSnapshotter interface {
	Snapshot() models.SystemMetrics
}

type setupRequest struct {
	DatabaseURL string `json:"databaseUrl" binding:"required"`
}

// StateHandler exposes the snapshot lifecycle: bootstrap, status,
// notifications, reload, and the setup flow that attaches a store
// configuration at runtime.
type StateHandler struct {
	state   stateController
	metrics metricsSnapshotter
	// attach persists the URL override and binds a live store handle.
	attach func(ctx context.Context, url string) error
}

// NewStateHandler constructs a new StateHandler. attach may be nil when
// runtime setup is not supported.
func NewStateHandler(state stateController, metrics metricsSnapshotter, attach func(ctx context.Context, url string) error) *StateHandler {
	return &StateHandler{state: state, metrics: metrics, attach: attach}
}

// Bootstrap godoc
// @Summary Full snapshot for a connecting client
// @Tags State
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /bootstrap [get]
func (h *StateHandler) Bootstrap(c *gin.Context) {
	snap, phase, err := h.state.Bootstrap(c.Request.Context())
	// A snapshot served while still loading came out of the cache.
	middleware.SetCacheHit(c, snap != nil && phase == models.PhaseLoading)
	meta := middleware.ExtractMeta(c)
	if meta == nil {
		meta = map[string]interface{}{}
	}
	meta["phase"] = phase
	if snap != nil {
		response.JSON(c, http.StatusOK, snap, meta)
		return
	}
	if err != nil {
		appErr := appErrors.FromError(err)
		c.JSON(appErr.Status, response.Envelope{Error: appErr, Meta: meta})
		return
	}
	response.JSON(c, http.StatusOK, nil, meta)
}

// Status godoc
// @Summary Lifecycle phase plus runtime metrics
// @Tags State
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /status [get]
func (h *StateHandler) Status(c *gin.Context) {
	phase, lastErr := h.state.Phase()
	payload := gin.H{"phase": phase}
	if lastErr != nil {
		payload["error"] = appErrors.FromError(lastErr)
	}
	if h.metrics != nil {
		payload["metrics"] = h.metrics.Snapshot()
	}
	response.JSON(c, http.StatusOK, payload)
}

// Notifications godoc
// @Summary Alerts derived from the current snapshot
// @Tags State
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /notifications [get]
func (h *StateHandler) Notifications(c *gin.Context) {
	response.JSON(c, http.StatusOK, h.state.Notifications())
}

// Refresh godoc
// @Summary Re-run the snapshot load
// @Tags State
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /state/refresh [post]
func (h *StateHandler) Refresh(c *gin.Context) {
	if err := h.state.Load(c.Request.Context()); err != nil {
		response.Error(c, err)
		return
	}
	phase, _ := h.state.Phase()
	response.JSON(c, http.StatusOK, gin.H{"phase": phase})
}

// Setup godoc
// @Summary Persist a store URL override and reload
// @Tags State
// @Accept json
// @Produce json
// @Param payload body setupRequest true "Setup payload"
// @Success 200 {object} response.Envelope
// @Router /setup [post]
func (h *StateHandler) Setup(c *gin.Context) {
	var req setupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid setup payload"))
		return
	}
	url := strings.TrimSpace(req.DatabaseURL)
	if url == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "databaseUrl is required"))
		return
	}
	if h.attach == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "runtime setup is not supported"))
		return
	}
	if err := h.attach(c.Request.Context(), url); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrConnection.Code, appErrors.ErrConnection.Status, "could not connect with the provided URL"))
		return
	}
	h.state.ClearSetupRequired()
	if err := h.state.Load(c.Request.Context()); err != nil {
		response.Error(c, err)
		return
	}
	phase, _ := h.state.Phase()
	response.JSON(c, http.StatusOK, gin.H{"phase": phase})
}
