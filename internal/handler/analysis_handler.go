package handler

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/direct-system/labdesk-api/internal/models"
	"github.com/direct-system/labdesk-api/internal/service"
	appErrors "github.com/direct-system/labdesk-api/pkg/errors"
	"github.com/direct-system/labdesk-api/pkg/response"
)

type analysisState interface {
	Snapshot() models.Snapshot
	CreateAnalysis(ctx context.Context, req service.CreateAnalysisRequest) (*models.ItemAnalysis, error)
}

type analysisExporter interface {
	Get(ctx context.Context, id string) (*models.ItemAnalysis, error)
	Simulate(ctx context.Context, req service.SimulateAnalysisRequest) (*models.ItemAnalysis, error)
	Export(ctx context.Context, id, format string) (*service.ExportResult, error)
	ParseToken(token string, allowExpired bool) (analysisID, relPath string, expiresAt time.Time, err error)
	Open(relPath string) (*os.File, error)
}

type exportRequest struct {
	Format string `json:"format" binding:"required,oneof=csv pdf"`
}

// AnalysisHandler wires item-analysis report operations to HTTP routes.
type AnalysisHandler struct {
	state    analysisState
	analyses analysisExporter
}

// NewAnalysisHandler constructs a new AnalysisHandler.
func NewAnalysisHandler(state analysisState, analyses analysisExporter) *AnalysisHandler {
	return &AnalysisHandler{state: state, analyses: analyses}
}

// List godoc
// @Summary List item-analysis reports
// @Tags Analyses
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /analyses [get]
func (h *AnalysisHandler) List(c *gin.Context) {
	snap := h.state.Snapshot()
	response.JSON(c, http.StatusOK, snap.Analyses)
}

// Get godoc
// @Summary Fetch one item-analysis report
// @Tags Analyses
// @Produce json
// @Param id path string true "Analysis ID"
// @Success 200 {object} response.Envelope
// @Router /analyses/{id} [get]
func (h *AnalysisHandler) Get(c *gin.Context) {
	analysis, err := h.analyses.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, analysis)
}

// Create godoc
// @Summary File an item-analysis report
// @Tags Analyses
// @Accept json
// @Produce json
// @Param payload body service.CreateAnalysisRequest true "Analysis payload"
// @Success 201 {object} response.Envelope
// @Router /analyses [post]
func (h *AnalysisHandler) Create(c *gin.Context) {
	var req service.CreateAnalysisRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid analysis payload"))
		return
	}
	analysis, err := h.state.CreateAnalysis(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, analysis)
}

// Simulate godoc
// @Summary File a report with randomized results
// @Tags Analyses
// @Accept json
// @Produce json
// @Param payload body service.SimulateAnalysisRequest true "Simulation payload"
// @Success 201 {object} response.Envelope
// @Router /analyses/simulate [post]
func (h *AnalysisHandler) Simulate(c *gin.Context) {
	var req service.SimulateAnalysisRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid simulation payload"))
		return
	}
	analysis, err := h.analyses.Simulate(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, analysis)
}

// Export godoc
// @Summary Render a report export and return its signed download URL
// @Tags Analyses
// @Accept json
// @Produce json
// @Param id path string true "Analysis ID"
// @Param payload body exportRequest true "Export payload"
// @Success 200 {object} response.Envelope
// @Router /analyses/{id}/export [post]
func (h *AnalysisHandler) Export(c *gin.Context) {
	var req exportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid export payload"))
		return
	}
	result, err := h.analyses.Export(c.Request.Context(), c.Param("id"), req.Format)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result)
}

// Download godoc
// @Summary Download a rendered export by signed token
// @Tags Analyses
// @Produce octet-stream
// @Param token path string true "Signed token"
// @Success 200
// @Router /analyses/export/{token} [get]
func (h *AnalysisHandler) Download(c *gin.Context) {
	_, relPath, _, err := h.analyses.ParseToken(c.Param("token"), false)
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrNotFound, "export link is invalid or expired"))
		return
	}
	file, err := h.analyses.Open(relPath)
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrNotFound, "export file no longer available"))
		return
	}
	defer file.Close() //nolint:errcheck

	info, err := file.Stat()
	if err != nil {
		response.Error(c, appErrors.FromError(err))
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filepath.Base(relPath)))
	c.DataFromReader(http.StatusOK, info.Size(), "application/octet-stream", file, nil)
}
