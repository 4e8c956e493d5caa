package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/direct-system/labdesk-api/internal/models"
	"github.com/direct-system/labdesk-api/internal/service"
	appErrors "github.com/direct-system/labdesk-api/pkg/errors"
	"github.com/direct-system/labdesk-api/pkg/response"
)

type laboratoryState interface {
	Snapshot() models.Snapshot
	CreateLaboratory(ctx context.Context, req service.CreateLaboratoryRequest) (*models.Laboratory, error)
	DeleteLaboratory(ctx context.Context, id string, confirmed bool) error
}

// LaboratoryHandler wires lab room operations to HTTP routes.
type LaboratoryHandler struct {
	state laboratoryState
}

// NewLaboratoryHandler constructs a new LaboratoryHandler.
func NewLaboratoryHandler(state laboratoryState) *LaboratoryHandler {
	return &LaboratoryHandler{state: state}
}

// List godoc
// @Summary List laboratories
// @Tags Laboratories
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /laboratories [get]
func (h *LaboratoryHandler) List(c *gin.Context) {
	snap := h.state.Snapshot()
	response.JSON(c, http.StatusOK, snap.Laboratories)
}

// Create godoc
// @Summary Register a laboratory
// @Tags Laboratories
// @Accept json
// @Produce json
// @Param payload body service.CreateLaboratoryRequest true "Laboratory payload"
// @Success 201 {object} response.Envelope
// @Router /laboratories [post]
func (h *LaboratoryHandler) Create(c *gin.Context) {
	var req service.CreateLaboratoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid laboratory payload"))
		return
	}
	lab, err := h.state.CreateLaboratory(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, lab)
}

// Delete godoc
// @Summary Delete a laboratory
// @Tags Laboratories
// @Produce json
// @Param id path string true "Laboratory ID"
// @Param confirmed query bool true "Confirmation flag"
// @Success 204
// @Router /laboratories/{id} [delete]
func (h *LaboratoryHandler) Delete(c *gin.Context) {
	confirmed := c.Query("confirmed") == "true"
	if err := h.state.DeleteLaboratory(c.Request.Context(), c.Param("id"), confirmed); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
