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

type inventoryState interface {
	Snapshot() models.Snapshot
	CreateTool(ctx context.Context, req service.CreateToolRequest) (*models.ToolItem, error)
	SetToolCondition(ctx context.Context, id, condition string, borrower *string) (*models.ToolItem, error)
	CreateConsumable(ctx context.Context, req service.CreateConsumableRequest) (*models.LabConsumable, error)
	AdjustConsumableQuantity(ctx context.Context, id string, delta int) (*models.LabConsumable, error)
}

type toolConditionRequest struct {
	Condition string  `json:"condition" binding:"required"`
	Borrower  *string `json:"borrower"`
}

type quantityAdjustRequest struct {
	Delta int `json:"delta" binding:"required"`
}

// InventoryHandler wires tool and consumable operations to HTTP routes.
type InventoryHandler struct {
	state inventoryState
}

// NewInventoryHandler constructs a new InventoryHandler.
func NewInventoryHandler(state inventoryState) *InventoryHandler {
	return &InventoryHandler{state: state}
}

// ListTools godoc
// @Summary List tools
// @Tags Inventory
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /tools [get]
func (h *InventoryHandler) ListTools(c *gin.Context) {
	snap := h.state.Snapshot()
	response.JSON(c, http.StatusOK, snap.Tools)
}

// CreateTool godoc
// @Summary Register a tool
// @Tags Inventory
// @Accept json
// @Produce json
// @Param payload body service.CreateToolRequest true "Tool payload"
// @Success 201 {object} response.Envelope
// @Router /tools [post]
func (h *InventoryHandler) CreateTool(c *gin.Context) {
	var req service.CreateToolRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid tool payload"))
		return
	}
	tool, err := h.state.CreateTool(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, tool)
}

// UpdateToolCondition godoc
// @Summary Update tool condition and borrower
// @Tags Inventory
// @Accept json
// @Produce json
// @Param id path string true "Tool ID"
// @Param payload body toolConditionRequest true "Condition payload"
// @Success 200 {object} response.Envelope
// @Router /tools/{id}/condition [patch]
func (h *InventoryHandler) UpdateToolCondition(c *gin.Context) {
	var req toolConditionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid condition payload"))
		return
	}
	tool, err := h.state.SetToolCondition(c.Request.Context(), c.Param("id"), req.Condition, req.Borrower)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, tool)
}

// ListConsumables godoc
// @Summary List consumables
// @Tags Inventory
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /consumables [get]
func (h *InventoryHandler) ListConsumables(c *gin.Context) {
	snap := h.state.Snapshot()
	response.JSON(c, http.StatusOK, snap.Consumables)
}

// CreateConsumable godoc
// @Summary Register a consumable
// @Tags Inventory
// @Accept json
// @Produce json
// @Param payload body service.CreateConsumableRequest true "Consumable payload"
// @Success 201 {object} response.Envelope
// @Router /consumables [post]
func (h *InventoryHandler) CreateConsumable(c *gin.Context) {
	var req service.CreateConsumableRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid consumable payload"))
		return
	}
	consumable, err := h.state.CreateConsumable(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, consumable)
}

// AdjustConsumableQuantity godoc
// @Summary Adjust consumable quantity by a signed delta
// @Tags Inventory
// @Accept json
// @Produce json
// @Param id path string true "Consumable ID"
// @Param payload body quantityAdjustRequest true "Delta payload"
// @Success 200 {object} response.Envelope
// @Router /consumables/{id}/quantity [patch]
func (h *InventoryHandler) AdjustConsumableQuantity(c *gin.Context) {
	var req quantityAdjustRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid quantity payload"))
		return
	}
	consumable, err := h.state.AdjustConsumableQuantity(c.Request.Context(), c.Param("id"), req.Delta)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, consumable)
}
