package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/direct-system/labdesk-api/internal/service"
	appErrors "github.com/direct-system/labdesk-api/pkg/errors"
	"github.com/direct-system/labdesk-api/pkg/response"
)

type consoleService interface {
	Enabled() bool
	Execute(ctx context.Context, stmt string) (*service.ConsoleResult, error)
}

type consoleRequest struct {
	Statement string `json:"statement" binding:"required"`
}

// ConsoleHandler exposes the gated administrative SQL console.
type ConsoleHandler struct {
	console consoleService
}

// NewConsoleHandler constructs a new ConsoleHandler.
func NewConsoleHandler(console consoleService) *ConsoleHandler {
	return &ConsoleHandler{console: console}
}

// Execute godoc
// @Summary Run one SQL statement verbatim
// @Tags Console
// @Accept json
// @Produce json
// @Param payload body consoleRequest true "Statement payload"
// @Success 200 {object} response.Envelope
// @Router /console [post]
func (h *ConsoleHandler) Execute(c *gin.Context) {
	var req consoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "statement is required"))
		return
	}
	result, err := h.console.Execute(c.Request.Context(), req.Statement)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result)
}
