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

type taskState interface {
	Snapshot() models.Snapshot
	CreateTask(ctx context.Context, req service.CreateTaskRequest) (*models.Task, error)
	ToggleTask(ctx context.Context, id string) (*models.Task, error)
}

// TaskHandler wires administrative task operations to HTTP routes.
type TaskHandler struct {
	state taskState
}

// NewTaskHandler constructs a new TaskHandler.
func NewTaskHandler(state taskState) *TaskHandler {
	return &TaskHandler{state: state}
}

// List godoc
// @Summary List tasks
// @Tags Tasks
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /tasks [get]
func (h *TaskHandler) List(c *gin.Context) {
	snap := h.state.Snapshot()
	response.JSON(c, http.StatusOK, snap.Tasks)
}

// Create godoc
// @Summary File a task
// @Tags Tasks
// @Accept json
// @Produce json
// @Param payload body service.CreateTaskRequest true "Task payload"
// @Success 201 {object} response.Envelope
// @Router /tasks [post]
func (h *TaskHandler) Create(c *gin.Context) {
	var req service.CreateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid task payload"))
		return
	}
	task, err := h.state.CreateTask(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, task)
}

// Toggle godoc
// @Summary Toggle a task between Pending and Done
// @Tags Tasks
// @Produce json
// @Param id path string true "Task ID"
// @Success 200 {object} response.Envelope
// @Router /tasks/{id}/toggle [patch]
func (h *TaskHandler) Toggle(c *gin.Context) {
	task, err := h.state.ToggleTask(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, task)
}
