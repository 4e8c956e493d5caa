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

type teacherState interface {
	Snapshot() models.Snapshot
	CreateTeacher(ctx context.Context, req service.CreateTeacherRequest) (*models.Teacher, error)
	DeleteTeacher(ctx context.Context, id string, confirmed bool) error
}

// TeacherHandler wires faculty record operations to HTTP routes.
type TeacherHandler struct {
	state teacherState
}

// NewTeacherHandler constructs a new TeacherHandler.
func NewTeacherHandler(state teacherState) *TeacherHandler {
	return &TeacherHandler{state: state}
}

// List godoc
// @Summary List teachers
// @Tags Teachers
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /teachers [get]
func (h *TeacherHandler) List(c *gin.Context) {
	snap := h.state.Snapshot()
	response.JSON(c, http.StatusOK, snap.Teachers)
}

// Create godoc
// @Summary Register a teacher
// @Tags Teachers
// @Accept json
// @Produce json
// @Param payload body service.CreateTeacherRequest true "Teacher payload"
// @Success 201 {object} response.Envelope
// @Router /teachers [post]
func (h *TeacherHandler) Create(c *gin.Context) {
	var req service.CreateTeacherRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid teacher payload"))
		return
	}
	teacher, err := h.state.CreateTeacher(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, teacher)
}

// Delete godoc
// @Summary Delete a teacher
// @Tags Teachers
// @Produce json
// @Param id path string true "Teacher ID"
// @Param confirmed query bool true "Confirmation flag"
// @Success 204
// @Router /teachers/{id} [delete]
func (h *TeacherHandler) Delete(c *gin.Context) {
	confirmed := c.Query("confirmed") == "true"
	if err := h.state.DeleteTeacher(c.Request.Context(), c.Param("id"), confirmed); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
