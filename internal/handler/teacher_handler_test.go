package handler

import (
	"bytes"
	"context"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/direct-system/labdesk-api/internal/models"
	"github.com/direct-system/labdesk-api/internal/service"
	appErrors "github.com/direct-system/labdesk-api/pkg/errors"
)

type fakeTeacherState struct {
	snap      models.Snapshot
	created   *models.Teacher
	createErr error
	deleteErr error

	deletes []struct {
		id        string
		confirmed bool
	}
}

func (f *fakeTeacherState) Snapshot() models.Snapshot { return f.snap }

func (f *fakeTeacherState) CreateTeacher(ctx context.Context, req service.CreateTeacherRequest) (*models.Teacher, error) {
	return f.created, f.createErr
}

func (f *fakeTeacherState) DeleteTeacher(ctx context.Context, id string, confirmed bool) error {
	f.deletes = append(f.deletes, struct {
		id        string
		confirmed bool
	}{id, confirmed})
	if !confirmed {
		return appErrors.Clone(appErrors.ErrConfirmation, "teacher deletion requires confirmation")
	}
	return f.deleteErr
}

func buildTeacherRouter(state *fakeTeacherState) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	h := NewTeacherHandler(state)
	router.GET("/teachers", h.List)
	router.POST("/teachers", h.Create)
	router.DELETE("/teachers/:id", h.Delete)
	return router
}

func TestTeacherHandlerList(t *testing.T) {
	state := &fakeTeacherState{snap: models.Snapshot{Teachers: []models.Teacher{{ID: "t1", LastName: "Santos"}}}}
	router := buildTeacherRouter(state)

	req, _ := http.NewRequest(http.MethodGet, "/teachers", nil)
	resp := performRequest(router, req)
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Contains(t, resp.Body.String(), `"Santos"`)
}

func TestTeacherHandlerCreateConflict(t *testing.T) {
	state := &fakeTeacherState{createErr: appErrors.Clone(appErrors.ErrConflict, "employee number already registered")}
	router := buildTeacherRouter(state)

	req, _ := http.NewRequest(http.MethodPost, "/teachers", bytes.NewBufferString(`{"firstName":"Maria","lastName":"Santos","empNo":"EMP-001"}`))
	req.Header.Set("Content-Type", "application/json")
	resp := performRequest(router, req)
	require.Equal(t, http.StatusConflict, resp.Code)
	assert.Contains(t, resp.Body.String(), appErrors.ErrConflict.Code)
}

func TestTeacherHandlerDeleteUnconfirmed(t *testing.T) {
	state := &fakeTeacherState{}
	router := buildTeacherRouter(state)

	req, _ := http.NewRequest(http.MethodDelete, "/teachers/t1", nil)
	resp := performRequest(router, req)
	require.Equal(t, http.StatusPreconditionFailed, resp.Code)
	assert.Contains(t, resp.Body.String(), appErrors.ErrConfirmation.Code)
	require.Len(t, state.deletes, 1)
	assert.False(t, state.deletes[0].confirmed)
}

func TestTeacherHandlerDeleteConfirmed(t *testing.T) {
	state := &fakeTeacherState{}
	router := buildTeacherRouter(state)

	req, _ := http.NewRequest(http.MethodDelete, "/teachers/t1?confirmed=true", nil)
	resp := performRequest(router, req)
	require.Equal(t, http.StatusNoContent, resp.Code)
	require.Len(t, state.deletes, 1)
	assert.True(t, state.deletes[0].confirmed)
	assert.Equal(t, "t1", state.deletes[0].id)
}
