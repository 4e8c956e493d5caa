package handler

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/direct-system/labdesk-api/internal/models"
	appErrors "github.com/direct-system/labdesk-api/pkg/errors"
)

type fakeStateController struct {
	snap    *models.Snapshot
	phase   models.Phase
	lastErr error
	loadErr error

	loads   int
	cleared bool
}

func (f *fakeStateController) Bootstrap(ctx context.Context) (*models.Snapshot, models.Phase, error) {
	return f.snap, f.phase, f.lastErr
}

func (f *fakeStateController) Phase() (models.Phase, error) { return f.phase, f.lastErr }

func (f *fakeStateController) Notifications() []models.Notification {
	if f.snap == nil {
		return nil
	}
	return f.snap.Notifications
}

func (f *fakeStateController) Load(ctx context.Context) error {
	f.loads++
	if f.loadErr != nil {
		return f.loadErr
	}
	f.phase = models.PhaseReady
	f.lastErr = nil
	return nil
}

func (f *fakeStateController) ClearSetupRequired() {
	f.cleared = true
	f.phase = models.PhaseLoading
	f.lastErr = nil
}

type fakeMetricsSnapshotter struct{}

func (fakeMetricsSnapshotter) Snapshot() models.SystemMetrics {
	return models.SystemMetrics{RequestsTotal: 42, GeneratedAt: time.Now()}
}

func buildStateRouter(state *fakeStateController, attach func(ctx context.Context, url string) error) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	h := NewStateHandler(state, fakeMetricsSnapshotter{}, attach)
	router.GET("/bootstrap", h.Bootstrap)
	router.GET("/status", h.Status)
	router.GET("/notifications", h.Notifications)
	router.POST("/state/refresh", h.Refresh)
	router.POST("/setup", h.Setup)
	return router
}

func TestStateHandlerBootstrapReady(t *testing.T) {
	state := &fakeStateController{
		phase: models.PhaseReady,
		snap:  &models.Snapshot{Teachers: []models.Teacher{{ID: "t1", LastName: "Santos"}}},
	}
	router := buildStateRouter(state, nil)

	req, _ := http.NewRequest(http.MethodGet, "/bootstrap", nil)
	resp := performRequest(router, req)
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Contains(t, resp.Body.String(), `"Santos"`)
	assert.Contains(t, resp.Body.String(), `"phase":"ready"`)
}

func TestStateHandlerBootstrapSetupRequired(t *testing.T) {
	state := &fakeStateController{
		phase:   models.PhaseSetupRequired,
		lastErr: appErrors.ErrSetupRequired,
	}
	router := buildStateRouter(state, nil)

	req, _ := http.NewRequest(http.MethodGet, "/bootstrap", nil)
	resp := performRequest(router, req)
	require.Equal(t, http.StatusServiceUnavailable, resp.Code)
	assert.Contains(t, resp.Body.String(), appErrors.ErrSetupRequired.Code)
	assert.Contains(t, resp.Body.String(), `"phase":"setup_required"`)
}

func TestStateHandlerStatusIncludesMetrics(t *testing.T) {
	state := &fakeStateController{phase: models.PhaseReady}
	router := buildStateRouter(state, nil)

	req, _ := http.NewRequest(http.MethodGet, "/status", nil)
	resp := performRequest(router, req)
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Contains(t, resp.Body.String(), `"requestsTotal":42`)
}

func TestStateHandlerRefresh(t *testing.T) {
	state := &fakeStateController{phase: models.PhaseFailed, lastErr: errors.New("boom")}
	router := buildStateRouter(state, nil)

	req, _ := http.NewRequest(http.MethodPost, "/state/refresh", nil)
	resp := performRequest(router, req)
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, 1, state.loads)
	assert.Contains(t, resp.Body.String(), `"phase":"ready"`)
}

func TestStateHandlerSetup(t *testing.T) {
	state := &fakeStateController{phase: models.PhaseSetupRequired, lastErr: appErrors.ErrSetupRequired}
	var attachedURL string
	router := buildStateRouter(state, func(ctx context.Context, url string) error {
		attachedURL = url
		return nil
	})

	req, _ := http.NewRequest(http.MethodPost, "/setup", bytes.NewBufferString(`{"databaseUrl":"postgres://labdesk:secret@db:5432/labdesk"}`))
	req.Header.Set("Content-Type", "application/json")
	resp := performRequest(router, req)
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, "postgres://labdesk:secret@db:5432/labdesk", attachedURL)
	assert.True(t, state.cleared)
	assert.Equal(t, 1, state.loads)
	assert.Contains(t, resp.Body.String(), `"phase":"ready"`)
}

func TestStateHandlerSetupConnectFailure(t *testing.T) {
	state := &fakeStateController{phase: models.PhaseSetupRequired, lastErr: appErrors.ErrSetupRequired}
	router := buildStateRouter(state, func(ctx context.Context, url string) error {
		return errors.New("dial tcp: connection refused")
	})

	req, _ := http.NewRequest(http.MethodPost, "/setup", bytes.NewBufferString(`{"databaseUrl":"postgres://bad"}`))
	req.Header.Set("Content-Type", "application/json")
	resp := performRequest(router, req)
	require.Equal(t, http.StatusServiceUnavailable, resp.Code)
	assert.Contains(t, resp.Body.String(), appErrors.ErrConnection.Code)
	assert.False(t, state.cleared)
	assert.Equal(t, 0, state.loads)
}

func TestStateHandlerSetupMissingURL(t *testing.T) {
	state := &fakeStateController{phase: models.PhaseSetupRequired}
	router := buildStateRouter(state, func(ctx context.Context, url string) error { return nil })

	req, _ := http.NewRequest(http.MethodPost, "/setup", bytes.NewBufferString(`{}`))
	req.Header.Set("Content-Type", "application/json")
	resp := performRequest(router, req)
	require.Equal(t, http.StatusBadRequest, resp.Code)
}

func TestStateHandlerNotifications(t *testing.T) {
	state := &fakeStateController{
		phase: models.PhaseReady,
		snap: &models.Snapshot{Notifications: []models.Notification{
			{ID: "exp-c1", Type: models.NotificationExpiry, Message: "Ethanol is expiring in 5 days.", Severity: models.SeverityHigh},
		}},
	}
	router := buildStateRouter(state, nil)

	req, _ := http.NewRequest(http.MethodGet, "/notifications", nil)
	resp := performRequest(router, req)
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Contains(t, resp.Body.String(), "Ethanol is expiring in 5 days.")
}
