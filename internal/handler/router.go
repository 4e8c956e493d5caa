package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/direct-system/labdesk-api/internal/middleware"
	"github.com/direct-system/labdesk-api/internal/service"
	"github.com/direct-system/labdesk-api/pkg/config"
	"github.com/direct-system/labdesk-api/pkg/logger"
	corsmiddleware "github.com/direct-system/labdesk-api/pkg/middleware/cors"
	reqidmiddleware "github.com/direct-system/labdesk-api/pkg/middleware/requestid"
)

// NewRouter assembles the gin engine with the full middleware chain and
// every route group. attach is the setup-flow store binder; nil disables
// runtime setup.
func NewRouter(cfg *config.Config, logr *zap.Logger, state *service.StateService, analyses *service.AnalysisService, console *service.ConsoleService, metrics *service.MetricsService, attach func(ctx context.Context, url string) error) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.WithResponseMeta())
	r.Use(middleware.Metrics(metrics))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/ready", func(c *gin.Context) {
		phase, _ := state.Phase()
		c.JSON(http.StatusOK, gin.H{"status": "ready", "phase": phase})
	})
	if metrics != nil {
		r.GET("/metrics", gin.WrapH(metrics.Handler()))
	}

	stateHandler := NewStateHandler(state, metrics, attach)
	teacherHandler := NewTeacherHandler(state)
	labHandler := NewLaboratoryHandler(state)
	inventoryHandler := NewInventoryHandler(state)
	taskHandler := NewTaskHandler(state)
	analysisHandler := NewAnalysisHandler(state, analyses)

	api := r.Group(cfg.APIPrefix)
	{
		api.GET("/bootstrap", stateHandler.Bootstrap)
		api.GET("/status", stateHandler.Status)
		api.GET("/notifications", stateHandler.Notifications)
		api.POST("/state/refresh", stateHandler.Refresh)
		api.POST("/setup", stateHandler.Setup)

		api.GET("/teachers", teacherHandler.List)
		api.POST("/teachers", teacherHandler.Create)
		api.DELETE("/teachers/:id", teacherHandler.Delete)

		api.GET("/laboratories", labHandler.List)
		api.POST("/laboratories", labHandler.Create)
		api.DELETE("/laboratories/:id", labHandler.Delete)

		api.GET("/tools", inventoryHandler.ListTools)
		api.POST("/tools", inventoryHandler.CreateTool)
		api.PATCH("/tools/:id/condition", inventoryHandler.UpdateToolCondition)

		api.GET("/consumables", inventoryHandler.ListConsumables)
		api.POST("/consumables", inventoryHandler.CreateConsumable)
		api.PATCH("/consumables/:id/quantity", inventoryHandler.AdjustConsumableQuantity)

		api.GET("/tasks", taskHandler.List)
		api.POST("/tasks", taskHandler.Create)
		api.PATCH("/tasks/:id/toggle", taskHandler.Toggle)

		api.GET("/analyses", analysisHandler.List)
		api.GET("/analyses/export/:token", analysisHandler.Download)
		api.GET("/analyses/:id", analysisHandler.Get)
		api.POST("/analyses", analysisHandler.Create)
		api.POST("/analyses/simulate", analysisHandler.Simulate)
		api.POST("/analyses/:id/export", analysisHandler.Export)

		if console != nil && console.Enabled() {
			api.POST("/console", NewConsoleHandler(console).Execute)
		}
	}

	return r
}
