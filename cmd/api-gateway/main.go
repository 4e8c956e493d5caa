package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"

	"github.com/direct-system/labdesk-api/internal/classifier"
	"github.com/direct-system/labdesk-api/internal/handler"
	"github.com/direct-system/labdesk-api/internal/repository"
	"github.com/direct-system/labdesk-api/internal/service"
	"github.com/direct-system/labdesk-api/pkg/cache"
	"github.com/direct-system/labdesk-api/pkg/config"
	"github.com/direct-system/labdesk-api/pkg/database"
	"github.com/direct-system/labdesk-api/pkg/jobs"
	"github.com/direct-system/labdesk-api/pkg/logger"
	"github.com/direct-system/labdesk-api/pkg/storage"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	gw := repository.NewGateway(nil)
	setupRequired := true
	if url, ok := cfg.Database.ResolveDatabaseURL(); ok {
		db, err := database.NewPostgres(url, cfg.Database)
		if err != nil {
			logr.Sugar().Warnw("record store unreachable at startup", "error", err)
		} else {
			gw.Bind(db)
			setupRequired = false
		}
	} else {
		logr.Sugar().Warnw("no database configuration resolvable, starting in setup mode")
	}

	metrics := service.NewMetricsService()
	gw.SetObserver(metrics.ObserveDBQuery)

	validate := validator.New()

	teacherRepo := repository.NewTeacherRepository(gw)
	labRepo := repository.NewLaboratoryRepository(gw)
	toolRepo := repository.NewToolRepository(gw)
	consumableRepo := repository.NewConsumableRepository(gw)
	taskRepo := repository.NewTaskRepository(gw)
	analysisRepo := repository.NewAnalysisRepository(gw)

	teacherSvc := service.NewTeacherService(teacherRepo, validate, logr)
	labSvc := service.NewLaboratoryService(labRepo, validate, logr)
	inventorySvc := service.NewInventoryService(toolRepo, consumableRepo, validate, logr)
	taskSvc := service.NewTaskService(taskRepo, validate, logr)

	exportStore, err := storage.NewLocalStorage(cfg.Exports.StorageDir)
	if err != nil {
		logr.Sugar().Fatalw("failed to prepare exports dir", "error", err)
	}
	signer := storage.NewSignedURLSigner(cfg.Exports.SignedURLSecret, cfg.Exports.SignedURLTTL)
	analysisSvc := service.NewAnalysisService(analysisRepo, exportStore, signer, service.AnalysisExportConfig{
		APIPrefix: cfg.APIPrefix,
		ResultTTL: cfg.Exports.SignedURLTTL,
	}, validate, logr)

	var cl classifier.Client
	if cfg.Classifier.Enabled {
		cl = classifier.New(cfg.Classifier, logr)
	}
	alertSvc := service.NewAlertService(cl, logr)

	var cacheSvc *service.CacheService
	if cfg.Snapshot.CacheEnabled {
		redisClient, err := cache.NewRedis(cfg.Redis)
		if err != nil {
			logr.Sugar().Warnw("redis unavailable, snapshot cache disabled", "error", err)
		} else {
			cacheRepo := repository.NewCacheRepository(redisClient, logr)
			cacheSvc = service.NewCacheService(cacheRepo, metrics, cfg.Snapshot.CacheTTL, logr, true)
			defer cacheRepo.Close() //nolint:errcheck
		}
	}

	queue := jobs.NewQueue("sync", jobs.QueueConfig{
		Workers:    cfg.Sync.Workers,
		BufferSize: cfg.Sync.BufferSize,
		MaxRetries: cfg.Sync.MaxRetries,
		RetryDelay: cfg.Sync.RetryDelay,
		Logger:     logr,
	})
	queue.Start(ctx)
	defer queue.Stop()

	state := service.NewStateService(teacherSvc, labSvc, inventorySvc, taskSvc, analysisSvc, alertSvc, queue, cacheSvc, service.StateConfig{
		LoadTimeout: cfg.Snapshot.LoadTimeout,
		CacheTTL:    cfg.Snapshot.CacheTTL,
	}, logr)
	state.SetMetrics(metrics)

	if setupRequired {
		state.MarkSetupRequired()
	} else {
		go func() {
			if err := state.Load(ctx); err != nil {
				logr.Sugar().Warnw("initial snapshot load failed", "error", err)
			}
		}()
	}

	consoleSvc := service.NewConsoleService(gw, cfg.Console.Enabled, logr)

	attach := func(ctx context.Context, url string) error {
		db, err := database.NewPostgres(url, cfg.Database)
		if err != nil {
			return err
		}
		if err := cfg.Database.SaveOverride(url); err != nil {
			closeQuietly(db)
			return err
		}
		gw.Bind(db)
		return nil
	}

	r := handler.NewRouter(cfg, logr, state, analysisSvc, consoleSvc, metrics, attach)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env, "setup_required", setupRequired)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Sugar().Warnw("graceful shutdown failed", "error", err)
	}
	logr.Sugar().Infow("server stopped")
}

func closeQuietly(db *sqlx.DB) {
	_ = db.Close()
}
