package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/noah-isme/school-attendance-api/api/swagger"
	"github.com/noah-isme/school-attendance-api/internal/handler"
	"github.com/noah-isme/school-attendance-api/internal/middleware"
	"github.com/noah-isme/school-attendance-api/internal/repository"
	"github.com/noah-isme/school-attendance-api/internal/service"
	"github.com/noah-isme/school-attendance-api/pkg/cache"
	"github.com/noah-isme/school-attendance-api/pkg/config"
	"github.com/noah-isme/school-attendance-api/pkg/database"
	"github.com/noah-isme/school-attendance-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/school-attendance-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/school-attendance-api/pkg/middleware/requestid"
)

const cacheKeyPrefix = "attendance:"

// @title School Attendance API
// @version 1.0.0
// @description Daily class attendance, dashboard statistics and report snapshots.
// @BasePath /api
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

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Fatal("failed to connect database", zap.String("driver", cfg.Database.Driver), zap.Error(err))
	}
	defer db.Close()

	if cfg.Database.AutoMigrate {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		err := database.NewMigrator(db, logr).Up(ctx)
		cancel()
		if err != nil {
			logr.Fatal("failed to migrate database", zap.Error(err))
		}
	}

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Warn("redis unavailable, stats cache disabled", zap.Error(err))
		redisClient = nil
	}
	cacheRepo := repository.NewCacheRepository(redisClient, cacheKeyPrefix, logr)
	defer cacheRepo.Close() //nolint:errcheck

	metrics := service.NewMetricsService()
	validate := validator.New()

	cacheSvc := service.NewCacheService(cacheRepo, metrics, cfg.Stats.CacheTTL, logr, cfg.Stats.CacheEnabled && cacheRepo.Enabled())

	attendanceRepo := repository.NewAttendanceRepository(db)
	classRepo := repository.NewClassRepository(db)
	reportRepo := repository.NewReportRepository(db)

	attendanceSvc := service.NewAttendanceService(attendanceRepo, cacheSvc, metrics, validate, logr)
	classSvc := service.NewClassService(classRepo, validate, logr)
	statsSvc := service.NewStatsService(service.StatsServiceParams{
		Repo:    attendanceRepo,
		Cache:   cacheSvc,
		Metrics: metrics,
		Logger:  logr,
		Config:  service.StatsServiceConfig{CacheTTL: cfg.Stats.CacheTTL, Location: cfg.Stats.Location()},
	})
	reportSvc := service.NewReportService(service.ReportServiceParams{
		Repo:       reportRepo,
		Attendance: attendanceRepo,
		Classes:    classSvc,
		Exporter:   service.NewExportService(service.ExportConfig{Title: cfg.Reports.ExportTitle}, logr),
		Metrics:    metrics,
		Validator:  validate,
		Logger:     logr,
		Config:     service.ReportServiceConfig{DefaultGeneratedBy: cfg.Reports.DefaultGeneratedBy},
	})

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metrics))
	r.Use(middleware.WithResponseMeta())

	checks := map[string]handler.Pinger{"database": db}
	if cacheRepo.Enabled() {
		checks["redis"] = handler.PingerFunc(cacheRepo.Ping)
	}
	handler.NewMetricsHandler(metrics, checks).Register(r)

	api := r.Group(cfg.APIPrefix)
	handler.NewAttendanceHandler(attendanceSvc, statsSvc).Register(api)
	handler.NewReportHandler(reportSvc).Register(api)
	handler.NewClassHandler(classSvc).Register(api)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logr.Info("server starting", zap.String("addr", srv.Addr), zap.String("env", cfg.Env))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Fatal("server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logr.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logr.Error("server forced shutdown", zap.Error(err))
	}
}
