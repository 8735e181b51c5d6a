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
	"github.com/redis/go-redis/v9"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/noah-isme/study-portal/api/swagger"
	"github.com/noah-isme/study-portal/internal/handler"
	internalmiddleware "github.com/noah-isme/study-portal/internal/middleware"
	"github.com/noah-isme/study-portal/internal/repository"
	"github.com/noah-isme/study-portal/internal/service"
	"github.com/noah-isme/study-portal/internal/view"
	"github.com/noah-isme/study-portal/pkg/cache"
	"github.com/noah-isme/study-portal/pkg/config"
	"github.com/noah-isme/study-portal/pkg/logger"
	corsmiddleware "github.com/noah-isme/study-portal/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/study-portal/pkg/middleware/requestid"
)

// @title Study Materials Portal API
// @version 1.0.0
// @description Catalog, upload and review endpoints backed by interchangeable materials API deployments
// @BasePath /api/v1
// @schemes http https

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

	ctx := context.Background()

	var redisClient *redis.Client
	if cfg.Health.CacheEnabled {
		redisClient, err = cache.NewRedis(ctx, cfg.Redis)
		if err != nil {
			logr.Warn("redis unavailable, health cache disabled", zap.Error(err))
		}
	}
	cacheRepo := repository.NewCacheRepository(redisClient, logr)
	defer cacheRepo.Close() //nolint:errcheck

	metricsSvc := service.NewMetricsService()
	cacheSvc := service.NewCacheService(cacheRepo, metricsSvc, cfg.Health.CacheTTL, logr, redisClient != nil)

	upstream := repository.NewUpstreamClient(cfg.Upstream.BaseURLs, cfg.Upstream.AttemptTimeout, logr, metricsSvc)
	materials := repository.NewMaterialRepository(upstream, logr)

	catalogSvc := service.NewCatalogService(materials, cfg.Upstream.FileOrigin, cfg.Catalog, logr)
	statusSvc := service.NewStatusService(materials, cacheSvc, cfg.Health.CacheTTL, cfg.Upstream.FileOrigin, logr)
	uploadSvc := service.NewUploadService(materials, service.NewValidator(), cfg.Uploads.MaxFileSizeBytes, logr).
		WithHealthInvalidator(statusSvc)
	adminSvc := service.NewAdminService(materials, cfg.Upstream.FileOrigin, logr).WithHealthInvalidator(statusSvc)

	templates, err := view.Load()
	if err != nil {
		logr.Fatal("failed to parse templates", zap.Error(err))
	}

	materialHandler := handler.NewMaterialHandler(catalogSvc, uploadSvc)
	statusHandler := handler.NewStatusHandler(statusSvc)
	adminHandler := handler.NewAdminHandler(adminSvc)
	metricsHandler := handler.NewMetricsHandler(metricsSvc, upstream.Candidates())
	pageHandler := handler.NewPageHandler(templates, catalogSvc, uploadSvc, statusSvc, adminSvc, logr)

	uploadLimit := internalmiddleware.RateLimit(internalmiddleware.NewRateLimiter(cfg.Uploads.RatePerMinute))

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(internalmiddleware.Metrics(metricsSvc))

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", metricsHandler.Ready)
	r.GET("/metrics", metricsHandler.Prometheus)

	r.GET("/", pageHandler.Home)
	r.GET("/semester/:slug", pageHandler.Semester)
	r.GET("/semester/:slug/reset", pageHandler.SemesterReset)
	r.GET("/upload", pageHandler.UploadForm)
	r.POST("/upload", uploadLimit, pageHandler.UploadSubmit)
	r.GET("/uploads/status", pageHandler.UploadStatus)
	r.GET("/admin", pageHandler.Admin)
	r.GET("/admin/:action/:id", pageHandler.AdminConfirm)
	r.POST("/admin/:action/:id", pageHandler.AdminAction)

	api := r.Group(cfg.APIPrefix)
	api.GET("/materials", materialHandler.List)
	api.GET("/materials/export", materialHandler.Export)
	api.POST("/uploads", uploadLimit, materialHandler.Upload)
	api.GET("/user/uploads", statusHandler.UserUploads)
	api.GET("/user/status/:id", statusHandler.UploadStatus)
	api.GET("/upstream/health", statusHandler.UpstreamHealth)

	admin := api.Group("/admin")
	admin.GET("/materials", adminHandler.Dashboard)
	admin.PUT("/approve/:id", adminHandler.Approve)
	admin.DELETE("/delete/:id", adminHandler.Delete)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	r.NoRoute(pageHandler.NotFound)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		// uploads are buffered and replayed against several candidates
		WriteTimeout: time.Duration(len(cfg.Upstream.BaseURLs)+1) * cfg.Upstream.AttemptTimeout,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env, "candidates", upstream.Candidates())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logr.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Error("server forced to shutdown", zap.Error(err))
	}
	logr.Info("server exited")
}
