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
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/deskinspect/deskinspect-api/api/swagger"
	"github.com/deskinspect/deskinspect-api/internal/handler"
	"github.com/deskinspect/deskinspect-api/internal/middleware"
	"github.com/deskinspect/deskinspect-api/internal/repository"
	"github.com/deskinspect/deskinspect-api/internal/service"
	"github.com/deskinspect/deskinspect-api/pkg/cache"
	"github.com/deskinspect/deskinspect-api/pkg/config"
	"github.com/deskinspect/deskinspect-api/pkg/database"
	"github.com/deskinspect/deskinspect-api/pkg/export"
	"github.com/deskinspect/deskinspect-api/pkg/jobs"
	"github.com/deskinspect/deskinspect-api/pkg/logger"
	"github.com/deskinspect/deskinspect-api/pkg/mailer"
	corsmiddleware "github.com/deskinspect/deskinspect-api/pkg/middleware/cors"
	reqidmiddleware "github.com/deskinspect/deskinspect-api/pkg/middleware/requestid"
	"github.com/deskinspect/deskinspect-api/pkg/storage"
)

// @title DeskInspect API
// @version 1.0.0
// @description Thesis submission, evaluation, and resubmission tracking backend
// @BasePath /api
// @schemes http

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

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect database", "error", err)
	}
	defer db.Close()

	metrics := service.NewMetricsService()

	var cacheSvc *service.CacheService
	if redisClient, err := cache.NewRedis(cfg.Redis); err != nil {
		logr.Sugar().Warnw("redis unavailable, caching disabled", "error", err)
		cacheSvc = service.NewCacheService(nil, metrics, cfg.Dashboard.CacheTTL, logr, false)
	} else {
		cacheRepo := repository.NewCacheRepository(redisClient, logr)
		defer cacheRepo.Close()
		cacheSvc = service.NewCacheService(cacheRepo, metrics, cfg.Dashboard.CacheTTL, logr, true)
	}

	userRepo := repository.NewUserRepository(db)
	thesisRepo := repository.NewThesisRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)
	eventRepo := repository.NewEventRepository(db)
	folderRepo := repository.NewFolderRepository(db)
	reportRepo := repository.NewReportRepository(db)
	dashboardRepo := repository.NewDashboardRepository(db)

	var outbound mailer.Mailer
	if cfg.Email.Enabled && cfg.Email.SendGridKey != "" {
		outbound = mailer.NewSendGridMailer(cfg.Email.SendGridKey, cfg.Email.FromName, cfg.Email.FromAddress)
	} else {
		outbound = mailer.NewConsoleMailer(logr)
	}

	dispatcher := service.NewEmailDispatcher(notificationRepo, userRepo, outbound, cfg.Email.ClientURL, logr)
	emailQueue := jobs.NewQueue("notifications", dispatcher.Handle, jobs.QueueConfig{
		Workers:    cfg.Notifications.Workers,
		BufferSize: cfg.Notifications.BufferSize,
		MaxRetries: cfg.Notifications.MaxRetries,
		RetryDelay: cfg.Notifications.RetryDelay,
		Logger:     logr,
	})

	notificationSvc := service.NewNotificationService(notificationRepo, emailQueue, logr)
	thesisSvc := service.NewThesisService(thesisRepo, userRepo, notificationSvc, logr)

	folders, err := storage.NewLocalFolders(cfg.Folders.StorageDir, cfg.Folders.BaseURL)
	if err != nil {
		logr.Sugar().Fatalw("failed to init folder storage", "error", err)
	}
	signer := storage.NewSignedURLSigner(cfg.Folders.SignedURLSecret, cfg.Folders.SignedURLTTL)

	var folderSvc *service.FolderService
	folderQueue := jobs.NewQueue("folders", func(ctx context.Context, job jobs.Job) error {
		return folderSvc.HandleProvisionJob(ctx, job)
	}, jobs.QueueConfig{Workers: 1, Logger: logr})
	folderSvc = service.NewFolderService(folderRepo, eventRepo, folders, signer, folderQueue, cfg.Folders.LeadTime, logr)

	eventSvc := service.NewEventService(eventRepo, userRepo, notificationSvc, folderSvc, logr)
	reportSvc := service.NewReportService(reportRepo, userRepo, thesisSvc, notificationSvc, export.NewPDFExporter(), logr)
	dashboardSvc := service.NewDashboardService(dashboardRepo, cacheSvc, export.NewCSVExporter(), cfg.Dashboard.CacheTTL, logr)

	authSvc := service.NewAuthService(userRepo, nil, logr, service.AuthConfig{
		AccessTokenSecret: cfg.JWT.Secret,
		AccessTokenExpiry: cfg.JWT.Expiration,
		Issuer:            cfg.JWT.Issuer,
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	emailQueue.Start(ctx)
	defer emailQueue.Stop()
	folderQueue.Start(ctx)
	defer folderQueue.Stop()

	if err := folderSvc.ResumePending(ctx); err != nil {
		logr.Sugar().Warnw("failed to resume folder schedules", "error", err)
	}

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metrics))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	r.GET("/ready", func(c *gin.Context) {
		if err := db.PingContext(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "database unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})

	r.GET("/metrics", gin.WrapH(metrics.Handler()))

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	handler.RegisterRoutes(r, cfg.APIPrefix, handler.Handlers{
		Auth:          handler.NewAuthHandler(authSvc),
		Thesis:        handler.NewThesisHandler(thesisSvc, metrics),
		Notifications: handler.NewNotificationHandler(notificationSvc),
		Events:        handler.NewEventHandler(eventSvc),
		Folders:       handler.NewFolderHandler(folderSvc, metrics),
		Reports:       handler.NewReportHandler(reportSvc),
		Dashboard:     handler.NewDashboardHandler(dashboardSvc),
	}, authSvc, cfg.Dashboard.Enabled)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Sugar().Errorw("graceful shutdown failed", "error", err)
	}
	logr.Sugar().Infow("server stopped")
}
