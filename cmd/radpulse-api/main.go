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
	"github.com/redis/go-redis/v9"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/radpulse/radpulse-api/api/swagger"
	"github.com/radpulse/radpulse-api/internal/handler"
	"github.com/radpulse/radpulse-api/internal/middleware"
	"github.com/radpulse/radpulse-api/internal/models"
	"github.com/radpulse/radpulse-api/internal/repository"
	"github.com/radpulse/radpulse-api/internal/service"
	"github.com/radpulse/radpulse-api/internal/tat"
	"github.com/radpulse/radpulse-api/pkg/cache"
	"github.com/radpulse/radpulse-api/pkg/config"
	"github.com/radpulse/radpulse-api/pkg/database"
	"github.com/radpulse/radpulse-api/pkg/export"
	"github.com/radpulse/radpulse-api/pkg/jobs"
	"github.com/radpulse/radpulse-api/pkg/logger"
	corsmiddleware "github.com/radpulse/radpulse-api/pkg/middleware/cors"
	reqidmiddleware "github.com/radpulse/radpulse-api/pkg/middleware/requestid"
	"github.com/radpulse/radpulse-api/pkg/storage"
)

// @title RadPulse API
// @version 1.0.0
// @description Radiology study workflow and turnaround-time reporting
// @BasePath /api/v1
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

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
		logr.Sugar().Fatalw("database unavailable", "error", err)
	}
	defer db.Close()

	// Redis is optional. Without it the projection cache degrades to
	// pass-through and everything else keeps working.
	var redisClient *redis.Client
	if client, err := cache.NewRedis(cfg.Redis); err != nil {
		logr.Sugar().Warnw("redis unavailable, cache disabled", "error", err)
	} else {
		redisClient = client
		defer redisClient.Close()
	}

	blob, err := storage.NewMinioStore(cfg.Storage)
	if err != nil {
		logr.Sugar().Fatalw("object store unavailable", "error", err)
	}
	bucketCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	if err := blob.EnsureBucket(bucketCtx); err != nil {
		cancel()
		logr.Sugar().Fatalw("report bucket unavailable", "error", err)
	}
	cancel()

	queue := jobs.NewQueue(cfg.Cleanup.Workers, cfg.Cleanup.MaxRetries, cfg.Cleanup.RetryDelay, logr)
	queue.Start(ctx)
	defer queue.Stop()

	userRepo := repository.NewUserRepository(db)
	studyRepo := repository.NewStudyRepository(db)
	worklistRepo := repository.NewWorklistRepository(db)
	doctorRepo := repository.NewDoctorRepository(db)
	patientRepo := repository.NewPatientRepository(db)
	labRepo := repository.NewLabRepository(db)
	documentRepo := repository.NewDocumentRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient, logr)

	metrics := service.NewMetricsService()

	// Refresh the overdue backlog gauge once a minute.
	go func() {
		ticker := time.NewTicker(time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				countCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
				n, err := worklistRepo.OverdueCount(countCtx)
				cancel()
				if err != nil {
					logr.Sugar().Warnw("overdue gauge refresh failed", "error", err)
					continue
				}
				metrics.SetOverdueStudies(n)
			}
		}
	}()
	cacheSvc := service.NewCacheService(cacheRepo, cfg.Cache, metrics, logr)
	calc := tat.New()
	csvExp := export.NewCSVExporter()
	pdfExp := export.NewPDFExporter()
	signer := storage.NewTokenSigner(cfg.Share.Secret)

	authSvc := service.NewAuthService(userRepo, cfg.JWT, logr)
	workflowSvc := service.NewWorkflowService(studyRepo, studyRepo, studyRepo, calc, cacheSvc, metrics, logr)
	assignmentSvc := service.NewAssignmentService(studyRepo, doctorRepo, calc, cacheSvc, metrics, cfg.Assignment, logr)
	projectionSvc := service.NewProjectionService(worklistRepo, cacheSvc, metrics, csvExp, pdfExp, cfg.Worklist, logr)
	documentSvc := service.NewDocumentService(documentRepo, studyRepo, blob, workflowSvc, signer, queue, cfg.Share, logr)
	directorySvc := service.NewDirectoryService(labRepo, doctorRepo, patientRepo, logr)

	authH := handler.NewAuthHandler(authSvc)
	studyH := handler.NewStudyHandler(workflowSvc, assignmentSvc, cfg.Assignment)
	worklistH := handler.NewWorklistHandler(projectionSvc)
	tatH := handler.NewTATHandler(projectionSvc, csvExp, pdfExp)
	documentH := handler.NewDocumentHandler(documentSvc)
	directoryH := handler.NewDirectoryHandler(directorySvc)

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
		checkCtx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		if err := db.PingContext(checkCtx); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "database": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	r.GET("/metrics", gin.WrapH(metrics.Handler()))

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	api.POST("/auth/login", authH.Login)
	api.GET("/share/:token", documentH.Resolve)

	authed := api.Group("", middleware.JWT(authSvc))
	{
		staff := authed.Group("", middleware.RequireRoles(models.RoleAdmin, models.RoleLabStaff))
		staff.POST("/studies", studyH.Create)
		staff.POST("/studies/:id/assign", studyH.Assign)
		staff.POST("/studies/:id/unassign", studyH.Unassign)
		staff.DELETE("/documents/:id", documentH.Delete)
		staff.POST("/documents/:id/share", documentH.Share)
		staff.GET("/labs", directoryH.Labs)
		staff.GET("/doctors", directoryH.Doctors)
		staff.GET("/patients/:id", directoryH.Patient)

		authed.GET("/auth/me", authH.Me)
		authed.GET("/studies/:id", studyH.Get)
		authed.GET("/studies/:id/status-history", studyH.StatusHistory)
		authed.POST("/studies/:id/transition", studyH.Transition)
		authed.GET("/studies/:id/documents", documentH.List)
		authed.POST("/studies/:id/documents", documentH.Upload)
		authed.POST("/studies/:id/download", documentH.DownloadReport)
		authed.GET("/documents/:id/download", documentH.Download)

		authed.GET("/worklist", worklistH.List)
		authed.GET("/worklist/summary", worklistH.Summary)
		authed.GET("/reports/tat", tatH.Report)
		authed.GET("/reports/tat/export", tatH.Export)
	}

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
	logr.Sugar().Infow("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Sugar().Errorw("shutdown failed", "error", err)
	}
}
