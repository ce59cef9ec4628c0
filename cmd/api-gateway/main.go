package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/Phuiluannn/FYPSchedulingSystem-sub001/api/swagger"
	"github.com/Phuiluannn/FYPSchedulingSystem-sub001/internal/handler"
	"github.com/Phuiluannn/FYPSchedulingSystem-sub001/internal/middleware"
	"github.com/Phuiluannn/FYPSchedulingSystem-sub001/internal/models"
	"github.com/Phuiluannn/FYPSchedulingSystem-sub001/internal/notify"
	"github.com/Phuiluannn/FYPSchedulingSystem-sub001/internal/repository"
	"github.com/Phuiluannn/FYPSchedulingSystem-sub001/internal/service"
	"github.com/Phuiluannn/FYPSchedulingSystem-sub001/pkg/cache"
	"github.com/Phuiluannn/FYPSchedulingSystem-sub001/pkg/config"
	"github.com/Phuiluannn/FYPSchedulingSystem-sub001/pkg/database"
	"github.com/Phuiluannn/FYPSchedulingSystem-sub001/pkg/logger"
	corsmiddleware "github.com/Phuiluannn/FYPSchedulingSystem-sub001/pkg/middleware/cors"
	reqidmiddleware "github.com/Phuiluannn/FYPSchedulingSystem-sub001/pkg/middleware/requestid"
	"github.com/Phuiluannn/FYPSchedulingSystem-sub001/pkg/storage"
)

// @title FYP Scheduling API
// @version 1.0.0
// @description Course timetabling engine: generation, conflicts, publishing, workload
// @BasePath /api/v1
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

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close() //nolint:errcheck

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Warnw("redis unavailable, caching and notifications disabled", "error", err)
		redisClient = nil
	}

	courseRepo := repository.NewCourseRepository(db)
	roomRepo := repository.NewRoomRepository(db)
	instructorRepo := repository.NewInstructorRepository(db)
	scheduleRepo := repository.NewScheduleRepository(db)
	conflictRepo := repository.NewConflictRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient, logr)

	var notifier service.Notifier = notify.NopNotifier{}
	if redisClient != nil {
		notifier = notify.NewRedisNotifier(redisClient, cfg.Notifier.Channel, logr)
	}

	files, err := storage.NewLocalStorage(cfg.Exports.StorageDir)
	if err != nil {
		logr.Sugar().Fatalw("failed to init export storage", "error", err)
	}
	signer := storage.NewSignedURLSigner(cfg.Exports.SignedURLSecret, cfg.Exports.SignedURLTTL)

	metricsSvc := service.NewMetricsService()
	generatorSvc := service.NewGeneratorService(courseRepo, roomRepo, nil, logr)
	scheduleSvc := service.NewScheduleService(scheduleRepo, courseRepo, roomRepo, instructorRepo, cacheRepo, nil, logr)
	conflictSvc := service.NewConflictService(conflictRepo, scheduleRepo, courseRepo, roomRepo, nil, logr)
	publishSvc := service.NewPublishService(scheduleRepo, notifier, cacheRepo, nil, logr)
	workloadSvc := service.NewWorkloadService(scheduleRepo, cacheRepo, metricsSvc, cfg.Workload.CacheTTL, logr)
	reportSvc := service.NewReportService(workloadSvc, scheduleRepo, files, signer, service.ReportQueueConfig{
		Workers:      cfg.Exports.WorkerConcurrency,
		MaxRetries:   cfg.Exports.WorkerRetries,
		DownloadPath: cfg.APIPrefix + "/exports/download",
	}, nil, logr)

	reportSvc.Start(context.Background())
	defer reportSvc.Stop()

	// Artifacts are useless once their download token lapses.
	go func() {
		ticker := time.NewTicker(time.Hour)
		defer ticker.Stop()
		for range ticker.C {
			removed, err := files.CleanupOlderThan(cfg.Exports.SignedURLTTL)
			if err != nil {
				logr.Warn("export cleanup failed", zap.Error(err))
				continue
			}
			if len(removed) > 0 {
				logr.Info("expired export artifacts removed", zap.Int("count", len(removed)))
			}
		}
	}()

	timetableHandler := handler.NewTimetableHandler(generatorSvc, scheduleSvc, publishSvc, conflictSvc, metricsSvc, cfg.Scheduler.AutoDetectOnSave)
	conflictHandler := handler.NewConflictHandler(conflictSvc, metricsSvc)
	workloadHandler := handler.NewWorkloadHandler(workloadSvc, reportSvc)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	r.GET("/ready", func(c *gin.Context) {
		if err := db.PingContext(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "database": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})

	r.GET("/metrics", gin.WrapH(metricsSvc.Handler()))

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	api.Use(middleware.JWT(cfg.JWT.Secret))

	admin := api.Group("")
	admin.Use(middleware.RequireRoles(models.RoleAdmin))
	admin.POST("/timetable/generate", timetableHandler.Generate)
	admin.POST("/timetable/save", timetableHandler.Save)
	admin.POST("/timetable/publish", timetableHandler.Publish)
	admin.GET("/timetable", timetableHandler.Draft)
	admin.PUT("/timetable/items/:id", timetableHandler.UpdateItem)
	admin.POST("/conflicts/detect", conflictHandler.Detect)
	admin.GET("/conflicts", conflictHandler.List)
	admin.PATCH("/conflicts/:id/resolve", conflictHandler.Resolve)
	admin.POST("/conflicts/auto-resolve", conflictHandler.AutoResolve)
	admin.POST("/workload/export", workloadHandler.Export)
	admin.GET("/exports/:id", workloadHandler.JobStatus)

	api.GET("/timetable/published", timetableHandler.Published)
	api.GET("/workload", workloadHandler.Report)

	// Download links are pre-signed; the token is the credential.
	r.GET(cfg.APIPrefix+"/exports/download", workloadHandler.Download)

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Info("server starting", zap.String("addr", addr), zap.String("env", cfg.Env))
	if err := r.Run(addr); err != nil {
		logr.Fatal("server failed", zap.Error(err))
	}
}
