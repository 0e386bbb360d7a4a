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
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/Smritiii29/regulatory-compliance-monitoring-system/api/swagger"
	"github.com/Smritiii29/regulatory-compliance-monitoring-system/internal/handler"
	"github.com/Smritiii29/regulatory-compliance-monitoring-system/internal/middleware"
	"github.com/Smritiii29/regulatory-compliance-monitoring-system/internal/models"
	"github.com/Smritiii29/regulatory-compliance-monitoring-system/internal/repository"
	"github.com/Smritiii29/regulatory-compliance-monitoring-system/internal/service"
	"github.com/Smritiii29/regulatory-compliance-monitoring-system/pkg/cache"
	"github.com/Smritiii29/regulatory-compliance-monitoring-system/pkg/config"
	"github.com/Smritiii29/regulatory-compliance-monitoring-system/pkg/database"
	"github.com/Smritiii29/regulatory-compliance-monitoring-system/pkg/jobs"
	"github.com/Smritiii29/regulatory-compliance-monitoring-system/pkg/logger"
	"github.com/Smritiii29/regulatory-compliance-monitoring-system/pkg/mailer"
	corsmiddleware "github.com/Smritiii29/regulatory-compliance-monitoring-system/pkg/middleware/cors"
	reqidmiddleware "github.com/Smritiii29/regulatory-compliance-monitoring-system/pkg/middleware/requestid"
	"github.com/Smritiii29/regulatory-compliance-monitoring-system/pkg/storage"
)

// @title Regulatory Compliance Monitoring API
// @version 1.0.0
// @description Backend for tracking regulatory circulars and department compliance
// @BasePath /api
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

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
		logr.Fatal("failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Warn("redis unavailable, caching disabled and signups will be refused", zap.Error(err))
		redisClient = nil
	}

	store, err := storage.NewLocalStorage(cfg.Uploads.Dir)
	if err != nil {
		logr.Fatal("failed to prepare upload directory", zap.Error(err))
	}
	signer := storage.NewSignedURLSigner(cfg.Uploads.SignedURLSecret, cfg.Uploads.SignedURLTTL)

	validate := validator.New()

	userRepo := repository.NewUserRepository(db)
	circularRepo := repository.NewCircularRepository(db)
	submissionRepo := repository.NewSubmissionRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)
	activityRepo := repository.NewActivityRepository(db)
	chatRepo := repository.NewChatRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient, logr)

	metricsSvc := service.NewMetricsService()
	cacheSvc := service.NewCacheService(cacheRepo, metricsSvc, cfg.Dashboard.CacheTTL, logr, redisClient != nil)

	mail := mailer.New(cfg.Mail.SendGridKey, cfg.Mail.FromName, cfg.Mail.FromEmail, logr)

	emailQueue := jobs.NewQueue("notification-emails", service.EmailHandler(mail), jobs.QueueConfig{
		Workers:    cfg.Notify.Workers,
		MaxRetries: cfg.Notify.MaxRetries,
		Logger:     logr,
	})

	notificationSvc := service.NewNotificationService(notificationRepo, userRepo, emailQueue, logr)
	authSvc := service.NewAuthService(userRepo, activityRepo, cacheRepo, mail, notificationSvc, validate, logr, service.AuthConfig{
		TokenSecret: cfg.JWT.Secret,
		TokenExpiry: cfg.JWT.Expiration,
		Issuer:      cfg.JWT.Issuer,
		OTPTTL:      cfg.OTP.TTL,
		OTPLength:   cfg.OTP.Length,
	})
	userSvc := service.NewUserService(userRepo, activityRepo, validate, logr)
	circularSvc := service.NewCircularService(circularRepo, submissionRepo, notificationSvc, service.NewKeywordCategorizer(), activityRepo, cacheRepo, validate, logr)
	submissionSvc := service.NewSubmissionService(submissionRepo, circularRepo, userRepo, notificationSvc, activityRepo, cacheRepo, validate, logr)
	dashboardSvc := service.NewDashboardService(circularRepo, submissionRepo, userRepo, activityRepo, cacheSvc, cfg.Dashboard.CacheTTL, logr)
	reportSvc := service.NewReportService(dashboardSvc, circularSvc, activityRepo, service.ReportConfig{
		InstitutionName:     cfg.Reports.InstitutionName,
		DefaultAcademicYear: cfg.Reports.DefaultAcademicYear,
	}, logr)
	chatSvc := service.NewChatService(chatRepo, userRepo, validate, logr)

	authHandler := handler.NewAuthHandler(authSvc)
	userHandler := handler.NewUserHandler(userSvc)
	circularHandler := handler.NewCircularHandler(circularSvc, store)
	submissionHandler := handler.NewSubmissionHandler(submissionSvc, store)
	notificationHandler := handler.NewNotificationHandler(notificationSvc)
	chatHandler := handler.NewChatHandler(chatSvc, store)
	dashboardHandler := handler.NewDashboardHandler(dashboardSvc)
	reportHandler := handler.NewReportHandler(reportSvc)
	metricsHandler := handler.NewMetricsHandler(metricsSvc)
	fileHandler := handler.NewFileHandler(circularSvc, submissionSvc, store, signer)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))
	r.MaxMultipartMemory = cfg.Uploads.MaxFileSizeBytes

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/ready", func(c *gin.Context) {
		if err := db.PingContext(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)

	auth := api.Group("/auth")
	{
		auth.POST("/login", authHandler.Login)
		auth.POST("/signup", authHandler.Signup)
		auth.POST("/verify-otp", authHandler.VerifyOTP)
		auth.POST("/send-otp", authHandler.ResendOTP)
	}

	api.GET("/files/download", fileHandler.Download)

	protected := api.Group("")
	protected.Use(middleware.JWT(authSvc))
	{
		protected.GET("/auth/me", authHandler.Me)
		protected.PUT("/auth/me", authHandler.UpdateProfile)
		protected.POST("/auth/change-password", authHandler.ChangePassword)

		users := protected.Group("/users")
		{
			users.GET("", middleware.RequireManagement(), userHandler.List)
			users.GET("/departments", userHandler.Departments)
			users.GET("/:id", middleware.RequireManagement(), userHandler.Get)
			users.POST("", middleware.RequireManagement(), userHandler.Create)
			users.PUT("/:id", middleware.RequireManagement(), userHandler.Update)
			users.PUT("/:id/toggle", middleware.RequireManagement(), userHandler.ToggleActive)
			users.DELETE("/:id", middleware.RequireManagement(), userHandler.Delete)
		}

		circulars := protected.Group("/circulars")
		{
			circulars.GET("", circularHandler.List)
			circulars.GET("/metadata", circularHandler.Metadata)
			circulars.GET("/categories/summary", middleware.RequireManagement(), circularHandler.CategorySummary)
			circulars.GET("/:id", circularHandler.Get)
			circulars.GET("/:id/attachment/link", fileHandler.SignCircularAttachment)
			circulars.GET("/:id/download", fileHandler.DownloadCircularAttachment)
			circulars.POST("", middleware.RequireRoles(models.RoleAdmin, models.RolePrincipal), circularHandler.Create)
			circulars.PUT("/:id", middleware.RequireRoles(models.RoleAdmin, models.RolePrincipal), circularHandler.Update)
			circulars.DELETE("/:id", middleware.RequireRoles(models.RoleAdmin, models.RolePrincipal), circularHandler.Delete)
		}

		submissions := protected.Group("/submissions")
		{
			submissions.GET("", submissionHandler.List)
			submissions.GET("/mine", submissionHandler.Mine)
			submissions.GET("/:id", submissionHandler.Get)
			submissions.GET("/:id/file/link", fileHandler.SignSubmissionFile)
			submissions.GET("/:id/download", fileHandler.DownloadSubmissionFile)
			submissions.POST("", submissionHandler.Create)
			submissions.PUT("/:id/review", middleware.RequireManagement(), submissionHandler.Review)
			submissions.PUT("/:id/start-review", middleware.RequireManagement(), submissionHandler.StartReview)
		}

		notifications := protected.Group("/notifications")
		{
			notifications.GET("", notificationHandler.List)
			notifications.GET("/unread-count", notificationHandler.UnreadCount)
			notifications.PUT("/:id/read", notificationHandler.MarkRead)
			notifications.PUT("/read-all", notificationHandler.MarkAllRead)
			notifications.DELETE("/:id", notificationHandler.Delete)
		}

		chat := protected.Group("/chat")
		{
			chat.POST("/messages", chatHandler.Send)
			chat.GET("/conversations/:id", chatHandler.Conversation)
			chat.GET("/groups/:name", chatHandler.GroupConversation)
			chat.GET("/download/:id", chatHandler.Download)
			chat.GET("/contacts", chatHandler.Contacts)
		}

		dashboard := protected.Group("/dashboard")
		{
			dashboard.GET("/stats", dashboardHandler.Stats)
			dashboard.GET("/departments", middleware.RequireManagement(), dashboardHandler.Departments)
			dashboard.GET("/accreditation", middleware.RequireManagement(), dashboardHandler.Readiness)
			dashboard.GET("/activity", middleware.RequireManagement(), dashboardHandler.Activity)
		}

		reports := protected.Group("/reports")
		reports.Use(middleware.RequireManagement())
		{
			reports.GET("/data", reportHandler.Annual)
			reports.GET("/annual", reportHandler.Annual)
			reports.GET("/annual/pdf", reportHandler.AnnualPDF)
			reports.GET("/department", reportHandler.Department)
			reports.GET("/department/pdf", reportHandler.DepartmentPDF)
			reports.GET("/circulars/csv", reportHandler.CircularsCSV)
		}

		protected.GET("/admin/metrics", middleware.RequireRoles(models.RoleAdmin), metricsHandler.Snapshot)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	emailQueue.Start(ctx)

	// Hourly sweep for circulars approaching their deadline. The pending
	// query skips pairs already reminded, so the cadence only affects
	// latency, not duplication.
	go func() {
		ticker := time.NewTicker(time.Hour)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if err := notificationSvc.DeadlineReminders(ctx, cfg.Notify.ReminderWindow); err != nil {
					logr.Warn("deadline reminder sweep failed", zap.Error(err))
				}
			}
		}
	}()

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Port),
		Handler: r,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Error("graceful shutdown failed", zap.Error(err))
	}
	emailQueue.Stop()
}
