// Package main runs the school dashboard invitation HTTP server.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/school-dashboard/backend/config"
	"github.com/school-dashboard/backend/internal/auth"
	"github.com/school-dashboard/backend/internal/emaillogs"
	"github.com/school-dashboard/backend/internal/invites"
	"github.com/school-dashboard/backend/internal/mailer"
	"github.com/school-dashboard/backend/internal/metrics"
	"github.com/school-dashboard/backend/internal/middleware"
	"github.com/school-dashboard/backend/internal/models"
	"github.com/school-dashboard/backend/internal/onboarding"
	"github.com/school-dashboard/backend/internal/schools"
	"github.com/school-dashboard/backend/internal/worker"
	"github.com/school-dashboard/backend/pkg/database"
	"github.com/school-dashboard/backend/pkg/queue"
	"github.com/school-dashboard/backend/pkg/redis"
	"github.com/school-dashboard/backend/pkg/response"
)

func main() {
	logger := newLogger()
	defer logger.Sync()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("load config", zap.Error(err))
	}

	ctx := context.Background()
	pool, err := database.NewPostgresPool(ctx, cfg.Database.DSN(), logger)
	if err != nil {
		logger.Fatal("database", zap.Error(err))
	}
	defer pool.Close()

	if err := database.Migrate(ctx, pool); err != nil {
		logger.Fatal("migrate", zap.Error(err))
	}

	rdb, err := redis.NewClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, logger)
	if err != nil {
		logger.Fatal("redis", zap.Error(err))
	}
	defer rdb.Close()

	jwtService := auth.NewJWTService(cfg.JWT.Secret, cfg.JWT.ExpireHours)
	jobQueue := queue.NewQueue(rdb.Client, logger)

	// Auth
	authRepo := auth.NewRepository(pool)
	authHandler := auth.NewHandler(authRepo, jwtService, logger)

	// School directory
	schoolRepo := schools.NewRepository(pool)
	schoolHandler := schools.NewHandler(schoolRepo)

	// Email logs
	emailLogRepo := emaillogs.NewRepository(pool)
	emailLogHandler := emaillogs.NewHandler(emailLogRepo)

	// Invitations
	inviteRepo := invites.NewRepository(pool)
	coordinator := onboarding.NewCoordinator(pool, inviteRepo, logger)
	inviteSvc := invites.NewService(inviteRepo, coordinator, logger)
	inviteHandler := invites.NewHandler(inviteSvc, inviteRepo, emailLogRepo, jobQueue, cfg.App, jwtService, logger)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.CORS(cfg.Server.CORSAllowedOrigins))
	router.Use(middleware.Logger(logger))

	// Health and metrics
	router.GET("/health", func(c *gin.Context) {
		pingCtx, cancel := context.WithTimeout(c.Request.Context(), 800*time.Millisecond)
		defer cancel()
		t0 := time.Now()
		if err := pool.Ping(pingCtx); err != nil {
			response.ServiceUnavailable(c, "db not ok: "+err.Error())
			return
		}
		metrics.ObserveDBPing(time.Since(t0))
		response.OK(c, gin.H{"status": "ok"})
	})
	router.GET("/metrics", gin.WrapH(metrics.Handler()))

	// Auth (public)
	authGroup := router.Group("/auth")
	{
		authGroup.POST("/login", authHandler.Login)
		authGroup.POST("/register", authHandler.Register)
	}

	// Public: invited user redeems the link after identity sign-in
	router.POST("/invites/accept", inviteHandler.Accept)

	// Admin API (JWT + admin role)
	api := router.Group("")
	api.Use(middleware.JWT(jwtService))
	api.Use(middleware.RequireRole(string(models.RoleAdmin)))
	{
		api.POST("/invites", inviteHandler.Create)
		api.POST("/invites/:id/resend", inviteHandler.Resend)
		api.GET("/schools/:id/invites", inviteHandler.ListBySchool)
		api.GET("/schools/:id/emails", emailLogHandler.ListBySchool)

		api.POST("/schools", schoolHandler.CreateSchool)
		api.GET("/schools", schoolHandler.ListSchools)
		api.POST("/schools/:id/classes", schoolHandler.CreateClass)
		api.GET("/schools/:id/classes", schoolHandler.ListClasses)
		api.POST("/schools/:id/students", schoolHandler.CreateStudent)
		api.GET("/schools/:id/students", schoolHandler.ListStudents)
	}

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	// In-process email worker; cmd/worker runs the same loop standalone.
	workerCtx, workerCancel := context.WithCancel(context.Background())
	defer workerCancel()
	smtpMailer := mailer.NewSMTP(cfg.Email, logger)
	processor := worker.NewEmailProcessor(emailLogRepo, smtpMailer, jobQueue, logger)
	go processor.Run(workerCtx)
	logger.Info("email worker started")

	go func() {
		logger.Info("server listening", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	workerCancel()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown", zap.Error(err))
	}
	logger.Info("server stopped")
}

func newLogger() *zap.Logger {
	cfg := zap.NewProductionConfig()
	cfg.EncoderConfig.TimeKey = "timestamp"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	logger, _ := cfg.Build()
	return logger
}
