package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"

	"github.com/academia-erp/academia-erp/internal/app"
	"github.com/academia-erp/academia-erp/internal/auth"
	"github.com/academia-erp/academia-erp/internal/authz"
	"github.com/academia-erp/academia-erp/internal/courses"
	"github.com/academia-erp/academia-erp/internal/observability"
	"github.com/academia-erp/academia-erp/internal/payments"
	"github.com/academia-erp/academia-erp/internal/platform/cache"
	"github.com/academia-erp/academia-erp/internal/platform/db"
	"github.com/academia-erp/academia-erp/internal/roles"
	"github.com/academia-erp/academia-erp/internal/shared"
	"github.com/academia-erp/academia-erp/internal/students"
	"github.com/academia-erp/academia-erp/internal/users"
	"github.com/academia-erp/academia-erp/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	dbpool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer dbpool.Close()

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Error("connect redis", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	sessionManager := shared.NewSessionManager(redisClient, "academia_session", cfg.SessionSecret, cfg.SessionTTL, cfg.IsProduction())
	csrfManager := shared.NewCSRFManager(cfg.CSRFSecret)
	auditLogger := shared.NewAuditLogger(dbpool)

	metrics := observability.NewMetrics()

	authzStore := authz.NewPGStore(dbpool)
	authzCache := authz.NewCache(redisClient, cfg.AuthzCacheTTL)
	authzMetrics := authz.NewMetrics(metrics.Registerer())
	engine := authz.NewEngine(authzStore, authzCache, logger, authzMetrics)
	admin := authz.NewAdmin(authzStore, engine, auditLogger, logger)
	ownership := authz.NewOwnershipResolver(authzStore, engine)
	guard := authz.Guard{Engine: engine, Ownership: ownership, Logger: logger}

	authRepo := auth.NewRepository(dbpool)
	authService := auth.NewService(authRepo)
	authHandler := auth.NewHandler(logger, authService, sessionManager, csrfManager)

	usersHandler := users.NewHandler(logger, users.NewService(users.NewRepository(dbpool)), engine, guard)
	rolesHandler := roles.NewHandler(logger, roles.NewService(roles.NewRepository(dbpool)), admin, engine, guard)
	studentsHandler := students.NewHandler(logger, students.NewService(students.NewRepository(dbpool)), guard)
	coursesHandler := courses.NewHandler(logger, courses.NewService(courses.NewRepository(dbpool)), guard)
	idempotencyStore := shared.NewIdempotencyStore(dbpool)
	paymentsHandler := payments.NewHandler(logger, payments.NewService(payments.NewRepository(dbpool), idempotencyStore), guard)

	inspector := asynq.NewInspector(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()
	jobsHandler := jobs.NewHandler(inspector, logger)

	router := app.NewRouter(app.RouterParams{
		Logger:          logger,
		Config:          cfg,
		SessionManager:  sessionManager,
		CSRFManager:     csrfManager,
		AuthHandler:     authHandler,
		UsersHandler:    usersHandler,
		RolesHandler:    rolesHandler,
		StudentsHandler: studentsHandler,
		CoursesHandler:  coursesHandler,
		PaymentsHandler: paymentsHandler,
		JobsHandler:     jobsHandler,
		Metrics:         metrics,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
	}
}
