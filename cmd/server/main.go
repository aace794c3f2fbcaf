package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	financeapp "github.com/oneflow/backend/internal/application/finance"
	"github.com/oneflow/backend/internal/domain/finance"
	"github.com/oneflow/backend/internal/infrastructure/auth"
	"github.com/oneflow/backend/internal/infrastructure/cache"
	"github.com/oneflow/backend/internal/infrastructure/config"
	"github.com/oneflow/backend/internal/infrastructure/event"
	"github.com/oneflow/backend/internal/infrastructure/logger"
	"github.com/oneflow/backend/internal/infrastructure/persistence"
	"github.com/oneflow/backend/internal/infrastructure/persistence/memory"
	"github.com/oneflow/backend/internal/infrastructure/printing"
	"github.com/oneflow/backend/internal/infrastructure/scheduler"
	"github.com/oneflow/backend/internal/infrastructure/storage"
	"github.com/oneflow/backend/internal/infrastructure/telemetry"
	"github.com/oneflow/backend/internal/interfaces/http/handler"
	"github.com/oneflow/backend/internal/interfaces/http/middleware"
	"github.com/oneflow/backend/internal/interfaces/http/router"
)

// version is overridden at build time with -ldflags "-X main.version=..."
var version = "dev"

// repositories groups the three aggregate stores
type repositories struct {
	documents finance.DocumentRepository
	expenses  finance.ExpenseRepository
	requests  finance.DocumentRequestRepository
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	log, err := logger.New(&logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() { _ = log.Sync() }()

	log.Info("Starting finance service",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("version", version),
		zap.String("db_driver", cfg.Database.Driver),
	)

	ctx := context.Background()

	tp, err := telemetry.NewTracerProvider(ctx, telemetry.ConfigFrom(cfg.Telemetry, version), log)
	if err != nil {
		log.Fatal("Failed to initialize tracing", zap.Error(err))
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tp.Shutdown(shutdownCtx); err != nil {
			log.Error("Error shutting down tracer provider", zap.Error(err))
		}
	}()

	system := handler.NewSystemHandler(version)

	var repos repositories
	if cfg.Database.Driver == config.DriverMemory {
		log.Warn("Using in-memory storage; records are lost on restart")
		repos = repositories{
			documents: memory.NewDocumentRepository(),
			expenses:  memory.NewExpenseRepository(),
			requests:  memory.NewDocumentRequestRepository(),
		}
	} else {
		gormLog := logger.NewGormLogger(log, logger.GormLevel(cfg.Log.Level), 200*time.Millisecond)
		db, err := persistence.NewDatabase(&cfg.Database, gormLog)
		if err != nil {
			log.Fatal("Failed to connect to database", zap.Error(err))
		}
		defer func() {
			if err := db.Close(); err != nil {
				log.Error("Error closing database", zap.Error(err))
			}
		}()

		dbTracing := telemetry.DefaultDBTracingConfig()
		dbTracing.Enabled = cfg.Telemetry.Enabled && cfg.Telemetry.DBTraceEnabled
		dbTracing.LogFullSQL = cfg.Telemetry.DBLogFullSQL
		if cfg.Database.Driver == config.DriverSQLite {
			dbTracing.DBSystem = "sqlite"
		}
		if err := telemetry.NewDBTracingPlugin(dbTracing, log).Register(db.DB); err != nil {
			log.Fatal("Failed to register database tracing", zap.Error(err))
		}

		system.AddCheck("database", func(context.Context) error { return db.Ping() })
		repos = repositories{
			documents: persistence.NewGormDocumentRepository(db.DB),
			expenses:  persistence.NewGormExpenseRepository(db.DB),
			requests:  persistence.NewGormDocumentRequestRepository(db.DB),
		}
		log.Info("Database connected successfully")
	}

	objects, err := storage.New(ctx, &cfg.Storage, log)
	if err != nil {
		log.Fatal("Failed to initialize object storage", zap.Error(err))
	}

	var projects finance.ProjectDirectory
	if len(cfg.Finance.Projects) > 0 {
		projects = finance.NewStaticProjectDirectory(cfg.Finance.Projects)
	}
	numbers := finance.NewNumberGenerator()
	renderer := printing.NewPDFRenderer(cfg.App.Name)

	documentService := financeapp.NewDocumentService(repos.documents, numbers,
		finance.TransitionPolicyFor(cfg.Finance.EnforceForwardTransitions), projects, log)
	documentService.SetRenderer(renderer)
	expenseService := financeapp.NewExpenseService(repos.expenses, projects, log)
	requestService := financeapp.NewRequestService(repos.requests, numbers, projects, objects, log)
	requestService.SetRenderer(renderer)
	requestService.SetDownloadExpiry(cfg.Storage.PresignExpiry)
	reconciler := financeapp.NewReconciler(repos.documents, repos.expenses, repos.requests, numbers,
		cache.NewIdempotencyStore(ctx, cfg.Redis, log),
		financeapp.ReconcilerConfig{MaxRows: cfg.Finance.ImportMaxRows, IdempotencyTTL: cfg.Finance.IdempotencyTTL},
		log)
	integrityService := financeapp.NewIntegrityService(repos.documents, repos.expenses, repos.requests, projects, log)

	integrityScheduler, err := scheduler.NewIntegrityScheduler(integrityService, log, scheduler.IntegritySchedulerConfig{
		Schedule: cfg.Finance.IntegrityCheckSchedule,
	})
	if err != nil {
		log.Fatal("Failed to create integrity scheduler", zap.Error(err))
	}
	integrityScheduler.Start(ctx)

	eventBus := event.NewInMemoryEventBus(log)
	audit := financeapp.NewAuditLogHandler(log)
	eventBus.Subscribe(audit, audit.EventTypes()...)
	documentService.SetEventPublisher(eventBus)
	requestService.SetEventPublisher(eventBus)
	reconciler.SetEventPublisher(eventBus)
	reconciler.SetProjectDirectory(projects)

	engine, err := router.NewEngine(router.EngineConfig{
		ServiceName: cfg.Telemetry.ServiceName,
		MaxBodySize: cfg.HTTP.MaxBodySize,
		CORS: middleware.CORSConfig{
			AllowOrigins:     cfg.HTTP.CORSAllowOrigins,
			AllowMethods:     cfg.HTTP.CORSAllowMethods,
			AllowHeaders:     cfg.HTTP.CORSAllowHeaders,
			ExposeHeaders:    middleware.DefaultCORSConfig().ExposeHeaders,
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		},
		TrustedProxies: cfg.HTTP.TrustedProxies,
		TracingEnabled: tp.IsEnabled(),
		Authenticator:  auth.NewJWTService(cfg.JWT),
		Logger:         log,
		Swagger: middleware.SwaggerConfig{
			Enabled:    cfg.HTTP.SwaggerEnabled,
			AllowedIPs: cfg.HTTP.SwaggerAllowedIPs,
		},
		ServiceVersion: version,
	}, router.Handlers{
		Documents: handler.NewDocumentHandler(documentService),
		Expenses:  handler.NewExpenseHandler(expenseService),
		Requests:  handler.NewRequestHandler(requestService),
		Transfer:  handler.NewTransferHandler(reconciler, integrityService),
		System:    system,
	})
	if err != nil {
		log.Fatal("Failed to build HTTP engine", zap.Error(err))
	}

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}
	if err := integrityScheduler.Stop(shutdownCtx); err != nil {
		log.Error("Integrity scheduler did not stop cleanly", zap.Error(err))
	}
	log.Info("Server exited gracefully")
}
