// Package entrypoint wires all services together and runs the HTTP server.
package entrypoint

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	auditsvc "github.com/Sharanya-sriram/CBA-project-LibMgmt/internal/audit"
	"github.com/Sharanya-sriram/CBA-project-LibMgmt/internal/auth"
	"github.com/Sharanya-sriram/CBA-project-LibMgmt/internal/config"
	"github.com/Sharanya-sriram/CBA-project-LibMgmt/internal/database"
	auditrepo "github.com/Sharanya-sriram/CBA-project-LibMgmt/internal/database/audit"
	"github.com/Sharanya-sriram/CBA-project-LibMgmt/internal/database/books"
	"github.com/Sharanya-sriram/CBA-project-LibMgmt/internal/database/copies"
	"github.com/Sharanya-sriram/CBA-project-LibMgmt/internal/database/loans"
	"github.com/Sharanya-sriram/CBA-project-LibMgmt/internal/database/users"
	http_controllers "github.com/Sharanya-sriram/CBA-project-LibMgmt/internal/http"
	"github.com/Sharanya-sriram/CBA-project-LibMgmt/internal/issuance"
	"github.com/Sharanya-sriram/CBA-project-LibMgmt/internal/scheduler"
	"github.com/Sharanya-sriram/CBA-project-LibMgmt/internal/tasks"
)

// ShutdownFunc is called during graceful shutdown to clean up resources.
type ShutdownFunc func(ctx context.Context)

// Serve runs the HTTP server until SIGINT/SIGTERM, then shuts down
// gracefully within the configured timeout.
func Serve(router *gin.Engine, cfg *config.Config, onShutdown ShutdownFunc) {
	timeout := time.Duration(cfg.Global.ShutdownTimeoutInSeconds) * time.Second

	srv := &http.Server{
		Addr:    fmt.Sprintf("%s:%d", cfg.HTTP.Host, cfg.HTTP.Port),
		Handler: router,
	}

	go func() {
		log.Printf("Starting server at %s:%d", cfg.HTTP.Host, cfg.HTTP.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %s", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Printf("Shutdown signal received, waiting up to %v", timeout)

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	// Stop background workers before cutting off in-flight requests
	if onShutdown != nil {
		onShutdown(ctx)
	}

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server Shutdown:", err)
	}

	log.Println("Server exiting")
}

// Run wires the whole service together and starts it.
func Run(cfg *config.Config, version string) {
	log.Printf("Starting library service v%s", version)

	db, err := database.NewDatabase(cfg.Database.Path)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Printf("Error closing database: %v", err)
		}
	}()

	booksRepo := books.NewRepository(db.DB)
	copiesRepo := copies.NewRepository(db.DB)
	loansRepo := loans.NewRepository(db.DB)
	usersRepo := users.NewRepository(db.DB)
	auditRepo := auditrepo.NewRepository(db.DB)

	auditService := auditsvc.NewService(auditRepo)
	engine := issuance.NewEngine(copiesRepo, loansRepo, cfg.Loans.Period)
	authService := auth.NewService(usersRepo, cfg.Auth)

	// Task queue
	var taskClient *tasks.Client
	var taskCtxCancel context.CancelFunc
	if cfg.Tasks.Enabled {
		taskCfg := tasks.Config{
			Workers:         cfg.Tasks.Workers,
			ReleaseAfter:    cfg.Tasks.ReleaseAfter,
			CleanupInterval: cfg.Tasks.CleanupInterval,
		}

		taskClient, err = tasks.NewClient(cfg.Database.Path, taskCfg)
		if err != nil {
			log.Fatalf("Failed to initialize task queue: %v", err)
		}
		defer func() {
			if err := taskClient.Close(); err != nil {
				log.Printf("Error closing task client: %v", err)
			}
		}()

		taskClient.Register(
			tasks.NewNotifyOverdueLoanQueue(loansRepo, auditService),
			tasks.NewCleanupAuditEventsQueue(auditService),
		)

		var taskCtx context.Context
		taskCtx, taskCtxCancel = context.WithCancel(context.Background())
		go taskClient.Start(taskCtx)
	}

	// Overdue scan scheduler needs the task queue to enqueue notices
	var overdueScheduler *scheduler.OverdueScanScheduler
	if taskClient != nil && cfg.OverdueScan.Enabled {
		overdueScheduler = scheduler.NewOverdueScanScheduler(loansRepo, taskClient, cfg.OverdueScan, cfg.Audit)
		if err := overdueScheduler.Start(context.Background()); err != nil {
			log.Fatalf("Failed to start overdue scan scheduler: %v", err)
		}
	}

	// Authentication
	var sessionManager *auth.SessionManager
	csrfSecret := ""
	if cfg.Auth.Mode == config.AuthModeLocal {
		log.Printf("Authentication mode: local")

		sessionManager, err = auth.NewSessionManager(cfg.Database.Path, cfg.Auth)
		if err != nil {
			log.Fatalf("Failed to initialize session manager: %v", err)
		}
		defer sessionManager.Close()

		csrfSecret = cfg.Auth.SessionSecret
		if csrfSecret == "" {
			csrfSecret, err = auth.GenerateSessionSecret()
			if err != nil {
				log.Fatalf("Failed to generate session secret: %v", err)
			}
			log.Printf("Generated session secret (set AUTH_SESSION_SECRET to persist)")
		}

		hasUsers, _ := authService.HasUsers(context.Background())
		if !hasUsers {
			log.Printf("No users found. Run '%s seed' to create an administrator account.", os.Args[0])
		}
	} else {
		log.Printf("Authentication mode: none (no authentication required)")
	}

	router := http_controllers.NewRouter(http_controllers.RouterConfig{
		DB:            db.DB,
		Engine:        engine,
		Books:         booksRepo,
		Copies:        copiesRepo,
		Loans:         loansRepo,
		Users:         usersRepo,
		AuthService:   authService,
		Sessions:      sessionManager,
		Audit:         auditService,
		CSRFSecret:    csrfSecret,
		SecureCookies: cfg.Auth.SecureCookies,
	})

	onShutdown := func(ctx context.Context) {
		if overdueScheduler != nil {
			overdueScheduler.Stop()
		}
		if taskClient != nil && taskCtxCancel != nil {
			taskClient.Stop(ctx)
			taskCtxCancel()
		}
	}

	Serve(router, cfg, onShutdown)
}
