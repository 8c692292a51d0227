// Package server wires configuration, storage, services and the HTTP
// surface together and owns the process lifecycle.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/avolkovs/runbase/internal/logging"
	"github.com/avolkovs/runbase/internal/server/accounts"
	"github.com/avolkovs/runbase/internal/server/config"
	"github.com/avolkovs/runbase/internal/server/httpapi"
	"github.com/avolkovs/runbase/internal/server/mail"
	"github.com/avolkovs/runbase/internal/server/shared/db"
	"github.com/avolkovs/runbase/internal/server/storage"
)

const shutdownTimeout = 10 * time.Second

type App struct {
	config   *config.Config
	logger   logging.Logger
	manager  db.RepositoryManager
	accounts *accounts.Service
	api      *httpapi.Server
}

func NewApp(ctx context.Context, cfg *config.Config, logger logging.Logger) (*App, error) {

	manager, err := db.NewPostgresRepositoryManager(ctx, cfg.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	backend, err := storage.NewBackend(cfg)
	if err != nil {
		return nil, fmt.Errorf("storage init error: %w", err)
	}

	var mailer mail.Sender
	if cfg.SMTPHost != "" {
		mailer = mail.NewMailer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUsername, cfg.SMTPPassword, cfg.DefaultFromEmail)
	} else {
		mailer = mail.NewConsoleSender(logger)
	}

	svc := accounts.NewService(manager.Users(), manager.AuthTokens(), mailer, cfg)
	api := httpapi.NewServer(svc, backend, cfg, logger)

	return &App{config: cfg, logger: logger, manager: manager, accounts: svc, api: api}, nil
}

// CreateSuperuser provisions an admin account. Used by the
// createsuperuser entrypoint that deployment tooling runs as a one-off
// Cloud Build job.
func (app *App) CreateSuperuser(ctx context.Context, email, password string) error {
	user, err := app.accounts.CreateSuperuser(ctx, email, password)
	if err != nil {
		return err
	}
	app.logger.Info(ctx, "superuser created", "email", user.Email)
	return nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) startHTTPServer(ctx context.Context, cancelFunc context.CancelFunc) {

	srv := &http.Server{
		Addr:    app.config.Addr,
		Handler: app.api.Router(),
	}

	go func() {
		<-ctx.Done()
		app.logger.Info(ctx, "Stopping HTTP server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			app.logger.Error(ctx, "shutdown error", "error", err.Error())
		}
	}()

	app.logger.Info(ctx, "Starting HTTP server", "address", app.config.Addr)

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

func (app *App) Run(ctx context.Context) {

	ctx, cancelFunc := context.WithCancel(ctx)

	app.logger.Info(ctx, "Starting app...")

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		app.startHTTPServer(ctx, cancelFunc)
	}()

	wg.Wait()

	if conn := app.manager.Conn(); conn != nil {
		if err := conn.Close(); err != nil {
			app.logger.Error(ctx, "db close error", "error", err.Error())
		}
	}
}
