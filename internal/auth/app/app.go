package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	httpapi "github.com/neuralsys/fleetdesk/internal/auth/http"
	"github.com/neuralsys/fleetdesk/internal/auth/service"
	"github.com/neuralsys/fleetdesk/internal/auth/sessions"
	"github.com/neuralsys/fleetdesk/internal/auth/store/drivers/sqlite"
	"github.com/neuralsys/fleetdesk/pkg/cryptox"
	"github.com/neuralsys/fleetdesk/pkg/jwtx"
	"github.com/neuralsys/fleetdesk/pkg/slogx"
)

const (
	// BuildVersion should be set at build time via ldflags.
	BuildVersion = "v0.1.0"

	sessionSecretSize = 32
)

// Application encapsulates the service with all its dependencies
type Application struct {
	cfg    Config
	logger *slog.Logger

	// Core dependencies
	db       *sqlite.Store
	codec    *cryptox.PasswordCodec
	sessions sessions.Store
	signer   *jwtx.HS256

	// Services
	directoryService    *service.DirectoryService
	bootstrapService    *service.BootstrapService
	gate                *service.SessionGate
	housekeepingService *service.HousekeepingService

	// HTTP server
	server *http.Server
	router *httpapi.Router
}

// New creates a new Application instance with all dependencies initialized.
// Migrations are applied before anything reads the directory.
func New(cfg Config) (*Application, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	app := &Application{
		cfg:    cfg,
		logger: NewLogger(cfg),
	}

	codec, err := NewPasswordCodec(cfg)
	if err != nil {
		return nil, err
	}
	app.codec = codec

	if err := app.initDatabase(); err != nil {
		return nil, err
	}

	if err := app.initSessions(); err != nil {
		_ = app.db.Close()
		return nil, err
	}

	secret, err := cryptox.LoadOrGenerateSecret(cfg.SessionSecretFile, sessionSecretSize)
	if err != nil {
		app.closeStores()
		return nil, fmt.Errorf("failed to load session secret: %w", err)
	}
	app.signer, err = jwtx.NewHS256(secret, jwtx.DefaultIssuer)
	if err != nil {
		app.closeStores()
		return nil, err
	}

	app.initServices()

	if err := app.provisionAdmin(); err != nil {
		app.closeStores()
		return nil, err
	}

	app.initHTTP()

	return app, nil
}

// Handler returns the root HTTP handler.
func (app *Application) Handler() http.Handler { return app.router }

// Run starts the application and blocks until shutdown is requested
func (app *Application) Run() error {
	app.housekeepingService.Start()

	app.logger.Info("fleetdesk starting",
		"port", app.cfg.Port,
		"version", BuildVersion,
		"session_backend", app.cfg.SessionBackend,
	)

	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- app.server.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			app.housekeepingService.Stop()
			app.closeStores()
			return fmt.Errorf("server failed: %w", err)
		}
	case sig := <-shutdown:
		app.logger.Info("shutdown signal received", "signal", sig)

		if err := app.Shutdown(); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
	}

	return nil
}

// Shutdown gracefully shuts down the application
func (app *Application) Shutdown() error {
	app.logger.Info("shutting down fleetdesk...")

	ctx, cancel := context.WithTimeout(context.Background(), app.cfg.ShutdownGracePeriod)
	defer cancel()

	if err := app.server.Shutdown(ctx); err != nil {
		app.logger.Error("graceful server shutdown failed", "error", err)
		if err := app.server.Close(); err != nil {
			app.logger.Error("error closing server", "error", err)
		}
	}

	app.housekeepingService.Stop()

	if err := app.sessions.Close(); err != nil {
		app.logger.Error("error closing session store", "error", err)
	}

	if err := app.db.Close(); err != nil {
		app.logger.Error("error closing database", "error", err)
		return err
	}

	app.logger.Info("fleetdesk stopped")
	return nil
}

// Close releases the stores without touching the HTTP server. It is for
// callers that only use Handler.
func (app *Application) Close() error {
	return errors.Join(app.sessions.Close(), app.db.Close())
}

func (app *Application) initDatabase() error {
	db, err := OpenStore(app.cfg, app.codec, app.logger)
	if err != nil {
		return err
	}
	app.db = db

	if err := db.ApplyMigrations(); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to apply database migrations: %w", err)
	}

	app.logger.Info("database migrations applied successfully", "file", app.cfg.DatabaseFile)
	return nil
}

func (app *Application) initSessions() error {
	switch app.cfg.SessionBackend {
	case SessionBackendRedis:
		client := redis.NewClient(&redis.Options{
			Addr:     app.cfg.RedisAddr,
			Password: app.cfg.RedisPassword,
			DB:       app.cfg.RedisDB,
		})

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := client.Ping(ctx).Err(); err != nil {
			_ = client.Close()
			return fmt.Errorf("failed to reach redis at %s: %w", app.cfg.RedisAddr, err)
		}

		app.sessions = sessions.NewRedisStore(client, sessions.DefaultRedisKeyPrefix)
		app.logger.Info("using redis session store", "addr", app.cfg.RedisAddr)
	default:
		app.sessions = sessions.NewMemoryStore()
		app.logger.Info("using in-memory session store")
	}
	return nil
}

func (app *Application) initServices() {
	app.directoryService = &service.DirectoryService{
		Store: app.db,
		Codec: app.codec,
	}
	app.bootstrapService = &service.BootstrapService{
		Directory: app.directoryService,
		Token:     app.cfg.BootstrapToken,
	}
	app.gate = &service.SessionGate{
		Directory: app.directoryService,
		Bootstrap: app.bootstrapService,
		Sessions:  app.sessions,
		TTL:       app.cfg.SessionTTL,
	}

	app.housekeepingService = service.NewHousekeepingService(
		app.sessions,
		app.logger,
		app.cfg.HousekeepingInterval,
	)
}

func (app *Application) provisionAdmin() error {
	ctx := slogx.WithContext(context.Background(), app.logger)

	created, err := app.bootstrapService.ProvisionFromEnv(ctx, app.cfg.BootstrapAdmin)
	if err != nil {
		return fmt.Errorf("failed to create admin from environment: %w", err)
	}
	if created {
		app.logger.Info("first admin created from environment", "handle", app.cfg.BootstrapAdmin.Handle)
	}
	return nil
}

func (app *Application) initHTTP() {
	router := httpapi.NewRouter(
		BuildVersion,
		app.db,
		app.sessions,
		&httpapi.SessionCookies{
			Signer: app.signer,
			TTL:    app.cfg.SessionTTL,
			Secure: app.cfg.CookieSecure,
		},
		app.logger,
	)

	router.Gate = app.gate
	router.DirectoryService = app.directoryService
	router.BootstrapService = app.bootstrapService
	router.ApplyRoutes()

	app.router = router

	app.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", app.cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 3 * time.Second,
	}
}

func (app *Application) closeStores() {
	if app.sessions != nil {
		_ = app.sessions.Close()
	}
	_ = app.db.Close()
}
