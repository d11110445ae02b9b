// Package app wires configuration, storage backends and the web server
// together and runs them until a shutdown signal arrives.
package app

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/koustreak/sharebox/internal/config"
	"github.com/koustreak/sharebox/internal/database"
	"github.com/koustreak/sharebox/internal/database/mysql"
	"github.com/koustreak/sharebox/internal/database/postgres"
	"github.com/koustreak/sharebox/internal/errs"
	"github.com/koustreak/sharebox/internal/files"
	"github.com/koustreak/sharebox/internal/filestore"
	"github.com/koustreak/sharebox/internal/filestore/memory"
	"github.com/koustreak/sharebox/internal/filestore/minio"
	"github.com/koustreak/sharebox/internal/filestore/s3"
	"github.com/koustreak/sharebox/internal/logger"
	"github.com/koustreak/sharebox/internal/session"
	"github.com/koustreak/sharebox/internal/users"
	"github.com/koustreak/sharebox/internal/web"
)

type App struct {
	cfg    *config.Config
	log    *logger.Logger
	db     database.DB
	store  filestore.Store
	server *http.Server
}

// New connects to the database and object store and builds the HTTP
// server. Anything already opened is closed again on failure.
func New(ctx context.Context, cfg *config.Config, log *logger.Logger) (*App, error) {
	db, err := openDatabase(ctx, cfg.DatabaseConfig())
	if err != nil {
		return nil, err
	}

	if cfg.Database.AutoMigrate {
		if err := db.Migrate(ctx); err != nil {
			db.Close()
			return nil, err
		}
		log.Info("database migrations applied")
	}

	store, err := openStore(ctx, cfg.StorageConfig())
	if err != nil {
		db.Close()
		return nil, err
	}

	a, err := assemble(cfg, log, db, store)
	if err != nil {
		_ = store.Close()
		db.Close()
		return nil, err
	}
	return a, nil
}

// assemble builds the services and server on top of open backends.
func assemble(cfg *config.Config, log *logger.Logger, db database.DB, store filestore.Store) (*App, error) {
	sessions, err := session.NewManager(cfg.SessionConfig())
	if err != nil {
		return nil, err
	}

	fileSvc := files.NewService(store, cfg.Storage.Bucket, log)
	handler, err := web.New(web.Deps{
		Users:          users.NewStore(db),
		Files:          fileSvc,
		Sessions:       sessions,
		Log:            log,
		MaxUploadBytes: cfg.Server.MaxUploadBytes,
		HealthChecks: []web.HealthCheck{
			{Name: "database", Check: db.Ping},
			{Name: "storage", Check: fileSvc.Ping},
		},
	})
	if err != nil {
		return nil, err
	}

	return &App{
		cfg:   cfg,
		log:   log,
		db:    db,
		store: store,
		server: &http.Server{
			Addr:              cfg.Server.Addr,
			Handler:           handler,
			ReadHeaderTimeout: cfg.Server.ReadHeaderTimeout,
			ReadTimeout:       cfg.Server.ReadTimeout,
			WriteTimeout:      cfg.Server.WriteTimeout,
			IdleTimeout:       cfg.Server.IdleTimeout,
		},
	}, nil
}

// Run serves until ctx is cancelled or SIGINT/SIGTERM arrives, then
// drains in-flight requests and releases the backends.
func (a *App) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	serveErr := make(chan error, 1)
	go func() {
		a.log.With().Str("addr", a.server.Addr).Logger().Info("http server listening")
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	var runErr error
	select {
	case <-ctx.Done():
		a.log.Info("shutting down")
	case err := <-serveErr:
		if err != nil {
			runErr = errs.Wrap(errs.ErrKindConnectionFailed, "http server failed", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.shutdownTimeout())
	defer cancel()

	if err := a.server.Shutdown(shutdownCtx); err != nil {
		a.log.ErrorWith("graceful shutdown failed", err, nil)
		if runErr == nil {
			runErr = err
		}
	}

	if err := a.store.Close(); err != nil {
		a.log.WarnWith("closing object store", err, nil)
	}
	a.db.Close()

	a.log.Info("stopped")
	return runErr
}

func (a *App) shutdownTimeout() time.Duration {
	if a.cfg.Server.ShutdownTimeout > 0 {
		return a.cfg.Server.ShutdownTimeout
	}
	return 15 * time.Second
}

func openDatabase(ctx context.Context, cfg *database.Config) (database.DB, error) {
	var (
		db  database.DB
		err error
	)
	switch cfg.Driver {
	case database.DriverMySQL:
		db, err = mysql.New(ctx, cfg)
	case database.DriverPostgres:
		db, err = postgres.New(ctx, cfg)
	default:
		return nil, errs.New(errs.ErrKindInvalidInput, "unsupported database driver: "+string(cfg.Driver))
	}
	if err != nil {
		return nil, err
	}
	return db, nil
}

func openStore(ctx context.Context, cfg *filestore.Config) (filestore.Store, error) {
	var (
		store filestore.Store
		err   error
	)
	switch cfg.Provider {
	case filestore.ProviderMinIO:
		store, err = minio.New(ctx, cfg)
	case filestore.ProviderS3:
		store, err = s3.New(ctx, cfg)
	case filestore.ProviderMemory:
		store = memory.New("http://memory.invalid", cfg.Bucket)
	default:
		return nil, errs.New(errs.ErrKindInvalidInput, "unsupported storage provider: "+string(cfg.Provider))
	}
	if err != nil {
		return nil, err
	}
	return store, nil
}
