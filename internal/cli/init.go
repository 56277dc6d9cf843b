// Package cli provides process bootstrap for the timelog command: environment,
// configuration, logging, the record store and the entry service.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"timelog/internal/amqp"
	"timelog/internal/cache"
	"timelog/internal/config"
	"timelog/internal/core"
	applog "timelog/internal/log"
	"timelog/internal/services"
	"timelog/internal/storage"
)

// Runtime bundles everything a command needs once bootstrap succeeded.
type Runtime struct {
	Config  *config.Config
	Logger  *applog.Logger
	Store   *storage.SQLiteRepository
	Service *services.EntryService
}

// Bootstrap loads .env and configuration, configures logging to logOut and
// opens the store. An unreachable AMQP broker only produces a warning.
func Bootstrap(ctx context.Context, logOut io.Writer) (*Runtime, error) {
	LoadEnvFile()

	cfg, err := LoadAndValidateConfig()
	if err != nil {
		return nil, err
	}

	logger, err := SetupLogger(cfg, logOut)
	if err != nil {
		return nil, err
	}

	store, err := InitSQLite(logger, cfg.DBPath)
	if err != nil {
		return nil, err
	}

	var publisher services.ChangePublisher
	if cfg.NotificationsEnabled() {
		client, err := ConnectAMQP(cfg)
		if err != nil {
			logger.WarnContext(ctx, "AMQP unavailable, change notifications disabled",
				applog.FieldError, err,
				applog.FieldOperation, applog.OpStartup)
		} else {
			publisher = client
		}
	}

	return &Runtime{
		Config:  cfg,
		Logger:  logger,
		Store:   store,
		Service: services.NewEntryService(store, publisher, NewSummaryCache(cfg)),
	}, nil
}

// Close releases the store and any broker connection.
func (r *Runtime) Close() error {
	if r == nil || r.Service == nil {
		return nil
	}
	return r.Service.Close()
}

// Context returns ctx carrying the runtime logger.
func (r *Runtime) Context(ctx context.Context) context.Context {
	return applog.WithContext(ctx, r.Logger)
}

// SetupLogger builds the process logger from cfg and installs it as the
// slog default.
func SetupLogger(cfg *config.Config, out io.Writer) (*applog.Logger, error) {
	level, err := applog.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, err
	}
	if out == nil {
		out = os.Stderr
	}

	lc := applog.DefaultConfig()
	lc.Level = level
	lc.Format = cfg.LogFormat
	lc.Component = applog.ComponentCLI
	lc.Output = out

	logger := applog.New(lc)
	applog.SetDefault(logger)
	return logger, nil
}

// LoadEnvFile loads a .env file from the working directory if one exists.
func LoadEnvFile() {
	_ = godotenv.Load()
}

// LoadAndValidateConfig loads configuration from the environment.
func LoadAndValidateConfig() (*config.Config, error) {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// InitSQLite opens (and migrates) the record store at dbPath.
func InitSQLite(logger *applog.Logger, dbPath string) (*storage.SQLiteRepository, error) {
	repo, err := storage.NewSQLiteRepository(dbPath)
	if err != nil {
		logger.WithComponent(applog.ComponentStorage).Error("Failed to initialize SQLite repository",
			applog.FieldError, err,
			"path", dbPath)
		return nil, fmt.Errorf("open store %s: %w", dbPath, err)
	}
	return repo, nil
}

// ConnectAMQP dials the configured broker.
func ConnectAMQP(cfg *config.Config) (*amqp.Client, error) {
	if !cfg.NotificationsEnabled() {
		return nil, fmt.Errorf("AMQP_URL is not set")
	}
	return amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
}

// NewSummaryCache returns an LRU cache sized from cfg, or a no-op cache when
// the size is zero.
func NewSummaryCache(cfg *config.Config) cache.Cache[core.Window, core.Summary] {
	if cfg.SummaryCacheSize == 0 {
		return cache.Nop[core.Window, core.Summary]{}
	}
	return cache.NewLRU[core.Window, core.Summary](cfg.SummaryCacheSize, cfg.SummaryCacheTTL)
}

// GracefulShutdown returns a context cancelled on SIGINT or SIGTERM.
func GracefulShutdown(ctx context.Context, logger *applog.Logger) (context.Context, context.CancelFunc) {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-ctx.Done()
		logger.Debug("Shutdown signal received", applog.FieldOperation, applog.OpShutdown)
	}()
	return ctx, stop
}
