// Package cli provides common initialization and terminal rendering for the
// finance commands.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/joho/godotenv"

	"finance/internal/backend"
	"finance/internal/config"
	"finance/internal/ledger"
	applog "finance/internal/log"
	"finance/internal/services"
	"finance/internal/view"
)

// SetupLogger builds the process logger at the configured level and installs
// it as the slog default.
func SetupLogger(cfg *config.Config, out io.Writer) *applog.Logger {
	lc := applog.DefaultConfig()
	if cfg != nil {
		lc.Level = cfg.Level()
	}
	if out != nil {
		lc.Output = out
	}
	logger := applog.New(lc)
	applog.SetDefault(logger)
	return logger
}

// LoadEnvFile loads the .env file for local development.
// Errors are ignored silently as this is optional.
func LoadEnvFile() {
	_ = godotenv.Load()
}

// LoadAndValidateConfig reads configuration from path, or from
// $FINANCE_CONFIG and the default location when path is empty. Overrides run
// in order before validation.
func LoadAndValidateConfig(path string, overrides ...func(*config.Config)) (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if path == "" {
		cfg, err = config.Load()
	} else {
		cfg, err = config.LoadFrom(path)
	}
	if err != nil {
		return nil, err
	}
	for _, override := range overrides {
		override(cfg)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// App is the wired ledger: storage slot, record store and the service the
// HTTP server and commands drive.
type App struct {
	Config    *config.Config
	Store     *ledger.Store
	Projector *view.Projector
	Service   *services.LedgerService

	backend *backend.BackendResult
}

// OpenApp creates the configured backend, loads persisted records and wires
// the ledger service.
func OpenApp(ctx context.Context, cfg *config.Config, logger *applog.Logger) (*App, error) {
	if logger == nil {
		logger = applog.Default()
	}

	bcfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		return nil, err
	}
	res, err := backend.NewFactory(logger).CreateBackend(ctx, bcfg)
	if err != nil {
		return nil, err
	}

	store, err := ledger.Load(ctx, res.Slot, cfg.StorageKey,
		ledger.WithRules(cfg.Rules()),
		ledger.WithLogger(logger.WithComponent(applog.ComponentLedger)))
	if err != nil {
		return nil, errors.Join(err, res.Close())
	}

	spendingCap, err := cfg.SpendingCapMoney()
	if err != nil {
		return nil, errors.Join(fmt.Errorf("spending cap: %w", err), res.Close())
	}

	projector := view.NewProjector(cfg.PatternCacheSize, cfg.PatternCacheTTL)
	return &App{
		Config:    cfg,
		Store:     store,
		Projector: projector,
		Service:   services.NewLedgerService(store, projector, spendingCap),
		backend:   res,
	}, nil
}

// Close releases the storage backend.
func (a *App) Close() error {
	if a == nil || a.backend == nil {
		return nil
	}
	return a.backend.Close()
}
