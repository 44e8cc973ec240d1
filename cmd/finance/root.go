package main

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"finance/internal/backend"
	"finance/internal/cli"
	"finance/internal/config"
	applog "finance/internal/log"
)

var (
	flagConfig   string
	flagBackend  string
	flagDBPath   string
	flagDataDir  string
	flagKey      string
	flagLogLevel string
)

var rootCmd = &cobra.Command{
	Use:           "finance",
	Short:         "Personal spending tracker",
	Long:          "Record spending, filter and sort it, and keep an eye on a spending cap.",
	SilenceUsage:  true,
	SilenceErrors: false,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&flagConfig, "config", "c", "", "TOML config file (default: $"+config.EnvConfigFile+" or the user config dir)")
	rootCmd.PersistentFlags().StringVarP(&flagBackend, "backend", "b", "", "Storage backend: "+strings.Join(backend.GetBackendTypeStrings(), ", "))
	rootCmd.PersistentFlags().StringVar(&flagDBPath, "db", "", "SQLite database path")
	rootCmd.PersistentFlags().StringVarP(&flagDataDir, "data-dir", "d", "", "Directory for the file backend")
	rootCmd.PersistentFlags().StringVar(&flagKey, "key", "", "Storage key the records live under")
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "", "Log level: debug, info, warn or error")
}

// loadConfig resolves configuration from file, environment and flags, in
// that order of increasing precedence.
func loadConfig() (*config.Config, error) {
	cli.LoadEnvFile()

	return cli.LoadAndValidateConfig(flagConfig, func(cfg *config.Config) {
		overrides := []struct {
			flag string
			dst  *string
			val  string
		}{
			{"backend", &cfg.DataBackend, flagBackend},
			{"db", &cfg.SQLiteDBPath, flagDBPath},
			{"data-dir", &cfg.DataDirectory, flagDataDir},
			{"key", &cfg.StorageKey, flagKey},
			{"log-level", &cfg.LogLevel, flagLogLevel},
		}
		for _, o := range overrides {
			if rootCmd.PersistentFlags().Changed(o.flag) {
				*o.dst = o.val
			}
		}
	})
}

// openApp is the shared startup path used by every command. Logs go to
// logOut.
func openApp(ctx context.Context, logOut io.Writer) (*cli.App, *applog.Logger, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, err
	}
	logger := cli.SetupLogger(cfg, logOut)

	app, err := cli.OpenApp(ctx, cfg, logger)
	if err != nil {
		return nil, nil, fmt.Errorf("open ledger: %w", err)
	}
	return app, logger, nil
}
