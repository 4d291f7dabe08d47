// Package app implements the mecard-loader command line.
package app

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/metro-mecard/mecard/internal/config"
	dbValkey "github.com/metro-mecard/mecard/internal/db/valkey"
	"github.com/metro-mecard/mecard/internal/loader"
	logpkg "github.com/metro-mecard/mecard/internal/logger"
	"github.com/metro-mecard/mecard/internal/repository/outcome"
	"github.com/metro-mecard/mecard/internal/version"
)

// NewLoaderCommand builds the mecard-loader root command.
func NewLoaderCommand(ctx context.Context) *cobra.Command {
	opts := &Options{}
	cmd := &cobra.Command{
		Use:           "mecard-loader",
		Short:         "Loads staged MeCard customers into Horizon with bimport",
		Long:          "mecard-loader collects customer records staged by the MeCard server, runs bimport once over all of them, and records the customers bimport rejected.",
		Version:       version.String(),
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	cmd.SetContext(ctx)
	opts.AddFlags(cmd.PersistentFlags())

	cmd.AddCommand(
		newRunCommand(opts),
		newWatchCommand(opts),
		newInitHeaderCommand(opts),
		newFailuresCommand(opts),
		newVersionCommand(),
	)
	return cmd
}

// env is what a subcommand needs after configuration is loaded.
type env struct {
	cfg     config.Config
	logger  *zap.Logger
	loader  *loader.Loader
	outcome *outcome.Store // nil unless outcome.enabled
	cleanup func()
}

func setup(cmd *cobra.Command, opts *Options) (*env, error) {
	cfg, envName, err := opts.Load(cmd.Flags().Changed("upload"))
	if err != nil {
		return nil, err
	}

	logger, err := logpkg.NewLoggerWithFile(envName, cfg.Logging.Level, logpkg.FileOptions{
		Path:       cfg.Logging.File,
		MaxSizeMB:  cfg.Logging.MaxSizeMB,
		MaxBackups: cfg.Logging.MaxBackups,
		MaxAgeDays: cfg.Logging.MaxAgeDays,
		Compress:   cfg.Logging.Compress,
	})
	if err != nil {
		return nil, fmt.Errorf("create logger: %w", err)
	}

	lcfg, err := loader.ConfigFrom(cfg)
	if err != nil {
		_ = logger.Sync()
		return nil, err
	}

	e := &env{cfg: cfg, logger: logger, cleanup: func() { _ = logger.Sync() }}
	var lopts []loader.Option
	if cfg.Outcome.Enabled {
		store, err := dbValkey.NewStore(dbValkey.Config{Addrs: cfg.Outcome.Addrs, Password: cfg.Outcome.Password})
		if err != nil {
			e.cleanup()
			return nil, fmt.Errorf("create outcome store: %w", err)
		}
		e.cleanup = func() {
			store.Close()
			_ = logger.Sync()
		}
		ttl := time.Duration(cfg.Outcome.TTLHours) * time.Hour
		e.outcome = outcome.New(store, cfg.Outcome.KeyPrefix, ttl)
		lopts = append(lopts, loader.WithRecorder(e.outcome))
	}
	e.loader = loader.New(lcfg, logger, lopts...)
	return e, nil
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print build information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			printVersion(cmd.OutOrStdout())
		},
	}
}

func printVersion(w io.Writer) {
	_, _ = fmt.Fprintln(w, "mecard-loader "+version.String())
}
