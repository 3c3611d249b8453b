package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/vovakirdan/meister-server/internal/app"
	"github.com/vovakirdan/meister-server/internal/config"
	applog "github.com/vovakirdan/meister-server/internal/log"
)

type flags struct {
	configPath string
	overrides  config.Config
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var f flags

	root := &cobra.Command{
		Use:           "meister-server",
		Short:         "Multiplayer Othello server with Meister move analysis",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return serve(cmd.Context(), f)
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&f.configPath, "config", "", "path to config.yaml (default: $MEISTER_CONFIG_DEFAULT_PATH or ./config.yaml)")
	pf.StringVar(&f.overrides.Addr, "addr", "", "HTTP listen address")
	pf.StringVar(&f.overrides.LogLevel, "log-level", "", "log level (debug, info, warn, error)")
	pf.StringVar(&f.overrides.StoreDriver, "store", "", "store driver (sqlite or redis)")
	pf.StringVar(&f.overrides.SQLitePath, "sqlite-path", "", "sqlite database file")
	pf.StringVar(&f.overrides.RedisURL, "redis-url", "", "redis connection url")
	pf.IntVar(&f.overrides.Rooms, "rooms", 0, "number of game rooms")

	root.AddCommand(newConfigCmd(&f))
	return root
}

func newConfigCmd(f *flags) *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Print the resolved configuration",
		RunE: func(cmd *cobra.Command, _ []string) error {
			nop := zerolog.Nop()
			cfg, path, err := loadConfig(&nop, f)
			if err != nil {
				return err
			}
			out, err := yaml.Marshal(cfg)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "# %s\n%s", path, out)
			return nil
		},
	}
}

func loadConfig(logger *zerolog.Logger, f *flags) (config.Config, string, error) {
	cfg, path, err := config.Load(logger, f.configPath)
	if err != nil {
		return cfg, path, err
	}
	cfg.UpdateFrom(f.overrides)
	if err := cfg.Validate(); err != nil {
		return cfg, path, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, path, nil
}

func serve(ctx context.Context, f flags) error {
	bootLogger := applog.New("info", "console")
	cfg, path, err := loadConfig(bootLogger, &f)
	if err != nil {
		bootLogger.Error().Err(err).Msg("failed to load config")
		return err
	}

	logger := applog.New(cfg.LogLevel, cfg.LogFormat)
	logger.Info().Str("config", path).Str("store", cfg.StoreDriver).Msg("config loaded")

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	application, err := app.New(&cfg, logger)
	if err != nil {
		logger.Error().Err(err).Msg("failed to initialize")
		return err
	}

	logger.Info().Str("addr", cfg.Addr).Msg("starting meister server")
	if err := application.Run(ctx); err != nil {
		logger.Error().Err(err).Msg("server exited with error")
		return err
	}
	logger.Info().Msg("server stopped")
	return nil
}
