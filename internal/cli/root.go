package cli

import (
	"fmt"
	"os"

	"github.com/ZJUSCT/CSArena/internal/config"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// Execute runs the CLI.
func Execute(version string) error {
	return newRootCmd(version).Execute()
}

func newRootCmd(version string) *cobra.Command {
	defaultConfig := os.Getenv("CSARENA_CONFIG")
	if defaultConfig == "" {
		defaultConfig = "configs/config.yaml"
	}

	var configPath string
	cmd := &cobra.Command{
		Use:           "csarena",
		Short:         "Contest lifecycle and scoring service for CS practice groups",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().StringVarP(&configPath, "config", "c", defaultConfig, "path to YAML config")

	cmd.AddCommand(newServeCmd(&configPath))
	cmd.AddCommand(newMigrateCmd(&configPath))
	cmd.AddCommand(newTokenCmd(&configPath))
	return cmd
}

// setupLogger installs the global zap logger described by cfg. The returned
// function flushes it.
func setupLogger(cfg config.Logger) (func(), error) {
	var zc zap.Config
	if cfg.Level == "debug" {
		zc = zap.NewDevelopmentConfig()
	} else {
		zc = zap.NewProductionConfig()
		if cfg.Level != "" {
			level, err := zap.ParseAtomicLevel(cfg.Level)
			if err != nil {
				return nil, fmt.Errorf("invalid logger level %q: %w", cfg.Level, err)
			}
			zc.Level = level
		}
	}
	if cfg.File != "" {
		zc.OutputPaths = append(zc.OutputPaths, cfg.File)
	}

	logger, err := zc.Build()
	if err != nil {
		return nil, fmt.Errorf("can't initialize zap logger: %w", err)
	}
	zap.ReplaceGlobals(logger)
	return func() { _ = logger.Sync() }, nil
}
