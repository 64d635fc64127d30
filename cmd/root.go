package cmd

import (
	"fmt"

	"github.com/bnema/helpdesk-agent/internal/config"
	"github.com/bnema/helpdesk-agent/internal/logging"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

func Execute() error {
	return newRootCmd().Execute()
}

type rootOptions struct {
	configPath string
	verbose    bool
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	rootCmd := &cobra.Command{
		Use:   "hda",
		Short: "Helpdesk agent (hda): customer-support conversation orchestrator",
		Long: "hda runs the support assistant: a session API, an interactive chat, " +
			"a mock commerce backend for local development and tools to inspect traces and escalations.",
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	rootCmd.PersistentFlags().StringVar(&opts.configPath, "config", "", "Config file (default ~/.config/hda/config.toml)")
	rootCmd.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "Enable debug logging")

	rootCmd.AddCommand(
		newVersionCmd(),
		newConfigCmd(opts),
		newSecretCmd(opts),
		newServeCmd(opts),
		newMockAPICmd(opts),
		newSessionCmd(opts),
		newChatCmd(opts),
		newEscalationsCmd(opts),
	)

	return rootCmd
}

// load reads the configuration and builds the process logger.
func (o *rootOptions) load() (config.Config, *zap.Logger, error) {
	cfg, err := config.Load(viper.New(), o.configPath)
	if err != nil {
		return config.Config{}, nil, err
	}

	level := cfg.Log.Level
	if o.verbose {
		level = "debug"
	}
	logger, err := logging.New(level, cfg.Log.JSON)
	if err != nil {
		return config.Config{}, nil, fmt.Errorf("init logger: %w", err)
	}

	return cfg, logger, nil
}

// withApp wires the application for the duration of fn.
func (o *rootOptions) withApp(cmd *cobra.Command, fn func(*app) error) error {
	cfg, logger, err := o.load()
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	a, err := wireApp(cmd.Context(), cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := a.Close(); closeErr != nil {
			logger.Warn("shutdown", zap.Error(closeErr))
		}
	}()

	return fn(a)
}
