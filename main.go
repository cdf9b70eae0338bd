package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"musicbridge/actions"
	"musicbridge/config"
	"musicbridge/logging"
)

type app struct {
	cfg     config.Config
	logger  *zap.Logger
	service *actions.Service
}

type appKey struct{}

func main() {
	if err := newRootCommand().Execute(); err != nil {
		if !errors.Is(err, errActionFailed) {
			fmt.Fprintln(os.Stderr, "Error:", err)
		}
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	var (
		configPath string
		listen     string
		logLevel   string
	)

	root := &cobra.Command{
		Use:           "musicbridge",
		Short:         "Local HTTP bridge for Apple Music and browser search",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVarP(&configPath, "config", "c", "", "config file (default $XDG_CONFIG_HOME/musicbridge/config.toml)")
	root.PersistentFlags().StringVarP(&listen, "listen", "l", "", "HTTP listen address")
	root.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug|info|warn|error)")

	root.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(configPath)
		if err != nil {
			return err
		}
		if listen != "" {
			cfg.Server.Listen = listen
		}
		if logLevel != "" {
			cfg.Server.LogLevel = logLevel
		}
		if err := cfg.Validate(); err != nil {
			return err
		}

		logger, err := logging.InitLogger(cfg.Server.LogLevel, cfg.Server.LogFormat)
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}

		cmd.SetContext(context.WithValue(cmd.Context(), appKey{}, &app{
			cfg:     cfg,
			logger:  logger,
			service: actions.FromConfig(cfg, logger),
		}))
		return nil
	}
	root.PersistentPostRun = func(cmd *cobra.Command, args []string) {
		if a := fromContext(cmd); a != nil {
			_ = a.logger.Sync()
		}
	}

	root.AddCommand(serveCommand())
	root.AddCommand(playCommand())
	root.AddCommand(openPlayerCommand())
	root.AddCommand(searchCommand())
	root.AddCommand(configCommand())

	return root
}

func fromContext(cmd *cobra.Command) *app {
	val := cmd.Context().Value(appKey{})
	if val == nil {
		return nil
	}
	return val.(*app)
}

// errActionFailed is returned by one-shot commands whose action reported
// Success=false, so the process exits non-zero.
var errActionFailed = errors.New("action failed")
