// pkg/cli/root.go
package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/bstardust/photo-timeline/internal/config"
	"github.com/bstardust/photo-timeline/internal/logger"
	"github.com/spf13/cobra"
)

// options holds the global flags; the loaded configuration is shared by all commands
type options struct {
	configPath string
	logLevel   string
	cfg        *config.Config
}

func Execute() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle interruption signals
	signalCh := make(chan os.Signal, 1)
	signal.Notify(signalCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-signalCh
		logger.Info("Received interrupt signal, shutting down gracefully...")
		cancel()
	}()

	if err := newRootCommand().ExecuteContext(ctx); err != nil {
		logger.Error("Error executing command: %v", err)
		logger.Sync()
		os.Exit(1)
	}
	logger.Sync()
}

func newRootCommand() *cobra.Command {
	opts := &options{cfg: config.New()}

	rootCmd := &cobra.Command{
		Use:   "photo-timeline",
		Short: "Group photos into a timeline of days and places",
		Long: `A tool that reads capture time and GPS position from photos (JPEG, HEIC and more),
resolves the position to an address and groups the photos by day and place.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(opts.configPath)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("log-level") {
				cfg.LogLevel = opts.logLevel
			}
			logger.SetLevel(cfg.LogLevel)
			*opts.cfg = *cfg
			return nil
		},
	}

	// Global flags
	rootCmd.PersistentFlags().StringVar(&opts.configPath, "config", "", "Path to a config file (yaml, toml or json)")
	rootCmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "info", "Log level (debug, info, warn, error)")

	// Add commands
	rootCmd.AddCommand(newTimelineCommand(opts))
	rootCmd.AddCommand(newInspectCommand(opts))
	rootCmd.AddCommand(newServeCommand(opts))

	return rootCmd
}
