// Package cli implements the fbvideodl command line using Cobra.
package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"fbvideodl/internal/config"
	"fbvideodl/internal/logging"
	"fbvideodl/pkg/models"
)

// skipConfig marks commands that run without loading configuration
const skipConfig = "skip-config"

// app holds state shared by every command. cfg and logger are populated by
// the root command's PersistentPreRunE.
type app struct {
	configPath string
	debug      bool
	logLevel   string

	cfg    *models.Config
	logger *zap.Logger
}

// NewRootCommand builds the command tree
func NewRootCommand() *cobra.Command {
	return newRootCommand(&app{})
}

func newRootCommand(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:   "fbvideodl",
		Short: "Facebook video metadata and download URL service",
		Long: `fbvideodl resolves public Facebook video URLs into metadata and direct
download links through yt-dlp, and serves them over an HTTP API.`,
		SilenceUsage:      true,
		PersistentPreRunE: a.load,
		PersistentPostRun: func(*cobra.Command, []string) {
			if a.logger != nil {
				a.logger.Sync()
			}
		},
	}

	root.PersistentFlags().StringVar(&a.configPath, "config", "", "Config file (default: ./.env when present)")
	root.PersistentFlags().BoolVar(&a.debug, "debug", false, "Enable debug logging")
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "Log level: debug | info | warn | error")

	root.AddCommand(a.newServeCommand())
	root.AddCommand(a.newFetchCommand())
	root.AddCommand(a.newYtdlpCommand())
	root.AddCommand(newVersionCommand())

	return root
}

// Execute runs the CLI and returns the process exit code
func Execute() int {
	if err := NewRootCommand().Execute(); err != nil {
		return 1
	}
	return 0
}

// load reads configuration, applies flag overrides and builds the logger.
// Precedence: defaults < config file < environment < flags.
func (a *app) load(cmd *cobra.Command, args []string) error {
	if cmd.Annotations[skipConfig] == "true" {
		return nil
	}

	cfg, err := config.Load(a.configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	if a.debug {
		cfg.Debug = true
	}
	if a.logLevel != "" {
		cfg.LogLevel = a.logLevel
	}
	if err := a.applyServeFlags(cmd, cfg); err != nil {
		return err
	}

	if err := config.Validate(cfg); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	logger, err := logging.New(cfg.LogLevel, cfg.Debug)
	if err != nil {
		return fmt.Errorf("creating logger: %w", err)
	}

	a.cfg = cfg
	a.logger = logger
	return nil
}

// applyServeFlags copies explicitly set --host/--port values into cfg
func (a *app) applyServeFlags(cmd *cobra.Command, cfg *models.Config) error {
	flags := cmd.Flags()

	if flags.Lookup("port") != nil && flags.Changed("port") {
		port, err := flags.GetInt("port")
		if err != nil {
			return err
		}
		cfg.Port = port
	}
	if flags.Lookup("host") != nil && flags.Changed("host") {
		host, err := flags.GetString("host")
		if err != nil {
			return err
		}
		cfg.Host = host
	}
	return nil
}

func printf(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, format, args...)
}
