package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"voice-slicer/internal/config"

	"github.com/spf13/cobra"
)

var (
	configPath string
	logLevel   string
	logFormat  string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "voice-slicer",
	Short: "Cut long speech recordings into short clips for TTS datasets",
	Long: `voice-slicer splits long recordings of speech into short clips that start and end
in natural pauses. Clips are written as 22050 Hz 16-bit WAV files and can then be
transcribed into a metadata table for text-to-speech training.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute(ctx context.Context) {
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "",
		"Configuration file (.yaml, .yml or .toml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info",
		"Log level: debug, info, warn, error")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "text",
		"Log format: text or json")

	rootCmd.AddCommand(sliceCmd, transcribeCmd)
}

// loadConfig resolves the configuration for cmd. Flag values only win over
// the file and environment when the flag was set explicitly; apply copies
// the command's own flags.
func loadConfig(cmd *cobra.Command, apply func(*cobra.Command, *config.Config)) (*config.Config, *slog.Logger, error) {
	cfg, err := config.Load(cmd.Context(), configPath, nil)
	if err != nil {
		return nil, nil, err
	}

	if cmd.Flags().Changed("log-level") {
		cfg.LogLevel = logLevel
	}
	if cmd.Flags().Changed("log-format") {
		cfg.LogFormat = logFormat
	}
	if apply != nil {
		apply(cmd, cfg)
	}

	if err := cfg.Validate(); err != nil {
		return nil, nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	logger := cfg.NewLogger(cmd.ErrOrStderr())
	slog.SetDefault(logger)
	logger.Debug("configuration loaded", slog.String("config", cfg.String()))

	return cfg, logger, nil
}
