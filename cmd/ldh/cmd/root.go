package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	slogcontext "github.com/veqryn/slog-context"
)

// Build-time variables set via -ldflags.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// Global flags.
var (
	manifestPath   string
	lockfilePath   string
	dependencyRoot string
	verbose        bool
	quiet          bool
	logLevel       string
	logFormat      string
)

var rootCmd = &cobra.Command{
	Use:   "ldh",
	Short: "Git-based dependency manager",
	Long: `ldh resolves dependencies declared in ldh.toml against their git remotes,
checks them out into a local dependency root and records the exact result in
ldh.lock. Later runs reuse what is already on disk and only fetch what changed.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		logger, err := newLogger(cmd)
		if err != nil {
			return err
		}
		cmd.SetContext(slogcontext.NewCtx(cmd.Context(), logger))
		return nil
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("ldh %s\n", version)
		fmt.Printf("  commit:  %s\n", commit)
		fmt.Printf("  built:   %s\n", date)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&manifestPath, "manifest", "ldh.toml", "path to manifest")
	rootCmd.PersistentFlags().StringVar(&lockfilePath, "lockfile", "ldh.lock", "path to lockfile")
	rootCmd.PersistentFlags().StringVar(&dependencyRoot, "root", "", "dependency root (overrides settings)")
	rootCmd.PersistentFlags().BoolVar(&verbose, "verbose", false, "detailed output")
	rootCmd.PersistentFlags().BoolVar(&quiet, "quiet", false, "minimal output (errors only)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "loglevel", "warn", "set the log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVarP(&logFormat, "logformat", "f", "text", "set the log format (text, json)")

	rootCmd.AddCommand(versionCmd)
}

// newLogger builds the stderr logger from --loglevel and --logformat.
func newLogger(cmd *cobra.Command) (*slog.Logger, error) {
	level, err := parseLevel(logLevel)
	if err != nil {
		return nil, err
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	switch logFormat {
	case "json":
		handler = slog.NewJSONHandler(cmd.ErrOrStderr(), opts)
	case "text":
		handler = slog.NewTextHandler(cmd.ErrOrStderr(), opts)
	default:
		return nil, fmt.Errorf("invalid log format: %s", logFormat)
	}
	return slog.New(handler), nil
}

func parseLevel(s string) (slog.Level, error) {
	switch s {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelWarn, fmt.Errorf("invalid log level: %s", s)
	}
}

// Execute runs the root command.
func Execute() error {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return err
	}
	return nil
}
