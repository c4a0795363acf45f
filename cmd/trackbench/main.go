package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/vango-dev/tracking/internal/config"
	"github.com/vango-dev/tracking/internal/errors"
)

// Version information set at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// globalFlags are the persistent flags shared by every command.
type globalFlags struct {
	configPath string
	strict     bool
	logLevel   string
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		errors.PrintError(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	flags := &globalFlags{}

	rootCmd := &cobra.Command{
		Use:   "trackbench",
		Short: "Exercise the tracking engine with synthetic render passes",
		Long: `trackbench drives the reactive tracking engine with a synthetic
component tree and reports how much work its caches save.

The tree is built from:

  • a tracked map of rows and a tracked set of selected rows
  • layers of per-row cache families reading the layer below
  • a total cache reading every row of the top layer

Each pass renders the whole tree; writes happen between passes.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVarP(&flags.configPath, "config", "c", "", "Config file (default: trackbench.yaml or trackbench.json in the working directory)")
	rootCmd.PersistentFlags().BoolVar(&flags.strict, "strict", false, "Enable strict consistency checks")
	rootCmd.PersistentFlags().StringVar(&flags.logLevel, "log-level", "", "Log level: debug, info, warn, error")

	rootCmd.AddCommand(
		runCmd(flags),
		serveCmd(flags),
		explainCmd(),
		initCmd(),
		versionCmd(),
	)

	return rootCmd
}

// loadConfig resolves the config file and applies persistent flag overrides.
// A missing default config file is not an error.
func loadConfig(cmd *cobra.Command, flags *globalFlags) (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	switch {
	case flags.configPath != "":
		cfg, err = config.LoadFile(flags.configPath)
	default:
		if _, ok := config.Find("."); ok {
			cfg, err = config.Load(".")
		} else {
			cfg = config.New()
		}
	}
	if err != nil {
		return nil, err
	}

	if cmd.Flags().Changed("strict") {
		cfg.Strict = flags.strict
	}
	if flags.logLevel != "" {
		cfg.LogLevel = flags.logLevel
	}
	return cfg, nil
}

// newLogger builds the text logger used by every command.
func newLogger(w io.Writer, cfg *config.Config) *slog.Logger {
	level, err := cfg.SlogLevel()
	if err != nil {
		level = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

var colorOut = errors.IsTerminal(os.Stdout)

func paint(code, s string) string {
	if !colorOut {
		return s
	}
	return code + s + "\033[0m"
}

// success prints a success message.
func success(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, "%s %s\n", paint("\033[32m", "✓"), fmt.Sprintf(format, args...))
}

// info prints an info message.
func info(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, "  %s\n", fmt.Sprintf(format, args...))
}

// warn prints a warning message.
func warn(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, "%s %s\n", paint("\033[33m", "⚠"), fmt.Sprintf(format, args...))
}
