package main

import (
	"errors"
	"fmt"
	"os"
	"runtime/debug"
	"time"

	"github.com/fatih/color"
	"github.com/hashicorp/go-hclog"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/provide-io/craftlaunch/internal/envconfig"
	"github.com/provide-io/craftlaunch/internal/gamedir"
	"github.com/provide-io/craftlaunch/pkg/launch/supervisor"
	"github.com/provide-io/craftlaunch/pkg/logging"
	"github.com/provide-io/craftlaunch/pkg/settings"
)

const version = "0.1.0"

var (
	configPath      string
	logLevel        string
	dataDir         string
	metricsTextfile string
	playerName      string
)

func buildTimestamp() string {
	// Try to get vcs.time from build info
	if info, ok := debug.ReadBuildInfo(); ok {
		for _, setting := range info.Settings {
			if setting.Key == "vcs.time" {
				if t, err := time.Parse(time.RFC3339, setting.Value); err == nil {
					return t.UTC().Format(time.RFC3339)
				}
			}
		}
	}
	// Fallback to binary modification time
	if exePath, err := os.Executable(); err == nil {
		if stat, err := os.Stat(exePath); err == nil {
			return stat.ModTime().UTC().Format(time.RFC3339)
		}
	}
	return "unknown"
}

// app is what every subcommand shares once flags, environment and settings
// are read.
type app struct {
	env      envconfig.Config
	cfg      *settings.Config
	layout   gamedir.Layout
	logger   hclog.Logger
	metrics  *supervisor.Metrics
	registry *prometheus.Registry
	closeLog func() error
}

func newApp() (*app, error) {
	if err := envconfig.LoadDotenv(envconfig.DotenvFile); err != nil {
		return nil, withCode(ExitInvalidArgs, err)
	}
	env, err := envconfig.Load()
	if err != nil {
		return nil, withCode(ExitInvalidArgs, err)
	}

	level := env.LogLevel
	if logLevel != "" {
		level = logLevel
	}
	output, closeLog, err := logging.OpenOutput(env.LogPath)
	if err != nil {
		return nil, withCode(ExitIOError, fmt.Errorf("open log file: %w", err))
	}
	logger := logging.NewLogger("craftlaunch", logging.Options{Level: level, JSON: env.JSONLog, Output: output})

	cfg, err := settings.Load(configPath)
	if err != nil {
		_ = closeLog()
		return nil, withCode(ExitInvalidArgs, err)
	}

	root := dataDir
	if root == "" {
		root = env.DataDir
	}
	if root == "" {
		root = cfg.DataDir
	}
	layout := gamedir.New(gamedir.DataRoot(root))
	logger.Debug("📂 Data root", "path", layout.Root)

	registry := prometheus.NewRegistry()
	return &app{
		env:      env,
		cfg:      cfg,
		layout:   layout,
		logger:   logger,
		metrics:  supervisor.NewMetrics(registry),
		registry: registry,
		closeLog: closeLog,
	}, nil
}

func (a *app) supervisor() (*supervisor.Supervisor, error) {
	mode, err := parseScriptMode(a.cfg.ScriptMode)
	if err != nil {
		return nil, withCode(ExitInvalidArgs, err)
	}
	return supervisor.New(supervisor.Config{
		Layout:          a.layout,
		Runtimes:        settings.NewStaticRuntimeLocator(a.cfg.Runtimes),
		Credentials:     settings.NewStaticCredentialProvider(a.cfg.Players),
		Metrics:         a.metrics,
		Logger:          a.logger,
		Launcher:        a.cfg.Launcher,
		VerifyFiles:     a.cfg.VerifyFiles,
		VerifyChecksums: a.cfg.VerifyChecksums,
		KeepScripts:     a.cfg.KeepScripts || a.env.KeepScripts,
		ScriptMode:      mode,
	}), nil
}

func (a *app) close() {
	if metricsTextfile != "" {
		if err := prometheus.WriteToTextfile(metricsTextfile, a.registry); err != nil {
			a.logger.Warn("⚠️ Failed to write metrics", "path", metricsTextfile, "error", err)
		}
	}
	if err := a.closeLog(); err != nil {
		fmt.Fprintf(os.Stderr, "close log: %v\n", err)
	}
}

// withApp adapts a subcommand body that needs the shared app.
func withApp(run func(a *app, cmd *cobra.Command, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.close()
		return run(a, cmd, args)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "craftlaunch",
		Short:         "Compose and supervise game launches",
		SilenceErrors: true,
		SilenceUsage:  true,
	}

	rootCmd.SetFlagErrorFunc(func(cmd *cobra.Command, err error) error {
		return withCode(ExitInvalidArgs, err)
	})

	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&configPath, "config", "c", "", "Path to settings file (yaml, json or toml)")
	flags.StringVar(&logLevel, "log-level", "", "Log level (trace, debug, info, warn, error)")
	flags.StringVar(&dataDir, "data-dir", "", "Launcher data directory")
	flags.StringVar(&metricsTextfile, "metrics-textfile", "", "Write launch metrics to this file on exit")

	rootCmd.AddCommand(
		newLaunchCmd(),
		newScriptCmd(),
		newClasspathCmd(),
		newResolveCmd(),
		newVersionsCmd(),
		newVersionCmd(),
	)
	return rootCmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "craftlaunch %s\n", version)
			fmt.Fprintf(cmd.OutOrStdout(), "Built: %s\n", buildTimestamp())
		},
	}
}

func main() {
	// Set up panic recovery to return specific exit code
	defer func() {
		if r := recover(); r != nil {
			fmt.Fprintf(os.Stderr, "PANIC: %v\n", r)
			debug.PrintStack()
			os.Exit(ExitPanic)
		}
	}()

	err := newRootCmd().Execute()
	if err == nil {
		return
	}

	var coded *exitError
	if !errors.As(err, &coded) || coded.err != nil {
		color.New(color.FgRed).Fprintf(os.Stderr, "❌ %v\n", err)
	}
	os.Exit(exitCodeFor(err))
}
