package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/kidoz/zabbix-event-export-go/internal/config"
	"github.com/kidoz/zabbix-event-export-go/internal/telemetry"
)

// Version is set at build time with -ldflags "-X .../cmd.Version=...".
var Version = "dev"

var (
	cfgFile      string
	verbose      bool
	cfg          *config.Config
	log          *zap.Logger
	otelShutdown func(context.Context) error
)

var rootCmd = &cobra.Command{
	Use:   "zbx-export",
	Short: "Export Zabbix events and problems to CSV",
	Long: `zbx-export pulls events from a Zabbix server over its JSON-RPC API,
resolves severity, duration, hosts and host groups for each of them and
writes the result to a CSV file.

It asks interactively for the output file, the query mode (History events
in a timeframe, or Recent problems) and, when the config file does not
provide them, for the API URL and credentials.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Name() == "version" {
			return nil
		}

		var err error
		cfg, err = config.Load(cfgFile)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		log, err = newLogger(&cfg.Logger, verbose)
		if err != nil {
			return fmt.Errorf("failed to init logger: %w", err)
		}
		if cfgFile != "" {
			log.Debug("Loaded config", zap.String("path", cfgFile))
		}

		otelShutdown, err = telemetry.Init(context.Background(), &cfg.Telemetry, verbose, Version)
		if err != nil {
			return fmt.Errorf("failed to init telemetry: %w", err)
		}

		return nil
	},
	RunE: runExport,
}

func Execute() {
	if err := execute(); err != nil {
		os.Exit(1)
	}
}

// execute runs the root command, then flushes telemetry and the logger
// whether or not the command failed.
func execute() error {
	err := rootCmd.Execute()
	if serr := shutdown(context.Background()); serr != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to shut down telemetry: %v\n", serr)
		if err == nil {
			err = serr
		}
	}
	return err
}

func shutdown(ctx context.Context) error {
	if log != nil {
		_ = log.Sync()
	}
	if otelShutdown == nil {
		return nil
	}
	err := otelShutdown(ctx)
	otelShutdown = nil
	return err
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", config.FindConfigPath(), "config file path (YAML or INI)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging and trace output")
}

func GetConfig() *config.Config {
	return cfg
}

func GetLogger() *zap.Logger {
	return log
}

// newLogger writes to the configured log file, or to stderr so that prompts
// on stdout stay readable.
func newLogger(lc *config.LoggerConfig, verbose bool) (*zap.Logger, error) {
	level := zap.InfoLevel
	if lc.Level != "" {
		parsed, err := zapcore.ParseLevel(lc.Level)
		if err != nil {
			return nil, err
		}
		level = parsed
	}
	if verbose {
		level = zap.DebugLevel
	}

	output := "stderr"
	if lc.LogFile != "" {
		output = lc.LogFile
	}

	zc := zap.Config{
		Level:            zap.NewAtomicLevelAt(level),
		Encoding:         "console",
		OutputPaths:      []string{output},
		ErrorOutputPaths: []string{"stderr"},
		EncoderConfig: zapcore.EncoderConfig{
			TimeKey:        "T",
			LevelKey:       "L",
			MessageKey:     "M",
			LineEnding:     zapcore.DefaultLineEnding,
			EncodeLevel:    zapcore.CapitalLevelEncoder,
			EncodeTime:     zapcore.ISO8601TimeEncoder,
			EncodeDuration: zapcore.StringDurationEncoder,
		},
	}
	return zc.Build()
}
