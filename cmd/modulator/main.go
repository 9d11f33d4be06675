// Package main provides the modulator binary entry point.
// Modulator finds chord progressions that move between musical keys, either
// from the command line or as a NATS request/reply service.
package main

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"runtime"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/c360studio/modulator/config"
	"github.com/c360studio/modulator/export"
	"github.com/c360studio/modulator/modulation"
	"github.com/c360studio/modulator/theory"
)

const (
	Version   = "0.1.0"
	BuildTime = "dev"
	appName   = "modulator"
)

func main() {
	defer func() {
		if r := recover(); r != nil {
			buf := make([]byte, 4096)
			n := runtime.Stack(buf, false)
			_, _ = fmt.Fprintf(os.Stderr, "PANIC: %v\nStack trace:\n%s\n", r, string(buf[:n]))
			os.Exit(2)
		}
	}()

	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// globalOptions are the persistent flags shared by every subcommand.
type globalOptions struct {
	configPath string
	logLevel   string
}

func rootCmd() *cobra.Command {
	opts := &globalOptions{}

	cmd := &cobra.Command{
		Use:   appName,
		Short: "Key modulation path finder",
		Long: `Modulator builds a graph of the 34 major and minor keys spelled from a
17-pitch palette, linking keys that share triads, and answers "how do I get
from key A to key B" with the shortest chord progression.

Keys are written as "<tonic>:<mode>", e.g. C:major, Bb:minor or f#:minor.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "", "Config file path (YAML)")
	cmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "info", "Log level (debug, info, warn, error)")

	cmd.AddCommand(
		pathCmd(opts),
		graphCmd(opts),
		keysCmd(opts),
		serveCmd(opts),
		&cobra.Command{
			Use:   "version",
			Short: "Print version information",
			Run: func(cmd *cobra.Command, args []string) {
				fmt.Fprintf(cmd.OutOrStdout(), "%s version %s (build: %s)\n", appName, Version, BuildTime)
			},
		},
	)

	return cmd
}

func pathCmd(opts *globalOptions) *cobra.Command {
	var (
		seed   uint64
		format string
	)

	cmd := &cobra.Command{
		Use:   "path START DEST",
		Short: "Print the shortest modulation between two keys",
		Example: `  modulator path C:major A:minor
  modulator path "Bb major" "e minor" --seed 7 --format json`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := export.ParseFormat(format)
			if err != nil {
				return err
			}
			start, err := theory.ParseKeyString(args[0])
			if err != nil {
				return fmt.Errorf("start key: %w", err)
			}
			dest, err := theory.ParseKeyString(args[1])
			if err != nil {
				return fmt.Errorf("destination key: %w", err)
			}

			env, err := setup(opts)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("seed") {
				env.cfg.Engine.Seed = seed
			}
			engine, err := newEngine(env.cfg, env.logger)
			if err != nil {
				return err
			}

			p, err := engine.FindChordPath(cmd.Context(), start, dest)
			if err != nil {
				return err
			}
			return export.WriteProgression(cmd.OutOrStdout(), p, f)
		},
	}

	cmd.Flags().Uint64Var(&seed, "seed", 0, "Seed for cadence selection (overrides engine.seed)")
	cmd.Flags().StringVarP(&format, "format", "f", "text", "Output format (text, json, yaml)")
	return cmd
}

func graphCmd(opts *globalOptions) *cobra.Command {
	var (
		format string
		output string
	)

	cmd := &cobra.Command{
		Use:   "graph",
		Short: "Dump the key graph",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := export.ParseFormat(format)
			if err != nil {
				return err
			}

			env, err := setup(opts)
			if err != nil {
				return err
			}
			engine, err := newEngine(env.cfg, env.logger)
			if err != nil {
				return err
			}

			if output == "" {
				return export.WriteGraph(cmd.OutOrStdout(), engine.Graph(), f)
			}

			file, err := os.Create(output)
			if err != nil {
				return fmt.Errorf("create output file: %w", err)
			}
			if err := export.WriteGraph(file, engine.Graph(), f); err != nil {
				file.Close()
				return err
			}
			if err := file.Close(); err != nil {
				return fmt.Errorf("close output file: %w", err)
			}
			env.logger.Info("Graph written", "path", output, "format", f)
			return nil
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", "text", "Output format (text, json, yaml, dot)")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Write to file instead of stdout")
	return cmd
}

func keysCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "keys",
		Short: "List every key in the graph with its neighbour count",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := setup(opts)
			if err != nil {
				return err
			}
			engine, err := newEngine(env.cfg, env.logger)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			for _, n := range engine.Graph().Nodes() {
				fmt.Fprintf(out, "%-10s %2d\n", n.Key, n.Degree())
			}
			return nil
		},
	}
}

func serveCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Answer path requests over NATS",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := setup(opts)
			if err != nil {
				return err
			}
			engine, err := newEngine(env.cfg, env.logger)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			app := NewApp(env.cfg, engine, env.logger)
			if err := app.Start(ctx); err != nil {
				app.Shutdown(5 * time.Second)
				return err
			}

			env.logger.Info("Modulator ready",
				"version", Version,
				"keys", engine.Graph().Len(),
				"fingerprint", engine.Graph().Fingerprint())

			<-ctx.Done()
			app.Shutdown(10 * time.Second)
			return nil
		},
	}
}

type environment struct {
	cfg    *config.Config
	logger *slog.Logger
}

func setup(opts *globalOptions) (*environment, error) {
	logger := newLogger(opts.logLevel)
	slog.SetDefault(logger)

	cfg, err := config.NewLoader(logger).Load(opts.configPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return &environment{cfg: cfg, logger: logger}, nil
}

func newLogger(logLevel string) *slog.Logger {
	level := slog.LevelInfo
	switch strings.ToLower(logLevel) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

func newEngine(cfg *config.Config, logger *slog.Logger) (*modulation.Engine, error) {
	palette, err := cfg.Engine.Pitches()
	if err != nil {
		return nil, fmt.Errorf("engine palette: %w", err)
	}

	opts := []modulation.Option{
		modulation.WithPalette(palette),
		modulation.WithLogger(logger),
	}
	if cfg.Engine.Seed != 0 {
		opts = append(opts, modulation.WithRandom(modulation.NewSeededSource(cfg.Engine.Seed)))
	}

	engine, err := modulation.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("build engine: %w", err)
	}
	return engine, nil
}
