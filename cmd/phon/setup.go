package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/phonometrica/phonometrica-sub000/engine"
	"github.com/phonometrica/phonometrica-sub000/internal/diagfmt"
	"github.com/phonometrica/phonometrica-sub000/internal/prof"
	"github.com/phonometrica/phonometrica-sub000/internal/trace"
)

// setupColor applies --color to fatih/color, which every renderer uses.
func setupColor(cmd *cobra.Command) error {
	mode, err := cmd.Flags().GetString("color")
	if err != nil {
		return err
	}
	switch strings.ToLower(mode) {
	case "on":
		color.NoColor = false
	case "off":
		color.NoColor = true
	case "auto", "":
		color.NoColor = os.Getenv("NO_COLOR") != "" || !isTerminal(os.Stderr)
	default:
		return fmt.Errorf("invalid --color value %q (expected auto|on|off)", mode)
	}
	return nil
}

func prettyOpts(showBacktrace bool) diagfmt.PrettyOpts {
	wd, _ := os.Getwd()
	return diagfmt.PrettyOpts{
		Color:         !color.NoColor,
		PathMode:      diagfmt.PathModeAuto,
		BaseDir:       wd,
		ShowNotes:     true,
		ShowBacktrace: showBacktrace,
	}
}

// loadConfig builds the engine configuration: defaults, then phon.toml,
// then the flags that were set explicitly.
func loadConfig(cmd *cobra.Command) (engine.Config, error) {
	cfg := engine.DefaultConfig()
	flags := cmd.Flags()

	path, err := flags.GetString("config")
	if err != nil {
		return cfg, err
	}
	if path == "" {
		wd, err := os.Getwd()
		if err != nil {
			return cfg, err
		}
		if path, err = engine.FindConfig(wd); err != nil {
			return cfg, err
		}
	}
	if path != "" {
		if cfg, err = engine.LoadConfig(path, cfg); err != nil {
			return cfg, err
		}
	}

	if flags.Changed("module-path") {
		extra, err := flags.GetStringSlice("module-path")
		if err != nil {
			return cfg, err
		}
		for _, p := range extra {
			if abs, err := filepath.Abs(p); err == nil {
				p = abs
			}
			cfg.ModulePaths = append(cfg.ModulePaths, p)
		}
	}
	if flags.Changed("stack-size") {
		if cfg.StackSize, err = flags.GetInt("stack-size"); err != nil {
			return cfg, err
		}
	}
	if flags.Changed("max-call-depth") {
		if cfg.MaxCallDepth, err = flags.GetInt("max-call-depth"); err != nil {
			return cfg, err
		}
	}
	if flags.Changed("cache") {
		if cfg.Cache, err = flags.GetBool("cache"); err != nil {
			return cfg, err
		}
	}
	if flags.Changed("cache-dir") {
		if cfg.CacheDir, err = flags.GetString("cache-dir"); err != nil {
			return cfg, err
		}
		cfg.Cache = true
	}
	if flags.Changed("trace-level") {
		if cfg.TraceLevel, err = flags.GetString("trace-level"); err != nil {
			return cfg, err
		}
	}
	return cfg, nil
}

// newRuntime creates a runtime from the configuration and the tracer set
// up for cmd. out receives print statements.
func newRuntime(cmd *cobra.Command, cfg engine.Config) (*engine.Runtime, error) {
	if cfg.Output == nil {
		cfg.Output = cmd.OutOrStdout()
	}
	if t := trace.FromContext(cmd.Context()); t.Enabled() {
		cfg.Tracer = t
	}
	return engine.New(cfg)
}

func setupProfiling(cmd *cobra.Command) (func(error), error) {
	flags := cmd.Flags()
	var opts prof.Options
	var err error
	if opts.CPU, err = flags.GetString("cpu-profile"); err != nil {
		return nil, err
	}
	if opts.Mem, err = flags.GetString("mem-profile"); err != nil {
		return nil, err
	}
	if opts.Trace, err = flags.GetString("runtime-trace"); err != nil {
		return nil, err
	}
	if opts == (prof.Options{}) {
		return func(error) {}, nil
	}
	session, err := prof.Start(opts)
	if err != nil {
		return nil, fmt.Errorf("start profiling: %w", err)
	}
	return func(error) {
		if err := session.Stop(); err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "profiling: %v\n", err)
		}
	}, nil
}

// setupTracing creates the tracer selected by the trace flags, falling back
// to trace_level from phon.toml, and attaches it to the command context.
// When the command fails, events kept in a ring are dumped to stderr.
func setupTracing(cmd *cobra.Command) (func(error), error) {
	flags := cmd.Flags()
	output, err := flags.GetString("trace")
	if err != nil {
		return nil, err
	}
	levelStr, err := flags.GetString("trace-level")
	if err != nil {
		return nil, err
	}
	if levelStr == "" {
		if cfg, err := loadConfig(cmd); err == nil {
			levelStr = cfg.TraceLevel
		}
	}
	if levelStr == "" {
		levelStr = "off"
	}
	level, err := trace.ParseLevel(levelStr)
	if err != nil {
		return nil, fmt.Errorf("invalid trace level: %w", err)
	}
	if level == trace.LevelOff {
		cmd.SetContext(trace.WithTracer(cmd.Context(), trace.Nop))
		return func(error) {}, nil
	}
	if output == "" {
		output = "-"
	}

	modeStr, err := flags.GetString("trace-mode")
	if err != nil {
		return nil, err
	}
	mode, err := trace.ParseMode(modeStr)
	if err != nil {
		return nil, fmt.Errorf("invalid trace mode: %w", err)
	}
	formatStr, err := flags.GetString("trace-format")
	if err != nil {
		return nil, err
	}
	format, err := trace.ParseFormat(formatStr)
	if err != nil {
		return nil, fmt.Errorf("invalid trace format: %w", err)
	}
	ringSize, err := flags.GetInt("trace-ring-size")
	if err != nil {
		return nil, err
	}
	interval, err := flags.GetDuration("trace-heartbeat")
	if err != nil {
		return nil, err
	}

	tracer, err := trace.New(trace.Config{
		Level:      level,
		Mode:       mode,
		Format:     format,
		OutputPath: output,
		RingSize:   ringSize,
		Heartbeat:  interval,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create tracer: %w", err)
	}
	ctx, span := trace.StartSpan(trace.WithTracer(cmd.Context(), tracer), trace.ScopeCommand, cmd.Name())
	cmd.SetContext(ctx)

	heartbeat := trace.StartHeartbeat(tracer, interval)
	return func(cmdErr error) {
		heartbeat.Stop()
		if cmdErr != nil {
			span.End("failed")
			if _, err := trace.DumpRing(tracer, cmd.ErrOrStderr(), trace.FormatText); err != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "trace: dump error: %v\n", err)
			}
		} else {
			span.End("")
		}
		if err := tracer.Flush(); err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "trace: flush error: %v\n", err)
		}
		if err := tracer.Close(); err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "trace: close error: %v\n", err)
		}
	}, nil
}
