package main

import (
	"context"
	"fmt"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/phonometrica/phonometrica-sub000/internal/buildpipeline"
	"github.com/phonometrica/phonometrica-sub000/internal/diagfmt"
	"github.com/phonometrica/phonometrica-sub000/internal/driver"
	"github.com/phonometrica/phonometrica-sub000/internal/ui"
)

var checkCmd = &cobra.Command{
	Use:   "check [flags] [paths...]",
	Short: "Compile scripts without running them",
	Long: `Check compiles every script under the given files and directories
(default: the working directory) in parallel and reports syntax and compile
errors.`,
	RunE: runCheck,
}

func init() {
	checkCmd.Flags().IntP("jobs", "j", 0, "number of files compiled at once (0 = GOMAXPROCS)")
	checkCmd.Flags().String("format", "pretty", "error output format (pretty|json)")
	checkCmd.Flags().String("ui", "auto", "progress UI (auto|on|off)")
	checkCmd.Flags().Bool("timings", false, "print per-file compile timings")
}

func runCheck(cmd *cobra.Command, args []string) error {
	flags := cmd.Flags()
	jobs, err := flags.GetInt("jobs")
	if err != nil {
		return err
	}
	format, err := flags.GetString("format")
	if err != nil {
		return err
	}
	if format != "pretty" && format != "json" {
		return fmt.Errorf("unsupported format %q (must be pretty or json)", format)
	}
	mode, err := uiModeFlag(cmd)
	if err != nil {
		return err
	}
	showTimings, err := flags.GetBool("timings")
	if err != nil {
		return err
	}
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if len(args) == 0 {
		args = []string{"."}
	}
	wd, _ := os.Getwd()

	req := &buildpipeline.CheckRequest{
		Targets: args,
		Ext:     cfg.ModuleExt,
		BaseDir: wd,
		Jobs:    jobs,
	}
	if cfg.Cache {
		if cfg.CacheDir != "" {
			req.Cache, err = driver.NewDiskCache(cfg.CacheDir)
		} else {
			req.Cache, err = driver.OpenDiskCache("phon")
		}
		if err != nil {
			return fmt.Errorf("open compile cache: %w", err)
		}
	}

	var res buildpipeline.CheckResult
	if format == "pretty" && mode.enabled(os.Stderr) {
		res, err = runCheckWithUI(cmd.Context(), "phon check", req)
	} else {
		res, err = buildpipeline.Check(cmd.Context(), req)
	}
	if err != nil {
		return err
	}

	out := cmd.ErrOrStderr()
	for _, fr := range res.Results {
		if fr.Err == nil {
			continue
		}
		if format == "json" {
			err = diagfmt.ErrorJSONTo(out, fr.Err, diagfmt.JSONOpts{PathMode: diagfmt.PathModeAuto, BaseDir: wd})
		} else {
			err = diagfmt.Error(out, fr.Err, res.FileSet, prettyOpts(false))
		}
		if err != nil {
			return err
		}
	}
	if showTimings {
		if err := driver.WriteTimings(cmd.OutOrStdout(), res.Results, format == "json"); err != nil {
			return err
		}
	}
	if failed := res.Failed(); failed > 0 {
		if format == "pretty" {
			fmt.Fprintf(out, "%d of %d file(s) failed (%s)\n", failed, len(res.Results), res.Timings.Compile.Round(time.Millisecond))
		}
		return errReported
	}
	if format == "pretty" {
		fmt.Fprintf(cmd.OutOrStdout(), "%d file(s) ok\n", len(res.Results))
	}
	return nil
}

type checkOutcome struct {
	result buildpipeline.CheckResult
	err    error
}

// runCheckWithUI runs the check in the background while a progress view
// renders its events.
func runCheckWithUI(ctx context.Context, title string, req *buildpipeline.CheckRequest) (buildpipeline.CheckResult, error) {
	paths, err := buildpipeline.Expand(req.Targets, req.Ext)
	if err != nil {
		return buildpipeline.CheckResult{}, err
	}
	files := buildpipeline.DisplayPaths(paths, req.BaseDir)

	events := make(chan buildpipeline.Event, 256)
	outcomeCh := make(chan checkOutcome, 1)
	go func() {
		reqCopy := *req
		reqCopy.Progress = buildpipeline.ChannelSink{Ch: events}
		res, err := buildpipeline.Check(ctx, &reqCopy)
		outcomeCh <- checkOutcome{result: res, err: err}
		close(events)
	}()

	program := tea.NewProgram(ui.NewProgressModel(title, files, events), tea.WithOutput(os.Stderr))
	_, uiErr := program.Run()
	// The view may quit early on ctrl+c; keep the pipeline from blocking.
	go func() {
		for range events {
		}
	}()
	outcome := <-outcomeCh
	if uiErr != nil {
		return outcome.result, uiErr
	}
	return outcome.result, outcome.err
}
