package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/phonometrica/phonometrica-sub000/engine"
	"github.com/phonometrica/phonometrica-sub000/internal/diagfmt"
)

var runCmd = &cobra.Command{
	Use:   "run [flags] <script.phon> [args...]",
	Short: "Run a script",
	Long: `Run compiles and executes a script. Arguments after the script are
available to it as the list argv. With --eval the code is taken from the
command line instead.`,
	Args: cobra.ArbitraryArgs,
	RunE: runExecution,
}

func init() {
	runCmd.Flags().StringP("eval", "e", "", "run this code instead of a file")
	runCmd.Flags().Bool("trace-vm", false, "log every executed instruction to stderr")
	runCmd.Flags().Bool("backtrace", true, "show the call stack of runtime errors")
	runCmd.Flags().String("error-format", "pretty", "error output format (pretty|json)")
	runCmd.Flags().SetInterspersed(false)
}

func runExecution(cmd *cobra.Command, args []string) error {
	code, err := cmd.Flags().GetString("eval")
	if err != nil {
		return err
	}
	if code == "" && len(args) == 0 {
		return fmt.Errorf("missing script path (or --eval)")
	}
	traceVM, err := cmd.Flags().GetBool("trace-vm")
	if err != nil {
		return err
	}
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if traceVM {
		cfg.TraceVM = cmd.ErrOrStderr()
	}
	rt, err := newRuntime(cmd, cfg)
	if err != nil {
		return err
	}
	defer rt.Close()

	scriptArgs := args
	if code == "" {
		scriptArgs = args[1:]
	}
	setArgv(rt, scriptArgs)

	var res engine.Value
	if code != "" {
		res, err = rt.DoString(cmd.Context(), code)
	} else {
		res, err = rt.DoFile(cmd.Context(), args[0])
	}
	rt.Release(res)
	if err != nil {
		return reportError(cmd, rt, err)
	}
	return nil
}

func setArgv(rt *engine.Runtime, args []string) {
	items := make([]engine.Value, len(args))
	for i, a := range args {
		items[i] = engine.String(a)
	}
	argv := rt.Heap().NewList(items)
	rt.SetGlobal("argv", argv)
	rt.Release(argv)
}

// reportError prints an engine error to stderr and returns errReported.
func reportError(cmd *cobra.Command, rt *engine.Runtime, err error) error {
	format := "pretty"
	if f := cmd.Flags().Lookup("error-format"); f != nil {
		format = f.Value.String()
	}
	showBacktrace := true
	if f := cmd.Flags().Lookup("backtrace"); f != nil {
		showBacktrace = f.Value.String() == "true"
	}
	var werr error
	switch format {
	case "json":
		werr = diagfmt.ErrorJSONTo(cmd.ErrOrStderr(), err, diagfmt.JSONOpts{})
	case "pretty":
		werr = diagfmt.Error(cmd.ErrOrStderr(), err, rt.Files(), prettyOpts(showBacktrace))
	default:
		return fmt.Errorf("unsupported error format %q (must be pretty or json)", format)
	}
	if werr != nil {
		fmt.Fprintf(os.Stderr, "phon: %v\n", err)
	}
	return errReported
}
