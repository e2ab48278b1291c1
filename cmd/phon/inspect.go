package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/phonometrica/phonometrica-sub000/internal/diagfmt"
	"github.com/phonometrica/phonometrica-sub000/internal/driver"
)

var disasmCmd = &cobra.Command{
	Use:   "disasm <script.phon>",
	Short: "Compile a script and print its bytecode",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		cfg.Builtins = false
		rt, err := newRuntime(cmd, cfg)
		if err != nil {
			return err
		}
		defer rt.Close()

		fn, err := rt.CompileFile(cmd.Context(), args[0])
		if err != nil {
			return reportError(cmd, rt, err)
		}
		defer rt.Release(fn)
		return rt.Disassemble(cmd.OutOrStdout(), fn)
	},
}

var tokenizeCmd = &cobra.Command{
	Use:   "tokenize <script.phon>",
	Short: "Print the tokens of a script",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		format, err := cmd.Flags().GetString("format")
		if err != nil {
			return err
		}
		maxDiagnostics, err := cmd.Flags().GetInt("max-diagnostics")
		if err != nil {
			return err
		}
		res, err := driver.Tokenize(args[0], maxDiagnostics)
		if err != nil {
			return err
		}
		switch format {
		case "pretty":
			err = diagfmt.FormatTokensPretty(cmd.OutOrStdout(), res.Tokens, res.FileSet)
		case "json":
			err = diagfmt.FormatTokensJSON(cmd.OutOrStdout(), res.Tokens, res.FileSet)
		default:
			return fmt.Errorf("unsupported format %q (must be pretty or json)", format)
		}
		if err != nil {
			return err
		}
		if res.Bag.Len() == 0 {
			return nil
		}
		if format == "json" {
			err = diagfmt.JSON(cmd.ErrOrStderr(), res.Bag, res.FileSet, diagfmt.JSONOpts{IncludePositions: true, IncludeNotes: true})
		} else {
			err = diagfmt.Pretty(cmd.ErrOrStderr(), res.Bag, res.FileSet, prettyOpts(false))
		}
		if err != nil {
			return err
		}
		if res.Bag.HasErrors() {
			return errReported
		}
		return nil
	},
}

func init() {
	tokenizeCmd.Flags().String("format", "pretty", "output format (pretty|json)")
}
