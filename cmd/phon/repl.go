package main

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/phonometrica/phonometrica-sub000/engine"
	"github.com/phonometrica/phonometrica-sub000/internal/diagfmt"
	"github.com/phonometrica/phonometrica-sub000/internal/ui"
	"github.com/phonometrica/phonometrica-sub000/internal/version"
)

var replCmd = &cobra.Command{
	Use:   "repl",
	Short: "Start an interactive session",
	Long: `Repl evaluates statements one chunk at a time. Top-level variables and
functions persist between chunks. Blocks may span several lines; the prompt
changes to ".." until they are closed.`,
	Args: cobra.NoArgs,
	RunE: runREPL,
}

func init() {
	replCmd.Flags().String("ui", "auto", "full-screen interface (auto|on|off)")
}

// session evaluates chunks and captures what they print.
type session struct {
	ctx context.Context
	rt  *engine.Runtime
	out bytes.Buffer
}

func (s *session) eval(code string) (string, error) {
	s.out.Reset()
	v, err := s.rt.Eval(s.ctx, code)
	if err == nil && !v.IsNull() {
		fmt.Fprintf(&s.out, "= %s\n", s.rt.Repr(v))
	}
	s.rt.Release(v)
	return s.out.String(), err
}

func (s *session) format(err error) string {
	var b strings.Builder
	_ = diagfmt.Error(&b, err, s.rt.Files(), prettyOpts(true))
	return b.String()
}

func runREPL(cmd *cobra.Command, args []string) error {
	mode, err := uiModeFlag(cmd)
	if err != nil {
		return err
	}
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	s := &session{ctx: cmd.Context()}
	cfg.Output = &s.out
	if s.rt, err = newRuntime(cmd, cfg); err != nil {
		return err
	}
	defer s.rt.Close()

	banner := "phon " + version.Version + " (:quit to exit)"
	if mode.enabled(os.Stdin, os.Stdout) {
		model := ui.NewREPLModel(banner, ui.Evaluator{
			Eval:        s.eval,
			Incomplete:  engine.Incomplete,
			FormatError: s.format,
		})
		_, err := tea.NewProgram(model, tea.WithAltScreen()).Run()
		return err
	}
	return lineREPL(cmd.InOrStdin(), cmd.OutOrStdout(), cmd.ErrOrStderr(), s)
}

// lineREPL reads chunks from a pipe or a dumb terminal, without line editing.
func lineREPL(in io.Reader, out, errOut io.Writer, s *session) error {
	scanner := bufio.NewScanner(in)
	var pending []string
	prompt := ">> "
	for {
		if isTerminalWriter(out) {
			fmt.Fprint(out, prompt)
		}
		if !scanner.Scan() {
			break
		}
		line := scanner.Text()
		if len(pending) == 0 {
			switch strings.TrimSpace(line) {
			case "":
				continue
			case ":quit", ":exit":
				return nil
			}
		}
		pending = append(pending, line)
		code := strings.Join(pending, "\n")
		printed, err := s.eval(code)
		if err != nil && engine.Incomplete(code, err) {
			prompt = ".. "
			continue
		}
		pending, prompt = nil, ">> "
		io.WriteString(out, printed)
		if err != nil {
			io.WriteString(errOut, s.format(err))
		}
	}
	if len(pending) > 0 {
		_, err := s.eval(strings.Join(pending, "\n"))
		if err != nil {
			io.WriteString(errOut, s.format(err))
		}
	}
	return scanner.Err()
}

func isTerminalWriter(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && isTerminal(f)
}
