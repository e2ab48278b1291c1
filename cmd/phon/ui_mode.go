package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

// uiMode is the --ui setting of the commands that can draw a terminal
// interface: the progress view of check and the full-screen REPL.
type uiMode string

const (
	uiModeAuto uiMode = "auto"
	uiModeOn   uiMode = "on"
	uiModeOff  uiMode = "off"
)

func readUIMode(value string) (uiMode, error) {
	switch m := uiMode(strings.ToLower(strings.TrimSpace(value))); m {
	case "":
		return uiModeAuto, nil
	case uiModeAuto, uiModeOn, uiModeOff:
		return m, nil
	}
	return "", fmt.Errorf("invalid --ui value %q (expected auto, on or off)", value)
}

func uiModeFlag(cmd *cobra.Command) (uiMode, error) {
	value, err := cmd.Flags().GetString("ui")
	if err != nil {
		return "", err
	}
	return readUIMode(value)
}

// enabled reports whether the interface is drawn. In auto mode every stream
// it uses must be a terminal, and a dumb terminal gets plain output.
func (m uiMode) enabled(streams ...*os.File) bool {
	switch m {
	case uiModeOn:
		return true
	case uiModeOff:
		return false
	}
	if os.Getenv("TERM") == "dumb" {
		return false
	}
	for _, f := range streams {
		if !isTerminal(f) {
			return false
		}
	}
	return true
}
