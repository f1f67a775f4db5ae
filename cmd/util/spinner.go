package util

import (
	"time"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
	"github.com/theckman/yacspin"
)

// RunWithSpinner runs fn behind a terminal spinner. Non-terminal output skips
// the spinner entirely so piped output stays clean.
func RunWithSpinner(cmd *cobra.Command, message string, fn func() error) error {
	out := cmd.OutOrStdout()
	fd, isFile := fdOf(out)
	if !isFile || !isatty.IsTerminal(fd) {
		return fn()
	}

	spinner, err := yacspin.New(yacspin.Config{
		Frequency:       100 * time.Millisecond,
		CharSet:         yacspin.CharSets[11],
		Writer:          out,
		Suffix:          " " + message,
		StopCharacter:   "✓",
		StopFailMessage: message,
		StopMessage:     message,
	})
	if err != nil {
		return fn()
	}

	_ = spinner.Start()
	if err := fn(); err != nil {
		_ = spinner.StopFail()
		return err
	}
	_ = spinner.Stop()
	return nil
}

type fdWriter interface {
	Fd() uintptr
}

func fdOf(w any) (uintptr, bool) {
	f, ok := w.(fdWriter)
	if !ok {
		return 0, false
	}
	return f.Fd(), true
}
