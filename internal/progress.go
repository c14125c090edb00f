package internal

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"
)

var (
	progressStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("62")).
			Bold(true)

	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("42")).
			Bold(true)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")).
			Bold(true)

	warningStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214")).
			Bold(true)
)

// ProgressStep represents a single step in a multi-step process
type ProgressStep struct {
	Message string
	Fn      func() error
}

// ShowProgress runs fn behind a spinner when stderr is a terminal,
// otherwise it logs message and runs fn directly.
func ShowProgress(ctx context.Context, message string, fn func() error) error {
	if !IsTerminal(os.Stderr) {
		LogInfo(message)
		return fn()
	}
	return showSpinner(ctx, os.Stderr, message, fn)
}

// ShowProgressWithSteps shows progress for multiple steps
func ShowProgressWithSteps(ctx context.Context, steps []ProgressStep) error {
	for i, step := range steps {
		msg := fmt.Sprintf("[%d/%d] %s", i+1, len(steps), step.Message)
		if err := ShowProgress(ctx, msg, step.Fn); err != nil {
			return fmt.Errorf("%s: %w", step.Message, err)
		}
	}
	return nil
}

func showSpinner(ctx context.Context, w io.Writer, message string, fn func() error) error {
	spinnerChars := []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}
	done := make(chan error, 1)
	stop := make(chan struct{})
	spinnerDone := make(chan struct{})

	go func() {
		defer close(spinnerDone)
		ticker := time.NewTicker(100 * time.Millisecond)
		defer ticker.Stop()
		for i := 0; ; i++ {
			select {
			case <-stop:
				return
			case <-ticker.C:
				char := spinnerChars[i%len(spinnerChars)]
				fmt.Fprintf(w, "\r%s %s", progressStyle.Render(char), message)
			}
		}
	}()

	go func() {
		done <- fn()
	}()

	var err error
	select {
	case err = <-done:
	case <-ctx.Done():
		err = ctx.Err()
	}
	close(stop)
	<-spinnerDone

	if err != nil {
		fmt.Fprintf(w, "\r%s %s\n", errorStyle.Render("✗"), message)
		return err
	}
	fmt.Fprintf(w, "\r%s %s\n", successStyle.Render("✓"), message)
	return nil
}

// IsTerminal reports whether w is a terminal
func IsTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// PrintSuccess prints a success line to w, with a check mark on a terminal
func PrintSuccess(w io.Writer, message string) {
	printStatus(w, successStyle.Render("✓"), "", message)
}

// PrintError prints an error line to w
func PrintError(w io.Writer, message string) {
	printStatus(w, errorStyle.Render("✗"), "", message)
}

// PrintInfo prints an informational line to w
func PrintInfo(w io.Writer, message string) {
	printStatus(w, progressStyle.Render("ℹ"), "", message)
}

// PrintWarning prints a warning line to w
func PrintWarning(w io.Writer, message string) {
	printStatus(w, warningStyle.Render("⚠"), "WARNING: ", message)
}

func printStatus(w io.Writer, icon, plainPrefix, message string) {
	if IsTerminal(w) {
		fmt.Fprintf(w, "%s %s\n", icon, message)
		return
	}
	fmt.Fprintf(w, "%s%s\n", plainPrefix, message)
}
