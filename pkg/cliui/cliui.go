// Package cliui holds the terminal helpers shared by the line-oriented
// commands: styles, progress steps and markdown rendering.
package cliui

import (
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/lipgloss"
)

var (
	SuccessMark = lipgloss.NewStyle().Foreground(lipgloss.Color("82")).Render("✓")
	FailMark    = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Render("✗")
	StepStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))

	frameStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("82"))
)

// Step runs fn while animating the tui's spinner next to msg. When fn
// returns, the line is rewritten with a pass or fail mark and the elapsed
// time. The error of fn is returned as is.
func Step(w io.Writer, msg string, fn func() error) error {
	anim := spinner.Dot
	stop := make(chan struct{})
	stopped := make(chan struct{})

	go func() {
		defer close(stopped)
		tick := time.NewTicker(anim.FPS)
		defer tick.Stop()

		for i := 0; ; i++ {
			frame := anim.Frames[i%len(anim.Frames)]
			fmt.Fprintf(w, "\r  %s %s", frameStyle.Render(frame), msg)
			select {
			case <-stop:
				return
			case <-tick.C:
			}
		}
	}()

	start := time.Now()
	err := fn()
	close(stop)
	<-stopped

	fmt.Fprintf(w, "\r  %s %s %s\n", Mark(err), msg, StepStyle.Render("("+FormatDuration(time.Since(start))+")"))
	return err
}

// Mark is SuccessMark for a nil error and FailMark otherwise.
func Mark(err error) string {
	if err == nil {
		return SuccessMark
	}
	return FailMark
}

// FormatDuration prints whole milliseconds under a second and tenths of a
// second above, e.g. "12ms" and "3.2s".
func FormatDuration(d time.Duration) string {
	if d >= time.Second {
		return fmt.Sprintf("%.1fs", d.Seconds())
	}
	return fmt.Sprintf("%dms", d.Milliseconds())
}
