package main

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"

	"gen1/internal/core"
)

var (
	infoStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("39"))
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("42")).Bold(true)
	warningStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
	dimStyle     = lipgloss.NewStyle().Faint(true)
)

// termNotifier prints status notifications to the terminal.
type termNotifier struct {
	w io.Writer
}

func newTermNotifier(w io.Writer) termNotifier {
	return termNotifier{w: w}
}

func (n termNotifier) Notify(level core.Level, message string) {
	style, tag := infoStyle, "info"
	switch level {
	case core.LevelSuccess:
		style, tag = successStyle, "ok"
	case core.LevelWarning:
		style, tag = warningStyle, "warn"
	case core.LevelError:
		style, tag = errorStyle, "error"
	}
	fmt.Fprintf(n.w, "%s %s\n", style.Render("["+tag+"]"), message)
}
