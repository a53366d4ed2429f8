package main

import (
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"golang.org/x/term"
)

// Palette renders the styles of one output stream. Without color every
// style renders plain text, so output written to files and pipes stays
// byte-for-byte predictable.
type Palette struct {
	Error   lipgloss.Style
	Warning lipgloss.Style
	Info    lipgloss.Style
	Success lipgloss.Style
	Accent  lipgloss.Style
	Muted   lipgloss.Style
	Bold    lipgloss.Style
}

// NewPalette builds the styles for w
func NewPalette(w io.Writer, useColor bool) Palette {
	renderer := lipgloss.NewRenderer(w)
	if useColor {
		renderer.SetColorProfile(termenv.ANSI256)
	} else {
		renderer.SetColorProfile(termenv.Ascii)
	}

	return Palette{
		Error:   renderer.NewStyle().Foreground(lipgloss.Color("1")).Bold(true),
		Warning: renderer.NewStyle().Foreground(lipgloss.Color("3")).Bold(true),
		Info:    renderer.NewStyle().Foreground(lipgloss.Color("4")),
		Success: renderer.NewStyle().Foreground(lipgloss.Color("2")),
		Accent:  renderer.NewStyle().Foreground(lipgloss.Color("6")),
		Muted:   renderer.NewStyle().Foreground(lipgloss.Color("8")),
		Bold:    renderer.NewStyle().Bold(true),
	}
}

// ShouldUseColor determines if color output should be used
// Respects --no-color flag and NO_COLOR environment variable
func ShouldUseColor(noColorFlag bool, w io.Writer) bool {
	if noColorFlag {
		return false
	}
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
