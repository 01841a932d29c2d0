// Package cli holds shared terminal presentation helpers.
package cli

import "github.com/charmbracelet/lipgloss"

// Shared lipgloss styles.
var (
	StatusOK    = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	StatusError = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	StatusInfo  = lipgloss.NewStyle().Foreground(lipgloss.Color("39"))
	Muted       = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	Bold        = lipgloss.NewStyle().Bold(true)
	Header      = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39"))

	// ScriptBlock frames generated code.
	ScriptBlock = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("245")).
			Padding(0, 1)
)

// Status symbols.
const (
	SymbolOK    = "✓"
	SymbolError = "✗"
	SymbolInfo  = "•"
)

// RenderOK renders a success line.
func RenderOK(msg string) string {
	return StatusOK.Render(SymbolOK) + " " + msg
}

// RenderError renders a failure line.
func RenderError(msg string) string {
	return StatusError.Render(SymbolError) + " " + msg
}

// RenderInfo renders an informational line.
func RenderInfo(msg string) string {
	return StatusInfo.Render(SymbolInfo) + " " + msg
}
