// Package output holds the shared color palette and print helpers.
package output

import (
	"os"

	"github.com/fatih/color"
)

var (
	// Status colors
	Update  = color.New(color.FgYellow)
	OK      = color.New(color.FgGreen)
	Newer   = color.New(color.FgCyan)
	Unknown = color.New(color.FgRed)
	Skipped = color.New(color.Faint)

	// Message colors
	Success = color.New(color.FgGreen)
	Warning = color.New(color.FgYellow)
	Error   = color.New(color.FgRed)
	Info    = color.New(color.FgCyan)
	Dim     = color.New(color.Faint)

	// Structural colors
	Header  = color.New(color.FgWhite, color.Bold)
	Package = color.New(color.FgBlue, color.Bold)
)

// NoColor disables color output
func NoColor() {
	color.NoColor = true
}

// ForceColor enables color output even when not a TTY
func ForceColor() {
	color.NoColor = false
}

// IsTerminal returns true if stdout is a terminal
func IsTerminal() bool {
	fi, err := os.Stdout.Stat()
	if err != nil {
		return false
	}
	return (fi.Mode() & os.ModeCharDevice) != 0
}

// StatusColor returns the color for a check status name
func StatusColor(status string) *color.Color {
	switch status {
	case "update":
		return Update
	case "ok":
		return OK
	case "newer":
		return Newer
	case "unknown":
		return Unknown
	case "manual", "vcs", "no-feed":
		return Skipped
	default:
		return color.New(color.Reset)
	}
}

// PrintSuccess prints a success message
func PrintSuccess(format string, args ...interface{}) {
	Success.Printf("✓ "+format+"\n", args...)
}

// PrintError prints an error message to stderr
func PrintError(format string, args ...interface{}) {
	Error.Fprintf(os.Stderr, "✗ "+format+"\n", args...)
}

// PrintWarning prints a warning message to stderr
func PrintWarning(format string, args ...interface{}) {
	Warning.Fprintf(os.Stderr, "⚠ "+format+"\n", args...)
}

// PrintInfo prints an info message
func PrintInfo(format string, args ...interface{}) {
	Info.Printf("→ "+format+"\n", args...)
}

// Sprintf returns a colored string without printing
func Sprintf(c *color.Color, format string, args ...interface{}) string {
	return c.Sprintf(format, args...)
}

// FormatStatus formats a status string with its color
func FormatStatus(status string) string {
	return StatusColor(status).Sprint(status)
}

// FormatPackage formats a package name with color
func FormatPackage(pkg string) string {
	return Package.Sprint(pkg)
}
