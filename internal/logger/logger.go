package logger

import (
	"io"

	"github.com/fatih/color" // Colored console output for each log level
)

// out is where every level writes. It defaults to color.Output, which
// translates ANSI sequences on Windows consoles.
var out io.Writer = color.Output

var (
	infoColor  = color.New(color.FgGreen)
	warnColor  = color.New(color.FgHiMagenta)
	errorColor = color.New(color.FgRed)
	debugColor = color.New(color.FgCyan)
)

// Info logs progress messages in green, e.g. "Updating projects from gyp files...".
func Info(format string, a ...any) {
	_, _ = infoColor.Fprintf(out, format, a...)
}

// Warn logs messages in bright magenta. Used when an environment value
// shadows an overlay value or a stage falls back to a default.
func Warn(format string, a ...any) {
	_, _ = warnColor.Fprintf(out, format, a...)
}

// Error logs fatal conditions in red before the process exits non-zero.
func Error(format string, a ...any) {
	_, _ = errorColor.Fprintf(out, format, a...)
}

// Debug logs cyan messages when enabled through Init, otherwise it is a no-op.
// It starts disabled so packages can log before the CLI has parsed --debug.
var Debug = func(format string, a ...any) {}

// Init enables or disables debug logging.
func Init(enableDebug bool) {
	if enableDebug {
		Debug = func(format string, a ...any) {
			_, _ = debugColor.Fprintf(out, format, a...)
		}
	} else {
		Debug = func(format string, a ...any) {}
	}
}

// SetOutput redirects all levels to w and returns the previous writer.
func SetOutput(w io.Writer) io.Writer {
	prev := out
	out = w
	return prev
}
