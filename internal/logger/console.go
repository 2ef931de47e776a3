// Package logger provides the console logging used by pydist.
//
// Progress goes to the standard writer and diagnostics to the error writer.
// At the default info level messages are printed as-is; at debug and trace
// every line is prefixed with a [HH:MM:SS] timestamp and its level.
package logger

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
)

// Log level constants for filtering
const (
	levelTrace int = 0
	levelDebug int = 1
	levelInfo  int = 2
	levelWarn  int = 3
	levelError int = 4
)

// ConsoleLogger writes leveled messages to a pair of writers with thread safety.
// trace, debug and info go to out; warn and error go to errOut.
// Color output is enabled per writer when it is a terminal.
type ConsoleLogger struct {
	out        io.Writer
	errOut     io.Writer
	logLevel   string
	timestamps bool
	mutex      sync.Mutex
	colorOut   bool
	colorErr   bool
}

// NewConsoleLogger creates a ConsoleLogger.
// A nil writer silently discards the messages routed to it.
// Valid levels: trace, debug, info, warn, error (case-insensitive).
// If logLevel is empty or invalid, defaults to "info".
func NewConsoleLogger(out, errOut io.Writer, logLevel string) *ConsoleLogger {
	normalizedLevel := normalizeLogLevel(logLevel)

	return &ConsoleLogger{
		out:        out,
		errOut:     errOut,
		logLevel:   normalizedLevel,
		timestamps: logLevelToInt(normalizedLevel) <= levelDebug,
		colorOut:   isTerminal(out),
		colorErr:   isTerminal(errOut),
	}
}

// Level returns the normalized level of the logger.
func (cl *ConsoleLogger) Level() string {
	return cl.logLevel
}

// isTerminal reports whether w is a TTY that should get colors.
// NO_COLOR disables colors regardless of the terminal.
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok || f == nil {
		return false
	}
	if _, set := os.LookupEnv("NO_COLOR"); set {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// normalizeLogLevel converts a log level string to lowercase and validates it.
// Returns "info" as default for empty or invalid levels.
func normalizeLogLevel(level string) string {
	normalized := strings.ToLower(strings.TrimSpace(level))

	switch normalized {
	case "trace", "debug", "info", "warn", "error":
		return normalized
	}
	return "info"
}

// ValidLogLevel reports whether level names a known log level.
func ValidLogLevel(level string) bool {
	normalized := strings.ToLower(strings.TrimSpace(level))
	return normalized != "" && normalizeLogLevel(normalized) == normalized
}

// logLevelToInt converts a log level string to its numeric value.
func logLevelToInt(level string) int {
	switch level {
	case "trace":
		return levelTrace
	case "debug":
		return levelDebug
	case "info":
		return levelInfo
	case "warn":
		return levelWarn
	case "error":
		return levelError
	default:
		return levelInfo
	}
}

// shouldLog checks if a message at the given level should be logged.
func (cl *ConsoleLogger) shouldLog(messageLevel string) bool {
	return logLevelToInt(messageLevel) >= logLevelToInt(cl.logLevel)
}

// LogTrace logs a trace-level message (most verbose).
func (cl *ConsoleLogger) LogTrace(message string) {
	cl.logWithLevel("TRACE", message)
}

// LogDebug logs a debug-level message.
func (cl *ConsoleLogger) LogDebug(message string) {
	cl.logWithLevel("DEBUG", message)
}

// LogInfo logs an info-level message.
func (cl *ConsoleLogger) LogInfo(message string) {
	cl.logWithLevel("INFO", message)
}

// LogWarn logs a warning-level message to the error writer.
func (cl *ConsoleLogger) LogWarn(message string) {
	cl.logWithLevel("WARN", message)
}

// LogError logs an error-level message to the error writer.
func (cl *ConsoleLogger) LogError(message string) {
	cl.logWithLevel("ERROR", message)
}

func (cl *ConsoleLogger) logWithLevel(level string, message string) {
	lower := strings.ToLower(level)
	if !cl.shouldLog(lower) {
		return
	}

	writer, useColor := cl.out, cl.colorOut
	if logLevelToInt(lower) >= levelWarn {
		writer, useColor = cl.errOut, cl.colorErr
	}
	if writer == nil {
		return
	}

	cl.mutex.Lock()
	defer cl.mutex.Unlock()

	var formatted string
	switch {
	case cl.timestamps && useColor:
		formatted = fmt.Sprintf("[%s] [%s] %s\n", timestamp(), colorize(level, level), message)
	case cl.timestamps:
		formatted = fmt.Sprintf("[%s] [%s] %s\n", timestamp(), level, message)
	case useColor:
		formatted = colorize(level, message) + "\n"
	default:
		formatted = message + "\n"
	}

	writer.Write([]byte(formatted))
}

// colorize paints text in the color assigned to level.
func colorize(level, text string) string {
	var c *color.Color
	switch level {
	case "TRACE":
		c = color.New(color.FgHiBlack)
	case "DEBUG":
		c = color.New(color.FgCyan)
	case "WARN":
		c = color.New(color.FgYellow)
	case "ERROR":
		c = color.New(color.FgRed)
	default:
		return text
	}
	// The writer was already checked for a terminal; fatih/color only looks at stdout.
	c.EnableColor()
	return c.Sprint(text)
}

// timestamp returns the current time formatted as HH:MM:SS.
func timestamp() string {
	return time.Now().Format("15:04:05")
}
