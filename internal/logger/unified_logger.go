package logger

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// LogLevel represents the severity of a log message
type LogLevel int

const (
	DEBUG LogLevel = iota
	INFO
	WARN
	ERROR
)

func (l LogLevel) String() string {
	switch l {
	case DEBUG:
		return "DEBUG"
	case INFO:
		return "INFO"
	case WARN:
		return "WARN"
	case ERROR:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// ANSI color codes for console output
const (
	ColorReset  = "\033[0m"
	ColorRed    = "\033[31m"
	ColorYellow = "\033[33m"
	ColorBlue   = "\033[34m"
	ColorGray   = "\033[37m"
	ColorGreen  = "\033[32m"
	ColorCyan   = "\033[36m"

	// Bright colors
	ColorBrightRed    = "\033[91m"
	ColorBrightYellow = "\033[93m"
	ColorBrightBlue   = "\033[94m"
	ColorBrightGray   = "\033[90m"
)

// Column widths for better alignment
const (
	ServiceNameWidth = 20 // Fixed width for service names
	LogLevelWidth    = 7  // Fixed width for log levels (ERROR, WARN, etc.) - icons add +2
)

// UnifiedLogger writes tool logs to the console and, optionally, to a log file
type UnifiedLogger struct {
	serviceName string
	version     string

	mu            sync.Mutex
	fileWriter    io.Writer
	consoleLogger *log.Logger
	logLevel      LogLevel
	initialized   bool
	colorEnabled  bool
}

// NewUnifiedLogger creates a logger for the given service name and version.
// If logFile is non-empty, every line is also appended there without colors.
func NewUnifiedLogger(serviceName, version string, logFile string, logLevel string) *UnifiedLogger {
	logger := &UnifiedLogger{
		serviceName:   serviceName,
		version:       version,
		consoleLogger: log.New(os.Stdout, "", 0), // No prefix, we'll format ourselves
		colorEnabled:  isTerminal(),              // Enable colors if outputting to terminal
	}

	// Parse log level
	switch logLevel {
	case "debug":
		logger.logLevel = DEBUG
	case "info":
		logger.logLevel = INFO
	case "warn":
		logger.logLevel = WARN
	case "error":
		logger.logLevel = ERROR
	default:
		logger.logLevel = INFO
	}

	// Setup file writer
	if logFile != "" {
		// Ensure the log directory exists
		if err := os.MkdirAll(filepath.Dir(logFile), 0755); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to create log directory: %v\n", err)
			logger.initialized = false
			return logger
		}

		// Open the log file in append mode
		file, err := os.OpenFile(logFile, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to open log file: %v\n", err)
			logger.initialized = false
			return logger
		}
		logger.fileWriter = file
		logger.initialized = true
	}

	return logger
}

// isTerminal checks if we're outputting to a terminal (for color support)
func isTerminal() bool {
	if os.Getenv("TERM") == "dumb" {
		return false
	}
	fileInfo, _ := os.Stdout.Stat()
	return (fileInfo.Mode() & os.ModeCharDevice) != 0
}

// getColorForLevel returns the appropriate color for a log level
func (l *UnifiedLogger) getColorForLevel(level LogLevel) string {
	if !l.colorEnabled {
		return ""
	}

	switch level {
	case DEBUG:
		return ColorBrightGray
	case INFO:
		return ColorGreen
	case WARN:
		return ColorBrightYellow
	case ERROR:
		return ColorBrightRed
	default:
		return ColorReset
	}
}

// formatServiceName truncates and pads service name for consistent column width
func formatServiceName(serviceName string) string {
	if len(serviceName) > ServiceNameWidth {
		return serviceName[:ServiceNameWidth-1] + "…"
	}
	// Pad short names
	return fmt.Sprintf("%-*s", ServiceNameWidth, serviceName)
}

// formatLogLevel pads log level for consistent column width and adds visual indicators
func formatLogLevel(level LogLevel) string {
	levelStr := level.String()

	// Add visual indicators for different levels
	switch level {
	case ERROR:
		levelStr = "✗ " + levelStr
	case WARN:
		levelStr = "⚠ " + levelStr
	case INFO:
		levelStr = "ℹ " + levelStr
	case DEBUG:
		levelStr = "◦ " + levelStr
	}

	return fmt.Sprintf("%-*s", LogLevelWidth+2, levelStr) // +2 for the icon
}

// logToConsoleAndFile logs a message to both console and file
func (l *UnifiedLogger) logToConsoleAndFile(service string, level LogLevel, message string) {
	if level < l.logLevel {
		return
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	timestamp := time.Now().Format("2006-01-02 15:04:05.000")

	// Format for file (no colors, consistent with current format)
	fileLogLine := fmt.Sprintf("[%s] [%s] [%s] %s", timestamp, service, level, message)

	// Format for console (with colors and column alignment)
	color := l.getColorForLevel(level)
	resetColor := ""
	if l.colorEnabled {
		resetColor = ColorReset
	}

	formattedService := formatServiceName(service)
	formattedLevel := formatLogLevel(level)

	consoleLogLine := fmt.Sprintf("%s[%s] [%s] [%s%s%s] %s%s",
		ColorCyan, timestamp, formattedService, color, formattedLevel, resetColor, message, resetColor)

	// Always output formatted version to console
	l.consoleLogger.Println(consoleLogLine)

	// Write plain version to file if available
	if l.initialized && l.fileWriter != nil {
		if _, err := l.fileWriter.Write([]byte(fileLogLine + "\n")); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to write to log file: %v\n", err)
		}
	}
}

// LoggerInterface implementation
func (l *UnifiedLogger) Debug(message string) {
	l.logToConsoleAndFile(l.serviceName, DEBUG, message)
}

func (l *UnifiedLogger) Info(message string) {
	l.logToConsoleAndFile(l.serviceName, INFO, message)
}

func (l *UnifiedLogger) Infof(format string, args ...interface{}) {
	message := fmt.Sprintf(format, args...)
	l.Info(message)
}

func (l *UnifiedLogger) Warn(message string) {
	l.logToConsoleAndFile(l.serviceName, WARN, message)
}

func (l *UnifiedLogger) Warnf(format string, args ...interface{}) {
	message := fmt.Sprintf(format, args...)
	l.Warn(message)
}

func (l *UnifiedLogger) Error(message string) {
	l.logToConsoleAndFile(l.serviceName, ERROR, message)
}

func (l *UnifiedLogger) Errorf(format string, args ...interface{}) {
	message := fmt.Sprintf(format, args...)
	l.Error(message)
}

func (l *UnifiedLogger) Fatal(message string) {
	l.Error(message)
	os.Exit(1)
}

func (l *UnifiedLogger) Fatalf(format string, args ...interface{}) {
	message := fmt.Sprintf(format, args...)
	l.Fatal(message)
}

// Close closes the file writer if it exists
func (l *UnifiedLogger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if closer, ok := l.fileWriter.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}
