package logger

// LoggerInterface defines the interface that all loggers must implement
type LoggerInterface interface {
	Debug(message string)
	Info(message string)
	Infof(format string, args ...interface{})
	Warn(message string)
	Warnf(format string, args ...interface{})
	Error(message string)
	Errorf(format string, args ...interface{})
	Fatal(message string)
	Fatalf(format string, args ...interface{})
}

// UnifiedLoggerInterface extends LoggerInterface with lifecycle management
type UnifiedLoggerInterface interface {
	LoggerInterface
	Close() error
}
