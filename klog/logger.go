package klog

import "log/slog"

// Logger is the minimal logging surface used throughout the library.
// Callers embedding km3go into a larger application can plug in their
// own implementation via SetLogger.
type Logger interface {
	Info(message string, module string)
	Error(string)
}

var logger Logger = &slogLogger{l: slog.Default()}

func SetLogger(l Logger) {
	logger = l
}

// Get returns the currently installed logger.
func Get() Logger {
	return logger
}

func Info(message string, module string) {
	logger.Info(message, module)
}

func Error(message string) {
	logger.Error(message)
}

func Warn(message string, module string) {
	logger.Info("warning: "+message, module)
}

type slogLogger struct {
	l *slog.Logger
}

func (s *slogLogger) Info(message string, module string) {
	s.l.Info(message, "module", module)
}

func (s *slogLogger) Error(message string) {
	s.l.Error(message)
}

// FromSlog wraps an *slog.Logger into the Logger interface.
func FromSlog(l *slog.Logger) Logger {
	return &slogLogger{l: l}
}
