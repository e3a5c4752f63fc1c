// Package log provides the process-wide zap logger used by every wxsummary component.
package log

import (
	stdlog "log"
	"os"

	"go.uber.org/zap"
)

var log *zap.SugaredLogger
var baseLogger *zap.Logger

// Init initializes the package-level logger. Debug mode uses zap's development
// config (console encoder, debug level); otherwise production JSON output is used.
func Init(debug bool) error {
	var zapLogger *zap.Logger
	var err error

	if debug {
		zapLogger, err = zap.NewDevelopment(zap.AddCallerSkip(1))
	} else {
		zapLogger, err = zap.NewProduction(zap.AddCallerSkip(1))
	}
	if err != nil {
		return err
	}

	baseLogger = zapLogger
	log = zapLogger.Sugar()
	return nil
}

// ensure falls back to a production logger for code paths (tests, library use)
// that never call Init.
func ensure() {
	if log == nil {
		baseLogger, _ = zap.NewProduction(zap.AddCallerSkip(1))
		log = baseLogger.Sugar()
	}
}

// GetZapLogger returns the base zap logger.
func GetZapLogger() *zap.Logger {
	ensure()
	return baseLogger
}

// GetSugaredLogger returns the sugared logger instance.
func GetSugaredLogger() *zap.SugaredLogger {
	ensure()
	return log
}

// StdLog adapts the zap logger to the standard library logger interface that
// GORM and net/http expect.
func StdLog() *stdlog.Logger {
	return zap.NewStdLog(GetZapLogger())
}

// Sync flushes any buffered log entries
func Sync() {
	if log != nil {
		_ = log.Sync()
	}
}

func Debugf(template string, args ...any) {
	ensure()
	log.Debugf(template, args...)
}

func Debugw(msg string, keysAndValues ...any) {
	ensure()
	log.Debugw(msg, keysAndValues...)
}

func Info(args ...any) {
	ensure()
	log.Info(args...)
}

func Infof(template string, args ...any) {
	ensure()
	log.Infof(template, args...)
}

func Infow(msg string, keysAndValues ...any) {
	ensure()
	log.Infow(msg, keysAndValues...)
}

func Warnf(template string, args ...any) {
	ensure()
	log.Warnf(template, args...)
}

func Warnw(msg string, keysAndValues ...any) {
	ensure()
	log.Warnw(msg, keysAndValues...)
}

func Error(args ...any) {
	ensure()
	log.Error(args...)
}

func Errorf(template string, args ...any) {
	ensure()
	log.Errorf(template, args...)
}

func Errorw(msg string, keysAndValues ...any) {
	ensure()
	log.Errorw(msg, keysAndValues...)
}

func Fatalf(template string, args ...any) {
	ensure()
	log.Fatalf(template, args...)
	os.Exit(1)
}
