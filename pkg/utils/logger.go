package utils

import "go.uber.org/zap"

// LoggerName is the root name carried by every kenpo log line.
const LoggerName = "kenpo"

// NewLogger returns the root kenpo logger: console output at debug level when
// debug is set, JSON at info level otherwise. Components derive from it with
// Named or With.
func NewLogger(debug bool) (*zap.Logger, error) {
	var (
		logger *zap.Logger
		err    error
	)
	if debug {
		logger, err = zap.NewDevelopment()
	} else {
		logger, err = zap.NewProduction()
	}
	if err != nil {
		return nil, err
	}
	return logger.Named(LoggerName), nil
}
