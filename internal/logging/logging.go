package logging

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New builds the process logger: production JSON config, debug level when debug is set
func New(debug bool) (*zap.Logger, error) {
	return build(newConfig(debug))
}

// NewStderr is New with every output sent to stderr.
// Stdio servers use it because stdout carries the protocol.
func NewStderr(debug bool) (*zap.Logger, error) {
	config := newConfig(debug)
	config.OutputPaths = []string{"stderr"}
	config.ErrorOutputPaths = []string{"stderr"}
	return build(config)
}

func newConfig(debug bool) zap.Config {
	config := zap.NewProductionConfig()
	config.EncoderConfig.TimeKey = "time"
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	if debug {
		config.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}
	return config
}

func build(config zap.Config) (*zap.Logger, error) {
	logger, err := config.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	return logger, nil
}
