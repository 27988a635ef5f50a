package common

import "go.uber.org/zap"

// NewLogger builds a production zap.Logger. Callers that don't care about
// logging (most tests) should use NewNopLogger instead.
func NewLogger() *zap.Logger {
	logger, err := zap.NewProduction()
	if err != nil {
		// zap.NewProduction only fails on a broken encoder config; the
		// default config never does, so this is unreachable in practice.
		panic(err)
	}
	return logger
}

// NewDevelopmentLogger builds a zap.Logger tuned for local runs: console
// encoding, caller info, and debug level enabled.
func NewDevelopmentLogger() *zap.Logger {
	logger, err := zap.NewDevelopment()
	if err != nil {
		panic(err)
	}
	return logger
}

// NewNopLogger returns a logger that discards everything. It is the
// default when a component is constructed without an explicit *zap.Logger.
func NewNopLogger() *zap.Logger {
	return zap.NewNop()
}
