// Package logger provides slog construction and attribute helpers shared by
// the credential, session and realtime packages.
//
// Create a logger with functional options:
//
//	log := logger.New(
//		logger.WithProduction("voyager"),
//		logger.WithOutput(os.Stderr),
//	)
//
// Attribute helpers keep key names consistent and return an empty slog.Attr
// for nil or empty input, so callers never need nil checks:
//
//	log.Warn("health check failed",
//		logger.Component("realtime"),
//		logger.URL(streamURL),
//		logger.Error(err),
//	)
//
// Libraries in this module accept a *slog.Logger through a WithLogger option
// and fall back to Nop when none is given.
package logger
