// Package logger provides the structured logging interface used across
// xfollowers.
//
// It wraps zerolog behind the Logger interface so packages can accept a
// logger without importing zerolog, and tests can substitute NewTestLogger
// or NewNopLogger.
//
//	logger.Initialize(&cfg.Logging)
//	log := logger.GetLogger().WithField("handle", "acme")
//	log.InfoWithFields("Run started", map[string]interface{}{"run_id": id})
package logger
