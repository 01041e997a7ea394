package logger

import (
	"context"
)

// LogRequest logs a provider or run-server round trip at a level matching
// its status.
func LogRequest(l Logger, method, url string, statusCode int, durationMS float64) {
	fields := map[string]interface{}{
		"method":      method,
		"url":         url,
		"status_code": statusCode,
		"duration_ms": durationMS,
	}

	switch {
	case statusCode >= 500:
		l.ErrorWithFields("HTTP request server error", fields)
	case statusCode >= 400:
		l.WarnWithFields("HTTP request client error", fields)
	default:
		l.DebugWithFields("HTTP request completed", fields)
	}
}

// LogPage logs one page of a follower listing
func LogPage(l Logger, handle string, page, fetched, total int, hasNext bool) {
	l.WithFields(map[string]interface{}{
		"handle":   handle,
		"page":     page,
		"fetched":  fetched,
		"total":    total,
		"has_next": hasNext,
	}).Debug("Follower page fetched")
}

// LogRunTransition logs a run leaving the running state
func LogRunTransition(l Logger, runID, handle, status string, err error) {
	entry := l.WithFields(map[string]interface{}{
		"run_id": runID,
		"handle": handle,
		"status": status,
	})
	if err != nil {
		entry.WithError(err).Warn("Run failed")
		return
	}
	entry.Info("Run finished")
}

// LogStorageWarning logs a non-fatal persistence failure
func LogStorageWarning(l Logger, op string, err error) {
	if err == nil {
		return
	}
	l.WithError(err).WithField("operation", op).Warn("Storage unavailable, continuing with defaults")
}

// NewNopLogger creates a no-operation logger for testing
func NewNopLogger() Logger {
	return nopLogger{}
}

type nopLogger struct{}

func (n nopLogger) Debug(string)                                    {}
func (n nopLogger) Info(string)                                     {}
func (n nopLogger) Warn(string)                                     {}
func (n nopLogger) Error(string)                                    {}
func (n nopLogger) WithField(string, interface{}) Logger            { return n }
func (n nopLogger) WithFields(map[string]interface{}) Logger        { return n }
func (n nopLogger) WithError(error) Logger                          { return n }
func (n nopLogger) WithContext(context.Context) Logger              { return n }
func (n nopLogger) DebugWithFields(string, map[string]interface{})  {}
func (n nopLogger) InfoWithFields(string, map[string]interface{})   {}
func (n nopLogger) WarnWithFields(string, map[string]interface{})   {}
func (n nopLogger) ErrorWithFields(string, map[string]interface{})  {}
