package actionlog

import (
	"context"

	"github.com/hupe1980/agentloom/core"
	"github.com/hupe1980/agentloom/logging"
)

// retryLog decorates an ActionLog so a failed append is retried exactly once
// before the failure is surfaced. The failure of a log write is reported to
// the caller but is expected to be treated as fatal only for that single
// operation, never for the enclosing workflow.
type retryLog struct {
	inner  core.ActionLog
	logger logging.Logger
}

var _ core.ActionLog = (*retryLog)(nil)

// WithRetry wraps log with single-retry append semantics. A nil logger
// defaults to NoOpLogger.
func WithRetry(log core.ActionLog, logger logging.Logger) core.ActionLog {
	if logger == nil {
		logger = logging.NoOpLogger{}
	}
	return &retryLog{inner: log, logger: logger}
}

// Append implements core.ActionLog.
func (r *retryLog) Append(ctx context.Context, rec core.ActionRecord) error {
	err := r.inner.Append(ctx, rec)
	if err == nil {
		return nil
	}

	r.logger.Warn("actionlog.append.retry", "record_id", rec.ID, "error", err.Error())

	if err := r.inner.Append(ctx, rec); err != nil {
		return core.NewPersistenceError("append", err)
	}
	return nil
}

// List implements core.ActionLog.
func (r *retryLog) List(ctx context.Context, conversationID string) ([]core.ActionRecord, error) {
	recs, err := r.inner.List(ctx, conversationID)
	if err != nil {
		return nil, core.NewPersistenceError("list", err)
	}
	return recs, nil
}
