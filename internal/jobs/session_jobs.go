package jobs

import (
	"context"
	"time"

	"soundgood-leasing/internal/logger"
)

const keepAliveTimeout = 10 * time.Second

// KeepSessionAlive pings the database session so an idle interactive
// process notices a dropped connection before the next command.
func (jr *JobRunner) KeepSessionAlive() {
	jr.runWithRecovery("KeepSessionAlive", func() {
		ctx, cancel := context.WithTimeout(context.Background(), keepAliveTimeout)
		defer cancel()

		if err := jr.store.Ping(ctx); err != nil {
			logger.ErrorContext(ctx, "Database session is not responding", "error", err)
			return
		}
		logger.DebugContext(ctx, "Database session alive")
	})
}
