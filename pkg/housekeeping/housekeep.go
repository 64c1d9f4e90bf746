// Package housekeeping provides a generic periodic-task runner for
// background maintenance loops; in retrigger it backs the hash cache's
// periodic sweep.
package housekeeping

import (
	"context"
	"time"

	"github.com/retrigger-io/retrigger/pkg/logging"
)

// RunPeriodically invokes task once immediately and then again each time the
// specified interval elapses, logging each pass at the Info level under the
// given label. It blocks until ctx is cancelled, at which point it returns.
func RunPeriodically(ctx context.Context, interval time.Duration, label string, task func(), logger *logging.Logger) {
	logger.Infof("Performing initial %s", label)
	task()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			logger.Infof("Performing regular %s", label)
			task()
		}
	}
}
