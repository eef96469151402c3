package persistence

import (
	"context"
	"time"

	"github.com/Gogfather/thegogfather.com/internal/content/domain/repository"
	"github.com/Gogfather/thegogfather.com/internal/shared/logger"
)

// RetentionJanitor trims event history past the retention period. It runs one
// cleanup immediately on Start and then on every interval tick until Stop.
type RetentionJanitor struct {
	store     repository.EventStore
	retention time.Duration
	interval  time.Duration
	log       logger.Logger

	cancel context.CancelFunc
	done   chan struct{}
}

// NewRetentionJanitor creates a janitor over the given event store.
func NewRetentionJanitor(store repository.EventStore, retention, interval time.Duration, log logger.Logger) *RetentionJanitor {
	return &RetentionJanitor{
		store:     store,
		retention: retention,
		interval:  interval,
		log:       log.WithComponent("event-retention"),
	}
}

// Start launches the cleanup loop. Calling Start on a running janitor is a
// no-op.
func (j *RetentionJanitor) Start() {
	if j.done != nil {
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	j.cancel = cancel
	j.done = make(chan struct{})

	go func() {
		defer close(j.done)
		j.cleanup(ctx)

		ticker := time.NewTicker(j.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				j.cleanup(ctx)
			}
		}
	}()
}

// Stop cancels the loop and waits for it to drain.
func (j *RetentionJanitor) Stop() {
	if j.cancel == nil {
		return
	}
	j.cancel()
	<-j.done
	j.cancel = nil
	j.done = nil
}

func (j *RetentionJanitor) cleanup(ctx context.Context) {
	if err := j.store.CleanupOldEvents(ctx, j.retention); err != nil {
		j.log.Warnf("Event history cleanup failed: %v", err)
	}
}
