package sessions

import (
	"context"
	"time"

	"codeberg.org/avksport/server/internal/logger"
)

// handles periodic removal of expired sessions; lookups still expire lazily
type CleanupService struct {
	store         Store
	checkInterval time.Duration
	now           func() time.Time
	onSweep       SweepFunc
}

// called after every sweep with the number of removed sessions
type SweepFunc func(removed int64)

// creates a new cleanup service
func NewCleanupService(store Store, checkInterval time.Duration, onSweep SweepFunc) *CleanupService {
	return &CleanupService{
		store:         store,
		checkInterval: checkInterval,
		now:           func() time.Time { return time.Now().UTC() },
		onSweep:       onSweep,
	}
}

// begins the cleanup service background loop
func (s *CleanupService) Start(ctx context.Context) {
	logger.Info("starting session cleanup service", "check_interval", s.checkInterval)

	ticker := time.NewTicker(s.checkInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info("session cleanup service stopped")
			return
		case <-ticker.C:
			s.Sweep(ctx)
		}
	}
}

// deletes every session expired at the time of the call
func (s *CleanupService) Sweep(ctx context.Context) int64 {
	removed, err := s.store.DeleteExpired(ctx, s.now())
	if err != nil {
		logger.ErrorErr(err, "failed to delete expired sessions")
		return 0
	}

	if removed > 0 {
		logger.Info("expired sessions removed", "count", removed)
	}

	if s.onSweep != nil {
		s.onSweep(removed)
	}

	return removed
}
