package store

import (
	"context"
	"log/slog"
	"time"
)

// StartSweeper runs the session timeout sweep on a fixed interval until the
// context is canceled. It is started once at store startup; the sweep
// interval is independent of the timeout window itself.
func (s *CustomerStore) StartSweeper(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				slog.Info("stopping session sweeper")
				return
			case <-ticker.C:
				if n := s.SweepExpired(); n > 0 {
					slog.Info("session sweep completed", slog.Int("sessions_expired", n))
				}
			}
		}
	}()
}
