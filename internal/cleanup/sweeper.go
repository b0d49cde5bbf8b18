// Package cleanup periodically deletes expired pending authorizations
// and sessions.
package cleanup

import (
	"context"
	"time"

	"webauth/internal/auth/pending"
	"webauth/internal/logger"
	"webauth/internal/metrics"
	"webauth/internal/session"
)

type Sweeper struct {
	pending    pending.Store
	sessions   session.Store
	pendingTTL time.Duration
	interval   time.Duration
	metrics    *metrics.Metrics
	now        func() time.Time
}

func NewSweeper(
	pendingStore pending.Store,
	sessions session.Store,
	pendingTTL time.Duration,
	interval time.Duration,
	m *metrics.Metrics,
) *Sweeper {
	return &Sweeper{
		pending:    pendingStore,
		sessions:   sessions,
		pendingTTL: pendingTTL,
		interval:   interval,
		metrics:    m,
		now:        time.Now,
	}
}

// Run sweeps once immediately and then every interval until ctx is done.
func (s *Sweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		s.SweepOnce(ctx)

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// SweepOnce deletes pending records older than the pending TTL and
// sessions whose expiry has passed. Failures are logged, not returned.
func (s *Sweeper) SweepOnce(ctx context.Context) (pendingRows, sessionRows int64) {
	now := s.now()

	n, err := s.pending.Prune(ctx, now.Add(-s.pendingTTL))
	if err != nil {
		logger.Warn("pending sweep failed", map[string]any{"error": err})
	}
	pendingRows = n

	n, err = s.sessions.Prune(ctx, now)
	if err != nil {
		logger.Warn("session sweep failed", map[string]any{"error": err})
	}
	sessionRows = n

	s.metrics.Swept("pending", pendingRows)
	s.metrics.Swept("session", sessionRows)

	if pendingRows > 0 || sessionRows > 0 {
		logger.Debug("expired rows swept", map[string]any{
			"pending":  pendingRows,
			"sessions": sessionRows,
		})
	}

	return pendingRows, sessionRows
}
