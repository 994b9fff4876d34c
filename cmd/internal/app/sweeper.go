package app

import (
	"context"
	"log/slog"
	"time"

	"lablink/cmd/internal/auth/oauth"
	"lablink/cmd/internal/auth/session"
)

// sweeper periodically deletes expired refresh-token rows and stale OAuth
// state nonces. Expired rows are already rejected on read; the sweeper only
// bounds table growth.
type sweeper struct {
	ledger   session.Ledger
	states   oauth.StateStore
	log      *slog.Logger
	interval time.Duration
}

func newSweeper(ledger session.Ledger, states oauth.StateStore, log *slog.Logger, interval time.Duration) *sweeper {
	return &sweeper{
		ledger:   ledger,
		states:   states,
		log:      log,
		interval: interval,
	}
}

// run blocks until ctx is canceled. A zero interval disables sweeping.
func (s *sweeper) run(ctx context.Context) {
	if s.interval <= 0 {
		return
	}

	t := time.NewTicker(s.interval)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			s.sweepOnce(ctx, time.Now())
		}
	}
}

func (s *sweeper) sweepOnce(ctx context.Context, now time.Time) {
	if s.ledger != nil {
		n, err := s.ledger.Sweep(ctx, now)
		if err != nil {
			s.log.Error("sweep.refresh_tokens.fail", "err", err)
		} else if n > 0 {
			s.log.Info("sweep.refresh_tokens", "deleted", n)
		}
	}

	if s.states != nil {
		n, err := s.states.Purge(ctx, now)
		if err != nil {
			s.log.Error("sweep.oauth_states.fail", "err", err)
		} else if n > 0 {
			s.log.Info("sweep.oauth_states", "deleted", n)
		}
	}
}
