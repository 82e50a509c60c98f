package session

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/papercomputeco/companion/pkg/logger"
)

// Sweeper periodically drops idle sessions from a Store.
type Sweeper struct {
	cron   *cron.Cron
	store  Store
	idle   time.Duration
	logger *slog.Logger
}

// NewSweeper schedules a cleanup of store every interval, removing sessions
// idle for longer than idle.
func NewSweeper(store Store, interval, idle time.Duration, log *slog.Logger) (*Sweeper, error) {
	if interval <= 0 {
		return nil, fmt.Errorf("sweep interval must be positive, got %s", interval)
	}
	if log == nil {
		log = logger.Nop()
	}

	s := &Sweeper{
		cron:   cron.New(),
		store:  store,
		idle:   idle,
		logger: log,
	}
	if _, err := s.cron.AddFunc("@every "+interval.String(), s.Sweep); err != nil {
		return nil, fmt.Errorf("scheduling session sweep: %w", err)
	}
	return s, nil
}

// Sweep runs one cleanup pass.
func (s *Sweeper) Sweep() {
	removed := s.store.Cleanup(s.idle)
	s.logger.Debug("session sweep complete", "removed", removed, "remaining", s.store.Len())
}

// Start begins the schedule in its own goroutine.
func (s *Sweeper) Start() {
	s.cron.Start()
}

// Stop halts the schedule and waits for a running sweep to finish or ctx to
// expire.
func (s *Sweeper) Stop(ctx context.Context) {
	select {
	case <-s.cron.Stop().Done():
	case <-ctx.Done():
	}
}
