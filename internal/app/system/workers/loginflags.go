package workers

import (
	"context"
	"sync"
	"time"

	"github.com/dalemusser/radhub/internal/app/system/timeouts"
	"go.uber.org/zap"
)

// FlagClearer clears is_logged_in on users whose last login is older than
// cutoff. userstore.Store implements it.
type FlagClearer interface {
	ClearStaleLoginFlags(ctx context.Context, cutoff time.Time) (int64, error)
}

// LoginFlagSweeper is a background worker that clears the logged-in flag
// of users whose token lifetime has long passed without a logout.
type LoginFlagSweeper struct {
	users    FlagClearer
	log      *zap.Logger
	interval time.Duration
	maxAge   time.Duration
	now      func() time.Time
	stopCh   chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// NewLoginFlagSweeper creates a sweeper that runs every interval and clears
// flags on logins older than maxAge.
func NewLoginFlagSweeper(users FlagClearer, logger *zap.Logger, interval, maxAge time.Duration) *LoginFlagSweeper {
	return &LoginFlagSweeper{
		users:    users,
		log:      logger,
		interval: interval,
		maxAge:   maxAge,
		now:      time.Now,
		stopCh:   make(chan struct{}),
	}
}

// Start begins the background loop.
func (w *LoginFlagSweeper) Start() {
	w.wg.Add(1)
	go w.run()
	w.log.Info("login flag sweeper started",
		zap.Duration("interval", w.interval),
		zap.Duration("max_age", w.maxAge))
}

// Stop signals the worker to stop and waits for it to finish. Safe to call
// more than once.
func (w *LoginFlagSweeper) Stop() {
	w.stopOnce.Do(func() { close(w.stopCh) })
	w.wg.Wait()
	w.log.Info("login flag sweeper stopped")
}

func (w *LoginFlagSweeper) run() {
	defer w.wg.Done()

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-w.stopCh:
			return
		case <-ticker.C:
			w.sweep()
		}
	}
}

func (w *LoginFlagSweeper) sweep() {
	ctx, cancel := timeouts.WithTimeout(context.Background(), timeouts.Long(), w.log, "login flag sweep")
	defer cancel()

	count, err := w.users.ClearStaleLoginFlags(ctx, w.now().Add(-w.maxAge))
	if err != nil {
		w.log.Error("failed to clear stale login flags", zap.Error(err))
		return
	}
	if count > 0 {
		w.log.Info("cleared stale login flags", zap.Int64("count", count))
	}
}
