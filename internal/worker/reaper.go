// Package worker contains background jobs run by the server process.
package worker

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

// Expirer fails bookings that have been pending for longer than ttl.
type Expirer interface {
	ExpireStale(ctx context.Context, ttl time.Duration, limit int) (int, error)
}

// ReaperConfig controls the pending booking sweep.
type ReaperConfig struct {
	// TTL is how long a booking may stay pending.  Zero disables the reaper.
	TTL time.Duration
	// Interval is the time between sweeps.
	Interval time.Duration
	// BatchSize caps the bookings expired per sweep.
	BatchSize int
}

// PendingReaper periodically releases seats held by abandoned pending
// bookings.
type PendingReaper struct {
	expirer Expirer
	cfg     ReaperConfig
	log     *zap.Logger

	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	wg      sync.WaitGroup

	totalExpired atomic.Int64
}

// NewPendingReaper returns a reaper; call Start to run it.
func NewPendingReaper(expirer Expirer, cfg ReaperConfig, log *zap.Logger) *PendingReaper {
	if cfg.Interval <= 0 {
		cfg.Interval = time.Minute
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 100
	}
	return &PendingReaper{expirer: expirer, cfg: cfg, log: log}
}

// Start launches the sweep loop.  It returns immediately; the loop ends
// on Stop or when ctx is cancelled.
func (r *PendingReaper) Start(ctx context.Context) error {
	if r.cfg.TTL <= 0 {
		r.log.Info("pending reaper disabled")
		return nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.running {
		return errors.New("pending reaper already running")
	}
	r.running = true
	r.stopCh = make(chan struct{})
	r.wg.Add(1)
	go r.loop(ctx, r.stopCh)
	r.log.Info("pending reaper started", zap.Duration("ttl", r.cfg.TTL), zap.Duration("interval", r.cfg.Interval))
	return nil
}

// Stop ends the loop and waits for an in-flight sweep to finish.
func (r *PendingReaper) Stop() {
	r.mu.Lock()
	if !r.running {
		r.mu.Unlock()
		return
	}
	r.running = false
	close(r.stopCh)
	r.mu.Unlock()
	r.wg.Wait()
	r.log.Info("pending reaper stopped")
}

func (r *PendingReaper) loop(ctx context.Context, stop <-chan struct{}) {
	defer r.wg.Done()
	ticker := time.NewTicker(r.cfg.Interval)
	defer ticker.Stop()

	r.Sweep(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-stop:
			return
		case <-ticker.C:
			r.Sweep(ctx)
		}
	}
}

// Sweep runs one expiry pass and returns how many bookings it expired.
func (r *PendingReaper) Sweep(ctx context.Context) int {
	n, err := r.expirer.ExpireStale(ctx, r.cfg.TTL, r.cfg.BatchSize)
	if err != nil && !errors.Is(err, context.Canceled) {
		r.log.Error("pending sweep failed", zap.Error(err))
	}
	if n > 0 {
		r.totalExpired.Add(int64(n))
		r.log.Info("expired pending bookings", zap.Int("count", n))
	}
	return n
}

// TotalExpired is the number of bookings expired since start.
func (r *PendingReaper) TotalExpired() int64 { return r.totalExpired.Load() }
