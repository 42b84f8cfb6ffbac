package worker

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/iliyamo/slot-booking/internal/clock"
	"github.com/iliyamo/slot-booking/internal/memstore"
	"github.com/iliyamo/slot-booking/internal/model"
	"github.com/iliyamo/slot-booking/internal/service"
)

type countingExpirer struct {
	mu    sync.Mutex
	calls int
	ttl   time.Duration
	limit int
}

func (c *countingExpirer) ExpireStale(_ context.Context, ttl time.Duration, limit int) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls++
	c.ttl, c.limit = ttl, limit
	return 1, nil
}

func (c *countingExpirer) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls
}

func TestReaperRunsOnTicker(t *testing.T) {
	exp := &countingExpirer{}
	r := NewPendingReaper(exp, ReaperConfig{TTL: time.Minute, Interval: 10 * time.Millisecond, BatchSize: 5}, zap.NewNop())
	require.NoError(t, r.Start(context.Background()))
	assert.Error(t, r.Start(context.Background()))

	assert.Eventually(t, func() bool { return exp.count() >= 3 }, time.Second, 5*time.Millisecond)
	r.Stop()
	r.Stop()

	calls := exp.count()
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, calls, exp.count())
	assert.Equal(t, time.Minute, exp.ttl)
	assert.Equal(t, 5, exp.limit)
	assert.EqualValues(t, calls, r.TotalExpired())
}

func TestReaperDisabledWithoutTTL(t *testing.T) {
	exp := &countingExpirer{}
	r := NewPendingReaper(exp, ReaperConfig{Interval: time.Millisecond}, zap.NewNop())
	require.NoError(t, r.Start(context.Background()))
	time.Sleep(10 * time.Millisecond)
	r.Stop()
	assert.Zero(t, exp.count())
}

func TestReaperStopsOnContextCancel(t *testing.T) {
	exp := &countingExpirer{}
	r := NewPendingReaper(exp, ReaperConfig{TTL: time.Minute, Interval: 5 * time.Millisecond}, zap.NewNop())
	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, r.Start(ctx))
	cancel()
	r.Stop()
}

func TestReaperReleasesAbandonedSeats(t *testing.T) {
	clk := clock.NewManual(time.Date(2025, 9, 1, 8, 0, 0, 0, time.UTC))
	st := memstore.New(clk)
	svc := st.AddService(model.Service{Name: "Session", DurationMinutes: 30, PriceMinor: 1000})
	log := zap.NewNop()
	slots := service.NewSlotService(st.Services(), st.Slots(), clk, log)
	engine := service.NewBookingService(st.Services(), st.Slots(), st.Bookings(), nil, clk, log)

	ctx := context.Background()
	start := clk.Now().Add(2 * time.Hour)
	capacity := 1
	s, err := slots.CreateSlot(ctx, service.CreateSlotInput{ServiceID: svc.ID, Start: start, End: start.Add(30 * time.Minute), Capacity: &capacity})
	require.NoError(t, err)
	_, err = engine.CreateBooking(ctx, service.CreateBookingInput{ServiceID: svc.ID, SlotID: s.ID})
	require.NoError(t, err)

	r := NewPendingReaper(engine, ReaperConfig{TTL: 15 * time.Minute, BatchSize: 10}, log)
	assert.Zero(t, r.Sweep(ctx))

	clk.Advance(16 * time.Minute)
	assert.Equal(t, 1, r.Sweep(ctx))

	got, err := st.Slots().GetByID(ctx, s.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.SeatsLeft)

	_, err = engine.CreateBooking(ctx, service.CreateBookingInput{ServiceID: svc.ID, SlotID: s.ID})
	assert.NoError(t, err)
}
