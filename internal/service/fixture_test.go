package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/iliyamo/slot-booking/internal/clock"
	"github.com/iliyamo/slot-booking/internal/memstore"
	"github.com/iliyamo/slot-booking/internal/model"
	"github.com/iliyamo/slot-booking/internal/queue"
)

var testNow = time.Date(2025, 8, 20, 9, 0, 0, 0, time.UTC)

type recordingPublisher struct {
	mu     sync.Mutex
	events []queue.BookingEvent
}

func (r *recordingPublisher) PublishBookingEvent(_ context.Context, ev queue.BookingEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
	return nil
}

func (r *recordingPublisher) types() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.events))
	for _, ev := range r.events {
		out = append(out, ev.Type)
	}
	return out
}

type fixture struct {
	clock    *clock.Manual
	store    *memstore.Store
	service  model.Service
	slots    *SlotService
	bookings *BookingService
	events   *recordingPublisher
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	clk := clock.NewManual(testNow)
	st := memstore.New(clk)
	svc := st.AddService(model.Service{Name: "Career consultation", DurationMinutes: 45, PriceMinor: 50000, Active: true})
	pub := &recordingPublisher{}
	log := zap.NewNop()
	return &fixture{
		clock:    clk,
		store:    st,
		service:  svc,
		slots:    NewSlotService(st.Services(), st.Slots(), clk, log),
		bookings: NewBookingService(st.Services(), st.Slots(), st.Bookings(), pub, clk, log),
		events:   pub,
	}
}

// slot creates a slot starting at offset from the fixture clock.
func (f *fixture) slot(t *testing.T, offset time.Duration, capacity int) *model.Slot {
	t.Helper()
	start := f.clock.Now().Add(offset)
	s, err := f.slots.CreateSlot(context.Background(), CreateSlotInput{
		ServiceID: f.service.ID,
		Start:     start,
		End:       start.Add(time.Hour),
		Capacity:  &capacity,
	})
	require.NoError(t, err)
	return s
}

func (f *fixture) seatsLeft(t *testing.T, slotID uint64) int {
	t.Helper()
	s, err := f.store.Slots().GetByID(context.Background(), slotID)
	require.NoError(t, err)
	return s.SeatsLeft
}

func (f *fixture) book(t *testing.T, slotID uint64) *BookingReceipt {
	t.Helper()
	uid := uint64(7)
	r, err := f.bookings.CreateBooking(context.Background(), CreateBookingInput{ServiceID: f.service.ID, SlotID: slotID, UserID: &uid})
	require.NoError(t, err)
	return r
}

func intPtr(v int) *int { return &v }
