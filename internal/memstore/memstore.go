// Package memstore is an in-process implementation of the booking
// stores.  One mutex guards all tables, so every operation, including
// the seat decrement, is atomic with respect to the others.  It backs
// APP_STORE=memory and the service tests.
package memstore

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/iliyamo/slot-booking/internal/clock"
	"github.com/iliyamo/slot-booking/internal/model"
	"github.com/iliyamo/slot-booking/internal/repository"
)

// Store holds services, slots, bookings and payments in maps.
type Store struct {
	mu    sync.Mutex
	clock clock.Clock

	services map[uint64]model.Service
	slots    map[uint64]model.Slot
	bookings map[uint64]model.Booking
	payments map[uint64]model.Payment

	nextService, nextSlot, nextBooking, nextPayment uint64
}

// New returns an empty Store stamping rows with clk.
func New(clk clock.Clock) *Store {
	return &Store{
		clock:    clk,
		services: make(map[uint64]model.Service),
		slots:    make(map[uint64]model.Slot),
		bookings: make(map[uint64]model.Booking),
		payments: make(map[uint64]model.Payment),
	}
}

// AddService seeds the catalog.  A zero ID is assigned.
func (s *Store) AddService(svc model.Service) model.Service {
	s.mu.Lock()
	defer s.mu.Unlock()
	if svc.ID == 0 {
		s.nextService++
		svc.ID = s.nextService
	} else if svc.ID > s.nextService {
		s.nextService = svc.ID
	}
	now := s.clock.Now()
	svc.CreatedAt, svc.UpdatedAt = now, now
	s.services[svc.ID] = svc
	return svc
}

// Services returns the catalog view of the store.
func (s *Store) Services() *Services { return &Services{s} }

// Slots returns the slot view of the store.
func (s *Store) Slots() *Slots { return &Slots{s} }

// Bookings returns the booking view of the store.
func (s *Store) Bookings() *Bookings { return &Bookings{s} }

// Payments returns the payment view of the store.
func (s *Store) Payments() *Payments { return &Payments{s} }

// Services reads the catalog.
type Services struct{ s *Store }

func (v *Services) GetByID(_ context.Context, id uint64) (*model.Service, error) {
	v.s.mu.Lock()
	defer v.s.mu.Unlock()
	svc, ok := v.s.services[id]
	if !ok {
		return nil, repository.ErrServiceNotFound
	}
	return &svc, nil
}

// Slots stores slots.
type Slots struct{ s *Store }

func (v *Slots) Create(_ context.Context, sl *model.Slot) error {
	v.s.mu.Lock()
	defer v.s.mu.Unlock()
	v.s.insertSlot(sl)
	return nil
}

func (s *Store) insertSlot(sl *model.Slot) {
	s.nextSlot++
	now := s.clock.Now()
	sl.ID = s.nextSlot
	sl.Start, sl.End = sl.Start.UTC(), sl.End.UTC()
	sl.CreatedAt, sl.UpdatedAt = now, now
	s.slots[sl.ID] = *sl
}

func (v *Slots) CreateBulk(_ context.Context, slots []model.Slot) (int, error) {
	v.s.mu.Lock()
	defer v.s.mu.Unlock()
	for i := range slots {
		sl := slots[i]
		v.s.insertSlot(&sl)
	}
	return len(slots), nil
}

func (v *Slots) GetByID(_ context.Context, id uint64) (*model.Slot, error) {
	v.s.mu.Lock()
	defer v.s.mu.Unlock()
	sl, ok := v.s.slots[id]
	if !ok {
		return nil, repository.ErrSlotNotFound
	}
	return &sl, nil
}

func (v *Slots) GetView(_ context.Context, id uint64) (*model.SlotView, error) {
	v.s.mu.Lock()
	defer v.s.mu.Unlock()
	sl, ok := v.s.slots[id]
	if !ok {
		return nil, repository.ErrSlotNotFound
	}
	return &model.SlotView{Slot: sl, Service: v.s.services[sl.ServiceID].Summary()}, nil
}

func (v *Slots) ListAvailable(_ context.Context, f model.SlotFilter) ([]model.SlotView, error) {
	v.s.mu.Lock()
	defer v.s.mu.Unlock()
	out := make([]model.SlotView, 0)
	for _, sl := range v.s.slots {
		if sl.ServiceID != f.ServiceID || !sl.Active || sl.Start.Before(f.From) {
			continue
		}
		if !f.To.IsZero() && !sl.Start.Before(f.To) {
			continue
		}
		if !f.IncludeFull && sl.SeatsLeft <= 0 {
			continue
		}
		out = append(out, model.SlotView{Slot: sl, Service: v.s.services[sl.ServiceID].Summary()})
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Start.Equal(out[j].Start) {
			return out[i].Start.Before(out[j].Start)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (v *Slots) Update(_ context.Context, id uint64, fn func(*model.Slot) error) (*model.Slot, error) {
	v.s.mu.Lock()
	defer v.s.mu.Unlock()
	sl, ok := v.s.slots[id]
	if !ok {
		return nil, repository.ErrSlotNotFound
	}
	if err := fn(&sl); err != nil {
		return nil, err
	}
	sl.UpdatedAt = v.s.clock.Now()
	v.s.slots[id] = sl
	return &sl, nil
}

func (v *Slots) Delete(_ context.Context, id uint64) error {
	v.s.mu.Lock()
	defer v.s.mu.Unlock()
	if _, ok := v.s.slots[id]; !ok {
		return repository.ErrSlotNotFound
	}
	for _, b := range v.s.bookings {
		if b.SlotID == id && b.Status.HoldsSeat() {
			return repository.ErrConflict
		}
	}
	delete(v.s.slots, id)
	return nil
}

func (v *Slots) DecrementSeat(_ context.Context, id uint64) (bool, error) {
	v.s.mu.Lock()
	defer v.s.mu.Unlock()
	sl, ok := v.s.slots[id]
	if !ok || !sl.Active || sl.SeatsLeft <= 0 {
		return false, nil
	}
	sl.SeatsLeft--
	sl.UpdatedAt = v.s.clock.Now()
	v.s.slots[id] = sl
	return true, nil
}

func (v *Slots) IncrementSeat(_ context.Context, id uint64) (bool, error) {
	v.s.mu.Lock()
	defer v.s.mu.Unlock()
	sl, ok := v.s.slots[id]
	if !ok || sl.SeatsLeft >= sl.Capacity {
		return false, nil
	}
	sl.SeatsLeft++
	sl.UpdatedAt = v.s.clock.Now()
	v.s.slots[id] = sl
	return true, nil
}

// Bookings stores bookings.
type Bookings struct{ s *Store }

func (v *Bookings) Create(_ context.Context, b *model.Booking) error {
	v.s.mu.Lock()
	defer v.s.mu.Unlock()
	v.s.nextBooking++
	now := v.s.clock.Now()
	b.ID = v.s.nextBooking
	b.CreatedAt, b.UpdatedAt = now, now
	v.s.bookings[b.ID] = cloneBooking(*b)
	return nil
}

func (v *Bookings) GetByID(_ context.Context, id uint64) (*model.Booking, error) {
	v.s.mu.Lock()
	defer v.s.mu.Unlock()
	b, ok := v.s.bookings[id]
	if !ok {
		return nil, repository.ErrBookingNotFound
	}
	b = cloneBooking(b)
	return &b, nil
}

func (v *Bookings) GetDetail(_ context.Context, id uint64) (*model.BookingDetail, error) {
	v.s.mu.Lock()
	defer v.s.mu.Unlock()
	b, ok := v.s.bookings[id]
	if !ok {
		return nil, repository.ErrBookingNotFound
	}
	d := v.s.detail(b)
	return &d, nil
}

func (s *Store) detail(b model.Booking) model.BookingDetail {
	d := model.BookingDetail{Booking: cloneBooking(b)}
	if sl, ok := s.slots[b.SlotID]; ok {
		d.Slot = model.SlotSummary{ID: sl.ID, Start: sl.Start, End: sl.End}
	}
	if svc, ok := s.services[b.ServiceID]; ok {
		d.Service = svc.Summary()
	}
	return d
}

func (v *Bookings) ListByUser(_ context.Context, userID uint64) ([]model.BookingDetail, error) {
	v.s.mu.Lock()
	defer v.s.mu.Unlock()
	out := make([]model.BookingDetail, 0)
	for _, b := range v.s.bookings {
		if b.UserID != nil && *b.UserID == userID {
			out = append(out, v.s.detail(b))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}

func (v *Bookings) Transition(_ context.Context, id uint64, from, to model.BookingStatus, paymentRef *string) (bool, error) {
	v.s.mu.Lock()
	defer v.s.mu.Unlock()
	b, ok := v.s.bookings[id]
	if !ok || b.Status != from {
		return false, nil
	}
	b.Status = to
	if paymentRef != nil {
		ref := *paymentRef
		b.PaymentRef = &ref
	}
	b.UpdatedAt = v.s.clock.Now()
	v.s.bookings[id] = b
	return true, nil
}

func (v *Bookings) ListStalePending(_ context.Context, before time.Time, limit int) ([]model.Booking, error) {
	v.s.mu.Lock()
	defer v.s.mu.Unlock()
	var out []model.Booking
	for _, b := range v.s.bookings {
		if b.Status == model.BookingPending && b.CreatedAt.Before(before) {
			out = append(out, cloneBooking(b))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// Payments stores gateway payment attempts.
type Payments struct{ s *Store }

func (v *Payments) Create(_ context.Context, p *model.Payment) error {
	v.s.mu.Lock()
	defer v.s.mu.Unlock()
	for _, existing := range v.s.payments {
		if existing.OrderID == p.OrderID {
			return repository.ErrConflict
		}
	}
	v.s.nextPayment++
	now := v.s.clock.Now()
	p.ID = v.s.nextPayment
	p.CreatedAt, p.UpdatedAt = now, now
	v.s.payments[p.ID] = *p
	return nil
}

func (v *Payments) GetByOrderID(_ context.Context, orderID string) (*model.Payment, error) {
	v.s.mu.Lock()
	defer v.s.mu.Unlock()
	for _, p := range v.s.payments {
		if p.OrderID == orderID {
			return &p, nil
		}
	}
	return nil, repository.ErrPaymentNotFound
}

func (v *Payments) MarkByOrderID(_ context.Context, orderID string, status model.PaymentStatus, paymentID, signature string) error {
	v.s.mu.Lock()
	defer v.s.mu.Unlock()
	for id, p := range v.s.payments {
		if p.OrderID != orderID {
			continue
		}
		p.Status = status
		if paymentID != "" {
			p.PaymentID = &paymentID
		}
		if signature != "" {
			p.Signature = &signature
		}
		p.UpdatedAt = v.s.clock.Now()
		v.s.payments[id] = p
		return nil
	}
	return repository.ErrPaymentNotFound
}

// cloneBooking copies the pointer fields so callers cannot alias stored rows.
func cloneBooking(b model.Booking) model.Booking {
	if b.UserID != nil {
		uid := *b.UserID
		b.UserID = &uid
	}
	if b.PaymentRef != nil {
		ref := *b.PaymentRef
		b.PaymentRef = &ref
	}
	return b
}
