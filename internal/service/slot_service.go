package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/iliyamo/slot-booking/internal/clock"
	"github.com/iliyamo/slot-booking/internal/model"
	"github.com/iliyamo/slot-booking/internal/repository"
)

const (
	defaultSlotMinutes = 60
	// maxBulkDays bounds one bulk generation request.
	maxBulkDays = 366
)

// SlotService administers slots and answers availability queries.
type SlotService struct {
	services ServiceCatalog
	slots    SlotStore
	clock    clock.Clock
	log      *zap.Logger
}

// NewSlotService wires a SlotService.
func NewSlotService(services ServiceCatalog, slots SlotStore, clk clock.Clock, log *zap.Logger) *SlotService {
	return &SlotService{services: services, slots: slots, clock: clk, log: log}
}

// CreateSlotInput describes a single slot.  A nil Capacity means one
// seat; a nil Active means active.
type CreateSlotInput struct {
	ServiceID uint64
	Start     time.Time
	End       time.Time
	Capacity  *int
	Active    *bool
}

// CreateSlot stores a new slot with every seat available.
func (s *SlotService) CreateSlot(ctx context.Context, in CreateSlotInput) (*model.Slot, error) {
	if in.ServiceID == 0 {
		return nil, validation("serviceId is required")
	}
	if in.Start.IsZero() || in.End.IsZero() {
		return nil, validation("start and end are required")
	}
	if !in.End.After(in.Start) {
		return nil, validation("end must be after start")
	}
	capacity := 1
	if in.Capacity != nil {
		capacity = *in.Capacity
	}
	if capacity < 1 {
		return nil, validation("capacity must be at least 1")
	}
	if _, err := s.loadService(ctx, in.ServiceID); err != nil {
		return nil, err
	}
	slot := &model.Slot{
		ServiceID: in.ServiceID,
		Start:     in.Start.UTC(),
		End:       in.End.UTC(),
		Capacity:  capacity,
		SeatsLeft: capacity,
		Active:    in.Active == nil || *in.Active,
	}
	if err := s.slots.Create(ctx, slot); err != nil {
		return nil, fmt.Errorf("create slot: %w", err)
	}
	s.log.Info("slot created", zap.Uint64("slot_id", slot.ID), zap.Uint64("service_id", slot.ServiceID), zap.Int("capacity", capacity))
	return slot, nil
}

// BulkCreateInput describes a range of days crossed with times of day.
// Dates are "YYYY-MM-DD" (longer ISO strings are cut to that) and times
// are "HH:MM".
type BulkCreateInput struct {
	ServiceID uint64
	DateFrom  string
	DateTo    string
	Times     []string
	Capacity  *int
}

// BulkCreateSlots generates one slot per day in [DateFrom, DateTo] and
// per time of day, each lasting the service duration, and stores them
// all at once.  It returns how many were created.  Malformed times are
// skipped; duplicate times are generated once.
func (s *SlotService) BulkCreateSlots(ctx context.Context, in BulkCreateInput) (int, error) {
	if in.ServiceID == 0 {
		return 0, validation("serviceId is required")
	}
	times := make([]string, 0, len(in.Times))
	for _, t := range in.Times {
		if t != "" {
			times = append(times, t)
		}
	}
	if len(times) == 0 {
		return 0, validation("times are required")
	}
	from, ok := parseDay(in.DateFrom)
	if !ok {
		return 0, validation("invalid dateFrom")
	}
	to, ok := parseDay(in.DateTo)
	if !ok {
		return 0, validation("invalid dateTo")
	}
	if from.After(to) {
		return 0, validation("dateFrom must not be after dateTo")
	}
	if to.Sub(from) >= maxBulkDays*24*time.Hour {
		return 0, validation("date range must not exceed %d days", maxBulkDays)
	}
	capacity := 1
	if in.Capacity != nil {
		capacity = *in.Capacity
	}
	if capacity < 1 {
		return 0, validation("capacity must be at least 1")
	}
	svc, err := s.loadService(ctx, in.ServiceID)
	if err != nil {
		return 0, err
	}
	minutes := svc.DurationMinutes
	if minutes <= 0 {
		minutes = defaultSlotMinutes
	}
	length := time.Duration(minutes) * time.Minute

	type hm struct{ h, m int }
	var clocks []hm
	seen := make(map[hm]bool)
	for _, t := range times {
		h, m, ok := parseClock(t)
		if !ok {
			continue
		}
		k := hm{h, m}
		if seen[k] {
			continue
		}
		seen[k] = true
		clocks = append(clocks, k)
	}

	var slots []model.Slot
	for day := from; !day.After(to); day = day.AddDate(0, 0, 1) {
		for _, c := range clocks {
			start := time.Date(day.Year(), day.Month(), day.Day(), c.h, c.m, 0, 0, time.UTC)
			slots = append(slots, model.Slot{
				ServiceID: svc.ID,
				Start:     start,
				End:       start.Add(length),
				Capacity:  capacity,
				SeatsLeft: capacity,
				Active:    true,
			})
		}
	}
	if len(slots) == 0 {
		return 0, validation("no valid slots could be generated")
	}
	n, err := s.slots.CreateBulk(ctx, slots)
	if err != nil {
		return 0, fmt.Errorf("bulk create slots: %w", err)
	}
	s.log.Info("slots generated", zap.Uint64("service_id", svc.ID), zap.Int("count", n))
	return n, nil
}

// GetSlot returns a slot with its service summary.
func (s *SlotService) GetSlot(ctx context.Context, id uint64) (*model.SlotView, error) {
	v, err := s.slots.GetView(ctx, id)
	if errors.Is(err, repository.ErrSlotNotFound) {
		return nil, notFound("slot not found")
	}
	if err != nil {
		return nil, fmt.Errorf("get slot: %w", err)
	}
	return v, nil
}

// UpdateSlot applies an admin edit.  When the capacity changes and no
// seatsLeft is given, seatsLeft moves by the same delta, clamped to
// [0, capacity].
func (s *SlotService) UpdateSlot(ctx context.Context, id uint64, p model.SlotPatch) (*model.Slot, error) {
	slot, err := s.slots.Update(ctx, id, func(cur *model.Slot) error {
		if p.Start != nil {
			cur.Start = p.Start.UTC()
		}
		if p.End != nil {
			cur.End = p.End.UTC()
		}
		if p.Capacity != nil {
			if *p.Capacity < 1 {
				return validation("capacity must be at least 1")
			}
			if p.SeatsLeft == nil {
				cur.SeatsLeft = clamp(cur.SeatsLeft+*p.Capacity-cur.Capacity, 0, *p.Capacity)
			}
			cur.Capacity = *p.Capacity
		}
		if p.SeatsLeft != nil {
			cur.SeatsLeft = *p.SeatsLeft
		}
		if p.Active != nil {
			cur.Active = *p.Active
		}
		if !cur.End.After(cur.Start) {
			return validation("end must be after start")
		}
		if cur.SeatsLeft < 0 || cur.SeatsLeft > cur.Capacity {
			return validation("seatsLeft must be between 0 and capacity")
		}
		return nil
	})
	var se *Error
	switch {
	case errors.As(err, &se):
		return nil, err
	case errors.Is(err, repository.ErrSlotNotFound):
		return nil, notFound("slot not found")
	case err != nil:
		return nil, fmt.Errorf("update slot: %w", err)
	}
	s.log.Info("slot updated", zap.Uint64("slot_id", id))
	return slot, nil
}

// DeleteSlot removes a slot nobody holds a seat on.
func (s *SlotService) DeleteSlot(ctx context.Context, id uint64) error {
	err := s.slots.Delete(ctx, id)
	switch {
	case errors.Is(err, repository.ErrSlotNotFound):
		return notFound("slot not found")
	case errors.Is(err, repository.ErrConflict):
		return conflict("slot has pending or paid bookings")
	case err != nil:
		return fmt.Errorf("delete slot: %w", err)
	}
	s.log.Info("slot deleted", zap.Uint64("slot_id", id))
	return nil
}

// QueryAvailability lists the active slots of a service ordered by start.
// period is "YYYY-MM", "YYYY-MM-DD" or empty for everything from now on.
// Full slots are left out unless includeFull is set.
func (s *SlotService) QueryAvailability(ctx context.Context, serviceID uint64, period string, includeFull bool) ([]model.SlotView, error) {
	if serviceID == 0 {
		return nil, validation("invalid service id")
	}
	f := model.SlotFilter{ServiceID: serviceID, IncludeFull: includeFull}
	if period == "" {
		f.From = s.clock.Now()
	} else {
		from, to, err := periodRange(period)
		if err != nil {
			return nil, err
		}
		f.From, f.To = from, to
	}
	out, err := s.slots.ListAvailable(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("list availability: %w", err)
	}
	return out, nil
}

func (s *SlotService) loadService(ctx context.Context, id uint64) (*model.Service, error) {
	svc, err := s.services.GetByID(ctx, id)
	if errors.Is(err, repository.ErrServiceNotFound) {
		return nil, notFound("service not found")
	}
	if err != nil {
		return nil, fmt.Errorf("load service: %w", err)
	}
	return svc, nil
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
