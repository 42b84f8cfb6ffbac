package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/slot-booking/internal/model"
)

func TestCreateSlotDefaults(t *testing.T) {
	f := newFixture(t)
	start := testNow.Add(24 * time.Hour)
	s, err := f.slots.CreateSlot(context.Background(), CreateSlotInput{ServiceID: f.service.ID, Start: start, End: start.Add(time.Hour)})
	require.NoError(t, err)
	assert.Equal(t, 1, s.Capacity)
	assert.Equal(t, 1, s.SeatsLeft)
	assert.True(t, s.Active)
}

func TestCreateSlotValidation(t *testing.T) {
	f := newFixture(t)
	start := testNow.Add(24 * time.Hour)
	ctx := context.Background()

	_, err := f.slots.CreateSlot(ctx, CreateSlotInput{ServiceID: f.service.ID, Start: start, End: start})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = f.slots.CreateSlot(ctx, CreateSlotInput{ServiceID: f.service.ID, Start: start, End: start.Add(time.Hour), Capacity: intPtr(0)})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = f.slots.CreateSlot(ctx, CreateSlotInput{ServiceID: 999, Start: start, End: start.Add(time.Hour)})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestBulkCreateSlotsTwoDaysTwoTimes(t *testing.T) {
	f := newFixture(t)
	n, err := f.slots.BulkCreateSlots(context.Background(), BulkCreateInput{
		ServiceID: f.service.ID,
		DateFrom:  "2025-09-01",
		DateTo:    "2025-09-02",
		Times:     []string{"10:00", "14:00"},
		Capacity:  intPtr(2),
	})
	require.NoError(t, err)
	assert.Equal(t, 4, n)

	got, err := f.slots.QueryAvailability(context.Background(), f.service.ID, "2025-09", false)
	require.NoError(t, err)
	require.Len(t, got, 4)
	wantStarts := []string{"2025-09-01T10:00:00Z", "2025-09-01T14:00:00Z", "2025-09-02T10:00:00Z", "2025-09-02T14:00:00Z"}
	for i, v := range got {
		assert.Equal(t, 2, v.SeatsLeft)
		assert.Equal(t, 2, v.Capacity)
		assert.Equal(t, wantStarts[i], v.Start.Format(time.RFC3339))
		assert.Equal(t, 45*time.Minute, v.End.Sub(v.Start))
		assert.Equal(t, f.service.Name, v.Service.Name)
	}
}

func TestBulkCreateSlotsSkipsMalformedTimes(t *testing.T) {
	f := newFixture(t)
	n, err := f.slots.BulkCreateSlots(context.Background(), BulkCreateInput{
		ServiceID: f.service.ID,
		DateFrom:  "2025-09-01T00:00:00.000Z",
		DateTo:    "2025-09-01",
		Times:     []string{"09:30", "25:00", "lunch", "09:30", "16:05"},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestBulkCreateSlotsDefaultDuration(t *testing.T) {
	f := newFixture(t)
	svc := f.store.AddService(model.Service{Name: "Open ended", DurationMinutes: 0, PriceMinor: 100})
	_, err := f.slots.BulkCreateSlots(context.Background(), BulkCreateInput{
		ServiceID: svc.ID, DateFrom: "2025-09-01", DateTo: "2025-09-01", Times: []string{"10:00"},
	})
	require.NoError(t, err)
	got, err := f.slots.QueryAvailability(context.Background(), svc.ID, "2025-09-01", false)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, time.Hour, got[0].End.Sub(got[0].Start))
}

func TestBulkCreateSlotsValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	cases := map[string]BulkCreateInput{
		"no times":       {ServiceID: f.service.ID, DateFrom: "2025-09-01", DateTo: "2025-09-02"},
		"bad from":       {ServiceID: f.service.ID, DateFrom: "09/01/2025", DateTo: "2025-09-02", Times: []string{"10:00"}},
		"reversed":       {ServiceID: f.service.ID, DateFrom: "2025-09-03", DateTo: "2025-09-02", Times: []string{"10:00"}},
		"all malformed":  {ServiceID: f.service.ID, DateFrom: "2025-09-01", DateTo: "2025-09-02", Times: []string{"noon"}},
		"range too long": {ServiceID: f.service.ID, DateFrom: "2025-01-01", DateTo: "2026-06-01", Times: []string{"10:00"}},
	}
	for name, in := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := f.slots.BulkCreateSlots(ctx, in)
			assert.ErrorIs(t, err, ErrValidation)
		})
	}

	_, err := f.slots.BulkCreateSlots(ctx, BulkCreateInput{ServiceID: 404, DateFrom: "2025-09-01", DateTo: "2025-09-01", Times: []string{"10:00"}})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestQueryAvailabilityFilters(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	past := f.slot(t, -2*time.Hour, 1)
	full := f.slot(t, 2*time.Hour, 1)
	open := f.slot(t, 3*time.Hour, 3)
	f.book(t, full.ID)

	got, err := f.slots.QueryAvailability(ctx, f.service.ID, "", false)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, open.ID, got[0].ID)

	got, err = f.slots.QueryAvailability(ctx, f.service.ID, "", true)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, full.ID, got[0].ID)
	assert.Equal(t, open.ID, got[1].ID)

	// a month filter includes slots that already started
	got, err = f.slots.QueryAvailability(ctx, f.service.ID, "2025-08", true)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, past.ID, got[0].ID)

	got, err = f.slots.QueryAvailability(ctx, f.service.ID, "2025-08-21", true)
	require.NoError(t, err)
	assert.Empty(t, got)

	for _, bad := range []string{"2025", "2025-13", "2025-08-32", "Aug 2025"} {
		_, err = f.slots.QueryAvailability(ctx, f.service.ID, bad, false)
		assert.ErrorIs(t, err, ErrValidation, bad)
	}
}

func TestQueryAvailabilitySkipsInactive(t *testing.T) {
	f := newFixture(t)
	s := f.slot(t, time.Hour, 2)
	_, err := f.slots.UpdateSlot(context.Background(), s.ID, model.SlotPatch{Active: boolPtr(false)})
	require.NoError(t, err)
	got, err := f.slots.QueryAvailability(context.Background(), f.service.ID, "", true)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestUpdateSlotCapacityShiftsSeats(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	s := f.slot(t, time.Hour, 3)
	f.book(t, s.ID)

	up, err := f.slots.UpdateSlot(ctx, s.ID, model.SlotPatch{Capacity: intPtr(5)})
	require.NoError(t, err)
	assert.Equal(t, 5, up.Capacity)
	assert.Equal(t, 4, up.SeatsLeft)

	up, err = f.slots.UpdateSlot(ctx, s.ID, model.SlotPatch{Capacity: intPtr(1)})
	require.NoError(t, err)
	assert.Equal(t, 0, up.SeatsLeft)

	_, err = f.slots.UpdateSlot(ctx, s.ID, model.SlotPatch{SeatsLeft: intPtr(2)})
	assert.ErrorIs(t, err, ErrValidation)

	end := s.Start.Add(-time.Minute)
	_, err = f.slots.UpdateSlot(ctx, s.ID, model.SlotPatch{End: &end})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = f.slots.UpdateSlot(ctx, 999, model.SlotPatch{Active: boolPtr(true)})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDeleteSlotGuard(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	s := f.slot(t, time.Hour, 2)
	r := f.book(t, s.ID)

	err := f.slots.DeleteSlot(ctx, s.ID)
	assert.ErrorIs(t, err, ErrConflict)

	_, err = f.bookings.ConfirmPayment(ctx, r.BookingID, OutcomeFailed, "")
	require.NoError(t, err)
	require.NoError(t, f.slots.DeleteSlot(ctx, s.ID))

	_, err = f.slots.GetSlot(ctx, s.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, f.slots.DeleteSlot(ctx, s.ID), ErrNotFound)
}

func TestParseInstant(t *testing.T) {
	for _, in := range []string{"2025-09-01T10:00:00Z", "2025-09-01T15:30:00+05:30", "2025-09-01 10:00", "2025-09-01T10:00:00"} {
		got, err := ParseInstant(in)
		require.NoError(t, err, in)
		assert.Equal(t, "2025-09-01T10:00:00Z", got.Format(time.RFC3339), in)
	}
	_, err := ParseInstant("tomorrow")
	assert.True(t, errors.Is(err, ErrValidation))
}

func boolPtr(v bool) *bool { return &v }
