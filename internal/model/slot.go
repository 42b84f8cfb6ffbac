package model

import "time"

// Slot is one bookable time window of a service with a finite number of
// seats.  SeatsLeft is decremented when a booking is created and
// restored when a booking fails, expires or is cancelled.  It never
// leaves the range [0, Capacity].
//
// Fields:
//  ID        – primary key identifier.
//  ServiceID – service this slot belongs to; immutable.
//  Start     – when the slot begins (UTC).
//  End       – when the slot ends; always after Start.
//  Capacity  – total seats, at least one.
//  SeatsLeft – seats still available.
//  Active    – inactive slots cannot be booked or listed.
type Slot struct {
    ID        uint64    `json:"id"`        // slots.id
    ServiceID uint64    `json:"serviceId"` // slots.service_id
    Start     time.Time `json:"start"`     // slots.starts_at
    End       time.Time `json:"end"`       // slots.ends_at
    Capacity  int       `json:"capacity"`  // slots.capacity
    SeatsLeft int       `json:"seatsLeft"` // slots.seats_left
    Active    bool      `json:"active"`    // slots.active
    CreatedAt time.Time `json:"createdAt"` // slots.created_at
    UpdatedAt time.Time `json:"updatedAt"` // slots.updated_at
}

// SlotView is a slot joined with its service summary, as returned by the
// availability and slot detail endpoints.
type SlotView struct {
    Slot
    Service ServiceSummary `json:"service"`
}

// SlotPatch carries the optional fields of an admin slot edit.  Nil
// fields are left untouched.
type SlotPatch struct {
    Start     *time.Time
    End       *time.Time
    Capacity  *int
    SeatsLeft *int
    Active    *bool
}

// SlotFilter selects slots for availability queries.  From is inclusive
// and To is exclusive; a zero To means no upper bound.
type SlotFilter struct {
    ServiceID   uint64
    From        time.Time
    To          time.Time
    IncludeFull bool
}
