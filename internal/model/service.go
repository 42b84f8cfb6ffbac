package model

import "time"

// Service is a bookable offering from the catalog (a consultancy, a
// session type).  The booking core only ever reads services; they are
// owned by the catalog.
//
// Fields:
//  ID              – primary key identifier.
//  Name            – display name.
//  Description     – free-form description.
//  DurationMinutes – length of one slot of this service.
//  PriceMinor      – price in minor currency units (paise, cents).
//  Active          – whether the service is offered.
type Service struct {
    ID              uint64    `json:"id"`              // services.id
    Name            string    `json:"name"`            // services.name
    Description     string    `json:"description"`     // services.description
    DurationMinutes int       `json:"durationMinutes"` // services.duration_minutes
    PriceMinor      int64     `json:"price"`           // services.price_minor
    Active          bool      `json:"active"`          // services.active
    CreatedAt       time.Time `json:"createdAt"`       // services.created_at
    UpdatedAt       time.Time `json:"updatedAt"`       // services.updated_at
}

// ServiceSummary is the trimmed view of a service embedded in slot and
// booking responses.
type ServiceSummary struct {
    ID              uint64 `json:"id"`
    Name            string `json:"name"`
    DurationMinutes int    `json:"durationMinutes"`
    PriceMinor      int64  `json:"price"`
}

// Summary returns the embedded view of s.
func (s Service) Summary() ServiceSummary {
    return ServiceSummary{ID: s.ID, Name: s.Name, DurationMinutes: s.DurationMinutes, PriceMinor: s.PriceMinor}
}
