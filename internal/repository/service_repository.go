package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/iliyamo/slot-booking/internal/model"
)

// ServiceRepo reads bookable services from the catalog tables.  The
// catalog is maintained elsewhere, so only lookups are provided.
type ServiceRepo struct {
	db *sql.DB
}

// NewServiceRepo returns a new ServiceRepo bound to the given database.
func NewServiceRepo(db *sql.DB) *ServiceRepo { return &ServiceRepo{db: db} }

// GetByID returns the service with the given id or ErrServiceNotFound.
func (r *ServiceRepo) GetByID(ctx context.Context, id uint64) (*model.Service, error) {
	const q = `SELECT id, name, description, duration_minutes, price_minor, active, created_at, updated_at
	           FROM services WHERE id = ?`
	var s model.Service
	err := r.db.QueryRowContext(ctx, q, id).Scan(
		&s.ID, &s.Name, &s.Description, &s.DurationMinutes, &s.PriceMinor,
		&s.Active, &s.CreatedAt, &s.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrServiceNotFound
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}
