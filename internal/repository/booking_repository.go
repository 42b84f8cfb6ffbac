package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/iliyamo/slot-booking/internal/model"
)

// BookingRepo provides persistence for bookings.  Status changes go
// through Transition, which only applies when the row is still in the
// expected state; callers rely on that to pair every seat release with
// exactly one status change.  All timestamp fields are stored in UTC.
type BookingRepo struct {
	db *sql.DB
}

// NewBookingRepo returns a new BookingRepo bound to the given database.
func NewBookingRepo(db *sql.DB) *BookingRepo { return &BookingRepo{db: db} }

const bookingColumns = `id, service_id, slot_id, user_id, amount_minor, status, payment_ref, payment_method, created_at, updated_at`

func scanBooking(row rowScanner, b *model.Booking) error {
	var userID sql.NullInt64
	var ref sql.NullString
	var status string
	if err := row.Scan(&b.ID, &b.ServiceID, &b.SlotID, &userID, &b.AmountMinor, &status, &ref, &b.PaymentMethod, &b.CreatedAt, &b.UpdatedAt); err != nil {
		return err
	}
	b.Status = model.BookingStatus(status)
	b.UserID = nil
	if userID.Valid {
		uid := uint64(userID.Int64)
		b.UserID = &uid
	}
	b.PaymentRef = nil
	if ref.Valid {
		r := ref.String
		b.PaymentRef = &r
	}
	return nil
}

// Create inserts a booking and populates its generated id and
// timestamps.
func (r *BookingRepo) Create(ctx context.Context, b *model.Booking) error {
	const q = `INSERT INTO bookings (service_id, slot_id, user_id, amount_minor, status, payment_ref, payment_method) VALUES (?, ?, ?, ?, ?, ?, ?)`
	var userID any
	if b.UserID != nil {
		userID = *b.UserID
	}
	var ref any
	if b.PaymentRef != nil {
		ref = *b.PaymentRef
	}
	res, err := r.db.ExecContext(ctx, q, b.ServiceID, b.SlotID, userID, b.AmountMinor, string(b.Status), ref, b.PaymentMethod)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	return scanBooking(r.db.QueryRowContext(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE id = ?`, id), b)
}

// GetByID returns the booking with the given id or ErrBookingNotFound.
func (r *BookingRepo) GetByID(ctx context.Context, id uint64) (*model.Booking, error) {
	var b model.Booking
	err := scanBooking(r.db.QueryRowContext(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE id = ?`, id), &b)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrBookingNotFound
	}
	if err != nil {
		return nil, err
	}
	return &b, nil
}

// Transition moves a booking from one status to another.  It reports
// false, without error, when the booking exists but is no longer in the
// from state.  A non-nil paymentRef replaces the stored reference.
func (r *BookingRepo) Transition(ctx context.Context, id uint64, from, to model.BookingStatus, paymentRef *string) (bool, error) {
	const q = `UPDATE bookings SET status = ?, payment_ref = COALESCE(?, payment_ref) WHERE id = ? AND status = ?`
	var ref any
	if paymentRef != nil {
		ref = *paymentRef
	}
	res, err := r.db.ExecContext(ctx, q, string(to), ref, id, string(from))
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

// ListStalePending returns up to limit bookings still pending that were
// created before the given instant, oldest first.
func (r *BookingRepo) ListStalePending(ctx context.Context, before time.Time, limit int) ([]model.Booking, error) {
	const q = `SELECT ` + bookingColumns + ` FROM bookings
	           WHERE status = 'pending' AND created_at < ?
	           ORDER BY created_at ASC, id ASC LIMIT ?`
	rows, err := r.db.QueryContext(ctx, q, before.UTC(), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.Booking
	for rows.Next() {
		var b model.Booking
		if err := scanBooking(rows, &b); err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

const bookingDetailSelect = `SELECT b.id, b.service_id, b.slot_id, b.user_id, b.amount_minor, b.status, b.payment_ref, b.payment_method, b.created_at, b.updated_at,
                                    s.id, s.starts_at, s.ends_at,
                                    sv.id, sv.name, sv.duration_minutes, sv.price_minor
                             FROM bookings b
                             LEFT JOIN slots s ON s.id = b.slot_id
                             LEFT JOIN services sv ON sv.id = b.service_id`

// scanBookingDetail tolerates a missing slot or service (the slot may
// have been deleted after the booking was closed).
func scanBookingDetail(row rowScanner, d *model.BookingDetail) error {
	var userID, slotID, svcID sql.NullInt64
	var ref, svcName sql.NullString
	var start, end sql.NullTime
	var dur sql.NullInt32
	var price sql.NullInt64
	var status string
	err := row.Scan(
		&d.ID, &d.ServiceID, &d.SlotID, &userID, &d.AmountMinor, &status, &ref, &d.PaymentMethod, &d.CreatedAt, &d.UpdatedAt,
		&slotID, &start, &end,
		&svcID, &svcName, &dur, &price,
	)
	if err != nil {
		return err
	}
	d.Status = model.BookingStatus(status)
	if userID.Valid {
		uid := uint64(userID.Int64)
		d.UserID = &uid
	}
	if ref.Valid {
		r := ref.String
		d.PaymentRef = &r
	}
	if slotID.Valid {
		d.Slot = model.SlotSummary{ID: uint64(slotID.Int64), Start: start.Time, End: end.Time}
	}
	if svcID.Valid {
		d.Service = model.ServiceSummary{ID: uint64(svcID.Int64), Name: svcName.String, DurationMinutes: int(dur.Int32), PriceMinor: price.Int64}
	}
	return nil
}

// GetDetail returns a booking joined with its slot and service.
func (r *BookingRepo) GetDetail(ctx context.Context, id uint64) (*model.BookingDetail, error) {
	var d model.BookingDetail
	err := scanBookingDetail(r.db.QueryRowContext(ctx, bookingDetailSelect+` WHERE b.id = ?`, id), &d)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrBookingNotFound
	}
	if err != nil {
		return nil, err
	}
	return &d, nil
}

// ListByUser returns all bookings of a user, newest first.  When the
// user has no bookings an empty slice is returned.
func (r *BookingRepo) ListByUser(ctx context.Context, userID uint64) ([]model.BookingDetail, error) {
	rows, err := r.db.QueryContext(ctx, bookingDetailSelect+` WHERE b.user_id = ? ORDER BY b.created_at DESC, b.id DESC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.BookingDetail, 0)
	for rows.Next() {
		var d model.BookingDetail
		if err := scanBookingDetail(rows, &d); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}
