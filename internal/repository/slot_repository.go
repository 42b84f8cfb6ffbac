package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/iliyamo/slot-booking/internal/model"
)

// bulkInsertChunk bounds the number of rows per multi-row INSERT so a
// long date range does not exceed max_allowed_packet.
const bulkInsertChunk = 500

// SlotRepo manages persistence for slots.  Seat accounting is done with
// single conditional UPDATE statements so that concurrent requests on
// different server instances can never push seats_left outside
// [0, capacity].
type SlotRepo struct {
	db *sql.DB
}

// NewSlotRepo returns a new SlotRepo bound to the given database.
func NewSlotRepo(db *sql.DB) *SlotRepo { return &SlotRepo{db: db} }

const slotColumns = `id, service_id, starts_at, ends_at, capacity, seats_left, active, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSlot(row rowScanner, s *model.Slot) error {
	return row.Scan(&s.ID, &s.ServiceID, &s.Start, &s.End, &s.Capacity, &s.SeatsLeft, &s.Active, &s.CreatedAt, &s.UpdatedAt)
}

// Create inserts a slot and populates its generated id and timestamps.
func (r *SlotRepo) Create(ctx context.Context, s *model.Slot) error {
	const q = `INSERT INTO slots (service_id, starts_at, ends_at, capacity, seats_left, active) VALUES (?, ?, ?, ?, ?, ?)`
	res, err := r.db.ExecContext(ctx, q, s.ServiceID, s.Start.UTC(), s.End.UTC(), s.Capacity, s.SeatsLeft, s.Active)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	// Query back the full row to populate timestamps and defaults
	return scanSlot(r.db.QueryRowContext(ctx, `SELECT `+slotColumns+` FROM slots WHERE id = ?`, id), s)
}

// CreateBulk inserts all slots inside one transaction using multi-row
// INSERT statements and returns the number of rows written.  Either all
// slots are stored or none are.
func (r *SlotRepo) CreateBulk(ctx context.Context, slots []model.Slot) (int, error) {
	if len(slots) == 0 {
		return 0, nil
	}
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()
	written := 0
	for start := 0; start < len(slots); start += bulkInsertChunk {
		end := start + bulkInsertChunk
		if end > len(slots) {
			end = len(slots)
		}
		chunk := slots[start:end]
		var sb strings.Builder
		sb.WriteString(`INSERT INTO slots (service_id, starts_at, ends_at, capacity, seats_left, active) VALUES `)
		args := make([]any, 0, len(chunk)*6)
		for i, s := range chunk {
			if i > 0 {
				sb.WriteString(",")
			}
			sb.WriteString("(?, ?, ?, ?, ?, ?)")
			args = append(args, s.ServiceID, s.Start.UTC(), s.End.UTC(), s.Capacity, s.SeatsLeft, s.Active)
		}
		res, err := tx.ExecContext(ctx, sb.String(), args...)
		if err != nil {
			return 0, fmt.Errorf("insert slots: %w", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return 0, err
		}
		written += int(n)
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}
	committed = true
	return written, nil
}

// GetByID returns the slot with the given id or ErrSlotNotFound.
func (r *SlotRepo) GetByID(ctx context.Context, id uint64) (*model.Slot, error) {
	var s model.Slot
	err := scanSlot(r.db.QueryRowContext(ctx, `SELECT `+slotColumns+` FROM slots WHERE id = ?`, id), &s)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrSlotNotFound
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

const slotViewSelect = `SELECT s.id, s.service_id, s.starts_at, s.ends_at, s.capacity, s.seats_left, s.active, s.created_at, s.updated_at,
                               sv.id, sv.name, sv.duration_minutes, sv.price_minor
                        FROM slots s
                        JOIN services sv ON sv.id = s.service_id`

func scanSlotView(row rowScanner, v *model.SlotView) error {
	return row.Scan(
		&v.ID, &v.ServiceID, &v.Start, &v.End, &v.Capacity, &v.SeatsLeft, &v.Active, &v.CreatedAt, &v.UpdatedAt,
		&v.Service.ID, &v.Service.Name, &v.Service.DurationMinutes, &v.Service.PriceMinor,
	)
}

// GetView returns a slot joined with its service summary.
func (r *SlotRepo) GetView(ctx context.Context, id uint64) (*model.SlotView, error) {
	var v model.SlotView
	err := scanSlotView(r.db.QueryRowContext(ctx, slotViewSelect+` WHERE s.id = ?`, id), &v)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrSlotNotFound
	}
	if err != nil {
		return nil, err
	}
	return &v, nil
}

// ListAvailable returns active slots of a service whose start lies in
// [f.From, f.To), ordered by start.  Full slots are skipped unless
// f.IncludeFull is set.
func (r *SlotRepo) ListAvailable(ctx context.Context, f model.SlotFilter) ([]model.SlotView, error) {
	where := []string{"s.service_id = ?", "s.active = TRUE", "s.starts_at >= ?"}
	args := []any{f.ServiceID, f.From.UTC()}
	if !f.To.IsZero() {
		where = append(where, "s.starts_at < ?")
		args = append(args, f.To.UTC())
	}
	if !f.IncludeFull {
		where = append(where, "s.seats_left > 0")
	}
	q := slotViewSelect + ` WHERE ` + strings.Join(where, " AND ") + ` ORDER BY s.starts_at ASC, s.id ASC`
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.SlotView, 0)
	for rows.Next() {
		var v model.SlotView
		if err := scanSlotView(rows, &v); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

// Update loads the slot under a row lock, lets fn mutate it and writes
// the editable columns back.  If fn returns an error nothing is written
// and the error is returned unchanged.
func (r *SlotRepo) Update(ctx context.Context, id uint64, fn func(*model.Slot) error) (*model.Slot, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()
	var s model.Slot
	err = scanSlot(tx.QueryRowContext(ctx, `SELECT `+slotColumns+` FROM slots WHERE id = ? FOR UPDATE`, id), &s)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrSlotNotFound
	}
	if err != nil {
		return nil, err
	}
	if err := fn(&s); err != nil {
		return nil, err
	}
	const upd = `UPDATE slots SET starts_at = ?, ends_at = ?, capacity = ?, seats_left = ?, active = ? WHERE id = ?`
	if _, err := tx.ExecContext(ctx, upd, s.Start.UTC(), s.End.UTC(), s.Capacity, s.SeatsLeft, s.Active, id); err != nil {
		return nil, err
	}
	if err := scanSlot(tx.QueryRowContext(ctx, `SELECT `+slotColumns+` FROM slots WHERE id = ?`, id), &s); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	committed = true
	return &s, nil
}

// Delete removes a slot.  The slot row is locked first so a concurrent
// seat claim cannot slip in between the booking check and the delete.
// ErrConflict is returned while pending or paid bookings reference it.
func (r *SlotRepo) Delete(ctx context.Context, id uint64) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()
	var locked uint64
	err = tx.QueryRowContext(ctx, `SELECT id FROM slots WHERE id = ? FOR UPDATE`, id).Scan(&locked)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrSlotNotFound
	}
	if err != nil {
		return err
	}
	var live int
	const cnt = `SELECT COUNT(*) FROM bookings WHERE slot_id = ? AND status IN ('pending', 'paid')`
	if err := tx.QueryRowContext(ctx, cnt, id).Scan(&live); err != nil {
		return err
	}
	if live > 0 {
		return ErrConflict
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM slots WHERE id = ?`, id); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}

// DecrementSeat claims one seat.  The check and the write are one
// statement executed by MySQL, so it reports false when no seat was left
// at the moment of the update, however many callers race on the row.
func (r *SlotRepo) DecrementSeat(ctx context.Context, id uint64) (bool, error) {
	const q = `UPDATE slots SET seats_left = seats_left - 1 WHERE id = ? AND active = TRUE AND seats_left > 0`
	res, err := r.db.ExecContext(ctx, q, id)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

// IncrementSeat gives one seat back.  It never raises seats_left above
// capacity and reports whether a seat was actually restored.
func (r *SlotRepo) IncrementSeat(ctx context.Context, id uint64) (bool, error) {
	const q = `UPDATE slots SET seats_left = seats_left + 1 WHERE id = ? AND seats_left < capacity`
	res, err := r.db.ExecContext(ctx, q, id)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}
