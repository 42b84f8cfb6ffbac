package repository

import (
    "context"
    "database/sql"
    "errors"

    "github.com/iliyamo/slot-booking/internal/model"
)

// PaymentRepo stores gateway payment attempts.  A payment row is keyed
// by the gateway order id, which is unique across the table.
type PaymentRepo struct {
    db *sql.DB
}

// NewPaymentRepo returns a new PaymentRepo bound to the given database.
func NewPaymentRepo(db *sql.DB) *PaymentRepo { return &PaymentRepo{db: db} }

const paymentColumns = `id, booking_id, provider, order_id, payment_id, signature, amount_minor, currency, status, created_at, updated_at`

func scanPayment(row rowScanner, p *model.Payment) error {
    var paymentID, sig sql.NullString
    var status string
    if err := row.Scan(&p.ID, &p.BookingID, &p.Provider, &p.OrderID, &paymentID, &sig, &p.AmountMinor, &p.Currency, &status, &p.CreatedAt, &p.UpdatedAt); err != nil {
        return err
    }
    p.Status = model.PaymentStatus(status)
    p.PaymentID, p.Signature = nil, nil
    if paymentID.Valid {
        v := paymentID.String
        p.PaymentID = &v
    }
    if sig.Valid {
        v := sig.String
        p.Signature = &v
    }
    return nil
}

// Create inserts a payment row.  A duplicate order id yields ErrConflict.
func (r *PaymentRepo) Create(ctx context.Context, p *model.Payment) error {
    const q = `INSERT INTO payments (booking_id, provider, order_id, amount_minor, currency, status) VALUES (?, ?, ?, ?, ?, ?)`
    res, err := r.db.ExecContext(ctx, q, p.BookingID, p.Provider, p.OrderID, p.AmountMinor, p.Currency, string(p.Status))
    if err != nil {
        if isDuplicateKey(err) {
            return ErrConflict
        }
        return err
    }
    id, err := res.LastInsertId()
    if err != nil {
        return err
    }
    return scanPayment(r.db.QueryRowContext(ctx, `SELECT `+paymentColumns+` FROM payments WHERE id = ?`, id), p)
}

// GetByOrderID returns the payment for a gateway order or
// ErrPaymentNotFound.
func (r *PaymentRepo) GetByOrderID(ctx context.Context, orderID string) (*model.Payment, error) {
    var p model.Payment
    err := scanPayment(r.db.QueryRowContext(ctx, `SELECT `+paymentColumns+` FROM payments WHERE order_id = ?`, orderID), &p)
    if errors.Is(err, sql.ErrNoRows) {
        return nil, ErrPaymentNotFound
    }
    if err != nil {
        return nil, err
    }
    return &p, nil
}

// MarkByOrderID records the outcome of a payment attempt.  Empty
// paymentID or signature values leave the stored columns unchanged.
func (r *PaymentRepo) MarkByOrderID(ctx context.Context, orderID string, status model.PaymentStatus, paymentID, signature string) error {
    const q = `UPDATE payments
               SET status = ?, payment_id = COALESCE(NULLIF(?, ''), payment_id), signature = COALESCE(NULLIF(?, ''), signature)
               WHERE order_id = ?`
    res, err := r.db.ExecContext(ctx, q, string(status), paymentID, signature, orderID)
    if err != nil {
        return err
    }
    n, err := res.RowsAffected()
    if err != nil {
        return err
    }
    if n == 0 {
        return ErrPaymentNotFound
    }
    return nil
}
