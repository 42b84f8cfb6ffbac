// Package repository defines error types that are reused across multiple
// repositories. These sentinel values allow higher layers such as the
// booking services to distinguish between different failure scenarios
// without looking at driver errors.
package repository

import (
    "errors"

    "github.com/go-sql-driver/mysql"
)

// ErrServiceNotFound is returned when a catalog service does not exist.
var ErrServiceNotFound = errors.New("service not found")

// ErrSlotNotFound is returned when a slot does not exist.
var ErrSlotNotFound = errors.New("slot not found")

// ErrBookingNotFound is returned when a booking does not exist.
var ErrBookingNotFound = errors.New("booking not found")

// ErrPaymentNotFound is returned when no payment row matches a gateway
// order id.
var ErrPaymentNotFound = errors.New("payment not found")

// ErrConflict is returned when a delete or update cannot be
// performed because of conflicting state, such as attempting to
// delete a slot that still has live bookings.
var ErrConflict = errors.New("conflict")

// isDuplicateKey reports whether err is a MySQL duplicate entry (1062).
func isDuplicateKey(err error) bool {
    var me *mysql.MySQLError
    return errors.As(err, &me) && me.Number == 1062
}
