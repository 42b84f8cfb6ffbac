package utils

import (
    "fmt"
    "strings"
    "time"

    "github.com/google/uuid"
)

// NewPaymentRef mints the reference stored on a new booking:
// ORD_<8 opaque chars>_<unix millis>.
func NewPaymentRef(now time.Time) string {
    opaque := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
    return fmt.Sprintf("ORD_%s_%d", opaque, now.UnixMilli())
}
