package queue

import (
    "encoding/json"
    "os"
    "path/filepath"
    "strings"
    "testing"
    "time"

    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"
    "go.uber.org/zap"
)

func TestFormatLine(t *testing.T) {
    uid := uint64(7)
    ev := BookingEvent{
        Type: EventBookingPaid, BookingID: 42, SlotID: 3, ServiceID: 1, UserID: &uid,
        Status: "paid", Amount: 50000, PaymentRef: "pay_1",
        OccurredAt: time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC),
    }
    assert.Equal(t,
        "[2025-01-02T03:04:05Z] booking.paid | booking_id=42 | slot_id=3 | service_id=1 | user_id=7 | status=paid | amount=50000 | payment_ref=pay_1\n",
        FormatLine(ev))

    ev.UserID = nil
    ev.PaymentRef = ""
    assert.Contains(t, FormatLine(ev), "user_id=- ")
    assert.Contains(t, FormatLine(ev), "payment_ref=-\n")
}

func TestAuditConsumerHandleAppends(t *testing.T) {
    dir := filepath.Join(t.TempDir(), "logs")
    c := &AuditConsumer{Dir: dir, Log: zap.NewNop()}

    for _, id := range []uint64{1, 2} {
        body, err := json.Marshal(BookingEvent{Type: EventBookingCreated, BookingID: id, Status: "pending"})
        require.NoError(t, err)
        require.NoError(t, c.Handle(body))
    }
    raw, err := os.ReadFile(filepath.Join(dir, "booking.log"))
    require.NoError(t, err)
    lines := strings.Split(strings.TrimSpace(string(raw)), "\n")
    require.Len(t, lines, 2)
    assert.Contains(t, lines[0], "booking_id=1")
    assert.Contains(t, lines[1], "booking_id=2")
}

func TestAuditConsumerHandleRejectsGarbage(t *testing.T) {
    c := &AuditConsumer{Dir: t.TempDir(), Log: zap.NewNop()}
    assert.Error(t, c.Handle([]byte("not json")))
    assert.Error(t, c.Handle([]byte(`{"type":""}`)))
}
