package queue

import (
    "context"
    "encoding/json"
    "errors"
    "fmt"
    "os"
    "path/filepath"
    "time"

    amqp "github.com/rabbitmq/amqp091-go"
    "go.uber.org/zap"
)

// AuditConsumer listens to BookingQueue and appends one line per event
// to <Dir>/booking.log.
type AuditConsumer struct {
    URL string
    Dir string
    Log *zap.Logger
}

// Run connects to RabbitMQ and consumes until ctx is cancelled.  Broker
// failures are retried with exponential backoff capped at 30s; a message
// that cannot be handled is rejected without requeue so the loop keeps
// going.
func (c *AuditConsumer) Run(ctx context.Context) error {
    backoff := time.Second
    for {
        if ctx.Err() != nil {
            return ctx.Err()
        }
        conn, err := amqp.Dial(c.URL)
        if err != nil {
            c.Log.Warn("dial broker failed", zap.Error(err), zap.Duration("retry_in", backoff))
            if !sleepCtx(ctx, backoff) {
                return ctx.Err()
            }
            if backoff < 30*time.Second {
                backoff *= 2
            }
            continue
        }
        backoff = time.Second // reset after successful connect

        err = c.consumeLoop(ctx, conn)
        _ = conn.Close()
        if ctx.Err() != nil {
            return ctx.Err()
        }
        c.Log.Warn("consume loop ended, reconnecting", zap.Error(err))
        if !sleepCtx(ctx, 2*time.Second) {
            return ctx.Err()
        }
    }
}

func sleepCtx(ctx context.Context, d time.Duration) bool {
    t := time.NewTimer(d)
    defer t.Stop()
    select {
    case <-ctx.Done():
        return false
    case <-t.C:
        return true
    }
}

func (c *AuditConsumer) consumeLoop(ctx context.Context, conn *amqp.Connection) error {
    ch, err := conn.Channel()
    if err != nil {
        return fmt.Errorf("channel open: %w", err)
    }
    defer func() { _ = ch.Close() }()

    if err := ch.Qos(50, 0, false); err != nil {
        c.Log.Warn("set QoS failed", zap.Error(err))
    }
    if _, err := ch.QueueDeclare(BookingQueue, true, false, false, false, nil); err != nil {
        return fmt.Errorf("queue declare: %w", err)
    }
    msgs, err := ch.Consume(BookingQueue, "", false, false, false, false, nil)
    if err != nil {
        return fmt.Errorf("queue consume: %w", err)
    }

    for {
        select {
        case <-ctx.Done():
            return ctx.Err()
        case d, ok := <-msgs:
            if !ok {
                return errors.New("deliveries channel closed")
            }
            if err := c.Handle(d.Body); err != nil {
                c.Log.Error("handle message failed", zap.Error(err))
                _ = d.Nack(false, false) // reject, do not requeue to avoid tight loops
                continue
            }
            _ = d.Ack(false)
        }
    }
}

// Handle decodes one message body and appends it to the audit log.
func (c *AuditConsumer) Handle(body []byte) error {
    var ev BookingEvent
    if err := json.Unmarshal(body, &ev); err != nil {
        return fmt.Errorf("unmarshal: %w", err)
    }
    if ev.Type == "" || ev.BookingID == 0 {
        return errors.New("event without type or booking id")
    }
    if err := os.MkdirAll(c.Dir, 0o755); err != nil {
        return fmt.Errorf("mkdir logs: %w", err)
    }
    f, err := os.OpenFile(filepath.Join(c.Dir, "booking.log"), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
    if err != nil {
        return fmt.Errorf("open log file: %w", err)
    }
    defer f.Close()
    if _, err := f.WriteString(FormatLine(ev)); err != nil {
        return fmt.Errorf("write log: %w", err)
    }
    return nil
}

// FormatLine renders ev as a single human friendly log line.
func FormatLine(ev BookingEvent) string {
    user := "-"
    if ev.UserID != nil {
        user = fmt.Sprintf("%d", *ev.UserID)
    }
    ref := ev.PaymentRef
    if ref == "" {
        ref = "-"
    }
    return fmt.Sprintf("[%s] %s | booking_id=%d | slot_id=%d | service_id=%d | user_id=%s | status=%s | amount=%d | payment_ref=%s\n",
        ev.OccurredAt.UTC().Format(time.RFC3339), ev.Type, ev.BookingID, ev.SlotID, ev.ServiceID, user, ev.Status, ev.Amount, ref)
}
