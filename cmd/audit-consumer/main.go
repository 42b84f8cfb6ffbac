// Command audit-consumer drains the booking event queue into an
// append-only log file.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/iliyamo/slot-booking/internal/config"
	"github.com/iliyamo/slot-booking/internal/queue"
)

func main() {
	_ = godotenv.Load()
	log, err := config.NewLogger(os.Getenv("APP_ENV"))
	if err != nil {
		panic(err)
	}
	defer func() { _ = log.Sync() }()

	dir := os.Getenv("AUDIT_LOG_DIR")
	if dir == "" {
		dir = "logs"
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	c := &queue.AuditConsumer{URL: queue.URLFromEnv(), Dir: dir, Log: log}
	log.Info("audit consumer started", zap.String("queue", queue.BookingQueue), zap.String("dir", dir))
	if err := c.Run(ctx); err != nil && ctx.Err() == nil {
		log.Fatal("audit consumer stopped", zap.Error(err))
	}
	log.Info("audit consumer exited")
}
