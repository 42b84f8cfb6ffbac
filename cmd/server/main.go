package main // Entry point package

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"github.com/iliyamo/slot-booking/internal/clock"
	"github.com/iliyamo/slot-booking/internal/config"
	"github.com/iliyamo/slot-booking/internal/database"
	"github.com/iliyamo/slot-booking/internal/handler"
	"github.com/iliyamo/slot-booking/internal/memstore"
	"github.com/iliyamo/slot-booking/internal/middleware"
	"github.com/iliyamo/slot-booking/internal/model"
	"github.com/iliyamo/slot-booking/internal/payment"
	"github.com/iliyamo/slot-booking/internal/queue"
	"github.com/iliyamo/slot-booking/internal/repository"
	"github.com/iliyamo/slot-booking/internal/router"
	"github.com/iliyamo/slot-booking/internal/service"
	"github.com/iliyamo/slot-booking/internal/worker"
)

// stores groups the storage backends the services run on.
type stores struct {
	services service.ServiceCatalog
	slots    service.SlotStore
	bookings service.BookingStore
	payments service.PaymentStore
	close    func() error
}

func main() {
	cfg := config.Load() // Load environment config
	log, err := config.NewLogger(cfg.Env)
	if err != nil {
		panic(err)
	}
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	clk := clock.NewSystem()
	st, err := openStores(ctx, cfg, clk, log)
	if err != nil {
		log.Fatal("open store", zap.String("store", cfg.Store), zap.Error(err))
	}
	defer func() { _ = st.close() }()

	var events service.EventPublisher = queue.NoopPublisher{}
	if pub, err := queue.NewPublisher(queue.URLFromEnv()); err != nil {
		log.Warn("rabbitmq unavailable, booking events disabled", zap.Error(err))
	} else {
		defer func() { _ = pub.Close() }()
		events = pub
	}

	var gateway service.Gateway
	if cfg.Payment.Mock() {
		log.Warn("no gateway credentials, using mock payment gateway")
		gateway = payment.NewMockGateway(cfg.Payment.KeyID)
	} else {
		gateway = payment.NewRazorpayClient(cfg.Payment.BaseURL, cfg.Payment.KeyID, cfg.Payment.KeySecret, cfg.Payment.Timeout)
	}
	verifier := payment.NewVerifier(cfg.Payment.KeySecret, cfg.Payment.WebhookSecret)

	slots := service.NewSlotService(st.services, st.slots, clk, log)
	bookings := service.NewBookingService(st.services, st.slots, st.bookings, events, clk, log)
	payments := service.NewPaymentService(bookings, st.payments, gateway, verifier, cfg.Payment.Currency, log)

	rdb := config.NewRedisClient()
	if rdb == nil {
		log.Warn("redis unavailable, rate limiting and availability cache disabled")
	} else {
		defer func() { _ = rdb.Close() }()
	}

	e := echo.New() // Create Echo instance
	e.HideBanner = true
	e.Use(echomw.Recover())
	e.Use(echomw.RequestIDWithConfig(echomw.RequestIDConfig{Generator: uuid.NewString}))
	e.Use(echomw.BodyLimit(cfg.BodyLimit))
	e.Use(middleware.RequestLogger(log))

	slotHandler := handler.NewSlotHandler(slots, log)
	router.RegisterRoutes(e)
	router.RegisterAdmin(e, slotHandler, cfg.JWTSecret, cfg.AdminRole)
	router.RegisterBookings(e, slotHandler, handler.NewBookingHandler(bookings, payments, log), router.PublicOptions{
		JWTSecret: cfg.JWTSecret,
		RateLimit: config.LoadRateLimitConfig(),
		Cache:     config.LoadCacheConfig(),
		Redis:     rdb,
		Log:       log,
	})
	router.RegisterPayments(e, handler.NewPaymentHandler(payments, log))

	reaper := worker.NewPendingReaper(bookings, worker.ReaperConfig{
		TTL:       cfg.Reaper.TTL,
		Interval:  cfg.Reaper.Interval,
		BatchSize: cfg.Reaper.BatchSize,
	}, log)
	if err := reaper.Start(ctx); err != nil {
		log.Fatal("start reaper", zap.Error(err))
	}
	defer reaper.Stop()

	addr := ":" + cfg.Port
	go func() {
		log.Info("listening", zap.String("addr", addr), zap.String("env", cfg.Env), zap.String("store", cfg.Store))
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server stopped", zap.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error("shutdown", zap.Error(err))
	}
	log.Info("server exited")
}

// openStores selects the storage backend.  The memory store is seeded
// with one demo service since it has no catalog of its own.
func openStores(ctx context.Context, cfg config.Config, clk clock.Clock, log *zap.Logger) (*stores, error) {
	if cfg.Store == config.StoreMemory {
		mem := memstore.New(clk)
		svc := mem.AddService(model.Service{Name: "Demo consultation", DurationMinutes: 60, PriceMinor: 50000, Active: true})
		log.Info("using in-memory store", zap.Uint64("demo_service_id", svc.ID))
		return &stores{
			services: mem.Services(),
			slots:    mem.Slots(),
			bookings: mem.Bookings(),
			payments: mem.Payments(),
			close:    func() error { return nil },
		}, nil
	}

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		return nil, err
	}
	if cfg.Migrate {
		if err := database.Migrate(ctx, db); err != nil {
			_ = db.Close()
			return nil, err
		}
	}
	return &stores{
		services: repository.NewServiceRepo(db),
		slots:    repository.NewSlotRepo(db),
		bookings: repository.NewBookingRepo(db),
		payments: repository.NewPaymentRepo(db),
		close:    db.Close,
	}, nil
}
