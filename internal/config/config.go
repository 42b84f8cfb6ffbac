package config // package config loads application configuration from environment variables

import (
    "log"
    "os"
    "strings"
    "time"

    "github.com/joho/godotenv"
)

// Store backends selectable with APP_STORE.
const (
    StoreMySQL  = "mysql"
    StoreMemory = "memory"
)

// Config holds all runtime configuration values.  Each field corresponds to
// an environment variable.
type Config struct {
    Env       string // application environment (e.g. "dev", "prod")
    Port      string // HTTP port to listen on
    Store     string // storage backend: mysql or memory
    DBUser    string // database username
    DBPass    string // database password (optional)
    DBHost    string // database host address
    DBPort    string // database port number
    DBName    string // database name
    Migrate   bool   // apply embedded migrations at startup
    JWTSecret string // secret used to verify JWTs
    AdminRole string // role claim required on admin routes
    BodyLimit string // max request body, echo notation (e.g. "1M")
    AuditDir  string // directory the audit consumer writes booking.log into
    Payment   PaymentConfig
    Reaper    ReaperConfig
}

// PaymentConfig configures the payment gateway.  Without a key pair the
// server runs against the mock gateway.
type PaymentConfig struct {
    KeyID         string
    KeySecret     string
    WebhookSecret string
    Currency      string
    BaseURL       string
    Timeout       time.Duration
}

// Mock reports whether no gateway credentials are configured.
func (p PaymentConfig) Mock() bool { return p.KeyID == "" || p.KeySecret == "" }

// ReaperConfig configures the pending booking sweep.
type ReaperConfig struct {
    TTL       time.Duration // PENDING_TTL, 0 disables the sweep
    Interval  time.Duration // PENDING_SWEEP_INTERVAL
    BatchSize int           // PENDING_SWEEP_BATCH
}

// Load reads configuration values from the environment, after merging a
// .env file when one is present.  Required variables are enforced by
// must() and missing values cause the program to exit with a fatal log
// message.  Database settings are only required for the mysql store.
func Load() Config {
    _ = godotenv.Load() // a missing .env is fine

    store := strings.ToLower(getenv("APP_STORE", StoreMySQL))
    if store != StoreMySQL && store != StoreMemory {
        log.Fatalf("invalid APP_STORE: %q", store)
    }
    cfg := Config{
        Env:       getenv("APP_ENV", "dev"),
        Port:      getenv("APP_PORT", "8080"),
        Store:     store,
        JWTSecret: must("JWT_SECRET"),
        AdminRole: getenv("ADMIN_ROLE", "ADMIN"),
        BodyLimit: getenv("BODY_LIMIT", "1M"),
        AuditDir:  getenv("AUDIT_LOG_DIR", "logs"),
        Migrate:   envBool("DB_MIGRATE", true),
        Payment: PaymentConfig{
            KeyID:         os.Getenv("RAZORPAY_KEY_ID"),
            KeySecret:     os.Getenv("RAZORPAY_KEY_SECRET"),
            WebhookSecret: os.Getenv("RAZORPAY_WEBHOOK_SECRET"),
            Currency:      strings.ToUpper(getenv("PAYMENT_CURRENCY", "INR")),
            BaseURL:       os.Getenv("RAZORPAY_BASE_URL"),
            Timeout:       envDur("PAYMENT_TIMEOUT", 10*time.Second),
        },
        Reaper: ReaperConfig{
            TTL:       envDur("PENDING_TTL", 15*time.Minute),
            Interval:  envDur("PENDING_SWEEP_INTERVAL", time.Minute),
            BatchSize: envInt("PENDING_SWEEP_BATCH", 100),
        },
    }
    if store == StoreMySQL {
        cfg.DBUser = must("DB_USER")
        cfg.DBPass = os.Getenv("DB_PASS") // empty allowed
        cfg.DBHost = must("DB_HOST")
        cfg.DBPort = getenv("DB_PORT", "3306")
        cfg.DBName = must("DB_NAME")
    }
    return cfg
}

// must retrieves the value of a required environment variable.  If the
// variable is unset or empty, the application logs a fatal error and exits.
func must(key string) string {
    v, ok := os.LookupEnv(key)
    if !ok || v == "" {
        log.Fatalf("missing required env var: %s", key)
    }
    return v
}
