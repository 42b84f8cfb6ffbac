package config

import (
    "go.uber.org/zap"
    "go.uber.org/zap/zapcore"
)

// NewLogger builds the process logger: JSON output at info level in
// prod, a colored console logger at debug level otherwise.  LOG_LEVEL
// overrides the level.
func NewLogger(env string) (*zap.Logger, error) {
    var cfg zap.Config
    if env == "prod" || env == "production" {
        cfg = zap.NewProductionConfig()
        cfg.EncoderConfig.TimeKey = "ts"
        cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
    } else {
        cfg = zap.NewDevelopmentConfig()
        cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
    }
    if lvl := envStr("LOG_LEVEL", ""); lvl != "" {
        if err := cfg.Level.UnmarshalText([]byte(lvl)); err != nil {
            return nil, err
        }
    }
    return cfg.Build()
}
