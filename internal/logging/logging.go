// Package logging builds the node's structured logger (SPEC_FULL.md
// §3.2): zap, reading MSSNGR_LOG for the level, with a time encoder
// matching the local ISO-8601-with-offset format the original's
// tracing_subscriber used (SPEC_FULL.md §6).
package logging

import (
	"os"
	"strings"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// LevelEnv selects the minimum log level (debug, info, warn, error);
// default info.
const LevelEnv = "MSSNGR_LOG"

// localTimeLayout matches the original's "%Y-%m-%dT%H:%M:%S%:z".
const localTimeLayout = "2006-01-02T15:04:05-07:00"

// New builds the node's logger from the environment.
func New() *zap.Logger {
	encoderCfg := zap.NewProductionEncoderConfig()
	encoderCfg.TimeKey = "ts"
	encoderCfg.EncodeTime = localTimeEncoder

	core := zapcore.NewCore(
		zapcore.NewJSONEncoder(encoderCfg),
		zapcore.Lock(os.Stdout),
		parseLevel(os.Getenv(LevelEnv)),
	)

	return zap.New(core, zap.AddCaller())
}

func parseLevel(s string) zapcore.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return zapcore.DebugLevel
	case "warn", "warning":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

func localTimeEncoder(t time.Time, enc zapcore.PrimitiveArrayEncoder) {
	enc.AppendString(t.Local().Format(localTimeLayout))
}
