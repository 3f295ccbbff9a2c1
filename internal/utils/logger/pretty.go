// internal/utils/logger/pretty.go
package logger

import (
	"fmt"
	"time"

	"go.uber.org/zap/zapcore"
)

// Colors for terminal output
const (
	ColorReset  = "\033[0m"
	ColorRed    = "\033[31m"
	ColorGreen  = "\033[32m"
	ColorYellow = "\033[33m"
	ColorCyan   = "\033[36m"
	ColorBold   = "\033[1m"
)

// PrettyEncoder creates a user-friendly console encoder: short time,
// colored level, no caller.
func PrettyEncoder() zapcore.Encoder {
	return zapcore.NewConsoleEncoder(zapcore.EncoderConfig{
		MessageKey:       "msg",
		LevelKey:         "level",
		TimeKey:          "time",
		LineEnding:       zapcore.DefaultLineEnding,
		EncodeLevel:      colorLevelEncoder,
		EncodeTime:       shortTimeEncoder,
		EncodeDuration:   zapcore.StringDurationEncoder,
		ConsoleSeparator: " ",
	})
}

func colorLevelEncoder(level zapcore.Level, enc zapcore.PrimitiveArrayEncoder) {
	enc.AppendString(ColorizeLevel(level))
}

// ColorizeLevel renders a level tag like "[WARN]" with ANSI colors.
func ColorizeLevel(level zapcore.Level) string {
	switch level {
	case zapcore.DebugLevel:
		return fmt.Sprintf("%s[DEBUG]%s", ColorCyan, ColorReset)
	case zapcore.InfoLevel:
		return fmt.Sprintf("%s[INFO]%s", ColorGreen, ColorReset)
	case zapcore.WarnLevel:
		return fmt.Sprintf("%s[WARN]%s", ColorYellow, ColorReset)
	case zapcore.ErrorLevel:
		return fmt.Sprintf("%s[ERROR]%s", ColorRed, ColorReset)
	case zapcore.DPanicLevel, zapcore.PanicLevel, zapcore.FatalLevel:
		return fmt.Sprintf("%s[%s]%s", ColorRed+ColorBold, level.CapitalString(), ColorReset)
	default:
		return fmt.Sprintf("[%s]", level.CapitalString())
	}
}

func shortTimeEncoder(t time.Time, enc zapcore.PrimitiveArrayEncoder) {
	enc.AppendString(t.Format("15:04:05"))
}

// ShortenAddress сокращает base58-адрес до вида "Fwz…pump".
func ShortenAddress(addr string) string {
	if len(addr) > 8 {
		return addr[:4] + "…" + addr[len(addr)-4:]
	}
	return addr
}
