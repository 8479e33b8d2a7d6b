// /internal/logging/logging.go
package logging

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"gopkg.in/natefinch/lumberjack.v2"
)

// New builds the root logger. Console output is always on; when path is
// non-empty a rotating JSON file sink is added next to it.
func New(level, path string) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		lvl = zerolog.InfoLevel
	}

	console := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}
	var out io.Writer = console
	if path != "" {
		out = zerolog.MultiLevelWriter(console, &lumberjack.Logger{
			Filename:   path,
			MaxSize:    20, // megabytes
			MaxBackups: 5,
			MaxAge:     28, // days
			Compress:   true,
		})
	}
	return zerolog.New(out).Level(lvl).With().Timestamp().Logger()
}

// Audit derives the audit logger used for privileged operations: owner
// sigil invocations, command enable/disable, hot reloads. Audit lines are
// never filtered by level.
func Audit(base zerolog.Logger) zerolog.Logger {
	return base.Level(zerolog.TraceLevel).With().Str("log", "audit").Logger()
}
