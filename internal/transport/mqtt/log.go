package mqtt

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	paho "github.com/eclipse/paho.mqtt.golang"
)

// slogAdapter satisfies paho.Logger.
type slogAdapter struct {
	logger *slog.Logger
	level  slog.Level
}

func (a slogAdapter) Println(v ...any) {
	a.logger.Log(context.Background(), a.level, strings.TrimSpace(fmt.Sprintln(v...)))
}

func (a slogAdapter) Printf(format string, v ...any) {
	a.logger.Log(context.Background(), a.level, strings.TrimSpace(fmt.Sprintf(format, v...)))
}

// InstallLogger routes paho's package-level loggers to logger. paho's
// DEBUG output is very chatty and stays discarded unless debug is true.
func InstallLogger(logger *slog.Logger, debug bool) {
	l := logger.With("component", "paho")
	paho.CRITICAL = slogAdapter{logger: l, level: slog.LevelError}
	paho.ERROR = slogAdapter{logger: l, level: slog.LevelError}
	paho.WARN = slogAdapter{logger: l, level: slog.LevelWarn}
	if debug {
		paho.DEBUG = slogAdapter{logger: l, level: slog.LevelDebug}
	}
}
