package server

import (
	"os"

	l "github.com/sirupsen/logrus"

	"gitlab.com/euphonyd/euphony/src/internal/config"
)

// setupLogging directs the log to the configured file with the configured
// level. Without a filename the log stays on stderr, which is what systemd
// and interactive runs want.
func setupLogging(cfg config.Logging) (err error) {
	level := l.InfoLevel
	if cfg.Level != "" {
		if level, err = l.ParseLevel(cfg.Level); err != nil {
			return
		}
	}
	l.SetLevel(level)

	if cfg.Filename == "" {
		return
	}
	f, err := os.OpenFile(cfg.Filename, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o666)
	if err != nil {
		return
	}
	l.SetOutput(f)
	return
}
