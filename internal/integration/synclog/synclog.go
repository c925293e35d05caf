// Package synclog provides the append-only audit log of sync runs.
package synclog

import (
	"io"
	"log/slog"

	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/finance-tracker/ledgersync/config"
)

// Log is the sync audit logger together with the file it writes to.
type Log struct {
	*slog.Logger
	out io.WriteCloser
}

// New opens the rotated audit log file described by cfg. Every record
// carries component=sync so it can be told apart when shipped elsewhere.
func New(cfg *config.SyncLogConfig) *Log {
	out := &lumberjack.Logger{
		Filename:   cfg.Path,
		MaxSize:    cfg.MaxSizeMB,
		MaxBackups: cfg.MaxBackups,
		MaxAge:     cfg.MaxAgeDays,
		Compress:   true,
	}
	return NewWithWriter(out)
}

// NewWithWriter builds an audit log over an arbitrary writer.
func NewWithWriter(out io.WriteCloser) *Log {
	handler := slog.NewJSONHandler(out, &slog.HandlerOptions{Level: slog.LevelDebug})
	return &Log{
		Logger: slog.New(handler).With("component", "sync"),
		out:    out,
	}
}

// Close flushes and closes the underlying file.
func (l *Log) Close() error {
	return l.out.Close()
}
