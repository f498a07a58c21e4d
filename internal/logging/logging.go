// Package logging builds the exporter's combined logger: JSON lines on
// stdout for operators, plus an append-only day-keyed log file that is the
// pipeline's durable audit trail.
package logging

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// New returns a logger that fans out to stdout (JSON) and to
// <dir>/export-YYYY-MM-DD.log. The file side writes one
// "[timestamp] [LEVEL] message key=value" line per record and rolls to a
// new file when the UTC date changes. The returned close func flushes and
// closes the current log file.
func New(dir, level, service string) (*slog.Logger, func() error, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, nil, fmt.Errorf("create log dir: %w", err)
	}

	lvl := ParseLevel(level)
	state := &fileState{dir: dir}

	handler := fanout{
		slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: lvl}),
		&dayFileHandler{state: state, level: lvl},
	}
	logger := slog.New(handler).With(slog.String("service", service))
	return logger, state.Close, nil
}

// ParseLevel maps the config log level string to a slog level,
// defaulting to info.
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// fileState owns the currently open day file. Shared by all handler
// clones created through WithAttrs.
type fileState struct {
	dir string

	mu   sync.Mutex
	day  string
	file *os.File
}

// FileName returns the log file name for a given instant.
func FileName(t time.Time) string {
	return "export-" + t.UTC().Format("2006-01-02") + ".log"
}

func (s *fileState) write(t time.Time, line []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	day := t.UTC().Format("2006-01-02")
	if s.file == nil || day != s.day {
		if s.file != nil {
			_ = s.file.Close()
		}
		f, err := os.OpenFile(
			filepath.Join(s.dir, FileName(t)),
			os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644,
		)
		if err != nil {
			return fmt.Errorf("open log file: %w", err)
		}
		s.file = f
		s.day = day
	}

	_, err := s.file.Write(line)
	return err
}

func (s *fileState) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.file == nil {
		return nil
	}
	err := s.file.Close()
	s.file = nil
	return err
}

// dayFileHandler is a minimal slog.Handler emitting bracket-formatted
// lines. Groups are not used anywhere in this codebase, so WithGroup is a
// no-op.
type dayFileHandler struct {
	state *fileState
	level slog.Level
	attrs []slog.Attr
}

func (h *dayFileHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level
}

func (h *dayFileHandler) Handle(_ context.Context, r slog.Record) error {
	var b strings.Builder
	fmt.Fprintf(&b, "[%s] [%s] %s",
		r.Time.UTC().Format(time.RFC3339), r.Level.String(), r.Message)
	for _, a := range h.attrs {
		writeAttr(&b, a)
	}
	r.Attrs(func(a slog.Attr) bool {
		writeAttr(&b, a)
		return true
	})
	b.WriteByte('\n')
	return h.state.write(r.Time, []byte(b.String()))
}

func (h *dayFileHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	merged := make([]slog.Attr, 0, len(h.attrs)+len(attrs))
	merged = append(merged, h.attrs...)
	merged = append(merged, attrs...)
	return &dayFileHandler{state: h.state, level: h.level, attrs: merged}
}

func (h *dayFileHandler) WithGroup(string) slog.Handler { return h }

func writeAttr(b *strings.Builder, a slog.Attr) {
	fmt.Fprintf(b, " %s=%v", a.Key, a.Value.Resolve().Any())
}

// fanout duplicates records to every wrapped handler.
type fanout []slog.Handler

func (f fanout) Enabled(ctx context.Context, level slog.Level) bool {
	for _, h := range f {
		if h.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

func (f fanout) Handle(ctx context.Context, r slog.Record) error {
	var firstErr error
	for _, h := range f {
		if !h.Enabled(ctx, r.Level) {
			continue
		}
		if err := h.Handle(ctx, r.Clone()); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func (f fanout) WithAttrs(attrs []slog.Attr) slog.Handler {
	next := make(fanout, len(f))
	for i, h := range f {
		next[i] = h.WithAttrs(attrs)
	}
	return next
}

func (f fanout) WithGroup(name string) slog.Handler {
	next := make(fanout, len(f))
	for i, h := range f {
		next[i] = h.WithGroup(name)
	}
	return next
}
