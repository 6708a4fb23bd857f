// File path: internal/common/log.go
package common

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"
)

const defaultLogHistory = 1000

var (
	logger     *slog.Logger
	loggerOnce sync.Once
	history    = newLogRing(defaultLogHistory)
)

// LogEntry is one captured log record. Process is lifted from the "process"
// attribute so run logs can be filtered per process folder.
type LogEntry struct {
	Time       time.Time              `json:"time"`
	Level      string                 `json:"level"`
	Message    string                 `json:"message"`
	Component  string                 `json:"component,omitempty"`
	Process    string                 `json:"process,omitempty"`
	Attributes map[string]interface{} `json:"attributes,omitempty"`
}

// Logger returns the shared logger. LOG_LEVEL picks the minimum level,
// LOG_FORMAT=json switches to JSON output and LOG_HISTORY sizes the capture
// ring. Output goes to stderr; stdout carries the run summary.
func Logger() *slog.Logger {
	loggerOnce.Do(func() {
		if size, err := strconv.Atoi(strings.TrimSpace(os.Getenv("LOG_HISTORY"))); err == nil && size > 0 {
			history = newLogRing(size)
		}
		logger = newLogger(os.Stderr, os.Getenv("LOG_LEVEL"), os.Getenv("LOG_FORMAT"), history)
	})
	return logger
}

func newLogger(w io.Writer, level, format string, ring *logRing) *slog.Logger {
	opts := &slog.HandlerOptions{Level: parseLevel(level)}
	var base slog.Handler
	if strings.EqualFold(strings.TrimSpace(format), "json") {
		base = slog.NewJSONHandler(w, opts)
	} else {
		base = slog.NewTextHandler(w, opts)
	}
	return slog.New(&teeHandler{next: base, ring: ring})
}

func parseLevel(raw string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	return slog.LevelInfo
}

// LogEntries returns the captured records, oldest first.
func LogEntries() []LogEntry {
	return history.snapshot()
}

// teeHandler forwards records to the output handler and the capture ring.
// Attributes bound through With are kept so captured entries see them too.
type teeHandler struct {
	next  slog.Handler
	ring  *logRing
	bound []slog.Attr
}

func (h *teeHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.next.Enabled(ctx, level)
}

func (h *teeHandler) Handle(ctx context.Context, record slog.Record) error {
	err := h.next.Handle(ctx, record)
	if h.ring != nil {
		h.ring.add(toEntry(record, h.bound))
	}
	return err
}

func (h *teeHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	bound := make([]slog.Attr, 0, len(h.bound)+len(attrs))
	bound = append(append(bound, h.bound...), attrs...)
	return &teeHandler{next: h.next.WithAttrs(attrs), ring: h.ring, bound: bound}
}

func (h *teeHandler) WithGroup(name string) slog.Handler {
	return &teeHandler{next: h.next.WithGroup(name), ring: h.ring, bound: h.bound}
}

// logRing is a fixed-size circular buffer of entries.
type logRing struct {
	mu    sync.Mutex
	buf   []LogEntry
	next  int
	count int
}

func newLogRing(size int) *logRing {
	if size <= 0 {
		size = defaultLogHistory
	}
	return &logRing{buf: make([]LogEntry, size)}
}

func (r *logRing) add(entry LogEntry) {
	r.mu.Lock()
	r.buf[r.next] = entry
	r.next = (r.next + 1) % len(r.buf)
	if r.count < len(r.buf) {
		r.count++
	}
	r.mu.Unlock()
}

func (r *logRing) snapshot() []LogEntry {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.count == 0 {
		return nil
	}
	out := make([]LogEntry, 0, r.count)
	start := (r.next - r.count + len(r.buf)) % len(r.buf)
	for i := 0; i < r.count; i++ {
		out = append(out, r.buf[(start+i)%len(r.buf)])
	}
	return out
}

func toEntry(record slog.Record, bound []slog.Attr) LogEntry {
	entry := LogEntry{
		Time:    record.Time.UTC(),
		Level:   strings.ToLower(record.Level.String()),
		Message: record.Message,
	}
	if record.Time.IsZero() {
		entry.Time = time.Now().UTC()
	}
	collect := func(a slog.Attr) bool {
		value := attrValue(a.Value)
		switch a.Key {
		case "component":
			entry.Component = strings.TrimSpace(fmt.Sprint(value))
		case "process":
			entry.Process = strings.TrimSpace(fmt.Sprint(value))
		default:
			if entry.Attributes == nil {
				entry.Attributes = make(map[string]interface{})
			}
			entry.Attributes[a.Key] = value
		}
		return true
	}
	for _, a := range bound {
		collect(a)
	}
	record.Attrs(collect)
	// "kb: message" names its component when no attribute does.
	if entry.Component == "" {
		if prefix, _, ok := strings.Cut(entry.Message, ":"); ok && !strings.ContainsAny(prefix, " \t") {
			entry.Component = prefix
		}
	}
	return entry
}

func attrValue(v slog.Value) interface{} {
	v = v.Resolve()
	switch v.Kind() {
	case slog.KindString:
		return v.String()
	case slog.KindBool:
		return v.Bool()
	case slog.KindInt64:
		return v.Int64()
	case slog.KindUint64:
		return v.Uint64()
	case slog.KindFloat64:
		return v.Float64()
	case slog.KindDuration:
		return v.Duration().String()
	case slog.KindTime:
		return v.Time().UTC()
	case slog.KindAny:
		if err, ok := v.Any().(error); ok {
			return err.Error()
		}
		return v.Any()
	}
	return v.String()
}
