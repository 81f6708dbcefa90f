// Package debug implements the troubleshooting side channel of the chat
// front-end. Sinks receive one entry per turn and must never fail or block
// the turn that produced it.
package debug

import (
	"context"
	"log/slog"
	"strings"
	"sync"

	"relay-chat/internal/model"
)

// Sink receives debug entries.
type Sink interface {
	Record(ctx context.Context, entry model.DebugEntry)
}

// Discard drops every entry.
var Discard Sink = discard{}

type discard struct{}

func (discard) Record(context.Context, model.DebugEntry) {}

// RedactHeaders copies headers and hides credentials.
func RedactHeaders(headers map[string]string) map[string]string {
	out := make(map[string]string, len(headers))
	for k, v := range headers {
		switch strings.ToLower(k) {
		case "authorization":
			scheme, _, found := strings.Cut(v, " ")
			if found {
				out[k] = scheme + " ***"
			} else {
				out[k] = "***"
			}
		default:
			out[k] = v
		}
	}
	return out
}

// LogSink writes entries to a structured logger at DEBUG level.
type LogSink struct {
	logger *slog.Logger
}

func NewLogSink(logger *slog.Logger) *LogSink {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogSink{logger: logger}
}

func (s *LogSink) Record(ctx context.Context, e model.DebugEntry) {
	s.logger.DebugContext(ctx, "Chat API exchange",
		"session_id", e.SessionID,
		"endpoint", e.Endpoint,
		"headers", e.Headers,
		"payload", e.Payload,
		"status", e.Status,
		"body", e.Body,
		"outcome", e.Outcome,
		"error", e.Error,
		"latency_ms", e.Latency.Milliseconds(),
	)
}

// Multi fans an entry out to several sinks.
type Multi []Sink

func (m Multi) Record(ctx context.Context, e model.DebugEntry) {
	for _, s := range m {
		if s != nil {
			s.Record(ctx, e)
		}
	}
}

// Buffer keeps the most recent entries of every session in memory. It backs
// the debug sidebar.
type Buffer struct {
	mu    sync.RWMutex
	size  int
	items map[string][]model.DebugEntry
}

// NewBuffer keeps at most size entries per session.
func NewBuffer(size int) *Buffer {
	if size < 1 {
		size = 1
	}
	return &Buffer{size: size, items: make(map[string][]model.DebugEntry)}
}

func (b *Buffer) Record(_ context.Context, e model.DebugEntry) {
	b.mu.Lock()
	defer b.mu.Unlock()
	entries := append(b.items[e.SessionID], e)
	if len(entries) > b.size {
		entries = entries[len(entries)-b.size:]
	}
	b.items[e.SessionID] = entries
}

// Entries returns the buffered entries of a session, newest first.
func (b *Buffer) Entries(sessionID string) []model.DebugEntry {
	b.mu.RLock()
	defer b.mu.RUnlock()
	entries := b.items[sessionID]
	out := make([]model.DebugEntry, len(entries))
	for i, e := range entries {
		out[len(entries)-1-i] = e
	}
	return out
}

// Forget drops the entries of a session.
func (b *Buffer) Forget(sessionID string) {
	b.mu.Lock()
	delete(b.items, sessionID)
	b.mu.Unlock()
}
