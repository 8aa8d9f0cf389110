package sse

import (
	"errors"
	"io"
	"log/slog"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

type countingWriter struct {
	writes atomic.Int32
	failAt int32
}

func (w *countingWriter) WriteKeepAlive() error {
	if n := w.writes.Add(1); n >= w.failAt {
		return errors.New("connection closed")
	}
	return nil
}

func TestTickerKeepAliveStopsOnWriteError(t *testing.T) {
	w := &countingWriter{failAt: 3}
	k := NewTickerKeepAlive(5 * time.Millisecond)
	defer k.Stop()

	select {
	case <-k.Start(w, slog.New(slog.NewTextHandler(io.Discard, nil))):
	case <-time.After(2 * time.Second):
		t.Fatal("keep-alive did not stop after a failed write")
	}
	if got := w.writes.Load(); got != 3 {
		t.Errorf("writes = %d, want 3", got)
	}
}

func TestTickerKeepAliveStop(t *testing.T) {
	k := NewTickerKeepAlive(time.Hour)
	stopped := k.Start(&countingWriter{failAt: 1}, slog.New(slog.NewTextHandler(io.Discard, nil)))

	k.Stop()
	k.Stop()

	select {
	case <-stopped:
	case <-time.After(2 * time.Second):
		t.Fatal("Stop() did not end the keep-alive")
	}
}

func TestStreamWrites(t *testing.T) {
	rec := httptest.NewRecorder()
	s, err := NewStream(rec)
	if err != nil {
		t.Fatalf("NewStream() error = %v", err)
	}

	if err := s.WriteMessage("event: a\ndata: {}\n\n"); err != nil {
		t.Fatalf("WriteMessage() error = %v", err)
	}
	if err := s.WriteKeepAlive(); err != nil {
		t.Fatalf("WriteKeepAlive() error = %v", err)
	}

	if ct := rec.Header().Get("Content-Type"); ct != "text/event-stream" {
		t.Errorf("Content-Type = %q", ct)
	}
	if !rec.Flushed || !strings.HasSuffix(rec.Body.String(), ": keepalive\n\n") {
		t.Errorf("body = %q, flushed = %v", rec.Body.String(), rec.Flushed)
	}
}
