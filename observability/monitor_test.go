package observability

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type stubReporter struct {
	mu    sync.Mutex
	calls int
	err   error
}

func (s *stubReporter) Report() (Health, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	return Health{Status: "ok", Uptime: "1s"}, s.err
}

func (s *stubReporter) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestMonitor_Run_Logs_Until_Context_Done(t *testing.T) {
	req := require.New(t)
	out := &syncBuffer{}
	stub := &stubReporter{}
	m := &Monitor{log: slog.New(slog.NewTextHandler(out, nil)), reporter: stub, interval: 5 * time.Millisecond}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- m.Run(ctx) }()

	req.Eventually(func() bool { return stub.count() >= 2 }, time.Second, time.Millisecond)
	cancel()
	req.NoError(<-done)
	req.Contains(out.String(), "msg=Health")
}

func TestMonitor_Run_Keeps_Going_On_Report_Error(t *testing.T) {
	req := require.New(t)
	out := &syncBuffer{}
	stub := &stubReporter{err: errors.New("database is closed")}
	m := &Monitor{log: slog.New(slog.NewTextHandler(out, nil)), reporter: stub, interval: 5 * time.Millisecond}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = m.Run(ctx) }()

	req.Eventually(func() bool { return stub.count() >= 2 }, time.Second, time.Millisecond)
	req.Contains(out.String(), "database is closed")
}

func TestMonitor_Run_Disabled(t *testing.T) {
	req := require.New(t)
	m := &Monitor{log: slog.New(slog.NewTextHandler(&syncBuffer{}, nil)), reporter: &stubReporter{}}
	req.NoError(m.Run(context.Background()))
}
