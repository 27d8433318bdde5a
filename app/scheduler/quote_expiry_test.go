package scheduler

import (
	"bytes"
	"context"
	"errors"
	"log"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeExpirer struct {
	calls atomic.Int32
	n     int64
	err   error
}

func (f *fakeExpirer) ExpireOverdue(ctx context.Context) (int64, error) {
	f.calls.Add(1)
	return f.n, f.err
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

func TestQuoteExpirySchedulerRunsImmediatelyAndOnTick(t *testing.T) {
	expirer := &fakeExpirer{n: 2}
	out := &syncBuffer{}
	s := NewQuoteExpiryScheduler(expirer, log.New(out, "", 0), 10*time.Millisecond)

	stop := s.Start(context.Background())
	require.Eventually(t, func() bool { return expirer.calls.Load() >= 3 }, time.Second, 5*time.Millisecond)
	stop()

	calls := expirer.calls.Load()
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, calls, expirer.calls.Load(), "no runs after stop")
	assert.Contains(t, out.String(), "expired 2 overdue quotes")
}

func TestQuoteExpirySchedulerLogsFailures(t *testing.T) {
	expirer := &fakeExpirer{err: errors.New("db down")}
	out := &syncBuffer{}
	s := NewQuoteExpiryScheduler(expirer, log.New(out, "", 0), time.Hour)

	stop := s.Start(context.Background())
	require.Eventually(t, func() bool { return expirer.calls.Load() == 1 }, time.Second, 5*time.Millisecond)
	stop()

	assert.Contains(t, out.String(), "expire overdue quotes failed: db down")
}

func TestNewQuoteExpirySchedulerDefaults(t *testing.T) {
	s := NewQuoteExpiryScheduler(&fakeExpirer{}, nil, 0)
	assert.Equal(t, time.Hour, s.interval)
	assert.NotNil(t, s.logger)
}
