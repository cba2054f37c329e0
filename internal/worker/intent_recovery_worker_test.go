package worker

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

type scriptedRecoverer struct {
	mu      sync.Mutex
	results []int
	err     error
	calls   int
}

func (r *scriptedRecoverer) RecoverStale(_ context.Context, _ time.Duration, _ int) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls++
	if r.err != nil {
		return 0, r.err
	}
	if len(r.results) == 0 {
		return 0, nil
	}
	n := r.results[0]
	r.results = r.results[1:]
	return n, nil
}

func (r *scriptedRecoverer) callCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.calls
}

func TestSweep_DrainsFullBatches(t *testing.T) {
	rec := &scriptedRecoverer{results: []int{RecoveryBatchSize, RecoveryBatchSize, 3}}
	w := NewIntentRecoveryWorker(rec, time.Hour, time.Minute, zerolog.Nop())

	w.sweep(context.Background())

	assert.Equal(t, 3, rec.callCount())
}

func TestSweep_StopsOnError(t *testing.T) {
	rec := &scriptedRecoverer{err: errors.New("db down")}
	w := NewIntentRecoveryWorker(rec, time.Hour, time.Minute, zerolog.Nop())

	w.sweep(context.Background())

	assert.Equal(t, 1, rec.callCount())
}

func TestStart_SweepsImmediatelyAndStops(t *testing.T) {
	rec := &scriptedRecoverer{}
	w := NewIntentRecoveryWorker(rec, time.Hour, time.Minute, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		w.Start(ctx)
		close(done)
	}()

	assert.Eventually(t, func() bool { return rec.callCount() == 1 }, time.Second, 5*time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("worker did not stop after cancel")
	}
}
