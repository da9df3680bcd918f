package service

import (
	"context"
	"errors"
	"sync"
)

// ErrSuperseded is returned when a newer dashboard request replaced this one
// before its data arrived.
var ErrSuperseded = errors.New("superseded by a newer request")

// requestTracker hands out increasing sequence numbers and cancels the
// previous in-flight fetch whenever a new one starts.
type requestTracker struct {
	mu     sync.Mutex
	latest uint64
	cancel context.CancelFunc
}

// begin registers a new fetch. The returned func must be called once the
// fetch is finished.
func (t *requestTracker) begin(parent context.Context) (context.Context, uint64, func()) {
	ctx, cancel := context.WithCancel(parent)

	t.mu.Lock()
	if t.cancel != nil {
		t.cancel()
	}
	t.latest++
	seq := t.latest
	t.cancel = cancel
	t.mu.Unlock()

	return ctx, seq, func() {
		t.mu.Lock()
		if t.latest == seq {
			t.cancel = nil
		}
		t.mu.Unlock()
		cancel()
	}
}

func (t *requestTracker) isLatest(seq uint64) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.latest == seq
}
