package bake

import (
	"context"
	"sync"
	"time"
)

// Hook is a host's per-frame callback registry.
type Hook interface {
	Register(tick func()) (unregister func())
}

// FrameLoop is an in-process Hook. Each Tick runs every registered callback
// once, in registration order. Callbacks may unregister themselves.
type FrameLoop struct {
	mu    sync.Mutex
	next  int
	ticks []loopEntry
}

type loopEntry struct {
	id   int
	tick func()
}

// NewFrameLoop returns an empty loop.
func NewFrameLoop() *FrameLoop {
	return &FrameLoop{}
}

// Register adds tick and returns a function removing it. The returned
// function is idempotent.
func (l *FrameLoop) Register(tick func()) func() {
	l.mu.Lock()
	id := l.next
	l.next++
	l.ticks = append(l.ticks, loopEntry{id: id, tick: tick})
	l.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			l.mu.Lock()
			defer l.mu.Unlock()
			for i, e := range l.ticks {
				if e.id == id {
					l.ticks = append(l.ticks[:i:i], l.ticks[i+1:]...)
					return
				}
			}
		})
	}
}

// Len returns the number of registered callbacks.
func (l *FrameLoop) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.ticks)
}

// Tick runs one frame.
func (l *FrameLoop) Tick() {
	l.mu.Lock()
	frame := make([]loopEntry, len(l.ticks))
	copy(frame, l.ticks)
	l.mu.Unlock()

	for _, e := range frame {
		e.tick()
	}
}

// Run ticks every interval (or back to back when interval is 0) until no
// callbacks remain or ctx is done.
func (l *FrameLoop) Run(ctx context.Context, interval time.Duration) error {
	var ticker *time.Ticker
	if interval > 0 {
		ticker = time.NewTicker(interval)
		defer ticker.Stop()
	}
	for l.Len() > 0 {
		if ticker != nil {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-ticker.C:
			}
		} else if err := ctx.Err(); err != nil {
			return err
		}
		l.Tick()
	}
	return nil
}
