// Package progress animates a cosmetic progress value while a request with no
// real progress events is pending.
package progress

import (
	"context"
	"math/rand/v2"
	"sync"
	"time"
)

// Defaults used when Options leaves a field zero
const (
	DefaultInterval = 200 * time.Millisecond
	DefaultMaxStep  = 5.0
	DefaultCeiling  = 95.0
)

// Options configures a Simulator
type Options struct {
	Interval time.Duration
	MaxStep  float64        // upper bound (exclusive) of one random increment
	Ceiling  float64        // the value reported never exceeds this
	Rand     func() float64 // returns [0,1); nil = math/rand/v2
}

// Simulator runs at most one ticking goroutine at a time.
type Simulator struct {
	interval time.Duration
	maxStep  float64
	ceiling  float64
	rand     func() float64

	startMu sync.Mutex // serializes Start so two runs never overlap
	mu      sync.Mutex
	active  *Handle
}

// Handle identifies one started run. The zero value and nil are inert.
type Handle struct {
	cancel context.CancelFunc
	done   chan struct{}
}

// New creates a simulator
func New(opts Options) *Simulator {
	if opts.Interval <= 0 {
		opts.Interval = DefaultInterval
	}
	if opts.MaxStep <= 0 {
		opts.MaxStep = DefaultMaxStep
	}
	if opts.Ceiling <= 0 {
		opts.Ceiling = DefaultCeiling
	}
	if opts.Rand == nil {
		opts.Rand = rand.Float64
	}
	return &Simulator{
		interval: opts.Interval,
		maxStep:  opts.MaxStep,
		ceiling:  opts.Ceiling,
		rand:     opts.Rand,
	}
}

// Start stops any previous run and begins ticking from 0. onTick receives the
// clamped value; it must not call Stop on its own handle.
func (s *Simulator) Start(onTick func(value float64)) *Handle {
	s.startMu.Lock()
	defer s.startMu.Unlock()

	s.mu.Lock()
	prev := s.active
	s.active = nil
	s.mu.Unlock()

	// Previous run is fully gone before the new one exists
	s.Stop(prev)

	ctx, cancel := context.WithCancel(context.Background())
	h := &Handle{cancel: cancel, done: make(chan struct{})}

	s.mu.Lock()
	s.active = h
	s.mu.Unlock()

	go s.run(ctx, h, onTick)
	return h
}

// Stop cancels h and waits for its goroutine to exit, so no tick is delivered
// after Stop returns. Safe to call repeatedly, with nil, or after the run ended.
func (s *Simulator) Stop(h *Handle) {
	if h == nil || h.cancel == nil {
		return
	}
	h.cancel()
	<-h.done

	s.mu.Lock()
	if s.active == h {
		s.active = nil
	}
	s.mu.Unlock()
}

// Active reports whether a run is currently ticking
func (s *Simulator) Active() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active != nil
}

func (s *Simulator) run(ctx context.Context, h *Handle, onTick func(float64)) {
	defer close(h.done)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	value := 0.0
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if value >= s.ceiling {
				continue
			}
			value += s.rand() * s.maxStep
			// Re-check after the step: a stop that raced the tick wins
			if ctx.Err() != nil {
				return
			}
			if onTick != nil {
				onTick(min(value, s.ceiling))
			}
		}
	}
}
