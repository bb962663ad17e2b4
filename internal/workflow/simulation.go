package workflow

// simulation.go stands in for a file transfer. A Simulation raises progress
// by a fixed step on every tick until it reaches 100, then stops its ticker
// and closes Done. Tickers are injected so tests can drive progress one tick
// at a time instead of waiting on wall-clock timers.

import (
	"context"
	"sync/atomic"
	"time"
)

// Ticker is the subset of time.Ticker a Simulation needs.
type Ticker interface {
	C() <-chan time.Time
	Stop()
}

// TickerFunc creates a Ticker firing every d.
type TickerFunc func(d time.Duration) Ticker

type realTicker struct{ t *time.Ticker }

func (r realTicker) C() <-chan time.Time { return r.t.C }
func (r realTicker) Stop()               { r.t.Stop() }

// NewRealTicker wraps time.NewTicker.
func NewRealTicker(d time.Duration) Ticker {
	return realTicker{t: time.NewTicker(d)}
}

// SimulationConfig sets the pace of simulated uploads.
type SimulationConfig struct {
	Step      int           // percentage points per tick (default: 10)
	Interval  time.Duration // time between ticks (default: 200ms)
	NewTicker TickerFunc    // default: NewRealTicker
}

func (c SimulationConfig) withDefaults() SimulationConfig {
	if c.Step <= 0 {
		c.Step = 10
	}
	if c.Interval <= 0 {
		c.Interval = 200 * time.Millisecond
	}
	if c.NewTicker == nil {
		c.NewTicker = NewRealTicker
	}
	return c
}

// Simulation is a running, cancellable progress task.
type Simulation struct {
	cancel    context.CancelFunc
	done      chan struct{}
	completed atomic.Bool
}

// StartSimulation begins a run. onProgress is called from the simulation's
// goroutine with each new value; the call reporting 100 happens before Done
// is closed. Cancelling ctx or calling Cancel stops the run early.
func StartSimulation(ctx context.Context, cfg SimulationConfig, onProgress func(percent int)) *Simulation {
	cfg = cfg.withDefaults()
	ctx, cancel := context.WithCancel(ctx)
	sim := &Simulation{
		cancel: cancel,
		done:   make(chan struct{}),
	}

	go func() {
		defer close(sim.done)
		defer cancel()

		ticker := cfg.NewTicker(cfg.Interval)
		defer ticker.Stop()

		progress := 0
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C():
				progress = min(progress+cfg.Step, 100)
				if ctx.Err() != nil {
					return
				}
				if progress >= 100 {
					sim.completed.Store(true)
				}
				onProgress(progress)
				if progress >= 100 {
					return
				}
			}
		}
	}()

	return sim
}

// Cancel stops the run. Safe to call more than once and after completion.
func (s *Simulation) Cancel() {
	s.cancel()
}

// Done is closed once the run has stopped for any reason.
func (s *Simulation) Done() <-chan struct{} {
	return s.done
}

// Completed reports whether the run reached 100.
func (s *Simulation) Completed() bool {
	return s.completed.Load()
}
