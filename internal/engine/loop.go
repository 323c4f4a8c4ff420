package engine

import (
	"context"
	"log/slog"
	"time"
)

// DefaultTickInterval matches the browser build's 2-second game tick.
const DefaultTickInterval = 2 * time.Second

// Loop drives the simulation on a fixed wall-clock interval and invokes
// the registered callbacks after every tick. Callbacks run on the loop
// goroutine; keep them short.
type Loop struct {
	sim      *Simulation
	interval time.Duration
	wrap     func(func())
	onTick   []func(TickSummary)
}

// NewLoop creates a tick loop over a simulation.
func NewLoop(sim *Simulation, interval time.Duration) *Loop {
	if interval <= 0 {
		interval = DefaultTickInterval
	}
	return &Loop{
		sim:      sim,
		interval: interval,
		wrap:     func(fn func()) { fn() },
	}
}

// Wrap sets a function that runs around each full tick step, Tick and
// callbacks included. The HTTP server passes its lock here so handlers
// never observe a half-applied tick.
func (l *Loop) Wrap(wrap func(func())) {
	if wrap != nil {
		l.wrap = wrap
	}
}

// OnTick registers a callback invoked after each tick with its summary.
func (l *Loop) OnTick(fn func(TickSummary)) {
	l.onTick = append(l.onTick, fn)
}

// Run blocks, ticking until the context is cancelled.
func (l *Loop) Run(ctx context.Context) {
	ticker := time.NewTicker(l.interval)
	defer ticker.Stop()

	slog.Info("tick loop started", "interval", l.interval)
	for {
		select {
		case <-ctx.Done():
			slog.Info("tick loop stopped")
			return
		case <-ticker.C:
			l.wrap(func() {
				summary := l.sim.Tick()
				for _, fn := range l.onTick {
					fn(summary)
				}
			})
		}
	}
}
