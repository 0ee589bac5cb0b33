// Package engine provides the fixed-timestep simulation loop and the
// per-tick orchestration of the colony.
package engine

import (
	"fmt"
	"log/slog"
	"math"
	"sync"
	"sync/atomic"
	"time"
)

// TickSchedule defines the default timestep and reporting cadence.
const (
	TicksPerSecond = 30                  // Simulated ticks per simulated second
	TicksPerReport = 10 * TicksPerSecond // Periodic report every 10 sim-seconds
)

// Engine drives the simulation forward. Every tick advances simulated time
// by Interval; Speed only changes how fast ticks follow each other in real
// time.
type Engine struct {
	Tick     uint64        // Current tick counter (monotonic, never resets)
	Interval time.Duration // Simulated duration of one tick
	MaxTicks uint64        // Stop after this tick, 0 = run until Stop

	// Callbacks, populated during setup.
	OnTick      func(tick uint64, dt float64) // Every tick
	OnReport    func(tick uint64)             // Every ReportEvery ticks
	ReportEvery uint64

	mu      sync.Mutex
	speed   float64 // Multiplier: 1.0 = real-time, 0 = paused
	running atomic.Bool
}

// NewEngine creates a simulation engine with default settings.
func NewEngine() *Engine {
	return &Engine{
		Interval:    time.Second / TicksPerSecond,
		ReportEvery: TicksPerReport,
		speed:       1.0,
	}
}

// Speed returns the current speed multiplier.
func (e *Engine) Speed() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.speed
}

// SetSpeed changes the speed multiplier. 0 pauses, negative values are
// rejected.
func (e *Engine) SetSpeed(speed float64) error {
	if speed < 0 || math.IsNaN(speed) {
		return fmt.Errorf("invalid speed %v", speed)
	}
	e.mu.Lock()
	e.speed = speed
	e.mu.Unlock()
	slog.Info("engine speed changed", "speed", speed)
	return nil
}

// Running reports whether Run is looping.
func (e *Engine) Running() bool { return e.running.Load() }

// Dt returns the simulated seconds per tick.
func (e *Engine) Dt() float64 { return e.Interval.Seconds() }

// Run starts the simulation loop. Blocks until Stop() is called or
// MaxTicks is reached.
func (e *Engine) Run() {
	e.running.Store(true)
	slog.Info("simulation engine started", "tick", e.Tick, "speed", e.Speed())

	for e.running.Load() {
		speed := e.Speed()
		if speed <= 0 {
			// Paused: sleep briefly and check again.
			time.Sleep(100 * time.Millisecond)
			continue
		}

		start := time.Now()

		e.step()
		if e.MaxTicks > 0 && e.Tick >= e.MaxTicks {
			break
		}

		// Sleep for the remainder of the tick interval, adjusted for speed.
		elapsed := time.Since(start)
		target := time.Duration(float64(e.Interval) / speed)
		if elapsed < target {
			time.Sleep(target - elapsed)
		}
	}

	e.running.Store(false)
	slog.Info("simulation engine stopped", "tick", e.Tick)
}

// RunTicks advances n ticks back to back without pacing.
func (e *Engine) RunTicks(n uint64) {
	for range n {
		e.step()
	}
}

// Stop halts the simulation loop.
func (e *Engine) Stop() {
	e.running.Store(false)
}

// step advances the simulation by one tick.
func (e *Engine) step() {
	e.Tick++

	if e.OnTick != nil {
		e.OnTick(e.Tick, e.Dt())
	}

	if e.ReportEvery > 0 && e.Tick%e.ReportEvery == 0 && e.OnReport != nil {
		e.OnReport(e.Tick)
	}
}

// SimTime returns a human-readable simulation time string from a tick number.
func SimTime(tick uint64) string {
	total := tick / TicksPerSecond
	return fmt.Sprintf("%02d:%02d:%02d +%d", total/3600, total/60%60, total%60, tick%TicksPerSecond)
}
