// Package autoreport periodically prints temperature status lines.
//
// A Scheduler counts second ticks and flags a report as due; an Emitter, run
// from the idle phase, consumes the flag and prints one line with every
// registered temperature source. Commands can poll explicitly (resetting the
// cadence), switch reporting on and off (M155 S<n>) and query capabilities
// (M115).
package autoreport

import (
	"io"
	"log/slog"

	"github.com/itohio/thermo/pkg/event"
	"github.com/itohio/thermo/pkg/gcode"
	"github.com/itohio/thermo/pkg/publicdata"
)

// Reporter wires a Scheduler and an Emitter to the event bus.
type Reporter struct {
	*Scheduler
	emitter *Emitter
	scope   *event.Scope
}

// New creates a reporter. Call Attach to start receiving events.
func New(cfg Config, poller publicdata.Poller, out io.Writer, log *slog.Logger) *Reporter {
	sched := NewScheduler(cfg)
	return &Reporter{
		Scheduler: sched,
		emitter:   NewEmitter(sched, poller, out, log),
	}
}

// Attach subscribes the reporter to second ticks, idle and commands.
func (r *Reporter) Attach(bus *event.Bus) {
	if r.scope != nil {
		return
	}
	r.scope = event.NewScope(bus)
	event.On(r.scope, event.SecondTick, func(event.Tick) { r.OnSecondTick() })
	event.On(r.scope, event.IdleTopic, func(event.Idle) { r.OnIdle() })
	event.On(r.scope, gcode.Received, r.OnCommand)
}

// OnIdle runs the emitter.
func (r *Reporter) OnIdle() {
	r.emitter.OnIdle()
}

// Close releases every subscription.
func (r *Reporter) Close() {
	if r.scope != nil {
		r.scope.Release()
		r.scope = nil
	}
}
