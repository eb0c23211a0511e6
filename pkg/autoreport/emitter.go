package autoreport

import (
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/itohio/thermo/pkg/publicdata"
)

// Emitter writes a status line when the scheduler says a report is due.
type Emitter struct {
	sched  *Scheduler
	poller publicdata.Poller
	out    io.Writer
	log    *slog.Logger
}

// NewEmitter creates an emitter writing to out.
func NewEmitter(sched *Scheduler, poller publicdata.Poller, out io.Writer, log *slog.Logger) *Emitter {
	if log == nil {
		log = slog.Default()
	}
	return &Emitter{
		sched:  sched,
		poller: poller,
		out:    out,
		log:    log,
	}
}

// OnIdle emits at most one status line.
func (e *Emitter) OnIdle() {
	// Clear before any I/O so a re-entrant idle cannot fire twice
	if !e.sched.take() {
		return
	}
	if !e.sched.enabled {
		return
	}

	pads, ok := e.poller.PollAll(publicdata.TopicPollControls)
	if !ok {
		e.log.Debug("no temperature sources registered, skipping report")
		return
	}

	if _, err := io.WriteString(e.out, FormatStatus(pads)); err != nil {
		e.log.Warn("failed to write temperature report", "err", err)
	}
}

// FormatStatus formats pads as one report line, e.g. "T0:200.3 /0.0 @128 \n".
// Targets at or below zero are shown as 0.0.
func FormatStatus(pads []publicdata.PadTemperature) string {
	var b strings.Builder
	for _, p := range pads {
		target := p.Target
		if target <= 0 {
			target = 0
		}
		fmt.Fprintf(&b, "%s:%3.1f /%3.1f @%d ", p.Designator, p.Current, target, p.PWM)
	}
	b.WriteByte('\n')
	return b.String()
}
