package autoreport

import (
	"math"

	"github.com/itohio/thermo/pkg/gcode"
)

// Scheduler decides when a report is due.
//
// The due flag is set only by OnSecondTick and cleared only by take, which the
// emitter calls from the idle phase. Both run on the loop goroutine.
type Scheduler struct {
	enabled  bool
	interval uint8
	elapsed  uint8
	due      bool
	pollCode int
}

// NewScheduler creates a scheduler from cfg.
func NewScheduler(cfg Config) *Scheduler {
	return &Scheduler{
		enabled:  cfg.Enabled,
		interval: cfg.Interval,
		pollCode: cfg.PollCode,
	}
}

// OnSecondTick advances the cadence counter.
func (s *Scheduler) OnSecondTick() {
	if s.elapsed < math.MaxUint8 {
		s.elapsed++
	}
	if s.elapsed > s.interval {
		s.due = true
	}
}

// OnCommand intercepts the poll, auto-report and capabilities commands.
// Everything else passes through untouched.
func (s *Scheduler) OnCommand(cmd *gcode.Command) {
	if !cmd.HasM {
		return
	}

	switch cmd.M {
	case s.pollCode:
		// An explicit poll satisfies the cadence
		s.elapsed = 0
	case SetAutoReportM:
		if cmd.HasLetter('S') {
			s.enabled = cmd.Uint('S') > 0
		}
	case CapabilitiesM:
		cmd.AppendAfterOK(CapabilityString)
	}
}

// take clears the due flag and restarts the cadence if a report was due.
func (s *Scheduler) take() bool {
	if !s.due {
		return false
	}
	s.due = false
	s.elapsed = 0
	return true
}

// Enabled reports whether automatic reports are emitted.
func (s *Scheduler) Enabled() bool { return s.enabled }

// SetEnabled turns automatic reports on or off without touching the cadence.
func (s *Scheduler) SetEnabled(v bool) { s.enabled = v }

// Due reports whether a report is pending.
func (s *Scheduler) Due() bool { return s.due }

// Elapsed returns seconds since the last report or poll.
func (s *Scheduler) Elapsed() uint8 { return s.elapsed }

// Interval returns the report interval in seconds.
func (s *Scheduler) Interval() uint8 { return s.interval }

// PollCode returns the M code treated as an explicit poll.
func (s *Scheduler) PollCode() int { return s.pollCode }
