// Package kernel runs the cooperative loop that drives every module.
//
// One goroutine owns all module state. It publishes a second tick once per
// second, an idle event whenever the idle ticker fires and a command event for
// every submitted line. Other goroutines (console, serial readers) only hand
// lines in through Submit.
package kernel

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/itohio/thermo/pkg/event"
	"github.com/itohio/thermo/pkg/gcode"
)

const (
	// DefaultIdleInterval is the idle cadence when none is configured.
	DefaultIdleInterval = 10 * time.Millisecond
	// DefaultQueueSize is the command inbox size when none is configured.
	DefaultQueueSize = 32
)

// ErrQueueFull is returned by Submit when the inbox is full.
var ErrQueueFull = errors.New("kernel: command queue full")

// Options configures a Kernel.
type Options struct {
	IdleInterval time.Duration
	QueueSize    int
	Out          io.Writer // Command responses
	Log          *slog.Logger
}

// Kernel is the cooperative scheduler.
type Kernel struct {
	bus          *event.Bus
	out          io.Writer
	log          *slog.Logger
	idleInterval time.Duration
	lines        chan string
}

// New creates a kernel publishing on bus.
func New(bus *event.Bus, opts Options) *Kernel {
	if opts.IdleInterval <= 0 {
		opts.IdleInterval = DefaultIdleInterval
	}
	if opts.QueueSize <= 0 {
		opts.QueueSize = DefaultQueueSize
	}
	if opts.Out == nil {
		opts.Out = io.Discard
	}
	if opts.Log == nil {
		opts.Log = slog.Default()
	}

	return &Kernel{
		bus:          bus,
		out:          opts.Out,
		log:          opts.Log,
		idleInterval: opts.IdleInterval,
		lines:        make(chan string, opts.QueueSize),
	}
}

// Bus returns the event bus.
func (k *Kernel) Bus() *event.Bus { return k.bus }

// Submit queues a command line without blocking.
func (k *Kernel) Submit(line string) error {
	select {
	case k.lines <- line:
		return nil
	default:
		return ErrQueueFull
	}
}

// Tick publishes one second tick.
func (k *Kernel) Tick(now time.Time) {
	event.Publish(k.bus, event.SecondTick, event.Tick{Time: now})
}

// RunIdle publishes one idle event.
func (k *Kernel) RunIdle() {
	event.Publish(k.bus, event.IdleTopic, event.Idle{})
}

// Execute parses line, publishes it and writes the response: "ok" followed by
// any deferred text, or an error line.
func (k *Kernel) Execute(line string) {
	cmd, err := gcode.Parse(line)
	if errors.Is(err, gcode.ErrEmpty) {
		return
	}
	if err != nil {
		k.log.Debug("rejected command", "line", line, "err", err)
		k.write(fmt.Sprintf("error: %v\n", err))
		return
	}

	event.Publish(k.bus, gcode.Received, cmd)
	k.write("ok" + cmd.TxtAfterOK() + "\n")
}

func (k *Kernel) write(s string) {
	if _, err := io.WriteString(k.out, s); err != nil {
		k.log.Warn("failed to write response", "err", err)
	}
}

// Run drives the loop until ctx is cancelled. Every handler runs to
// completion on this goroutine.
func (k *Kernel) Run(ctx context.Context) error {
	second := time.NewTicker(time.Second)
	defer second.Stop()
	idle := time.NewTicker(k.idleInterval)
	defer idle.Stop()

	k.log.Debug("kernel started", "idle_interval", k.idleInterval)

	for {
		select {
		case <-ctx.Done():
			k.log.Debug("kernel stopped")
			return nil
		case now := <-second.C:
			k.Tick(now)
		case line := <-k.lines:
			k.Execute(line)
		case <-idle.C:
			k.RunIdle()
		}
	}
}
