package main

import (
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/itohio/thermo/pkg/adc"
	"github.com/itohio/thermo/pkg/autoreport"
	"github.com/itohio/thermo/pkg/config"
	"github.com/itohio/thermo/pkg/event"
	"github.com/itohio/thermo/pkg/gcode"
	"github.com/itohio/thermo/pkg/publicdata"
	"github.com/itohio/thermo/pkg/sensor"
)

const (
	// keyDesignator overrides the status label of a sensor (default T<index>).
	keyDesignator = "designator"
	// Host only commands.
	rawDiagnosticM = 305
	setTargetM     = 104
)

// channel is one configured sensor and the source publishing it.
type channel struct {
	sensor *sensor.AD8495
	source *publicdata.SensorSource
}

// app holds every component driven by the kernel goroutine.
type app struct {
	bus      *event.Bus
	registry *publicdata.Registry
	sampler  adc.Sampler
	sim      *adc.Simulator // nil unless simulating
	reporter *autoreport.Reporter
	channels []channel
	scope    *event.Scope
	log      *slog.Logger
}

// newApp builds sensors for every temperature_control entry that carries an
// ad8495_pin key, the auto-report module and the host command handlers.
func newApp(store *config.Store, sampler adc.Sampler, bus *event.Bus, out io.Writer, log *slog.Logger) (*app, error) {
	a := &app{
		bus:      bus,
		registry: publicdata.NewRegistry(),
		sampler:  sampler,
		scope:    event.NewScope(bus),
		log:      log,
	}

	// Simulated time must advance before sources sample on the same tick
	if sim, ok := sampler.(*adc.Simulator); ok {
		a.sim = sim
		event.On(a.scope, event.SecondTick, func(event.Tick) { sim.Advance(time.Second) })
	}

	for _, name := range store.Names(autoreport.Module) {
		if !store.Has(config.Key(autoreport.Module, name, sensor.KeyPin)) {
			continue
		}

		s, err := sensor.Configure(store, autoreport.Module, name, sampler, out, log)
		if err != nil {
			a.Close()
			return nil, err
		}

		designator := fmt.Sprintf("T%d", len(a.channels))
		if key := config.Key(autoreport.Module, name, keyDesignator); store.Has(key) {
			if designator, err = store.RequiredString(key); err != nil {
				a.Close()
				return nil, err
			}
		}

		a.channels = append(a.channels, channel{
			sensor: s,
			source: publicdata.NewSensorSource(designator, s, bus, a.registry),
		})
		log.Info("sensor configured", "name", name, "designator", designator, "pin", s.Config().Pin)
	}

	a.reporter = autoreport.New(autoreport.LoadConfig(store), a.registry, out, log)
	a.reporter.Attach(bus)
	event.On(a.scope, gcode.Received, a.onCommand)

	return a, nil
}

// onCommand handles the host side commands: poll now, raw diagnostic and
// target setting.
func (a *app) onCommand(cmd *gcode.Command) {
	if !cmd.HasM {
		return
	}

	switch cmd.M {
	case a.reporter.PollCode():
		if pads, ok := a.registry.PollAll(publicdata.TopicPollControls); ok {
			cmd.AppendAfterOK(" " + strings.TrimSuffix(autoreport.FormatStatus(pads), "\n"))
		}

	case rawDiagnosticM:
		ch, ok := a.channel(cmd)
		if !ok {
			return
		}
		ch.sensor.ReadRaw()

	case setTargetM:
		ch, ok := a.channel(cmd)
		if !ok || !cmd.HasLetter('S') {
			return
		}
		target := cmd.Float('S')
		ch.source.SetTarget(float32(target))
		if a.sim != nil {
			a.sim.SetTarget(ch.sensor.Config().Pin, target)
		}
	}
}

// channel returns the channel selected by the P parameter (default 0).
func (a *app) channel(cmd *gcode.Command) (channel, bool) {
	i := cmd.Int('P')
	if i < 0 || i >= len(a.channels) {
		cmd.AppendAfterOK(fmt.Sprintf(" no sensor %d", i))
		return channel{}, false
	}
	return a.channels[i], true
}

// Close releases every subscription and registration.
func (a *app) Close() {
	if a.reporter != nil {
		a.reporter.Close()
	}
	for _, ch := range a.channels {
		ch.source.Close()
	}
	a.channels = nil
	a.scope.Release()
}
