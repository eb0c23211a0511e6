package adc

import (
	"math"
	"sync"
	"time"

	"github.com/itohio/thermo/pkg/config"
	"github.com/itohio/thermo/pkg/pin"
)

// Amplifier constants of the simulated AD8495 front end.
const (
	simVRef       = 3.3   // V full scale
	simVoltsPerC  = 0.005 // V/°C
	simDefaultMax = 4095
)

// simChannel is the thermal state of one simulated sensor.
type simChannel struct {
	temperature  float64 // Current simulated temperature (°C)
	target       float64 // Temperature the channel settles towards (°C)
	disconnected bool
}

// Simulator simulates thermocouples behind an AD8495 amplifier.
//
// Each channel follows a first order thermal response towards its target. Time
// only advances through Advance, so the simulation is deterministic.
type Simulator struct {
	cfg config.SimulatorConfig

	mu       sync.RWMutex
	max      uint32
	elapsed  time.Duration
	channels map[string]*simChannel
}

// NewSimulator creates a simulator with the given resolution in bits.
func NewSimulator(cfg config.SimulatorConfig, bits int) *Simulator {
	if cfg.TimeConst <= 0 {
		cfg.TimeConst = 20 * time.Second
	}
	max := MaxForBits(bits)
	if max == 0 {
		max = simDefaultMax
	}

	return &Simulator{
		cfg:      cfg,
		max:      max,
		channels: make(map[string]*simChannel),
	}
}

// EnableChannel adds a channel at ambient temperature.
func (s *Simulator) EnableChannel(p pin.Pin) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.channels[p.String()]; !ok {
		s.channels[p.String()] = &simChannel{
			temperature: s.cfg.Ambient,
			target:      s.cfg.Ambient,
		}
	}
	return nil
}

// ReadChannel converts the simulated temperature to a raw code.
func (s *Simulator) ReadChannel(p pin.Pin) uint32 {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ch, ok := s.channels[p.String()]
	if !ok || ch.disconnected {
		return s.max
	}

	// Add noise
	t := ch.temperature + s.noise()

	// Amplifier output: (T + reference offset) * 5 mV/°C, clipped to the rails
	volts := (t + s.cfg.Offset) * simVoltsPerC
	code := volts / simVRef * float64(s.max)
	if code < 0 {
		return 0
	}
	if code >= float64(s.max) {
		return s.max
	}
	return uint32(code)
}

// MaxValue returns the current resolution ceiling.
func (s *Simulator) MaxValue() uint32 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.max
}

// SetResolution changes the ADC bit depth.
func (s *Simulator) SetResolution(bits int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if max := MaxForBits(bits); max > 0 {
		s.max = max
	}
}

// SetTarget sets the temperature a channel settles towards.
func (s *Simulator) SetTarget(p pin.Pin, target float64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if ch, ok := s.channels[p.String()]; ok {
		ch.target = target
	}
}

// SetTemperature forces the current temperature of a channel.
func (s *Simulator) SetTemperature(p pin.Pin, t float64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if ch, ok := s.channels[p.String()]; ok {
		ch.temperature = t
	}
}

// Disconnect simulates an open thermocouple; Connect restores it.
func (s *Simulator) Disconnect(p pin.Pin) {
	s.setDisconnected(p, true)
}

// Connect reconnects a previously disconnected channel.
func (s *Simulator) Connect(p pin.Pin) {
	s.setDisconnected(p, false)
}

func (s *Simulator) setDisconnected(p pin.Pin, v bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if ch, ok := s.channels[p.String()]; ok {
		ch.disconnected = v
	}
}

// Advance moves simulated time forward by dt.
func (s *Simulator) Advance(dt time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.elapsed += dt

	// Exact first order step: T += (target - T) * (1 - exp(-dt/tau))
	k := 1 - math.Exp(-dt.Seconds()/s.cfg.TimeConst.Seconds())
	for _, ch := range s.channels {
		ch.temperature += (ch.target - ch.temperature) * k
	}
}

// Temperature returns the noiseless simulated temperature of a channel.
func (s *Simulator) Temperature(p pin.Pin) (float64, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ch, ok := s.channels[p.String()]
	if !ok {
		return 0, false
	}
	return ch.temperature, true
}

// noise returns a deterministic pseudo noise term. Caller holds s.mu.
func (s *Simulator) noise() float64 {
	if s.cfg.NoiseLevel == 0 {
		return 0
	}
	x := s.elapsed.Seconds()
	return (math.Sin(x*7.3) + math.Cos(x*3.1)) * s.cfg.NoiseLevel * 0.5
}
