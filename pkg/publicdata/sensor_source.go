package publicdata

import (
	"github.com/itohio/thermo/pkg/event"
)

// TemperatureReader is the part of a sensor a SensorSource needs.
type TemperatureReader interface {
	ReadFilteredTemperature() float32
}

// SensorSource publishes a sensor's latest filtered reading under a designator.
//
// It samples the sensor once per second tick and answers polls from the last
// sample, so polling never touches the ADC. It reports a target but does no
// control; PWM is always 0.
type SensorSource struct {
	designator string
	sensor     TemperatureReader
	scope      *event.Scope
	release    func()

	current float32
	target  float32
}

// NewSensorSource registers a source for sensor and subscribes it to second
// ticks on bus. Close undoes both.
func NewSensorSource(designator string, sensor TemperatureReader, bus *event.Bus, registry *Registry) *SensorSource {
	s := &SensorSource{
		designator: designator,
		sensor:     sensor,
		scope:      event.NewScope(bus),
	}

	// Prime so the first poll has a value
	s.Sample()

	event.On(s.scope, event.SecondTick, func(event.Tick) { s.Sample() })
	s.release = registry.Register(TopicPollControls, s)

	return s
}

// Sample reads the sensor once.
func (s *SensorSource) Sample() {
	s.current = s.sensor.ReadFilteredTemperature()
}

// Designator returns the source label.
func (s *SensorSource) Designator() string { return s.designator }

// SetTarget sets the reported target temperature.
func (s *SensorSource) SetTarget(t float32) { s.target = t }

// Target returns the reported target temperature.
func (s *SensorSource) Target() float32 { return s.target }

// PadTemperature returns the last sample.
func (s *SensorSource) PadTemperature() PadTemperature {
	return PadTemperature{
		Designator: s.designator,
		Current:    s.current,
		Target:     s.target,
	}
}

// Close unsubscribes and unregisters the source.
func (s *SensorSource) Close() {
	s.scope.Release()
	s.release()
}
