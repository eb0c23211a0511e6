// Package adc provides raw analog-to-digital code sources for sensors.
package adc

import "github.com/itohio/thermo/pkg/pin"

// Sampler delivers oversampled raw ADC codes.
//
// Implementations must not block: ReadChannel returns the most recent code the
// sampler holds for a channel. A channel that has never been sampled reads as
// MaxValue, i.e. the open circuit code.
type Sampler interface {
	EnableChannel(p pin.Pin) error // Idempotent
	ReadChannel(p pin.Pin) uint32
	MaxValue() uint32 // Resolution ceiling, may change at runtime
}

// MaxForBits returns the resolution ceiling for an ADC with the given bit depth.
func MaxForBits(bits int) uint32 {
	if bits <= 0 {
		return 0
	}
	if bits >= 32 {
		return ^uint32(0)
	}
	return uint32(1)<<bits - 1
}

// Ensure Serial implements Sampler.
var _ Sampler = (*Serial)(nil)

// Ensure Simulator implements Sampler.
var _ Sampler = (*Simulator)(nil)
