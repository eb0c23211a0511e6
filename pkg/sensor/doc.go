// Package sensor implements the linear thermocouple amplifier (AD8495 class)
// temperature sensor.
//
// Raw ADC codes are converted with the amplifier transfer function
//
//	T = code / (max / 3.3 V * 5 mV/°C) - offset
//
// and smoothed with an exponential filter whose time constant divisor is
// alpha. A code at or above the sampler ceiling means the thermocouple is open
// and yields the Invalid sentinel (+Inf) instead of an error.
//
// A sensor is not safe for concurrent use. It is owned by the cooperative
// loop that calls it.
package sensor
