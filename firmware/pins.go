//go:build tinygo

package main

import "machine"

const (
	// Sampling configuration
	SAMPLE_INTERVAL_MS = 100 // Each enabled channel is streamed at this interval
	NUM_SAMPLES        = 8   // Number of conversions averaged per streamed code

	// ADC configuration
	ADC_REFERENCE_MV = 3300 // Reference voltage in millivolts (3.3V), the AD8495 full scale
	ADC_RESOLUTION   = 12   // ADC resolution in bits (12-bit = 0-4095)
	ADC_MAX          = 1<<ADC_RESOLUTION - 1

	// Serial configuration
	// Format: "<port>.<pin>,<code>,<max>\n", e.g. "0.10,2048,4095\n" = 15 bytes max per line
	// 11 channels * 10 lines/sec * 15 bytes = 1,650 bytes/sec, 115200 baud gives ~7x headroom
	UART_BAUD_RATE = 115200

	// Longest accepted request line: "+<port>.<pin>"
	MAX_REQUEST = 8
)

// channelPin maps an analog capable MCU pin to the "<port>.<pin>" name the
// host uses in ad8495_pin. Seeed XIAO (SAMD21) analog pins.
type channelPin struct {
	name string
	pin  machine.Pin
}

var analogPins = []channelPin{
	{"0.2", machine.A0},
	{"0.4", machine.A1},
	{"0.10", machine.A2},
	{"0.11", machine.A3},
	{"0.8", machine.A4},
	{"0.9", machine.A5},
	{"1.8", machine.A6},
	{"1.9", machine.A7},
	{"0.7", machine.A8},
	{"0.5", machine.A9},
	{"0.6", machine.A10},
}
