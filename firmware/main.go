//go:build tinygo

//go:generate tinygo flash -target=xiao

package main

import (
	"machine"
	"time"
)

// channel is an enabled ADC input.
type channel struct {
	name string
	adc  machine.ADC
}

var (
	uart = machine.UART0

	// Channels the host asked for with "+<port>.<pin>"
	channels []channel

	// Timing
	lastOutput time.Time

	// Serial buffer for reading request lines
	serialBuffer [MAX_REQUEST]byte
	serialPos    int
	overflow     bool
)

func main() {
	uart.Configure(machine.UARTConfig{
		BaudRate: UART_BAUD_RATE,
	})

	lastOutput = time.Now()

	// Main loop
	for {
		now := time.Now()

		// Check for channel requests (non-blocking)
		processSerial()

		if now.Sub(lastOutput) >= time.Duration(SAMPLE_INTERVAL_MS)*time.Millisecond {
			for i := range channels {
				outputChannel(&channels[i])
			}
			lastOutput = now
		}

		time.Sleep(time.Millisecond)
	}
}

// readCode averages NUM_SAMPLES conversions. machine.ADC.Get scales every
// reading to 16 bits, so shift back to ADC_RESOLUTION.
func readCode(adc machine.ADC) uint32 {
	var sum uint32
	for range NUM_SAMPLES {
		sum += uint32(adc.Get())
	}
	return (sum / NUM_SAMPLES) >> (16 - ADC_RESOLUTION)
}

func outputChannel(ch *channel) {
	// Output format: "<port>.<pin>,<code>,<max>\n"
	// Example: "0.10,2048,4095\n"
	print(ch.name)
	print(",")
	print(readCode(ch.adc))
	print(",")
	print(ADC_MAX)
	print("\n")
}

func processSerial() {
	for uart.Buffered() > 0 {
		data, err := uart.ReadByte()
		if err != nil {
			break
		}

		if data == '\n' || data == '\r' {
			if !overflow && serialPos > 1 && serialBuffer[0] == '+' {
				enableChannel(string(serialBuffer[1:serialPos]))
			}
			serialPos = 0
			overflow = false
			continue
		}

		// Ignore whitespace
		if data == ' ' || data == '\t' {
			continue
		}

		if serialPos < len(serialBuffer) {
			serialBuffer[serialPos] = data
			serialPos++
		} else {
			// Too long, drop until newline
			overflow = true
		}
	}
}

// enableChannel starts streaming name. Unknown names and repeats are ignored;
// the host reads missing channels as open circuit.
func enableChannel(name string) {
	for _, ch := range channels {
		if ch.name == name {
			return
		}
	}

	for _, ap := range analogPins {
		if ap.name != name {
			continue
		}

		ap.pin.Configure(machine.PinConfig{Mode: machine.PinInput})
		adc := machine.ADC{Pin: ap.pin}
		adc.Configure(machine.ADCConfig{
			Reference:  ADC_REFERENCE_MV,
			Resolution: ADC_RESOLUTION,
		})
		channels = append(channels, channel{name: name, adc: adc})
		return
	}
}
