package adc

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"sync"

	"github.com/itohio/thermo/pkg/pin"
	"go.bug.st/serial"
)

const (
	// DefaultBaudRate matches the firmware UART configuration.
	DefaultBaudRate = 115200
)

// Port represents a serial port.
type Port struct {
	Name        string
	Description string
}

// Reading is one line reported by the firmware.
type Reading struct {
	Channel string // Canonical "<port>.<pin>"
	Code    uint32
	Max     uint32
}

// Serial is a Sampler fed by the MCU firmware over a serial port.
//
// The firmware streams "<port>.<pin>,<code>,<max>" lines. A background
// goroutine parses them and caches the latest code per channel so ReadChannel
// never waits on I/O.
type Serial struct {
	port     string
	baudRate int
	log      *slog.Logger

	conn      serial.Port
	mu        sync.RWMutex
	ctx       context.Context
	cancel    context.CancelFunc
	connected bool
	done      chan struct{}

	enabled map[string]pin.Pin
	codes   map[string]uint32
	max     uint32
}

// NewSerial creates a serial sampler. maxValue is used until the firmware
// reports its own ceiling.
func NewSerial(port string, baudRate int, maxValue uint32, log *slog.Logger) *Serial {
	if baudRate == 0 {
		baudRate = DefaultBaudRate
	}
	if log == nil {
		log = slog.Default()
	}

	return &Serial{
		port:     port,
		baudRate: baudRate,
		log:      log,
		enabled:  make(map[string]pin.Pin),
		codes:    make(map[string]uint32),
		max:      maxValue,
	}
}

// Ports returns a list of available serial ports.
func Ports() ([]Port, error) {
	ports, err := serial.GetPortsList()
	if err != nil {
		return nil, fmt.Errorf("failed to list serial ports: %w", err)
	}

	result := make([]Port, 0, len(ports))
	for _, name := range ports {
		result = append(result, Port{Name: name, Description: name})
	}

	return result, nil
}

// Connect opens the serial port, requests every enabled channel and starts
// reading codes.
func (s *Serial) Connect() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.connected {
		return fmt.Errorf("already connected")
	}

	port, err := serial.Open(s.port, &serial.Mode{BaudRate: s.baudRate})
	if err != nil {
		return fmt.Errorf("failed to open serial port %s: %w", s.port, err)
	}

	s.conn = port
	s.connected = true
	s.ctx, s.cancel = context.WithCancel(context.Background())
	s.done = make(chan struct{})

	for _, p := range s.enabled {
		if err := s.request(p); err != nil {
			s.log.Warn("failed to enable channel", "channel", p.String(), "err", err)
		}
	}

	go s.readCodes(s.ctx, port, s.done)

	return nil
}

// Close closes the connection and waits for the reader to exit.
func (s *Serial) Close() error {
	s.mu.Lock()
	if !s.connected {
		s.mu.Unlock()
		return nil
	}

	s.cancel()
	var err error
	if s.conn != nil {
		err = s.conn.Close()
		s.conn = nil
	}
	s.connected = false
	done := s.done
	s.mu.Unlock()

	// Closing the port unblocks the scanner
	<-done

	if err != nil {
		return fmt.Errorf("failed to close serial port: %w", err)
	}
	return nil
}

// IsConnected returns whether the port is open.
func (s *Serial) IsConnected() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.connected
}

// EnableChannel registers a channel and asks the firmware to stream it.
func (s *Serial) EnableChannel(p pin.Pin) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := p.String()
	if _, ok := s.enabled[key]; ok {
		return nil
	}
	s.enabled[key] = p

	if s.connected {
		return s.request(p)
	}
	return nil
}

// ReadChannel returns the latest code received for a channel.
func (s *Serial) ReadChannel(p pin.Pin) uint32 {
	s.mu.RLock()
	defer s.mu.RUnlock()

	code, ok := s.codes[p.String()]
	if !ok {
		return s.max
	}
	return code
}

// MaxValue returns the ceiling most recently reported by the firmware.
func (s *Serial) MaxValue() uint32 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.max
}

// request sends "+<port>.<pin>\n". Caller holds s.mu.
func (s *Serial) request(p pin.Pin) error {
	if _, err := s.conn.Write([]byte("+" + p.String() + "\n")); err != nil {
		return fmt.Errorf("failed to request channel %s: %w", p, err)
	}
	return nil
}

// readCodes reads lines until ctx is cancelled or the port closes.
func (s *Serial) readCodes(ctx context.Context, r io.Reader, done chan<- struct{}) {
	defer close(done)

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		select {
		case <-ctx.Done():
			return
		default:
		}

		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		reading, err := parseLine(line)
		if err != nil {
			s.log.Debug("dropping serial line", "line", line, "err", err)
			continue
		}
		s.store(reading)
	}

	if err := scanner.Err(); err != nil && ctx.Err() == nil {
		s.log.Error("error reading from serial port", "err", err)
	}
}

// store caches a reading. Codes for channels nobody enabled are ignored.
func (s *Serial) store(r Reading) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.enabled[r.Channel]; !ok {
		return
	}
	s.codes[r.Channel] = r.Code
	s.max = r.Max
}

// parseLine parses a line from the MCU into a Reading.
// Format: <port>.<pin>,<code>,<max>
// Example: 0.23,2048,4095
func parseLine(line string) (Reading, error) {
	parts := strings.Split(line, ",")
	if len(parts) != 3 {
		return Reading{}, fmt.Errorf("invalid line format: expected 3 comma-separated values, got %d", len(parts))
	}

	p, err := pin.Parse(parts[0])
	if err != nil {
		return Reading{}, fmt.Errorf("invalid channel: %w", err)
	}

	code, err := strconv.ParseUint(parts[1], 10, 32)
	if err != nil {
		return Reading{}, fmt.Errorf("invalid code: %w", err)
	}

	max, err := strconv.ParseUint(parts[2], 10, 32)
	if err != nil {
		return Reading{}, fmt.Errorf("invalid max: %w", err)
	}
	if max == 0 {
		return Reading{}, fmt.Errorf("max out of range: 0")
	}
	if code > max {
		return Reading{}, fmt.Errorf("code out of range: %d (max %d)", code, max)
	}

	return Reading{
		Channel: p.String(),
		Code:    uint32(code),
		Max:     uint32(max),
	}, nil
}
