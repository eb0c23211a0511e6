package sensor

import (
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/chewxy/math32"
	"github.com/itohio/thermo/pkg/adc"
	"github.com/itohio/thermo/pkg/config"
	"github.com/itohio/thermo/pkg/pin"
)

// Amplifier constants.
const (
	ReferenceVoltage float32 = 3.3   // ADC full scale (V)
	VoltsPerDegree   float32 = 0.005 // AD8495 gain (V/°C)
)

// Configuration keys below "<module>.<name>".
const (
	KeyPin    = "ad8495_pin"
	KeyOffset = "ad8495_offset"
	KeyAlpha  = "ad8495_alpha"
)

const (
	initialMin float32 = 999
	initialMax float32 = 0
)

// Invalid is the sentinel returned for open or out of range sensors.
var Invalid = math32.Inf(1)

// IsInvalid reports whether t is the Invalid sentinel.
func IsInvalid(t float32) bool {
	return math32.IsInf(t, 1)
}

// Config is the immutable sensor configuration.
type Config struct {
	Pin    pin.Pin
	Offset float32 // °C subtracted after conversion
	Alpha  float32 // Smoothing divisor, >= 1. 1 disables smoothing
}

// LoadConfig reads "<module>.<name>.ad8495_*" keys from the store.
func LoadConfig(store *config.Store, module, name string) (Config, error) {
	pinKey := config.Key(module, name, KeyPin)
	s, err := store.RequiredString(pinKey)
	if err != nil {
		return Config{}, err
	}

	p, err := pin.Parse(s)
	if err != nil {
		return Config{}, &config.Error{Key: pinKey, Reason: "invalid pin", Err: err}
	}

	return Config{
		Pin:    p,
		Offset: float32(store.NumberWithDefault(config.Key(module, name, KeyOffset), 0)),
		Alpha:  float32(store.NumberWithDefault(config.Key(module, name, KeyAlpha), 1)),
	}, nil
}

// AD8495 is a linear temperature sensor.
type AD8495 struct {
	name    string
	cfg     Config
	sampler adc.Sampler
	out     io.Writer
	log     *slog.Logger

	smoothed float32 // Invalid when there is no valid history
	min      float32
	max      float32
}

// New creates a sensor and registers its channel with the sampler.
// Diagnostic lines are written to out.
func New(name string, cfg Config, sampler adc.Sampler, out io.Writer, log *slog.Logger) (*AD8495, error) {
	if cfg.Alpha < 1 || math32.IsNaN(cfg.Alpha) {
		return nil, &config.Error{Key: KeyAlpha, Reason: fmt.Sprintf("alpha must be >= 1, got %v", cfg.Alpha)}
	}
	if sampler == nil {
		return nil, errors.New("sensor: nil sampler")
	}
	if out == nil {
		out = io.Discard
	}
	if log == nil {
		log = slog.Default()
	}

	if err := sampler.EnableChannel(cfg.Pin); err != nil {
		return nil, &config.Error{Key: KeyPin, Reason: "failed to enable channel " + cfg.Pin.String(), Err: err}
	}

	return &AD8495{
		name:     name,
		cfg:      cfg,
		sampler:  sampler,
		out:      out,
		log:      log.With("sensor", name),
		smoothed: Invalid,
		min:      initialMin,
		max:      initialMax,
	}, nil
}

// Configure loads the configuration for name and creates the sensor.
func Configure(store *config.Store, module, name string, sampler adc.Sampler, out io.Writer, log *slog.Logger) (*AD8495, error) {
	cfg, err := LoadConfig(store, module, name)
	if err != nil {
		return nil, err
	}

	s, err := New(name, cfg, sampler, out, log)
	if err != nil {
		var cerr *config.Error
		if errors.As(err, &cerr) {
			cerr.Key = config.Key(module, name, cerr.Key)
		}
		return nil, err
	}
	return s, nil
}

// Convert converts a raw code to °C. Codes at or above max are Invalid.
func Convert(code, max uint32, offset float32) float32 {
	if code >= max {
		return Invalid
	}
	return transfer(code, max) - offset
}

// transfer applies the amplifier gain without any range check.
func transfer(code, max uint32) float32 {
	return float32(code) / (float32(max) / ReferenceVoltage * VoltsPerDegree)
}

// ReadFilteredTemperature samples the channel once and returns the smoothed
// temperature, or Invalid if the sensor is saturated.
func (s *AD8495) ReadFilteredTemperature() float32 {
	code := s.sampler.ReadChannel(s.cfg.Pin)
	// The ceiling can change at runtime, never cache it
	raw := Convert(code, s.sampler.MaxValue(), s.cfg.Offset)

	if IsInvalid(raw) {
		if !IsInvalid(s.smoothed) {
			s.log.Debug("sensor saturated, discarding filter history", "code", code)
		}
		s.smoothed = Invalid
		return Invalid
	}

	if IsInvalid(s.smoothed) {
		// Re-acquire a valid history without smoothing
		s.smoothed = raw
	} else if raw > s.smoothed {
		s.smoothed = s.smoothed + (raw-s.smoothed)/s.cfg.Alpha
	} else {
		s.smoothed = s.smoothed - (s.smoothed-raw)/s.cfg.Alpha
	}

	if s.smoothed > s.max {
		s.max = s.smoothed
	}
	if s.smoothed < s.min {
		s.min = s.smoothed
	}

	return s.smoothed
}

// ReadRaw samples the channel once without filtering, collapses min/max to the
// instant value and writes a diagnostic line to the output stream.
func (s *AD8495) ReadRaw() DiagnosticReport {
	code := s.sampler.ReadChannel(s.cfg.Pin)
	max := s.sampler.MaxValue()

	t := Invalid
	if max > 0 {
		t = transfer(code, max) - s.cfg.Offset
	}

	report := DiagnosticReport{
		Code:        code,
		Max:         max,
		Temperature: t,
		Offset:      s.cfg.Offset,
	}
	if _, err := io.WriteString(s.out, report.String()+"\n"); err != nil {
		s.log.Warn("failed to write diagnostic", "err", err)
	}

	s.min = t
	s.max = t

	return report
}

// Name returns the configured sensor name.
func (s *AD8495) Name() string { return s.name }

// Config returns the sensor configuration.
func (s *AD8495) Config() Config { return s.cfg }

// Smoothed returns the current filter state without sampling.
func (s *AD8495) Smoothed() float32 { return s.smoothed }

// Min returns the lowest smoothed temperature observed.
func (s *AD8495) Min() float32 { return s.min }

// Max returns the highest smoothed temperature observed.
func (s *AD8495) Max() float32 { return s.max }
