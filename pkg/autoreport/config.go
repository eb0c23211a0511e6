package autoreport

import (
	"math"

	"github.com/itohio/thermo/pkg/config"
)

// Configuration location and keys: "temperature_control.auto_report.<key>".
const (
	Module = "temperature_control"
	Name   = "auto_report"

	KeyEnable     = "enable"
	KeyReportRate = "report_rate"
	KeyGetMCode   = "get_m_code"
)

// Fixed and default command codes.
const (
	DefaultPollCode  = 105
	SetAutoReportM   = 155
	CapabilitiesM    = 115
	DefaultInterval  = 1
	maxPollCode      = 1023
	CapabilityString = "\nCap:AUTOREPORT_TEMP:1"
)

// Config holds the auto-report settings.
type Config struct {
	Enabled  bool
	Interval uint8 // Seconds between reports
	PollCode int   // M code that polls temperatures explicitly
}

// DefaultConfig returns the settings used when nothing is configured.
func DefaultConfig() Config {
	return Config{
		Enabled:  false,
		Interval: DefaultInterval,
		PollCode: DefaultPollCode,
	}
}

// LoadConfig reads the auto-report keys. All keys are optional.
func LoadConfig(store *config.Store) Config {
	def := DefaultConfig()

	rate := store.NumberWithDefault(config.Key(Module, Name, KeyReportRate), float64(def.Interval))
	code := store.NumberWithDefault(config.Key(Module, Name, KeyGetMCode), float64(def.PollCode))
	if code < 0 || code > maxPollCode {
		code = float64(def.PollCode)
	}

	return Config{
		Enabled:  store.BoolWithDefault(config.Key(Module, Name, KeyEnable), def.Enabled),
		Interval: uint8(math.Max(0, math.Min(math.MaxUint8, rate))),
		PollCode: int(code),
	}
}
