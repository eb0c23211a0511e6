package config

import (
	"fmt"
	"strings"
)

// Error reports a missing or invalid configuration key. It is fatal for the
// module being loaded.
type Error struct {
	Key    string
	Reason string
	Err    error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("config %s: %s: %v", e.Key, e.Reason, e.Err)
	}
	return fmt.Sprintf("config %s: %s", e.Key, e.Reason)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Key joins namespace parts into a store key, e.g. Key("temperature_control", "hotend", "ad8495_pin").
func Key(parts ...string) string {
	return strings.Join(parts, ".")
}
