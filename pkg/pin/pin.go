// Package pin parses hardware pin identifiers used in configuration files.
//
// A pin is written as "<port>.<pin>" with an optional "P" prefix and optional
// trailing modifiers: '!' inverts, '^' enables the pull-up, 'v' the pull-down
// and 'o' selects open drain. Examples: "0.23", "P1.30!", "2.4^".
package pin

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var (
	// ErrEmpty is returned when the identifier is empty or "nc" (not connected).
	ErrEmpty = errors.New("pin: not connected")
	// ErrMalformed is returned when the identifier cannot be parsed.
	ErrMalformed = errors.New("pin: malformed identifier")
)

// MaxPort and MaxNumber bound the accepted port and pin numbers.
const (
	MaxPort   = 4
	MaxNumber = 31
)

// Pin identifies a single microcontroller pin.
type Pin struct {
	Port      uint8
	Number    uint8
	Inverted  bool
	PullUp    bool
	PullDown  bool
	OpenDrain bool
}

// Parse parses a pin identifier.
func Parse(s string) (Pin, error) {
	s = strings.TrimSpace(s)
	if s == "" || strings.EqualFold(s, "nc") {
		return Pin{}, ErrEmpty
	}

	s = strings.TrimPrefix(strings.TrimPrefix(s, "P"), "p")

	// Split off trailing modifiers
	end := len(s)
	for end > 0 && strings.ContainsRune("!^vo", rune(s[end-1])) {
		end--
	}
	body, mods := s[:end], s[end:]

	port, num, ok := strings.Cut(body, ".")
	if !ok {
		return Pin{}, fmt.Errorf("%w: %q: expected <port>.<pin>", ErrMalformed, s)
	}

	p, err := strconv.ParseUint(port, 10, 8)
	if err != nil || p > MaxPort {
		return Pin{}, fmt.Errorf("%w: %q: invalid port", ErrMalformed, s)
	}
	n, err := strconv.ParseUint(num, 10, 8)
	if err != nil || n > MaxNumber {
		return Pin{}, fmt.Errorf("%w: %q: invalid pin number", ErrMalformed, s)
	}

	result := Pin{Port: uint8(p), Number: uint8(n)}
	for _, m := range mods {
		switch m {
		case '!':
			result.Inverted = true
		case '^':
			result.PullUp = true
		case 'v':
			result.PullDown = true
		case 'o':
			result.OpenDrain = true
		}
	}
	if result.PullUp && result.PullDown {
		return Pin{}, fmt.Errorf("%w: %q: pull-up and pull-down are exclusive", ErrMalformed, s)
	}

	return result, nil
}

// MustParse is like Parse but panics on error. Intended for tests and constants.
func MustParse(s string) Pin {
	p, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return p
}

// String returns the canonical "<port>.<pin>" form without modifiers.
// Samplers key their channels by this value.
func (p Pin) String() string {
	return strconv.Itoa(int(p.Port)) + "." + strconv.Itoa(int(p.Number))
}
