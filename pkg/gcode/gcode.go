// Package gcode parses single command lines such as "M155 S2".
package gcode

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/itohio/thermo/pkg/event"
)

var (
	// ErrEmpty is returned for blank or comment-only lines.
	ErrEmpty = errors.New("gcode: empty line")
	// ErrSyntax is returned for words that are not <letter><number>.
	ErrSyntax = errors.New("gcode: syntax error")
)

// Received carries every parsed command through the event bus.
var Received = event.NewTopic[*Command]("gcode_received")

// Command is one parsed command line.
type Command struct {
	Line string

	HasM bool
	M    int
	HasG bool
	G    int

	params map[byte]float64
	after  strings.Builder // Deferred text sent after "ok"
}

// Parse parses a command line. Words are case insensitive; text after ';' is
// a comment. A leading "N<line>" number and trailing "*<checksum>" are dropped.
func Parse(line string) (*Command, error) {
	cmd := &Command{Line: line, params: make(map[byte]float64)}

	if i := strings.IndexByte(line, ';'); i >= 0 {
		line = line[:i]
	}
	if i := strings.IndexByte(line, '*'); i >= 0 {
		line = line[:i]
	}

	words := strings.Fields(strings.ToUpper(line))
	if len(words) > 0 && words[0][0] == 'N' {
		words = words[1:]
	}
	if len(words) == 0 {
		return nil, ErrEmpty
	}

	for i, w := range words {
		letter := w[0]
		if letter < 'A' || letter > 'Z' {
			return nil, fmt.Errorf("%w: %q", ErrSyntax, w)
		}

		value := 0.0
		if len(w) > 1 {
			v, err := strconv.ParseFloat(w[1:], 64)
			if err != nil {
				return nil, fmt.Errorf("%w: %q", ErrSyntax, w)
			}
			value = v
		}

		// Only the first word selects the command
		if i == 0 && (letter == 'M' || letter == 'G') {
			if len(w) == 1 || value != float64(int(value)) || value < 0 {
				return nil, fmt.Errorf("%w: %q", ErrSyntax, w)
			}
			if letter == 'M' {
				cmd.HasM, cmd.M = true, int(value)
			} else {
				cmd.HasG, cmd.G = true, int(value)
			}
			continue
		}

		cmd.params[letter] = value
	}

	return cmd, nil
}

// HasLetter reports whether parameter l was given.
func (c *Command) HasLetter(l byte) bool {
	_, ok := c.params[upper(l)]
	return ok
}

// Float returns parameter l, or 0 if absent.
func (c *Command) Float(l byte) float64 {
	return c.params[upper(l)]
}

// Int returns parameter l truncated towards zero.
func (c *Command) Int(l byte) int {
	return int(c.params[upper(l)])
}

// Uint returns parameter l truncated, with negative values clamped to 0.
func (c *Command) Uint(l byte) uint32 {
	v := c.params[upper(l)]
	if v <= 0 {
		return 0
	}
	return uint32(v)
}

// AppendAfterOK appends text sent after the command's "ok" response.
func (c *Command) AppendAfterOK(s string) {
	c.after.WriteString(s)
}

// TxtAfterOK returns the deferred response text.
func (c *Command) TxtAfterOK() string {
	return c.after.String()
}

// IsM reports whether the command is M<code>.
func (c *Command) IsM(code int) bool {
	return c.HasM && c.M == code
}

func upper(l byte) byte {
	if l >= 'a' && l <= 'z' {
		return l - 'a' + 'A'
	}
	return l
}
