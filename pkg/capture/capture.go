// Package capture records every line the application emits to a binary CBOR
// file so report and diagnostic output can be inspected offline.
package capture

import (
	"fmt"
	"io"
	"time"

	"github.com/fxamacker/cbor/v2"
)

// Kind classifies a captured line.
type Kind uint8

const (
	KindOutput Kind = iota + 1 // Reports, diagnostics, responses
	KindCommand                // Inbound command lines
)

// String returns a human-readable kind name.
func (k Kind) String() string {
	switch k {
	case KindOutput:
		return "OUTPUT"
	case KindCommand:
		return "COMMAND"
	default:
		return "UNKNOWN"
	}
}

// Record is one captured line.
type Record struct {
	Time time.Time `cbor:"1,keyasint"`
	Kind Kind      `cbor:"2,keyasint"`
	Line string    `cbor:"3,keyasint"`
}

var (
	encMode cbor.EncMode
	decMode cbor.DecMode
)

func init() {
	var err error

	encOpts := cbor.EncOptions{
		Sort:        cbor.SortCanonical,
		IndefLength: cbor.IndefLengthForbidden,
		Time:        cbor.TimeRFC3339Nano,
	}
	encMode, err = encOpts.EncMode()
	if err != nil {
		panic(fmt.Sprintf("failed to create capture CBOR encoder mode: %v", err))
	}

	decOpts := cbor.DecOptions{
		DupMapKey: cbor.DupMapKeyQuiet,
	}
	decMode, err = decOpts.DecMode()
	if err != nil {
		panic(fmt.Sprintf("failed to create capture CBOR decoder mode: %v", err))
	}
}

// Reader reads records from a capture stream.
type Reader struct {
	dec *cbor.Decoder
}

// NewReader creates a reader over r.
func NewReader(r io.Reader) *Reader {
	return &Reader{dec: decMode.NewDecoder(r)}
}

// Next returns the next record or io.EOF at the end of the stream.
func (r *Reader) Next() (Record, error) {
	var rec Record
	if err := r.dec.Decode(&rec); err != nil {
		return Record{}, err
	}
	return rec, nil
}

// ReadAll reads every record until EOF.
func ReadAll(r io.Reader) ([]Record, error) {
	reader := NewReader(r)
	var records []Record
	for {
		rec, err := reader.Next()
		if err == io.EOF {
			return records, nil
		}
		if err != nil {
			return records, fmt.Errorf("failed to decode capture record %d: %w", len(records), err)
		}
		records = append(records, rec)
	}
}

// Format returns the record as a single text line without newline.
func (r Record) Format() string {
	return fmt.Sprintf("%s %-7s %q", r.Time.Format(time.RFC3339Nano), r.Kind, r.Line)
}
