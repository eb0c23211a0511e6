package sensor

import "fmt"

// DiagnosticReport is the result of a raw, unfiltered read.
type DiagnosticReport struct {
	Code        uint32
	Max         uint32
	Temperature float32
	Offset      float32
}

// String formats the report as a single diagnostic line without newline.
func (r DiagnosticReport) String() string {
	return fmt.Sprintf("adc= %d, max_adc= %d, temp= %f, offset = %f", r.Code, r.Max, r.Temperature, r.Offset)
}
