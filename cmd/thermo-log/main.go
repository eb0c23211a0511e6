// Command thermo-log prints a capture file written by thermo -capture.
package main

import (
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/itohio/thermo/pkg/capture"
)

func main() {
	var (
		kindFlag  = flag.String("kind", "", "Only print records of this kind: output, command")
		plainFlag = flag.Bool("plain", false, "Print only the captured lines")
	)
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "usage: %s [flags] <capture file>\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(2)
	}

	f, err := os.Open(flag.Arg(0))
	if err != nil {
		fmt.Fprintf(os.Stderr, "thermo-log: %v\n", err)
		os.Exit(1)
	}
	defer f.Close()

	if err := dump(f, os.Stdout, *kindFlag, *plainFlag); err != nil {
		fmt.Fprintf(os.Stderr, "thermo-log: %v\n", err)
		os.Exit(1)
	}
}

// dump writes every matching record in r to w.
func dump(r io.Reader, w io.Writer, kind string, plain bool) error {
	var want capture.Kind
	switch kind {
	case "":
	case "output":
		want = capture.KindOutput
	case "command":
		want = capture.KindCommand
	default:
		return fmt.Errorf("unknown kind %q", kind)
	}

	commandColor := color.New(color.FgCyan)
	reader := capture.NewReader(r)
	for {
		rec, err := reader.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to read capture: %w", err)
		}
		if want != 0 && rec.Kind != want {
			continue
		}

		switch {
		case plain:
			fmt.Fprintln(w, rec.Line)
		case rec.Kind == capture.KindCommand:
			commandColor.Fprintln(w, rec.Format())
		default:
			fmt.Fprintln(w, rec.Format())
		}
	}
}
