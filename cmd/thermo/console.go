package main

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/chzyer/readline"
)

const consoleHelp = `Commands are G-code lines, e.g.:
  M105              - report temperatures now
  M155 S<n>         - enable (n>0) or disable auto-report
  M115              - capabilities
  M104 P<i> S<t>    - set target of sensor i
  M305 P<i>         - raw diagnostic read of sensor i
  help              - this text
  quit              - exit`

// console is the interactive readline front end.
type console struct {
	rl *readline.Instance
}

func newConsole() (*console, error) {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "thermo> ",
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create readline: %w", err)
	}
	return &console{rl: rl}, nil
}

// Stdout returns a writer that coordinates with the prompt.
func (c *console) Stdout() io.Writer { return c.rl.Stdout() }

// Stderr returns a writer that coordinates with the prompt.
func (c *console) Stderr() io.Writer { return c.rl.Stderr() }

// Run reads lines until EOF, quit or ctx is cancelled and hands every command
// line to submit.
func (c *console) Run(ctx context.Context, cancel context.CancelFunc, submit func(string)) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		line, err := c.rl.Readline()
		if err != nil {
			if err == readline.ErrInterrupt {
				continue
			}
			fmt.Fprintln(c.rl.Stdout(), "Exiting...")
			cancel()
			return
		}

		input := strings.TrimSpace(line)
		switch strings.ToLower(input) {
		case "":
		case "help", "?":
			fmt.Fprintln(c.rl.Stdout(), consoleHelp)
		case "quit", "exit", "q":
			fmt.Fprintln(c.rl.Stdout(), "Exiting...")
			cancel()
			return
		default:
			submit(input)
		}
	}
}

// Close restores the terminal.
func (c *console) Close() error {
	return c.rl.Close()
}
