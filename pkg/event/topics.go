package event

import "time"

// Tick is published once per second of wall clock time.
type Tick struct {
	Time time.Time
}

// Idle is published when the loop has no pending work.
type Idle struct{}

// Kernel lifecycle topics. The command topic lives in package gcode to keep
// this package free of protocol types.
var (
	SecondTick = NewTopic[Tick]("second_tick")
	IdleTopic  = NewTopic[Idle]("idle")
)
