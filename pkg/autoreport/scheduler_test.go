package autoreport

import (
	"testing"

	"github.com/itohio/thermo/pkg/gcode"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustParse(t *testing.T, line string) *gcode.Command {
	t.Helper()
	cmd, err := gcode.Parse(line)
	require.NoError(t, err)
	return cmd
}

func ticks(s *Scheduler, n int) {
	for i := 0; i < n; i++ {
		s.OnSecondTick()
	}
}

func TestScheduler_Cadence(t *testing.T) {
	s := NewScheduler(Config{Enabled: true, Interval: 5, PollCode: DefaultPollCode})

	ticks(s, 5)
	assert.False(t, s.Due())
	assert.Equal(t, uint8(5), s.Elapsed())

	s.OnSecondTick()
	assert.True(t, s.Due())
}

func TestScheduler_ElapsedSaturates(t *testing.T) {
	s := NewScheduler(Config{Interval: 255, PollCode: DefaultPollCode})

	ticks(s, 300)
	assert.Equal(t, uint8(255), s.Elapsed())
	assert.False(t, s.Due())
}

func TestScheduler_PollResetsCadence(t *testing.T) {
	s := NewScheduler(Config{Enabled: true, Interval: 5, PollCode: DefaultPollCode})

	ticks(s, 4)
	s.OnCommand(mustParse(t, "M105"))
	assert.Equal(t, uint8(0), s.Elapsed())

	ticks(s, 5)
	assert.False(t, s.Due())
	s.OnSecondTick()
	assert.True(t, s.Due())
}

func TestScheduler_PollWhileOverdue(t *testing.T) {
	s := NewScheduler(Config{Enabled: true, Interval: 5, PollCode: DefaultPollCode})

	ticks(s, 7)
	require.True(t, s.Due())

	// The command never touches the due flag, only the counter
	s.OnCommand(mustParse(t, "M105"))
	assert.Equal(t, uint8(0), s.Elapsed())
	assert.True(t, s.Due())

	require.True(t, s.take())
	ticks(s, 5)
	assert.False(t, s.Due())
	s.OnSecondTick()
	assert.True(t, s.Due())
}

func TestScheduler_CustomPollCode(t *testing.T) {
	s := NewScheduler(Config{Interval: 5, PollCode: 407})

	ticks(s, 3)
	s.OnCommand(mustParse(t, "M105"))
	assert.Equal(t, uint8(3), s.Elapsed())

	s.OnCommand(mustParse(t, "M407"))
	assert.Equal(t, uint8(0), s.Elapsed())
	assert.Equal(t, 407, s.PollCode())
}

func TestScheduler_SetAutoReport(t *testing.T) {
	tests := []struct {
		name    string
		initial bool
		line    string
		want    bool
	}{
		{name: "enable", initial: false, line: "M155 S1", want: true},
		{name: "enable with interval value", initial: false, line: "M155 S4", want: true},
		{name: "disable", initial: true, line: "M155 S0", want: false},
		{name: "negative disables", initial: true, line: "M155 S-2", want: false},
		{name: "missing S keeps state on", initial: true, line: "M155", want: true},
		{name: "missing S keeps state off", initial: false, line: "M155 P1", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewScheduler(Config{Enabled: tt.initial, Interval: 1, PollCode: DefaultPollCode})
			s.OnCommand(mustParse(t, tt.line))
			assert.Equal(t, tt.want, s.Enabled())
		})
	}
}

func TestScheduler_Capabilities(t *testing.T) {
	s := NewScheduler(DefaultConfig())

	cmd := mustParse(t, "M115")
	s.OnCommand(cmd)
	assert.Equal(t, "\nCap:AUTOREPORT_TEMP:1", cmd.TxtAfterOK())
	assert.Equal(t, uint8(0), s.Elapsed())
	assert.False(t, s.Enabled())
}

func TestScheduler_IgnoresOtherCommands(t *testing.T) {
	s := NewScheduler(Config{Enabled: true, Interval: 5, PollCode: DefaultPollCode})
	ticks(s, 3)

	for _, line := range []string{"M104 S200", "G28", "M999", "G105"} {
		cmd := mustParse(t, line)
		s.OnCommand(cmd)
		assert.Empty(t, cmd.TxtAfterOK(), line)
	}

	assert.Equal(t, uint8(3), s.Elapsed())
	assert.True(t, s.Enabled())
}

func TestScheduler_DisableKeepsCounting(t *testing.T) {
	s := NewScheduler(Config{Enabled: true, Interval: 5, PollCode: DefaultPollCode})

	ticks(s, 3)
	s.OnCommand(mustParse(t, "M155 S0"))
	ticks(s, 2)
	assert.Equal(t, uint8(5), s.Elapsed())

	// Re-enabling resumes the running cadence
	s.OnCommand(mustParse(t, "M155 S1"))
	s.OnSecondTick()
	assert.True(t, s.Due())
}

func TestScheduler_Take(t *testing.T) {
	s := NewScheduler(Config{Interval: 0, PollCode: DefaultPollCode})
	assert.False(t, s.take())

	s.OnSecondTick()
	assert.True(t, s.take())
	assert.False(t, s.Due())
	assert.Equal(t, uint8(0), s.Elapsed())
	assert.False(t, s.take())
}
