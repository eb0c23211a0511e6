package sensor

import (
	"bytes"
	"errors"
	"testing"

	"github.com/chewxy/math32"
	"github.com/itohio/thermo/pkg/config"
	"github.com/itohio/thermo/pkg/pin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var testPin = pin.MustParse("0.23")

type mockSampler struct{ mock.Mock }

func (m *mockSampler) EnableChannel(p pin.Pin) error {
	return m.Called(p).Error(0)
}

func (m *mockSampler) ReadChannel(p pin.Pin) uint32 {
	return m.Called(p).Get(0).(uint32)
}

func (m *mockSampler) MaxValue() uint32 {
	return m.Called().Get(0).(uint32)
}

// fakeSampler returns whatever code and ceiling the test set last.
type fakeSampler struct {
	code uint32
	max  uint32
}

func (f *fakeSampler) EnableChannel(pin.Pin) error { return nil }
func (f *fakeSampler) ReadChannel(pin.Pin) uint32  { return f.code }
func (f *fakeSampler) MaxValue() uint32            { return f.max }

func newSensor(t *testing.T, alpha, offset float32) (*AD8495, *fakeSampler, *bytes.Buffer) {
	t.Helper()
	f := &fakeSampler{max: 4095}
	out := &bytes.Buffer{}
	s, err := New("hotend", Config{Pin: testPin, Offset: offset, Alpha: alpha}, f, out, nil)
	require.NoError(t, err)
	return s, f, out
}

func TestConvert(t *testing.T) {
	// 4095 / 3.3 * 0.005 = 6.2045 codes per °C
	assert.InDelta(t, 100.0, Convert(620, 4095, 0), 0.1)
	assert.InDelta(t, -150.0, Convert(620, 4095, 250), 0.1)
	assert.Equal(t, float32(0), Convert(0, 4095, 0))
	assert.Equal(t, float32(-250), Convert(0, 4095, 250))
}

func TestConvert_Affine(t *testing.T) {
	const max = 4095
	step := Convert(1000, max, 0) - Convert(0, max, 0)
	for c := uint32(0); c+1000 < max; c += 500 {
		assert.InDelta(t, step, Convert(c+1000, max, 0)-Convert(c, max, 0), 1e-3, "code %d", c)
	}

	// Deterministic
	assert.Equal(t, Convert(1234, max, 12.5), Convert(1234, max, 12.5))
}

func TestConvert_Saturation(t *testing.T) {
	assert.True(t, IsInvalid(Convert(4095, 4095, 0)))
	assert.True(t, IsInvalid(Convert(5000, 4095, 0)))
	assert.True(t, IsInvalid(Convert(0, 0, 0)))
	assert.False(t, IsInvalid(Convert(4094, 4095, 0)))
}

func TestNew_InvalidAlpha(t *testing.T) {
	for _, alpha := range []float32{0, 0.5, -1, math32.NaN()} {
		_, err := New("hotend", Config{Pin: testPin, Alpha: alpha}, &fakeSampler{max: 4095}, nil, nil)
		var cerr *config.Error
		assert.ErrorAs(t, err, &cerr, "alpha %v", alpha)
	}
}

func TestNew_EnablesChannel(t *testing.T) {
	m := &mockSampler{}
	m.On("EnableChannel", testPin).Return(nil).Once()

	_, err := New("hotend", Config{Pin: testPin, Alpha: 1}, m, nil, nil)
	require.NoError(t, err)
	m.AssertExpectations(t)
}

func TestNew_EnableChannelFails(t *testing.T) {
	m := &mockSampler{}
	m.On("EnableChannel", testPin).Return(errors.New("no such channel"))

	_, err := New("hotend", Config{Pin: testPin, Alpha: 1}, m, nil, nil)
	var cerr *config.Error
	require.ErrorAs(t, err, &cerr)
	assert.Equal(t, KeyPin, cerr.Key)
}

func TestConfigure(t *testing.T) {
	store := config.NewStore(map[string]any{
		"temperature_control": map[string]any{
			"hotend": map[string]any{
				"ad8495_pin":    "0.23",
				"ad8495_offset": 250,
				"ad8495_alpha":  4,
			},
			"bed": map[string]any{
				"ad8495_pin": "0.24",
			},
			"broken": map[string]any{
				"ad8495_pin": "zz",
			},
			"slow": map[string]any{
				"ad8495_pin":   "0.25",
				"ad8495_alpha": 0.5,
			},
		},
	})
	f := &fakeSampler{max: 4095}

	s, err := Configure(store, "temperature_control", "hotend", f, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, Config{Pin: testPin, Offset: 250, Alpha: 4}, s.Config())
	assert.Equal(t, "hotend", s.Name())

	// Defaults
	s, err = Configure(store, "temperature_control", "bed", f, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, float32(0), s.Config().Offset)
	assert.Equal(t, float32(1), s.Config().Alpha)

	var cerr *config.Error

	_, err = Configure(store, "temperature_control", "missing", f, nil, nil)
	require.ErrorAs(t, err, &cerr)
	assert.Equal(t, "temperature_control.missing.ad8495_pin", cerr.Key)

	_, err = Configure(store, "temperature_control", "broken", f, nil, nil)
	require.ErrorAs(t, err, &cerr)
	assert.ErrorIs(t, err, pin.ErrMalformed)

	_, err = Configure(store, "temperature_control", "slow", f, nil, nil)
	require.ErrorAs(t, err, &cerr)
	assert.Equal(t, "temperature_control.slow.ad8495_alpha", cerr.Key)
}

func TestReadFilteredTemperature_QueriesCeilingEveryRead(t *testing.T) {
	m := &mockSampler{}
	m.On("EnableChannel", testPin).Return(nil)
	m.On("ReadChannel", testPin).Return(uint32(1000)).Twice()
	m.On("MaxValue").Return(uint32(4095)).Once()
	m.On("MaxValue").Return(uint32(65535)).Once()

	s, err := New("hotend", Config{Pin: testPin, Alpha: 1}, m, nil, nil)
	require.NoError(t, err)

	assert.Equal(t, Convert(1000, 4095, 0), s.ReadFilteredTemperature())
	assert.Equal(t, Convert(1000, 65535, 0), s.ReadFilteredTemperature())
	m.AssertExpectations(t)
}

func TestReadFilteredTemperature_Reacquire(t *testing.T) {
	s, f, _ := newSensor(t, 8, 0)
	assert.True(t, IsInvalid(s.Smoothed()))

	// First valid reading is taken without damping
	f.code = 1240
	got := s.ReadFilteredTemperature()
	assert.Equal(t, Convert(1240, 4095, 0), got)
	assert.Equal(t, got, s.Smoothed())

	// Saturation discards history
	f.code = 4095
	assert.True(t, IsInvalid(s.ReadFilteredTemperature()))
	assert.True(t, IsInvalid(s.Smoothed()))

	// The next valid reading is not smoothed against the stale average
	f.code = 300
	assert.Equal(t, Convert(300, 4095, 0), s.ReadFilteredTemperature())
}

func TestReadFilteredTemperature_AlphaOneTracksRaw(t *testing.T) {
	s, f, _ := newSensor(t, 1, 10)
	for _, code := range []uint32{100, 2000, 50, 3000, 3000, 1} {
		f.code = code
		assert.Equal(t, Convert(code, 4095, 10), s.ReadFilteredTemperature())
	}
}

func TestReadFilteredTemperature_Smoothing(t *testing.T) {
	s, f, _ := newSensor(t, 4, 0)

	f.code = 620
	start := s.ReadFilteredTemperature()

	// Rising
	f.code = 1240
	raw := Convert(1240, 4095, 0)
	got := s.ReadFilteredTemperature()
	assert.InDelta(t, start+(raw-start)/4, got, 1e-4)

	// Falling
	prev := got
	f.code = 0
	got = s.ReadFilteredTemperature()
	assert.InDelta(t, prev-(prev-0)/4, got, 1e-4)
}

func TestReadFilteredTemperature_Convergence(t *testing.T) {
	const alpha = 4
	for _, dir := range []struct {
		name  string
		start uint32
		hold  uint32
	}{
		{name: "rising", start: 200, hold: 1800},
		{name: "falling", start: 1800, hold: 200},
	} {
		t.Run(dir.name, func(t *testing.T) {
			s, f, _ := newSensor(t, alpha, 0)

			f.code = dir.start
			s0 := s.ReadFilteredTemperature()

			f.code = dir.hold
			r := Convert(dir.hold, 4095, 0)
			gap0 := math32.Abs(s0 - r)

			prevGap := gap0
			bound := gap0
			for n := 1; n <= 20; n++ {
				sn := s.ReadFilteredTemperature()
				gap := math32.Abs(sn - r)
				bound *= float32(alpha-1) / alpha

				assert.Less(t, gap, prevGap, "step %d not monotonic", n)
				assert.LessOrEqual(t, gap, bound+1e-3, "step %d exceeds bound", n)
				prevGap = gap
			}
		})
	}
}

func TestReadFilteredTemperature_MinMax(t *testing.T) {
	s, f, _ := newSensor(t, 2, 0)

	var seen []float32
	for _, code := range []uint32{600, 1200, 300, 4095, 900, 100, 2500} {
		f.code = code
		v := s.ReadFilteredTemperature()
		if !IsInvalid(v) {
			seen = append(seen, v)
			assert.LessOrEqual(t, s.Min(), v)
			assert.GreaterOrEqual(t, s.Max(), v)
		}
	}

	for _, v := range seen {
		assert.LessOrEqual(t, s.Min(), v)
		assert.GreaterOrEqual(t, s.Max(), v)
	}
}

func TestReadRaw(t *testing.T) {
	s, f, out := newSensor(t, 4, 250)

	f.code = 600
	s.ReadFilteredTemperature()
	f.code = 3000
	s.ReadFilteredTemperature()
	require.NotEqual(t, s.Min(), s.Max())

	f.code = 1551
	report := s.ReadRaw()

	want := Convert(1551, 4095, 250)
	assert.Equal(t, uint32(1551), report.Code)
	assert.Equal(t, uint32(4095), report.Max)
	assert.Equal(t, want, report.Temperature)
	assert.Equal(t, float32(250), report.Offset)

	// min/max collapse to the instant value
	assert.Equal(t, want, s.Min())
	assert.Equal(t, want, s.Max())

	assert.Equal(t, report.String()+"\n", out.String())
	assert.Contains(t, out.String(), "adc= 1551, max_adc= 4095, temp= ")
	assert.Contains(t, out.String(), "offset = 250.000000")
}

func TestReadRaw_DoesNotTouchFilter(t *testing.T) {
	s, f, _ := newSensor(t, 4, 0)

	f.code = 1000
	smoothed := s.ReadFilteredTemperature()

	f.code = 3000
	s.ReadRaw()
	assert.Equal(t, smoothed, s.Smoothed())
}

func TestDiagnosticReport_String(t *testing.T) {
	r := DiagnosticReport{Code: 10, Max: 4095, Temperature: 1.5, Offset: 0}
	assert.Equal(t, "adc= 10, max_adc= 4095, temp= 1.500000, offset = 0.000000", r.String())
}
