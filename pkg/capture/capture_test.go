package capture

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixedClock() func() time.Time {
	t := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	return func() time.Time {
		t = t.Add(time.Second)
		return t
	}
}

func TestRecorder_RoundTrip(t *testing.T) {
	buf := &bytes.Buffer{}
	rec := NewRecorder(buf)
	rec.now = fixedClock()

	require.NoError(t, rec.Record(KindCommand, "M155 S1"))
	require.NoError(t, rec.Record(KindOutput, "T0:200.3 /0.0 @128 "))

	records, err := ReadAll(buf)
	require.NoError(t, err)
	require.Len(t, records, 2)

	assert.Equal(t, KindCommand, records[0].Kind)
	assert.Equal(t, "M155 S1", records[0].Line)
	assert.Equal(t, KindOutput, records[1].Kind)
	assert.True(t, records[1].Time.After(records[0].Time))
}

func TestRecorder_Tee(t *testing.T) {
	buf := &bytes.Buffer{}
	out := &bytes.Buffer{}
	rec := NewRecorder(buf)

	w := rec.Tee(out, KindOutput)
	_, err := io.WriteString(w, "ok\nT0:20")
	require.NoError(t, err)
	_, err = io.WriteString(w, ".0 /0.0 @0 \n")
	require.NoError(t, err)

	assert.Equal(t, "ok\nT0:20.0 /0.0 @0 \n", out.String())

	records, err := ReadAll(buf)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "ok", records[0].Line)
	assert.Equal(t, "T0:20.0 /0.0 @0 ", records[1].Line)
}

func TestRecorder_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "capture.tlog")

	rec, err := OpenFile(path)
	require.NoError(t, err)
	require.NoError(t, rec.Record(KindOutput, "first"))
	require.NoError(t, rec.Close())
	require.NoError(t, rec.Close())

	// Records after close are dropped
	require.NoError(t, rec.Record(KindOutput, "dropped"))

	// Appends to an existing file
	rec, err = OpenFile(path)
	require.NoError(t, err)
	require.NoError(t, rec.Record(KindOutput, "second"))
	require.NoError(t, rec.Close())

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	records, err := ReadAll(f)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "first", records[0].Line)
	assert.Equal(t, "second", records[1].Line)
}

func TestReadAll_Corrupt(t *testing.T) {
	_, err := ReadAll(bytes.NewReader([]byte{0xff, 0x00}))
	assert.Error(t, err)
}

func TestKindAndFormat(t *testing.T) {
	assert.Equal(t, "OUTPUT", KindOutput.String())
	assert.Equal(t, "COMMAND", KindCommand.String())
	assert.Equal(t, "UNKNOWN", Kind(0).String())

	r := Record{Time: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC), Kind: KindOutput, Line: "ok"}
	assert.Equal(t, `2026-01-02T03:04:05Z OUTPUT  "ok"`, r.Format())
}
