package vm

import (
	"archive/zip"
	"bytes"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dynbf/pkg/lang"
)

func TestSnapshot_RoundTrip(t *testing.T) {
	var out1 bytes.Buffer
	m1 := NewMachine(Options{Capacity: 64, Output: &out1})
	m1.Load(lang.MustParse("+++?*+>++&>+++++*,.&"))
	require.NoError(t, m1.RunUntilDone())
	require.True(t, m1.Waiting)
	m1.PushInput('z')
	m1.Waiting = true // keep the byte queued but leave the machine paused

	data, err := m1.SnapshotToBytes()
	require.NoError(t, err)

	var out2 bytes.Buffer
	m2 := NewMachine(Options{Output: &out2})
	require.NoError(t, m2.RestoreFromBytes(data))

	assert.Equal(t, 64, m2.Mem.Capacity())
	assert.Equal(t, m1.Mem.Cells, m2.Mem.Cells)
	assert.Equal(t, m1.Mem.Owned, m2.Mem.Owned)
	assert.Equal(t, m1.Ptr, m2.Ptr)
	assert.Equal(t, m1.RefStack, m2.RefStack)
	assert.Equal(t, m1.RefTop, m2.RefTop)
	assert.Equal(t, m1.PC, m2.PC)
	assert.Equal(t, m1.Steps, m2.Steps)
	assert.Equal(t, 1, m2.PendingInput())
	require.NotNil(t, m2.Program())
	assert.Equal(t, m1.Program().Source(), m2.Program().Source())

	m2.Waiting = false
	require.NoError(t, m2.Run())
	assert.Equal(t, "z", out2.String())
	assert.Equal(t, uint32(1), m2.Ptr)
}

func TestSnapshot_File(t *testing.T) {
	m1 := NewMachine(Options{Capacity: 16, Output: &bytes.Buffer{}})
	m1.Load(lang.MustParse("++?"))
	require.NoError(t, m1.Run())

	path := filepath.Join(t.TempDir(), "machine.zip")
	require.NoError(t, m1.SnapshotToFile(path))

	m2 := NewMachine(Options{Capacity: 16})
	require.NoError(t, m2.RestoreFromFile(path))
	assert.Equal(t, m1.Mem.Blocks(), m2.Mem.Blocks())
	assert.True(t, m2.Halted)
}

func TestSnapshot_Invalid(t *testing.T) {
	m := NewMachine(Options{})
	assert.Error(t, m.RestoreFromBytes([]byte("not a zip")))
	assert.Error(t, m.RestoreFromFile(filepath.Join(t.TempDir(), "missing.zip")))
}

func tamperedSnapshot(t *testing.T, state, program string) []byte {
	t.Helper()
	buf := new(bytes.Buffer)
	zw := zip.NewWriter(buf)
	require.NoError(t, writeZipEntry(zw, "machine_state.json", []byte(state)))
	require.NoError(t, writeZipEntry(zw, "program.dbf", []byte(program)))
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

func TestSnapshot_RejectsBadControlState(t *testing.T) {
	tests := []struct {
		name  string
		state string
	}{
		{"negative pc", `{"capacity": 8, "pc": -1}`},
		{"pc past end", `{"capacity": 8, "pc": 3}`},
		{"reference stack too deep", `{"capacity": 8, "ref_top": 257}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := NewMachine(Options{Capacity: 16, Output: &bytes.Buffer{}})
			m.Mem.Cells[3] = 9

			err := m.RestoreFromBytes(tamperedSnapshot(t, tt.state, "++"))
			assert.ErrorIs(t, err, ErrInvalidSnapshot)
			assert.Equal(t, 16, m.Mem.Capacity(), "machine untouched")
			assert.Equal(t, uint32(9), m.Mem.Cells[3])
			assert.NoError(t, m.Step(), "machine still steps safely")
		})
	}

	m := NewMachine(Options{Capacity: 8, Output: &bytes.Buffer{}})
	require.NoError(t, m.RestoreFromBytes(tamperedSnapshot(t, `{"capacity": 8, "pc": 2, "halted": true}`, "++")))
	assert.Equal(t, 2, m.PC)
}
