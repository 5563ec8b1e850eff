package main

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dynbf/pkg/lang"
	"dynbf/pkg/tape"
	"dynbf/pkg/vm"
)

func pixelAt(pix []byte, i int) [4]byte {
	var c [4]byte
	copy(c[:], pix[i*4:])
	return c
}

func TestTapePixels(t *testing.T) {
	mem := tape.NewMemory(16)
	base, err := mem.Allocate(3)
	require.NoError(t, err)
	require.Equal(t, uint32(13), base)
	mem.Cells[2] = 7

	pix := tapePixels(mem, 5, 4)
	require.Len(t, pix, 16*4)

	assert.Equal(t, colorNull, pixelAt(pix, 0))
	assert.Equal(t, colorFree, pixelAt(pix, 1))
	assert.Equal(t, colorValue, pixelAt(pix, 2))
	assert.Equal(t, colorPointer, pixelAt(pix, 5))
	assert.Equal(t, colorBase, pixelAt(pix, 13))
	assert.Equal(t, colorOwned, pixelAt(pix, 14))
	assert.Equal(t, colorOwned, pixelAt(pix, 15))
}

func TestTapePixels_PartialRowAndWildPointer(t *testing.T) {
	mem := tape.NewMemory(10)
	pix := tapePixels(mem, 1<<31, 4)
	assert.Len(t, pix, 12*4)
	assert.Equal(t, [4]byte{}, pixelAt(pix, 11))
}

func TestOutputLog(t *testing.T) {
	o := &outputLog{limit: 8}
	o.Write([]byte("one\ntwo\nthree"))
	assert.Equal(t, []string{"wo", "three"}, o.Tail(2))
	assert.Equal(t, []string{"three"}, o.Tail(1))
}

// Game.Update needs a running window; stepping the same way it does
// exercises the wiring between queued keys and the machine.
func TestGameWiring(t *testing.T) {
	out := &outputLog{limit: outputKeep}
	m := vm.NewMachine(vm.Options{Capacity: 64, Output: out})
	m.Load(lang.MustParse(",[.,]"))
	g := newGame(m, out, 16)

	_, err := g.m.RunSteps(g.stepsPerFrame)
	require.NoError(t, err)
	assert.Equal(t, "waiting for input", g.state())

	g.m.PushInput([]byte("hi")...)
	_, err = g.m.RunSteps(g.stepsPerFrame)
	require.NoError(t, err)
	assert.Equal(t, "hi", strings.Join(g.output.Tail(1), ""))

	w, h := g.Layout(0, 0)
	assert.Equal(t, gridCols*cellScale, w)
	assert.Equal(t, cellScale+panelH, h)
}
