package main

import (
	"bytes"
	"strings"

	"dynbf/pkg/grid"
	"dynbf/pkg/tape"
)

// Cell colours, RGBA.
var (
	colorFree    = [4]byte{0x10, 0x10, 0x18, 0xff}
	colorValue   = [4]byte{0x30, 0xc0, 0x50, 0xff}
	colorOwned   = [4]byte{0x20, 0x40, 0xa0, 0xff}
	colorBase    = [4]byte{0x80, 0xa0, 0xff, 0xff}
	colorPointer = [4]byte{0xff, 0x30, 0x30, 0xff}
	colorNull    = [4]byte{0x60, 0x60, 0x60, 0xff}
)

// gridRows returns how many rows of cols cells hold n cells.
func gridRows(n, cols int) int {
	return (n + cols - 1) / cols
}

// tapePixels renders one RGBA pixel per cell on a cols-wide grid. Owned
// cells are blue with the block base brighter, nonzero free cells green,
// and the cell under ptr red.
func tapePixels(mem *tape.Memory, ptr uint32, cols int) []byte {
	rows := gridRows(mem.Capacity(), cols)
	pix := make([]byte, cols*rows*4)
	for i := range mem.Cells {
		var c [4]byte
		switch {
		case i == 0:
			c = colorNull
		case mem.IsBase(uint32(i)):
			c = colorBase
		case mem.Owned[i] != 0:
			c = colorOwned
		case mem.Cells[i] != 0:
			c = colorValue
		default:
			c = colorFree
		}
		x, y := grid.GetGridCoords(i, cols)
		copy(pix[grid.GetIndex(x, y, cols)*4:], c[:])
	}
	if int(ptr) < mem.Capacity() {
		copy(pix[int(ptr)*4:], colorPointer[:])
	}
	return pix
}

// outputLog keeps the program's output for the text panel.
type outputLog struct {
	buf   bytes.Buffer
	limit int
}

func (o *outputLog) Write(p []byte) (int, error) {
	o.buf.Write(p)
	if o.limit > 0 && o.buf.Len() > o.limit {
		o.buf.Next(o.buf.Len() - o.limit)
	}
	return len(p), nil
}

// Tail returns the last n lines.
func (o *outputLog) Tail(n int) []string {
	lines := strings.Split(o.buf.String(), "\n")
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	return lines
}
