// Package tape implements the runtime memory of a compiled Dynamic
// Brainfuck program: a fixed-capacity cell array and a parallel ownership
// array driving a top-down, self-describing block allocator.
//
// Every owned cell stores its distance to the end of its block, so the
// first cell of a block of size S holds S, the next S-1, down to 1 in the
// last cell. Free reads the block size straight from the base cell and
// needs no side table.
package tape

import (
	"errors"
	"fmt"
	"io"
)

// DefaultCapacity matches TAPE_SIZE in the emitted runtime.
const DefaultCapacity = 30000

var (
	ErrAllocationExhausted = errors.New("no free memory")
	ErrInvalidFree         = errors.New("invalid free")
	ErrPointerOutOfRange   = errors.New("pointer out of range")
)

// Memory is one runtime instance. Cells and Owned always have the same
// length and are never resized. Address 0 is reserved as the null address
// and is never handed out by Allocate.
type Memory struct {
	Cells []uint32
	Owned []uint32
}

// Block describes one live allocation.
type Block struct {
	Base uint32
	Size uint32
}

// NewMemory returns zeroed memory with the given capacity.
func NewMemory(capacity int) *Memory {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Memory{
		Cells: make([]uint32, capacity),
		Owned: make([]uint32, capacity),
	}
}

// Capacity returns the number of cells.
func (m *Memory) Capacity() int {
	return len(m.Cells)
}

// Reset zeroes every cell and releases every block.
func (m *Memory) Reset() {
	clear(m.Cells)
	clear(m.Owned)
}

// Allocate reserves size contiguous free cells and returns the base
// address. Addresses are scanned from the top of the tape down to 1; the
// block is placed as soon as the run of free cells seen so far reaches
// size, which puts it at the top of the highest run that fits.
//
// Cell contents in the block are left as they were. A size of 0 returns
// the highest address without reserving anything. When no run fits,
// ErrAllocationExhausted is returned and Owned is not modified.
func (m *Memory) Allocate(size uint32) (uint32, error) {
	var run uint32
	for i := len(m.Owned) - 1; i > 0; i-- {
		if m.Owned[i] == 0 {
			run++
		} else {
			run = 0
		}
		if run >= size {
			base := uint32(i)
			for j := uint32(0); j < size; j++ {
				m.Owned[base+j] = size - j
			}
			return base, nil
		}
	}
	return 0, ErrAllocationExhausted
}

// Free releases the block at addr, zeroing both its cells and its
// ownership entries. The caller must pass a base address returned by
// Allocate and not yet freed; any other address under-frees or does
// nothing. Use FreeChecked to validate first.
func (m *Memory) Free(addr uint32) {
	size := m.Owned[addr]
	for i := uint32(0); i < size; i++ {
		m.Owned[addr+i] = 0
		m.Cells[addr+i] = 0
	}
}

// IsBase reports whether addr is the first cell of a live block.
func (m *Memory) IsBase(addr uint32) bool {
	if int(addr) >= len(m.Owned) || m.Owned[addr] == 0 {
		return false
	}
	// Inside a block the previous cell is exactly one greater. A previous
	// block always ends in 1, which can only precede a free cell.
	return addr == 0 || m.Owned[addr-1] != m.Owned[addr]+1
}

// FreeChecked frees addr after verifying it is the base of a live block.
func (m *Memory) FreeChecked(addr uint32) error {
	if int(addr) >= len(m.Owned) {
		return fmt.Errorf("%w: address %d beyond capacity %d", ErrInvalidFree, addr, len(m.Owned))
	}
	if m.Owned[addr] == 0 {
		return fmt.Errorf("%w: address %d is not allocated", ErrInvalidFree, addr)
	}
	if !m.IsBase(addr) {
		return fmt.Errorf("%w: address %d is inside a block", ErrInvalidFree, addr)
	}
	m.Free(addr)
	return nil
}

// Cell returns the value at addr.
func (m *Memory) Cell(addr uint32) (uint32, error) {
	if int(addr) >= len(m.Cells) {
		return 0, fmt.Errorf("%w: %d", ErrPointerOutOfRange, addr)
	}
	return m.Cells[addr], nil
}

// SetCell stores v at addr.
func (m *Memory) SetCell(addr, v uint32) error {
	if int(addr) >= len(m.Cells) {
		return fmt.Errorf("%w: %d", ErrPointerOutOfRange, addr)
	}
	m.Cells[addr] = v
	return nil
}

// Owner returns the ownership entry at addr.
func (m *Memory) Owner(addr uint32) (uint32, error) {
	if int(addr) >= len(m.Owned) {
		return 0, fmt.Errorf("%w: %d", ErrPointerOutOfRange, addr)
	}
	return m.Owned[addr], nil
}

// Blocks lists live allocations in ascending address order.
func (m *Memory) Blocks() []Block {
	var blocks []Block
	for i := 0; i < len(m.Owned); {
		size := m.Owned[i]
		if size == 0 {
			i++
			continue
		}
		blocks = append(blocks, Block{Base: uint32(i), Size: size})
		i += int(size)
	}
	return blocks
}

// Unfreed returns the number of cells currently owned by live blocks.
func (m *Memory) Unfreed() int {
	n := 0
	for _, b := range m.Blocks() {
		n += int(b.Size)
	}
	return n
}

// Dump writes the first n cells separated by spaces, then the number of
// unfreed cells, in the same format as the emitted print_tape helper.
func (m *Memory) Dump(w io.Writer, n int) error {
	if n > len(m.Cells) {
		n = len(m.Cells)
	}
	for i := 0; i < n; i++ {
		if _, err := fmt.Fprintf(w, "%d ", m.Cells[i]); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintf(w, "\n%d unfreed\n", m.Unfreed())
	return err
}
