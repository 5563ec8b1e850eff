package vm

import (
	"archive/zip"
	"bytes"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"dynbf/pkg/lang"
	"dynbf/pkg/tape"
)

// machineState is the JSON-serializable snapshot of machine control state.
type machineState struct {
	Capacity     int                  `json:"capacity"`
	Ptr          uint32               `json:"ptr"`
	RefTop       uint32               `json:"ref_top"`
	RefStack     [RefStackSize]uint32 `json:"ref_stack"`
	PC           int                  `json:"pc"`
	Steps        uint64               `json:"steps"`
	Halted       bool                 `json:"halted"`
	Waiting      bool                 `json:"waiting"`
	Checked      bool                 `json:"checked"`
	PendingInput string               `json:"pending_input,omitempty"`
	Blocks       []tape.Block         `json:"blocks,omitempty"`
}

// SnapshotToBytes serialises the machine into an in-memory ZIP archive:
// machine_state.json, cells.bin and owned.bin (little-endian uint32) and,
// when a program is loaded, program.dbf.
func (m *Machine) SnapshotToBytes() ([]byte, error) {
	buf := new(bytes.Buffer)
	zw := zip.NewWriter(buf)

	state := machineState{
		Capacity:     m.Mem.Capacity(),
		Ptr:          m.Ptr,
		RefTop:       m.RefTop,
		RefStack:     m.RefStack,
		PC:           m.PC,
		Steps:        m.Steps,
		Halted:       m.Halted,
		Waiting:      m.Waiting,
		Checked:      m.Checked,
		PendingInput: string(m.queue),
		Blocks:       m.Mem.Blocks(),
	}
	jsonData, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal machine_state: %w", err)
	}
	if err := writeZipEntry(zw, "machine_state.json", jsonData); err != nil {
		return nil, err
	}

	if err := writeZipEntry(zw, "cells.bin", uint32SliceToLE(m.Mem.Cells)); err != nil {
		return nil, err
	}
	if err := writeZipEntry(zw, "owned.bin", uint32SliceToLE(m.Mem.Owned)); err != nil {
		return nil, err
	}

	if m.prog != nil {
		if err := writeZipEntry(zw, "program.dbf", []byte(m.prog.Source())); err != nil {
			return nil, err
		}
	}

	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("close zip: %w", err)
	}
	return buf.Bytes(), nil
}

// RestoreFromBytes applies a snapshot produced by SnapshotToBytes. Memory
// is reallocated when the snapshot capacity differs.
func (m *Machine) RestoreFromBytes(data []byte) error {
	r, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return fmt.Errorf("open zip: %w", err)
	}

	fileMap := make(map[string]*zip.File, len(r.File))
	for _, f := range r.File {
		fileMap[f.Name] = f
	}

	jsonData, err := readZipEntry(fileMap, "machine_state.json")
	if err != nil {
		return err
	}
	var state machineState
	if err := json.Unmarshal(jsonData, &state); err != nil {
		return fmt.Errorf("unmarshal machine_state: %w", err)
	}

	var prog *lang.Program
	if src, err := readZipEntry(fileMap, "program.dbf"); err == nil {
		prog, err = lang.Parse(src)
		if err != nil {
			return fmt.Errorf("parse program.dbf: %w", err)
		}
	}

	progLen := 0
	if prog != nil {
		progLen = prog.Len()
	}
	if state.PC < 0 || state.PC > progLen {
		return fmt.Errorf("%w: pc %d outside program of %d ops", ErrInvalidSnapshot, state.PC, progLen)
	}
	if state.RefTop > RefStackSize {
		return fmt.Errorf("%w: reference stack depth %d exceeds %d", ErrInvalidSnapshot, state.RefTop, RefStackSize)
	}

	if m.Mem == nil || m.Mem.Capacity() != state.Capacity {
		m.Mem = tape.NewMemory(state.Capacity)
	} else {
		m.Mem.Reset()
	}
	if raw, err := readZipEntry(fileMap, "cells.bin"); err == nil {
		leToUint32Slice(raw, m.Mem.Cells)
	}
	if raw, err := readZipEntry(fileMap, "owned.bin"); err == nil {
		leToUint32Slice(raw, m.Mem.Owned)
	}

	m.prog = prog
	m.Ptr = state.Ptr
	m.RefTop = state.RefTop
	m.RefStack = state.RefStack
	m.PC = state.PC
	m.Steps = state.Steps
	m.Halted = state.Halted
	m.Waiting = state.Waiting
	m.Checked = state.Checked
	m.queue = []byte(state.PendingInput)
	return nil
}

// SnapshotToFile writes the snapshot archive to path.
func (m *Machine) SnapshotToFile(path string) error {
	data, err := m.SnapshotToBytes()
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// RestoreFromFile reads a snapshot archive from path and applies it.
func (m *Machine) RestoreFromFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return m.RestoreFromBytes(data)
}

func writeZipEntry(zw *zip.Writer, name string, data []byte) error {
	w, err := zw.Create(name)
	if err != nil {
		return fmt.Errorf("create zip entry %q: %w", name, err)
	}
	_, err = w.Write(data)
	return err
}

func readZipEntry(fileMap map[string]*zip.File, name string) ([]byte, error) {
	f, ok := fileMap[name]
	if !ok {
		return nil, fmt.Errorf("zip entry %q not found", name)
	}
	rc, err := f.Open()
	if err != nil {
		return nil, fmt.Errorf("open zip entry %q: %w", name, err)
	}
	defer rc.Close()
	return io.ReadAll(rc)
}

func uint32SliceToLE(src []uint32) []byte {
	out := make([]byte, len(src)*4)
	for i, v := range src {
		binary.LittleEndian.PutUint32(out[i*4:], v)
	}
	return out
}

func leToUint32Slice(src []byte, dst []uint32) {
	for i := range dst {
		if i*4+3 < len(src) {
			dst[i] = binary.LittleEndian.Uint32(src[i*4:])
		}
	}
}
