// Package vm interprets Dynamic Brainfuck programs with the exact
// semantics of the code the translator emits: 32-bit wrapping cells and
// pointer, a 256-entry reference stack, and the tape package allocator.
package vm

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"runtime"

	"dynbf/pkg/lang"
	"dynbf/pkg/tape"
)

// RefStackSize matches ref_tape[256] in the emitted runtime.
const RefStackSize = 256

// eofCell is what getchar() returning EOF leaves in an unsigned cell.
const eofCell = ^uint32(0)

// Options configures a new Machine.
type Options struct {
	Capacity int // tape capacity; 0 means tape.DefaultCapacity
	Checked  bool
	Input    io.Reader // nil selects the PushInput queue
	Output   io.Writer // nil means os.Stdout
}

// Machine is one independent runtime instance.
type Machine struct {
	Mem      *tape.Memory
	Ptr      uint32
	RefStack [RefStackSize]uint32
	RefTop   uint32

	PC    int
	Steps uint64

	Halted  bool
	Waiting bool // blocked on ',' or '#' with an empty input queue

	// Checked turns unchecked preconditions into Faults: tape bounds,
	// null dereference and invalid free.
	Checked bool

	Input  io.Reader
	Output io.Writer

	prog  *lang.Program
	in    *bufio.Reader
	inSrc io.Reader
	queue []byte
}

// NewMachine returns a machine with zeroed memory and no program.
func NewMachine(opts Options) *Machine {
	return &Machine{
		Mem:     tape.NewMemory(opts.Capacity),
		Checked: opts.Checked,
		Input:   opts.Input,
		Output:  opts.Output,
		Halted:  true,
	}
}

// Load installs p and rewinds the program counter. Memory, the data
// pointer and the reference stack are kept, so successive programs can
// share one tape.
func (m *Machine) Load(p *lang.Program) {
	m.prog = p
	m.PC = 0
	m.Halted = false
	m.Waiting = false
}

// Program returns the loaded program, or nil.
func (m *Machine) Program() *lang.Program {
	return m.prog
}

// Reset clears memory, pointer, reference stack and counters, and rewinds
// the loaded program.
func (m *Machine) Reset() {
	m.Mem.Reset()
	m.Ptr = 0
	m.RefStack = [RefStackSize]uint32{}
	m.RefTop = 0
	m.Steps = 0
	m.queue = nil
	if m.prog != nil {
		m.Load(m.prog)
	}
}

// PushInput queues bytes for ',' and '#' when no Input reader is set.
func (m *Machine) PushInput(b ...byte) {
	m.queue = append(m.queue, b...)
	m.Waiting = false
}

// PendingInput returns the number of queued, unread input bytes.
func (m *Machine) PendingInput() int {
	return len(m.queue)
}

func (m *Machine) outputSink() io.Writer {
	if m.Output != nil {
		return m.Output
	}
	return os.Stdout
}

func (m *Machine) reader() *bufio.Reader {
	if m.in == nil || m.inSrc != m.Input {
		m.in = bufio.NewReader(m.Input)
		m.inSrc = m.Input
	}
	return m.in
}

// cell returns a pointer to the cell under the data pointer. In fast mode
// an out-of-range pointer panics and is trapped by Step.
func (m *Machine) cell() (*uint32, error) {
	if m.Checked && int(m.Ptr) >= len(m.Mem.Cells) {
		return nil, fmt.Errorf("%w: %d", tape.ErrPointerOutOfRange, m.Ptr)
	}
	return &m.Mem.Cells[m.Ptr], nil
}

// Step executes one op.
func (m *Machine) Step() (err error) {
	if m.Halted {
		return nil
	}
	if m.prog == nil {
		m.Halted = true
		return ErrNoProgram
	}
	if m.PC >= len(m.prog.Ops) {
		m.Halted = true
		return nil
	}

	pc := m.PC
	op := m.prog.Ops[pc]
	defer func() {
		if r := recover(); r != nil {
			re, ok := r.(runtime.Error)
			if !ok {
				panic(r)
			}
			m.Halted = true
			err = &Fault{PC: pc, Op: op, Err: fmt.Errorf("%w: %v", tape.ErrPointerOutOfRange, re)}
		}
	}()

	if err := m.exec(op); err != nil {
		m.Halted = true
		var p *Panic
		if errors.As(err, &p) {
			return p
		}
		return &Fault{PC: pc, Op: op, Err: err}
	}
	if m.Waiting {
		return nil
	}
	m.PC++
	m.Steps++
	return nil
}

func (m *Machine) exec(op lang.Op) error {
	switch op {
	case lang.OpLeft:
		m.Ptr--
		return nil
	case lang.OpRight:
		m.Ptr++
		return nil
	case lang.OpRefer:
		if m.RefTop == 0 {
			return ErrRefStackUnderflow
		}
		m.RefTop--
		m.Ptr = m.RefStack[m.RefTop]
		return nil
	}

	c, err := m.cell()
	if err != nil {
		return err
	}

	switch op {
	case lang.OpInc:
		*c++
	case lang.OpDec:
		*c--
	case lang.OpLoop:
		if *c == 0 {
			m.PC = m.prog.Jump[m.PC]
		}
	case lang.OpEnd:
		if *c != 0 {
			m.PC = m.prog.Jump[m.PC]
		}
	case lang.OpGet:
		return m.getByte(c)
	case lang.OpPut:
		_, err := m.outputSink().Write([]byte{byte(*c)})
		return err
	case lang.OpGetNum:
		return m.getNum(c)
	case lang.OpPutNum:
		_, err := fmt.Fprintf(m.outputSink(), "%d", int32(*c))
		return err
	case lang.OpDeref:
		if m.RefTop >= RefStackSize {
			return ErrRefStackOverflow
		}
		if m.Checked && *c == 0 {
			return ErrNullDereference
		}
		m.RefStack[m.RefTop] = m.Ptr
		m.RefTop++
		m.Ptr = *c
	case lang.OpAlloc:
		base, err := m.Mem.Allocate(*c)
		if err != nil {
			return &Panic{Status: PanicStatus, Msg: err.Error(), Err: err}
		}
		*c = base
	case lang.OpFree:
		if m.Checked {
			return m.Mem.FreeChecked(*c)
		}
		m.Mem.Free(*c)
	}
	return nil
}

func (m *Machine) getByte(c *uint32) error {
	if m.Input == nil {
		if len(m.queue) == 0 {
			m.Waiting = true
			return nil
		}
		*c = uint32(m.queue[0])
		m.queue = m.queue[1:]
		return nil
	}
	b, err := m.reader().ReadByte()
	if err == io.EOF {
		*c = eofCell
		return nil
	}
	if err != nil {
		return err
	}
	*c = uint32(b)
	return nil
}

// getNum behaves like scanf("%d"): the cell keeps its value when no
// integer can be read.
func (m *Machine) getNum(c *uint32) error {
	var r io.ByteScanner
	if m.Input == nil {
		i := bytes.IndexByte(m.queue, '\n')
		if i < 0 {
			m.Waiting = true
			return nil
		}
		r = bytes.NewReader(m.queue[:i])
		m.queue = m.queue[i+1:]
	} else {
		r = m.reader()
	}
	if v, ok := scanDecimal(r); ok {
		*c = v
	}
	return nil
}

// Run executes until the program ends or an error occurs. With an input
// queue, running out of input returns ErrWaitingForInput.
func (m *Machine) Run() error {
	for !m.Halted {
		if err := m.Step(); err != nil {
			return err
		}
		if m.Waiting {
			return ErrWaitingForInput
		}
	}
	return nil
}

// RunUntilDone is like Run but returns nil when the machine blocks on
// input, so a front-end can push more input and resume.
func (m *Machine) RunUntilDone() error {
	for !m.Halted && !m.Waiting {
		if err := m.Step(); err != nil {
			return err
		}
	}
	return nil
}

// RunSteps executes at most n ops and reports whether the machine can
// continue.
func (m *Machine) RunSteps(n int) (bool, error) {
	for i := 0; i < n; i++ {
		if m.Halted || m.Waiting {
			break
		}
		if err := m.Step(); err != nil {
			return false, err
		}
	}
	return !m.Halted, nil
}

// RunSource parses src and runs it on a fresh machine.
func RunSource(src string, opts Options) (*Machine, error) {
	p, err := lang.Parse([]byte(src))
	if err != nil {
		return nil, err
	}
	m := NewMachine(opts)
	m.Load(p)
	return m, m.Run()
}
