package vm

import (
	"errors"
	"fmt"

	"dynbf/pkg/lang"
)

// PanicStatus is the exit status of a program that aborts, matching
// exit(-1) in the emitted C runtime.
const PanicStatus = 255

var (
	ErrRefStackOverflow  = errors.New("reference stack overflow")
	ErrRefStackUnderflow = errors.New("reference stack underflow")
	ErrNullDereference   = errors.New("null dereference")
	ErrWaitingForInput   = errors.New("waiting for input")
	ErrNoProgram         = errors.New("no program loaded")
	ErrInvalidSnapshot   = errors.New("invalid snapshot")
)

// Panic is the runtime's single fatal path. It mirrors panic() in the
// emitted code: print "panic: <msg>" and exit with Status.
type Panic struct {
	Status int
	Msg    string
	Err    error
}

func (p *Panic) Error() string { return "panic: " + p.Msg }

func (p *Panic) Unwrap() error { return p.Err }

// Fault reports a precondition violation caught by checked mode, or an
// out-of-range access trapped in fast mode.
type Fault struct {
	PC  int
	Op  lang.Op
	Err error
}

func (f *Fault) Error() string {
	return fmt.Sprintf("%s at op %d: %v", f.Op, f.PC, f.Err)
}

func (f *Fault) Unwrap() error { return f.Err }

// ExitStatus maps a Run error to a process exit status: 0 for nil, the
// panic status for *Panic, and 1 otherwise.
func ExitStatus(err error) int {
	if err == nil {
		return 0
	}
	var p *Panic
	if errors.As(err, &p) {
		return p.Status
	}
	return 1
}
