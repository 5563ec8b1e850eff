package lang

import (
	"errors"
	"fmt"
)

// ErrUnbalancedLoop reports a ']' with no open loop, or loops still open at
// end of input.
var ErrUnbalancedLoop = errors.New("unbalanced loop")

// PosError attaches a 1-based source position to an error.
type PosError struct {
	Line   int
	Column int
	Err    error
	Detail string
}

func (e *PosError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("%v on line %d, column %d", e.Err, e.Line, e.Column)
	}
	return fmt.Sprintf("%v: %s on line %d, column %d", e.Err, e.Detail, e.Line, e.Column)
}

func (e *PosError) Unwrap() error { return e.Err }

// Position tracks line and column while bytes are consumed one at a time.
// The zero value is ready to use.
type Position struct {
	Line   int
	Column int

	afterNewline bool
}

// Advance moves onto b, so that Line and Column describe b itself.
func (p *Position) Advance(b byte) {
	if p.Line == 0 {
		p.Line = 1
	}
	if p.afterNewline {
		p.Line++
		p.Column = 0
	}
	p.Column++
	p.afterNewline = b == '\n'
}
