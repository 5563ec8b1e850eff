package lang

import "strings"

// Program is a decoded, bracket-matched op sequence.
type Program struct {
	Ops []Op
	// Jump holds, for every OpLoop and OpEnd, the index of its partner.
	// Other entries are zero.
	Jump []int
}

type openLoop struct {
	index int
	pos   Position
}

// Parse decodes src, dropping unrecognized bytes, and matches brackets.
// Unbalanced brackets yield a *PosError wrapping ErrUnbalancedLoop.
func Parse(src []byte) (*Program, error) {
	p := &Program{
		Ops: make([]Op, 0, len(src)),
	}
	var (
		pos   Position
		stack []openLoop
	)
	for _, b := range src {
		pos.Advance(b)
		op := Decode(b)
		switch op {
		case OpNone:
			continue
		case OpLoop:
			stack = append(stack, openLoop{index: len(p.Ops), pos: pos})
		case OpEnd:
			if len(stack) == 0 {
				return nil, &PosError{Line: pos.Line, Column: pos.Column, Err: ErrUnbalancedLoop, Detail: "unmatched ']'"}
			}
			stack = stack[:len(stack)-1]
		}
		p.Ops = append(p.Ops, op)
	}
	if len(stack) > 0 {
		open := stack[0]
		return nil, &PosError{Line: open.pos.Line, Column: open.pos.Column, Err: ErrUnbalancedLoop, Detail: "unclosed '['"}
	}

	p.Jump = make([]int, len(p.Ops))
	var opens []int
	for i, op := range p.Ops {
		switch op {
		case OpLoop:
			opens = append(opens, i)
		case OpEnd:
			start := opens[len(opens)-1]
			opens = opens[:len(opens)-1]
			p.Jump[start] = i
			p.Jump[i] = start
		}
	}
	return p, nil
}

// MustParse is like Parse but panics on error. Intended for tests and
// fixed program text.
func MustParse(src string) *Program {
	p, err := Parse([]byte(src))
	if err != nil {
		panic(err)
	}
	return p
}

// Len returns the number of ops.
func (p *Program) Len() int {
	return len(p.Ops)
}

// Source returns the canonical text of the program: recognized commands
// only, in order.
func (p *Program) Source() string {
	var sb strings.Builder
	sb.Grow(len(p.Ops))
	for _, op := range p.Ops {
		sb.WriteByte(op.Char())
	}
	return sb.String()
}

// OpenLoops returns how many '[' in src are still unclosed, or -1 when a
// ']' appears with no open loop. Front-ends use it to decide whether more
// input is needed before Parse can succeed.
func OpenLoops(src []byte) int {
	depth := 0
	for _, b := range src {
		switch Decode(b) {
		case OpLoop:
			depth++
		case OpEnd:
			if depth == 0 {
				return -1
			}
			depth--
		}
	}
	return depth
}
