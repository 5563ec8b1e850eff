package lang

import "fmt"

// Op identifies one source command.
type Op byte

const (
	OpNone Op = iota // unrecognized byte, ignored

	OpInc   // +
	OpDec   // -
	OpLeft  // <
	OpRight // >
	OpLoop  // [
	OpEnd   // ]

	OpGet    // ,
	OpPut    // .
	OpGetNum // #
	OpPutNum // $

	OpDeref // *
	OpRefer // &

	OpAlloc // ?
	OpFree  // !
)

// decodeTable maps every byte value to its Op; zero value is OpNone.
var decodeTable = [256]Op{
	'+': OpInc,
	'-': OpDec,
	'<': OpLeft,
	'>': OpRight,
	'[': OpLoop,
	']': OpEnd,
	',': OpGet,
	'.': OpPut,
	'#': OpGetNum,
	'$': OpPutNum,
	'*': OpDeref,
	'&': OpRefer,
	'?': OpAlloc,
	'!': OpFree,
}

var opChars = [...]byte{
	OpNone:   0,
	OpInc:    '+',
	OpDec:    '-',
	OpLeft:   '<',
	OpRight:  '>',
	OpLoop:   '[',
	OpEnd:    ']',
	OpGet:    ',',
	OpPut:    '.',
	OpGetNum: '#',
	OpPutNum: '$',
	OpDeref:  '*',
	OpRefer:  '&',
	OpAlloc:  '?',
	OpFree:   '!',
}

var opNames = [...]string{
	OpNone:   "NONE",
	OpInc:    "INC",
	OpDec:    "DEC",
	OpLeft:   "LEFT",
	OpRight:  "RIGHT",
	OpLoop:   "LOOP",
	OpEnd:    "END",
	OpGet:    "GET",
	OpPut:    "PUT",
	OpGetNum: "GETNUM",
	OpPutNum: "PUTNUM",
	OpDeref:  "DEREF",
	OpRefer:  "REFER",
	OpAlloc:  "ALLOC",
	OpFree:   "FREE",
}

// Decode maps a source byte to its Op. Bytes outside the language decode
// to OpNone.
func Decode(b byte) Op {
	return decodeTable[b]
}

// Char returns the source byte for op, or 0 for OpNone.
func (op Op) Char() byte {
	if int(op) < len(opChars) {
		return opChars[op]
	}
	return 0
}

func (op Op) String() string {
	if int(op) < len(opNames) {
		return opNames[op]
	}
	return fmt.Sprintf("Op(%d)", int(op))
}

// Ops lists every recognized operation in declaration order.
func Ops() []Op {
	ops := make([]Op, 0, len(opNames)-1)
	for op := OpInc; int(op) < len(opNames); op++ {
		ops = append(ops, op)
	}
	return ops
}
