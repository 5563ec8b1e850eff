package lang

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecode(t *testing.T) {
	tests := []struct {
		ch   byte
		want Op
	}{
		{'+', OpInc},
		{'-', OpDec},
		{'<', OpLeft},
		{'>', OpRight},
		{'[', OpLoop},
		{']', OpEnd},
		{',', OpGet},
		{'.', OpPut},
		{'#', OpGetNum},
		{'$', OpPutNum},
		{'*', OpDeref},
		{'&', OpRefer},
		{'?', OpAlloc},
		{'!', OpFree},
		{' ', OpNone},
		{'a', OpNone},
		{'\n', OpNone},
		{0, OpNone},
		{0xFF, OpNone},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Decode(tt.ch), "Decode(%q)", tt.ch)
	}
}

func TestOpCharRoundTrip(t *testing.T) {
	ops := Ops()
	require.Len(t, ops, 14)
	for _, op := range ops {
		assert.Equal(t, op, Decode(op.Char()), "op %s", op)
	}
	assert.Equal(t, byte(0), OpNone.Char())
}

func TestOpString(t *testing.T) {
	assert.Equal(t, "ALLOC", OpAlloc.String())
	assert.Equal(t, "DEREF", OpDeref.String())
	assert.Equal(t, "Op(99)", Op(99).String())
}

func TestPosition(t *testing.T) {
	var pos Position
	var got []Position
	for _, b := range []byte("ab\ncd") {
		pos.Advance(b)
		got = append(got, Position{Line: pos.Line, Column: pos.Column})
	}
	want := []Position{
		{Line: 1, Column: 1},
		{Line: 1, Column: 2},
		{Line: 1, Column: 3},
		{Line: 2, Column: 1},
		{Line: 2, Column: 2},
	}
	assert.Equal(t, want, got)
}
