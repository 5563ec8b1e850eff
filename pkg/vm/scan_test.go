package vm

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"dynbf/pkg/lang"
)

func TestScanDecimal(t *testing.T) {
	tests := []struct {
		in   string
		want uint32
		ok   bool
		rest string
	}{
		{"42", 42, true, ""},
		{"  \n\t-7 x", 0xFFFFFFF9, true, " x"},
		{"+5", 5, true, ""},
		{"017", 17, true, ""},
		{"0x10", 0, true, "x10"},
		{"1_000", 1, true, "_000"},
		{"0b11", 0, true, "b11"},
		{"4294967297", 1, true, ""},
		{"abc", 0, false, "abc"},
		{"-", 0, false, ""},
		{"", 0, false, ""},
	}
	for _, tt := range tests {
		r := strings.NewReader(tt.in)
		v, ok := scanDecimal(r)
		assert.Equal(t, tt.ok, ok, "scanDecimal(%q) ok", tt.in)
		if tt.ok {
			assert.Equal(t, tt.want, v, "scanDecimal(%q)", tt.in)
		}
		rest := make([]byte, r.Len())
		r.Read(rest)
		assert.Equal(t, tt.rest, string(rest), "unread input after %q", tt.in)
	}
}

func TestGetNum_DecimalOnly(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"017", "17"},
		{"0x10", "0x"},
		{"1_000", "1_"},
	}
	for _, tt := range tests {
		_, out, err := run(t, "#$,.", tt.input, Options{})
		assert.NoError(t, err)
		assert.Equal(t, tt.want, out, "input %q", tt.input)
	}

	m := NewMachine(Options{Output: &strings.Builder{}})
	m.Load(lang.MustParse("#"))
	m.PushInput([]byte("010\n")...)
	assert.NoError(t, m.Run())
	assert.Equal(t, uint32(10), m.Mem.Cells[0])
}
