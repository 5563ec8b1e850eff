package main

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"

	"dynbf/pkg/lang"
)

func TestListing(t *testing.T) {
	var out bytes.Buffer
	listing(&out, lang.MustParse("+[-?]"))

	want := "" +
		"    0  INC   \n" +
		"    1  LOOP   -> 4\n" +
		"    2    DEC   \n" +
		"    3    ALLOC \n" +
		"    4  END    -> 1\n"
	assert.Equal(t, want, out.String())
}

func TestSampleParses(t *testing.T) {
	p, err := lang.Parse([]byte(testSource))
	assert.NoError(t, err)
	assert.Equal(t, "+++?*++++++++[>++++++++<-]>+.<&!", p.Source())
}
