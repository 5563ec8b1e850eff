package vm

import (
	"io"
	"testing"

	"dynbf/pkg/lang"
)

func BenchmarkMachine_HelloWorld(b *testing.B) {
	p := lang.MustParse(helloWorld)
	for i := 0; i < b.N; i++ {
		m := NewMachine(Options{Output: io.Discard})
		m.Load(p)
		if err := m.Run(); err != nil {
			b.Fatal(err)
		}
	}
}

// BenchmarkMachine_AllocFree allocates and frees one block from each of
// three cells, so every run scans the full tape top.
func BenchmarkMachine_AllocFree(b *testing.B) {
	p := lang.MustParse("++++?>++++?!<!>>++++?!")
	m := NewMachine(Options{Output: io.Discard})
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		m.Mem.Reset()
		m.Ptr = 0
		m.Load(p)
		if err := m.Run(); err != nil {
			b.Fatal(err)
		}
	}
}
