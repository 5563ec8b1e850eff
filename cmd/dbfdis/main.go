// Command dbfdis prints the decoded op listing of a Dynamic Brainfuck
// program, with loop partners resolved.
package main

import (
	"fmt"
	"io"
	"os"

	"dynbf/pkg/lang"
)

const testSource = `+++? allocate three cells
*++++++++[>++++++++<-]>+.< write 'A' through the block
&! release it`

func main() {
	src := []byte(testSource)
	if len(os.Args) > 1 {
		data, err := os.ReadFile(os.Args[1])
		if err != nil {
			fmt.Fprintln(os.Stderr, "read error:", err)
			os.Exit(1)
		}
		src = data
	}

	prog, err := lang.Parse(src)
	if err != nil {
		fmt.Fprintln(os.Stderr, "parse error:", err)
		os.Exit(1)
	}

	fmt.Printf("Source:\n%s\n\n", prog.Source())
	fmt.Printf("Ops (%d)\n", prog.Len())
	listing(os.Stdout, prog)
}

// listing writes one line per op. Loop ops show the index of their partner.
func listing(w io.Writer, p *lang.Program) {
	depth := 0
	for i, op := range p.Ops {
		if op == lang.OpEnd {
			depth--
		}
		fmt.Fprintf(w, "%5d  %*s%-6s", i, depth*2, "", op)
		if op == lang.OpLoop || op == lang.OpEnd {
			fmt.Fprintf(w, " -> %d", p.Jump[i])
		}
		fmt.Fprintln(w)
		if op == lang.OpLoop {
			depth++
		}
	}
}
