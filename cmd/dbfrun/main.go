// Command dbfrun interprets Dynamic Brainfuck programs directly, without
// going through a host compiler.
package main

import (
	"bufio"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"

	"golang.org/x/term"

	"dynbf/pkg/lang"
	"dynbf/pkg/utils"
	"dynbf/pkg/vm"
)

func main() {
	raw := flag.Bool("raw", false, "read ',' input unbuffered from the terminal (Ctrl-D is EOF)")
	repl := flag.Bool("repl", false, "start an interactive session on a persistent tape")
	checked := flag.Bool("checked", false, "fault on bad pointers, null dereference and invalid free")
	capacity := flag.Int("capacity", 0, "tape capacity in cells (default 30000)")
	dump := flag.Int("dump", 0, "print the first N cells and the unfreed count at exit")
	restore := flag.String("restore", "", "resume from a snapshot instead of loading a program")
	snapshot := flag.String("snapshot", "", "write a snapshot here when the program stops")
	flag.Parse()

	opts := vm.Options{Capacity: *capacity, Checked: *checked}

	if *repl {
		if err := runREPL(opts, *restore); err != nil {
			log.Fatalf("repl: %v", err)
		}
		return
	}

	m := vm.NewMachine(opts)
	switch {
	case *restore != "":
		if err := m.RestoreFromFile(*restore); err != nil {
			log.Fatalf("Failed to restore snapshot: %v", err)
		}
		if m.Halted && m.Program() != nil && m.PC < m.Program().Len() {
			m.Halted = false
		}
	case flag.NArg() == 1:
		fullPath, _, err := utils.GetPathInfo(flag.Arg(0))
		if err != nil {
			log.Fatalf("Bad path: %v", err)
		}
		src, err := os.ReadFile(fullPath)
		if err != nil {
			log.Fatalf("Failed to read source file: %v", err)
		}
		prog, err := lang.Parse(src)
		if err != nil {
			log.Fatalf("%s: %v", flag.Arg(0), err)
		}
		m.Load(prog)
	default:
		fmt.Fprintln(os.Stderr, "usage: dbfrun [flags] program.dbf")
		flag.Usage()
		os.Exit(2)
	}

	os.Exit(execute(m, *raw, *dump, *snapshot))
}

// execute runs m against the process stdio and returns the exit status.
func execute(m *vm.Machine, raw bool, dump int, snapshotPath string) int {
	fd := int(os.Stdin.Fd())
	var out *bufio.Writer
	if raw && term.IsTerminal(fd) {
		oldState, err := term.MakeRaw(fd)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to set raw mode: %v\n", err)
			return 1
		}
		defer term.Restore(fd, oldState)
		out = bufio.NewWriter(crlfWriter{os.Stdout})
		m.Input = &rawReader{r: os.Stdin}
	} else {
		out = bufio.NewWriter(os.Stdout)
		m.Input = os.Stdin
	}
	m.Input = &flushingReader{r: m.Input, w: out}
	m.Output = out

	runErr := m.Run()
	if errors.Is(runErr, errInterrupted) {
		out.Flush()
		fmt.Fprint(os.Stderr, "\r\ninterrupted\r\n")
		return 130
	}
	if dump > 0 && runErr == nil {
		runErr = m.Mem.Dump(out, dump)
	}
	if err := out.Flush(); err != nil && runErr == nil {
		runErr = err
	}

	if snapshotPath != "" {
		if err := m.SnapshotToFile(snapshotPath); err != nil {
			fmt.Fprintf(os.Stderr, "snapshot failed: %v\n", err)
			return 1
		}
	}
	if runErr != nil {
		fmt.Fprintln(os.Stderr, runErr)
	}
	return vm.ExitStatus(runErr)
}
