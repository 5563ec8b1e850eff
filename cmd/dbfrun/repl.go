package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"

	"github.com/peterh/liner"

	"dynbf/pkg/lang"
	"dynbf/pkg/vm"
)

const (
	historyFile = ".dbfrun_history"
	promptMain  = "dbf> "
	promptCont  = "...> "
	promptInput = "input> "

	defaultDumpCells = 16
)

const replHelp = `commands:
  :dump [n]    print the first n cells (default 16) and the unfreed count
  :blocks      list allocated blocks
  :reset       clear the tape, pointer and reference stack
  :save <path> write a snapshot
  :load <path> restore a snapshot
  :quit        leave
anything else runs as code on the current tape`

// prompter is the subset of *liner.State the session needs.
type prompter interface {
	Prompt(prompt string) (string, error)
}

// session is one REPL on a persistent machine.
type session struct {
	m   *vm.Machine
	p   prompter
	out *bufio.Writer
}

func newSession(opts vm.Options, p prompter, out io.Writer) *session {
	s := &session{p: p, out: bufio.NewWriter(out)}
	opts.Output = s.out
	opts.Input = &flushingReader{r: &promptReader{p: p}, w: s.out}
	s.m = vm.NewMachine(opts)
	return s
}

func runREPL(opts vm.Options, restorePath string) error {
	home, _ := os.UserHomeDir()
	histPath := filepath.Join(home, historyFile)

	ln := liner.NewLiner()
	defer ln.Close()
	ln.SetCtrlCAborts(true)

	if f, err := os.Open(histPath); err == nil {
		_, _ = ln.ReadHistory(f)
		_ = f.Close()
	}
	defer func() {
		if f, err := os.Create(histPath); err == nil {
			_, _ = ln.WriteHistory(f)
			_ = f.Close()
		}
	}()

	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGTERM, syscall.SIGHUP)
	defer signal.Stop(sigc)
	go func() {
		<-sigc
		ln.Close()
		os.Exit(130)
	}()

	s := newSession(opts, ln, os.Stdout)
	if restorePath != "" {
		if err := s.m.RestoreFromFile(restorePath); err != nil {
			return err
		}
	}

	fmt.Println("Dynamic Brainfuck REPL. Type :help for commands.")
	for {
		code, ok := readChunk(ln, promptMain, promptCont)
		if !ok {
			fmt.Println()
			return nil
		}
		if strings.TrimSpace(code) == "" {
			continue
		}
		ln.AppendHistory(strings.ReplaceAll(code, "\n", " "))
		if s.handle(code) {
			return nil
		}
	}
}

// readChunk reads lines until no loop is left open.
func readChunk(p prompter, prompt, cont string) (string, bool) {
	var b strings.Builder
	for {
		pr := prompt
		if b.Len() > 0 {
			pr = cont
		}
		line, err := p.Prompt(pr)
		if errors.Is(err, liner.ErrPromptAborted) {
			return "", true
		}
		if err != nil {
			return "", false
		}
		if b.Len() > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(line)

		src := b.String()
		if strings.HasPrefix(strings.TrimSpace(src), ":") || lang.OpenLoops([]byte(src)) <= 0 {
			return src, true
		}
	}
}

// handle runs one command or code chunk and reports whether to quit.
func (s *session) handle(input string) (quit bool) {
	defer s.out.Flush()

	trimmed := strings.TrimSpace(input)
	if !strings.HasPrefix(trimmed, ":") {
		s.eval(input)
		return false
	}

	fields := strings.Fields(trimmed)
	cmd := strings.ToLower(fields[0])
	switch cmd {
	case ":quit", ":q":
		return true
	case ":help":
		fmt.Fprintln(s.out, replHelp)
	case ":dump":
		n := defaultDumpCells
		if len(fields) > 1 {
			v, err := strconv.Atoi(fields[1])
			if err != nil || v < 0 {
				fmt.Fprintf(s.out, "bad cell count %q\n", fields[1])
				return false
			}
			n = v
		}
		s.m.Mem.Dump(s.out, n)
	case ":blocks":
		blocks := s.m.Mem.Blocks()
		if len(blocks) == 0 {
			fmt.Fprintln(s.out, "no blocks")
		}
		for _, b := range blocks {
			fmt.Fprintf(s.out, "%d..%d (%d cells)\n", b.Base, b.Base+b.Size-1, b.Size)
		}
	case ":reset":
		s.m.Reset()
		fmt.Fprintln(s.out, "tape cleared")
	case ":save", ":load":
		if len(fields) != 2 {
			fmt.Fprintf(s.out, "usage: %s <path>\n", fields[0])
			return false
		}
		var err error
		if cmd == ":save" {
			err = s.m.SnapshotToFile(fields[1])
		} else {
			err = s.m.RestoreFromFile(fields[1])
		}
		if err != nil {
			fmt.Fprintf(s.out, "error: %v\n", err)
			return false
		}
		fmt.Fprintf(s.out, "ok %s\n", fields[1])
	default:
		fmt.Fprintf(s.out, "unknown command %s. Type :help for commands.\n", fields[0])
	}
	return false
}

// eval runs code on the current tape. Memory, pointer and reference stack
// carry over between chunks.
func (s *session) eval(code string) {
	prog, err := lang.Parse([]byte(code))
	if err != nil {
		fmt.Fprintf(s.out, "error: %v\n", err)
		return
	}
	s.m.Load(prog)
	if err := s.m.Run(); err != nil {
		fmt.Fprintf(s.out, "\nerror: %v\n", err)
		var p *vm.Panic
		if errors.As(err, &p) {
			// The emitted program would have exited here; start over.
			s.m.Reset()
			fmt.Fprintln(s.out, "tape cleared")
		}
		return
	}
	fmt.Fprintln(s.out)
	s.status()
}

func (s *session) status() {
	cell := "?"
	if v, err := s.m.Mem.Cell(s.m.Ptr); err == nil {
		cell = strconv.FormatUint(uint64(v), 10)
	}
	fmt.Fprintf(s.out, "ptr=%d cell=%s refs=%d unfreed=%d\n", s.m.Ptr, cell, s.m.RefTop, s.m.Mem.Unfreed())
}

// promptReader feeds ',' and '#' from prompted lines.
type promptReader struct {
	p   prompter
	buf []byte
}

func (r *promptReader) Read(b []byte) (int, error) {
	if len(r.buf) == 0 {
		line, err := r.p.Prompt(promptInput)
		if err != nil {
			return 0, io.EOF
		}
		r.buf = []byte(line + "\n")
	}
	n := copy(b, r.buf)
	r.buf = r.buf[n:]
	return n, nil
}
