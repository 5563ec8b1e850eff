//go:build !js

package main

import (
	"bufio"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"dynbf/pkg/lang"
	"dynbf/pkg/translator"
	"dynbf/pkg/utils"
	"dynbf/pkg/vm"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

type config struct {
	inPath       string
	outPath      string
	target       string
	strict       bool
	dump         int
	runProgram   bool
	checked      bool
	capacity     int
	snapshotPath string
}

func parseFlags(args []string, stderr io.Writer) (*config, error) {
	fs := flag.NewFlagSet("dynbf", flag.ContinueOnError)
	fs.SetOutput(stderr)

	cfg := &config{}
	fs.StringVar(&cfg.inPath, "in", "", "input program path (default: stdin)")
	fs.StringVar(&cfg.outPath, "out", "", "output path (default: stdout, \"auto\": input with target extension)")
	fs.StringVar(&cfg.target, "target", "c", "output language: c or go")
	fs.BoolVar(&cfg.strict, "strict", false, "reject unbalanced brackets")
	fs.IntVar(&cfg.dump, "dump", 0, "print the first N cells and the unfreed count at exit")
	fs.BoolVar(&cfg.runProgram, "run", false, "interpret the program instead of translating it")
	fs.BoolVar(&cfg.checked, "checked", false, "with -run, fault on bad pointers, null dereference and invalid free")
	fs.IntVar(&cfg.capacity, "capacity", 0, "with -run, tape capacity in cells (default 30000)")
	fs.StringVar(&cfg.snapshotPath, "snapshot", "", "with -run, write a machine snapshot to this path when the program stops")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if fs.NArg() > 0 {
		return nil, fmt.Errorf("unexpected arguments: %v", fs.Args())
	}
	if cfg.dump < 0 {
		return nil, fmt.Errorf("-dump must not be negative")
	}
	if !cfg.runProgram && (cfg.checked || cfg.snapshotPath != "") {
		return nil, fmt.Errorf("-checked and -snapshot require -run")
	}
	return cfg, nil
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	cfg, err := parseFlags(args, stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		fmt.Fprintln(stderr, err)
		return 2
	}

	var in io.Reader = stdin
	if cfg.inPath != "" && cfg.inPath != "-" {
		f, err := os.Open(cfg.inPath)
		if err != nil {
			fmt.Fprintf(stderr, "failed to read input file %q: %v\n", cfg.inPath, err)
			return 1
		}
		defer f.Close()
		in = f
	}

	if cfg.runProgram {
		return interpret(cfg, in, stdin, stdout, stderr)
	}

	target, err := translator.ParseTarget(cfg.target)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 2
	}
	return translate(cfg, target, in, stdout, stderr)
}

func translate(cfg *config, target *translator.Target, in io.Reader, stdout, stderr io.Writer) int {
	output := cfg.outPath
	if output == "auto" {
		if cfg.inPath == "" || cfg.inPath == "-" {
			fmt.Fprintln(stderr, "-out auto requires -in <file>")
			return 2
		}
		output = utils.DefaultOutputPath(cfg.inPath, target.Ext)
	}

	opts := translator.Options{Target: target, Strict: cfg.strict, DumpCells: cfg.dump}

	if output == "" || output == "-" {
		if err := translator.Translate(in, stdout, opts); err != nil {
			fmt.Fprintf(stderr, "translation failed: %v\n", err)
			return 1
		}
		return 0
	}

	f, err := os.Create(output)
	if err != nil {
		fmt.Fprintf(stderr, "failed to create output file %q: %v\n", output, err)
		return 1
	}
	err = translator.Translate(in, f, opts)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(output)
		fmt.Fprintf(stderr, "translation failed: %v\n", err)
		return 1
	}
	fmt.Fprintf(stderr, "translated %s -> %s (%s)\n", cfg.inPath, output, target)
	return 0
}

func interpret(cfg *config, src, stdin io.Reader, stdout, stderr io.Writer) int {
	data, err := io.ReadAll(src)
	if err != nil {
		fmt.Fprintf(stderr, "failed to read program: %v\n", err)
		return 1
	}
	prog, err := lang.Parse(data)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}

	// The program text already consumed stdin; ',' then sees EOF.
	input := stdin
	if cfg.inPath == "" || cfg.inPath == "-" {
		input = eofReader{}
	}

	out := bufio.NewWriter(stdout)
	m := vm.NewMachine(vm.Options{
		Capacity: cfg.capacity,
		Checked:  cfg.checked,
		Input:    &flushingReader{r: input, w: out},
		Output:   out,
	})
	m.Load(prog)
	runErr := m.Run()

	if cfg.dump > 0 && runErr == nil {
		runErr = m.Mem.Dump(out, cfg.dump)
	}
	if err := out.Flush(); err != nil && runErr == nil {
		runErr = err
	}

	if cfg.snapshotPath != "" {
		if err := m.SnapshotToFile(cfg.snapshotPath); err != nil {
			fmt.Fprintf(stderr, "snapshot failed: %v\n", err)
			return 1
		}
	}

	if runErr != nil {
		fmt.Fprintln(stderr, runErr)
	}
	return vm.ExitStatus(runErr)
}

// flushingReader flushes pending program output before blocking on input.
type flushingReader struct {
	r io.Reader
	w *bufio.Writer
}

func (f *flushingReader) Read(p []byte) (int, error) {
	if err := f.w.Flush(); err != nil {
		return 0, err
	}
	return f.r.Read(p)
}

type eofReader struct{}

func (eofReader) Read([]byte) (int, error) { return 0, io.EOF }
