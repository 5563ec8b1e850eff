package main

import (
	"bytes"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dynbf/pkg/translator"
	"dynbf/pkg/vm"
)

type e2eCase struct {
	name     string
	src      string
	input    string
	dump     int
	want     string // expected stdout; empty with wantCode != 0 means don't care
	wantCode int
}

var e2eCases = []e2eCase{
	{
		name: "hello world",
		src:  "++++++++[>++++[>++>+++>+++>+<<<<-]>+>+>->>+[<]<-]>>.>---.+++++++..+++.>>.<-.<.+++.------.--------.>>+.>++.",
		want: "Hello World!\n",
	},
	{
		name: "write through allocated block",
		src:  "+++?*++++++++[>++++++++<-]>+.<&!$",
		want: "A29997",
	},
	{
		name:  "echo until EOF",
		src:   ",+[-.,+]",
		input: "hey",
		want:  "hey",
	},
	{
		name:  "formatted numbers",
		src:   "#$>#$",
		input: "-42 7",
		want:  "-427",
	},
	{
		name:  "leading zero is decimal",
		src:   "#$",
		input: "017",
		want:  "17",
	},
	{
		name:  "number stops at base prefix",
		src:   "#$,.",
		input: "0x10",
		want:  "0x",
	},
	{
		name:  "number stops at underscore",
		src:   "#$,.",
		input: "1_000",
		want:  "1_",
	},
	{
		name: "zero-size allocation",
		src:  "?$",
		want: "29999",
	},
	{
		name: "dump after reuse",
		src:  "+++?!>++?",
		dump: 3,
		want: "29997 29998 0 \n2 unfreed\n",
	},
	{
		name:     "exhaustion",
		src:      "-?",
		wantCode: vm.PanicStatus,
	},
}

// interpret runs c on the reference interpreter.
func interpret(t *testing.T, c e2eCase) (string, int) {
	t.Helper()
	var out bytes.Buffer
	m, err := vm.RunSource(c.src, vm.Options{Input: strings.NewReader(c.input), Output: &out})
	if err == nil && c.dump > 0 {
		require.NoError(t, m.Mem.Dump(&out, c.dump))
	}
	return out.String(), vm.ExitStatus(err)
}

// runBinary runs cmd with input on stdin and returns stdout and the exit status.
func runBinary(t *testing.T, cmd *exec.Cmd, input string) (string, int) {
	t.Helper()
	var out, errOut bytes.Buffer
	cmd.Stdin = strings.NewReader(input)
	cmd.Stdout = &out
	cmd.Stderr = &errOut
	err := cmd.Run()
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return out.String(), exitErr.ExitCode()
	}
	require.NoError(t, err, errOut.String())
	return out.String(), 0
}

func translateTo(t *testing.T, dir string, c e2eCase, target *translator.Target) string {
	t.Helper()
	code, err := translator.TranslateString(c.src, translator.Options{Target: target, Strict: true, DumpCells: c.dump})
	require.NoError(t, err)
	path := filepath.Join(dir, "prog"+target.Ext)
	require.NoError(t, os.WriteFile(path, []byte(code), 0o644))
	return path
}

func check(t *testing.T, c e2eCase, got string, code int) {
	t.Helper()
	assert.Equal(t, c.wantCode, code, "exit status")
	if c.wantCode == 0 {
		assert.Equal(t, c.want, got)
	}
}

func TestInterpreter(t *testing.T) {
	for _, c := range e2eCases {
		t.Run(c.name, func(t *testing.T) {
			got, code := interpret(t, c)
			check(t, c, got, code)
		})
	}
}

func TestTranslatedC(t *testing.T) {
	cc, err := exec.LookPath("cc")
	if err != nil {
		t.Skip("no C compiler on PATH")
	}
	for _, c := range e2eCases {
		t.Run(c.name, func(t *testing.T) {
			dir := t.TempDir()
			src := translateTo(t, dir, c, translator.TargetC)
			bin := filepath.Join(dir, "prog")

			build := exec.Command(cc, "-O1", "-w", "-o", bin, src)
			out, err := build.CombinedOutput()
			require.NoError(t, err, string(out))

			got, code := runBinary(t, exec.Command(bin), c.input)
			check(t, c, got, code)

			want, wantCode := interpret(t, c)
			assert.Equal(t, wantCode, code, "interpreter exit status")
			if wantCode == 0 {
				assert.Equal(t, want, got, "interpreter output")
			}
		})
	}
}

func TestTranslatedGo(t *testing.T) {
	if testing.Short() {
		t.Skip("building Go programs is slow")
	}
	goBin, err := exec.LookPath("go")
	if err != nil {
		t.Skip("no go toolchain on PATH")
	}
	for _, c := range e2eCases {
		t.Run(c.name, func(t *testing.T) {
			dir := t.TempDir()
			src := translateTo(t, dir, c, translator.TargetGo)
			bin := filepath.Join(dir, "prog")

			build := exec.Command(goBin, "build", "-o", bin, src)
			build.Dir = dir
			out, err := build.CombinedOutput()
			require.NoError(t, err, string(out))

			got, code := runBinary(t, exec.Command(bin), c.input)
			check(t, c, got, code)
		})
	}
}
