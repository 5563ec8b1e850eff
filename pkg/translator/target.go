package translator

import (
	"fmt"
	"strings"

	"dynbf/pkg/lang"
)

// Target holds the statement templates of one host language. Templates
// are emitted verbatim.
type Target struct {
	Name string
	Ext  string // output file extension, with the dot

	Preamble string
	Stmts    [lang.OpFree + 1]string
	Closing  string

	// DumpFormat is a printf format taking the number of cells to print
	// from the emitted print_tape helper.
	DumpFormat string
}

// Statement returns the template for op, or "" for OpNone.
func (t *Target) Statement(op lang.Op) string {
	if int(op) < len(t.Stmts) {
		return t.Stmts[op]
	}
	return ""
}

func (t *Target) String() string { return t.Name }

// TargetC emits C compatible with the when.c runtime.
var TargetC = &Target{
	Name: "c",
	Ext:  ".c",
	Preamble: `#include <stdio.h>
#include <stdlib.h>

#define TAPE_SIZE 30000
void panic(char *msg) {
    fprintf(stderr, "panic: %s\n", msg);
    exit(-1);
}
void print_tape(unsigned int *tape, unsigned int *taken_cells, unsigned int size) {
    for (unsigned int i = 0; i < size; i++) { printf("%u ", tape[i]); }
    printf("\n");
    unsigned int unfreed = 0;
    for (unsigned int i = 0; i < TAPE_SIZE;) {
        if (taken_cells[i]) { unfreed += taken_cells[i]; i += taken_cells[i]; } else { i++; }
    }
    printf("%u unfreed\n", unfreed);
}
unsigned int allocate(unsigned int *tape, unsigned int ptr, unsigned int *taken_cells) {
    unsigned int requested_mem = tape[ptr];
    unsigned int consecutive_zero_cells = 0;
    for (int i=TAPE_SIZE-1; i>0; i--) {
        if (taken_cells[i] == 0) {
            consecutive_zero_cells++;
        } else {
            consecutive_zero_cells = 0;
        }
        if (consecutive_zero_cells >= requested_mem) {
            unsigned int addr = i;
            for (unsigned int j=0; j<requested_mem; j++) {
                taken_cells[addr + j] = requested_mem - j;
            }
            return addr;
        }
    }
    panic("no free memory");
    return 0;
}
void free_mem(unsigned int *tape, unsigned int ptr, unsigned int *taken_cells) {
    unsigned int address = tape[ptr];
    unsigned int size = taken_cells[address];

    for (unsigned int i=0; i<size; i++) {
        taken_cells[address+i] = 0;
        tape[address+i] = 0;
    }
}
void zero(unsigned int *tape) {
    for (int i = 0; i < TAPE_SIZE; i++) tape[i] = 0;
}
int main() {
    unsigned int tape[TAPE_SIZE], taken_cells[TAPE_SIZE], ref_tape[256];
    unsigned int ptr = 0, ref_ptr = 0;
    zero(tape);
    zero(taken_cells);
`,
	Stmts: [...]string{
		lang.OpInc:    "    tape[ptr]++;\n",
		lang.OpDec:    "    tape[ptr]--;\n",
		lang.OpLeft:   "    ptr--;\n",
		lang.OpRight:  "    ptr++;\n",
		lang.OpLoop:   "    while (tape[ptr]) {\n",
		lang.OpEnd:    "    }\n",
		lang.OpGet:    "    tape[ptr] = getchar();\n",
		lang.OpPut:    "    putchar(tape[ptr]);\n",
		lang.OpGetNum: "    scanf(\"%d\", &tape[ptr]);\n",
		lang.OpPutNum: "    printf(\"%d\", tape[ptr]);\n",
		lang.OpDeref:  "    ref_tape[ref_ptr++] = ptr; ptr = tape[ptr];\n",
		lang.OpRefer:  "    ptr = ref_tape[--ref_ptr];\n",
		lang.OpAlloc:  "    tape[ptr] = allocate(tape, ptr, taken_cells);\n",
		lang.OpFree:   "    free_mem(tape, ptr, taken_cells);\n",
	},
	Closing:    "}\n",
	DumpFormat: "    print_tape(tape, taken_cells, %d);\n",
}

// TargetGo emits a self-contained Go main package with the same runtime.
var TargetGo = &Target{
	Name: "go",
	Ext:  ".go",
	Preamble: `// Code generated by dynbf. DO NOT EDIT.

package main

import (
	"bufio"
	"fmt"
	"os"
)

const tapeSize = 30000

var (
	stdin  = bufio.NewReader(os.Stdin)
	stdout = bufio.NewWriter(os.Stdout)
)

func panicf(msg string) {
	stdout.Flush()
	fmt.Fprintf(os.Stderr, "panic: %s\n", msg)
	os.Exit(255)
}

func printTape(tape, takenCells *[tapeSize]uint32, size int) {
	for i := 0; i < size && i < tapeSize; i++ {
		fmt.Fprintf(stdout, "%d ", tape[i])
	}
	var unfreed uint32
	for i := 0; i < tapeSize; {
		if takenCells[i] != 0 {
			unfreed += takenCells[i]
			i += int(takenCells[i])
		} else {
			i++
		}
	}
	fmt.Fprintf(stdout, "\n%d unfreed\n", unfreed)
}

func allocate(tape *[tapeSize]uint32, ptr uint32, takenCells *[tapeSize]uint32) uint32 {
	requestedMem := tape[ptr]
	var consecutiveZeroCells uint32
	for i := tapeSize - 1; i > 0; i-- {
		if takenCells[i] == 0 {
			consecutiveZeroCells++
		} else {
			consecutiveZeroCells = 0
		}
		if consecutiveZeroCells >= requestedMem {
			addr := uint32(i)
			for j := uint32(0); j < requestedMem; j++ {
				takenCells[addr+j] = requestedMem - j
			}
			return addr
		}
	}
	panicf("no free memory")
	return 0
}

func freeMem(tape *[tapeSize]uint32, ptr uint32, takenCells *[tapeSize]uint32) {
	address := tape[ptr]
	size := takenCells[address]
	for i := uint32(0); i < size; i++ {
		takenCells[address+i] = 0
		tape[address+i] = 0
	}
}

func zero(tape *[tapeSize]uint32) {
	for i := range tape {
		tape[i] = 0
	}
}

func getchar() uint32 {
	stdout.Flush()
	b, err := stdin.ReadByte()
	if err != nil {
		return ^uint32(0)
	}
	return uint32(b)
}

func scanNum(cell *uint32) {
	stdout.Flush()
	b, err := stdin.ReadByte()
	for err == nil && (b == ' ' || b == '\t' || b == '\n' || b == '\v' || b == '\f' || b == '\r') {
		b, err = stdin.ReadByte()
	}
	if err != nil {
		return
	}
	neg := false
	if b == '+' || b == '-' {
		neg = b == '-'
		if b, err = stdin.ReadByte(); err != nil {
			return
		}
	}
	var v uint32
	digits := false
	for err == nil && b >= '0' && b <= '9' {
		v = v*10 + uint32(b-'0')
		digits = true
		b, err = stdin.ReadByte()
	}
	if err == nil {
		stdin.UnreadByte()
	}
	if !digits {
		return
	}
	if neg {
		v = -v
	}
	*cell = v
}

func main() {
	defer stdout.Flush()
	var tape, takenCells [tapeSize]uint32
	var refStack [256]uint32
	var ptr, refPtr uint32
	_, _, _ = ptr, refPtr, refStack
	zero(&tape)
	zero(&takenCells)
`,
	Stmts: [...]string{
		lang.OpInc:    "\ttape[ptr]++\n",
		lang.OpDec:    "\ttape[ptr]--\n",
		lang.OpLeft:   "\tptr--\n",
		lang.OpRight:  "\tptr++\n",
		lang.OpLoop:   "\tfor tape[ptr] != 0 {\n",
		lang.OpEnd:    "\t}\n",
		lang.OpGet:    "\ttape[ptr] = getchar()\n",
		lang.OpPut:    "\tstdout.WriteByte(byte(tape[ptr]))\n",
		lang.OpGetNum: "\tscanNum(&tape[ptr])\n",
		lang.OpPutNum: "\tfmt.Fprint(stdout, int32(tape[ptr]))\n",
		lang.OpDeref:  "\trefStack[refPtr] = ptr\n\trefPtr++\n\tptr = tape[ptr]\n",
		lang.OpRefer:  "\trefPtr--\n\tptr = refStack[refPtr]\n",
		lang.OpAlloc:  "\ttape[ptr] = allocate(&tape, ptr, &takenCells)\n",
		lang.OpFree:   "\tfreeMem(&tape, ptr, &takenCells)\n",
	},
	Closing:    "}\n",
	DumpFormat: "\tprintTape(&tape, &takenCells, %d)\n",
}

var targets = map[string]*Target{
	TargetC.Name:  TargetC,
	TargetGo.Name: TargetGo,
}

// ParseTarget looks a target up by name, case-insensitively.
func ParseTarget(name string) (*Target, error) {
	t, ok := targets[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return nil, fmt.Errorf("unknown target %q (want c or go)", name)
	}
	return t, nil
}
