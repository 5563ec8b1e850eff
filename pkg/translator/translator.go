package translator

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"dynbf/pkg/lang"
)

// Options configures a translation.
type Options struct {
	// Target selects the host language; nil means TargetC.
	Target *Target

	// Strict rejects unbalanced brackets instead of emitting them blindly.
	Strict bool

	// DumpCells, when positive, emits a call that prints the first
	// DumpCells cells and the unfreed cell count before the program ends.
	DumpCells int
}

func (o Options) target() *Target {
	if o.Target == nil {
		return TargetC
	}
	return o.Target
}

// Translate reads Dynamic Brainfuck from r and writes the translated
// program to w. Each recognized byte is translated as soon as it is read;
// every other byte is skipped. At end of input the closing boilerplate is
// written and w is flushed.
//
// In strict mode a ']' without an open loop fails before it is emitted,
// and loops still open at end of input fail instead of closing the
// program. Both errors wrap lang.ErrUnbalancedLoop.
func Translate(r io.Reader, w io.Writer, opts Options) error {
	target := opts.target()
	br := bufio.NewReader(r)
	bw := bufio.NewWriter(w)

	if _, err := bw.WriteString(target.Preamble); err != nil {
		return err
	}

	var (
		pos   lang.Position
		opens []lang.Position
	)
	for {
		b, err := br.ReadByte()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("read source: %w", err)
		}
		pos.Advance(b)

		op := lang.Decode(b)
		if op == lang.OpNone {
			continue
		}
		if opts.Strict {
			switch op {
			case lang.OpLoop:
				opens = append(opens, pos)
			case lang.OpEnd:
				if len(opens) == 0 {
					return &lang.PosError{Line: pos.Line, Column: pos.Column, Err: lang.ErrUnbalancedLoop, Detail: "unmatched ']'"}
				}
				opens = opens[:len(opens)-1]
			}
		}
		if _, err := bw.WriteString(target.Statement(op)); err != nil {
			return err
		}
	}

	if len(opens) > 0 {
		return &lang.PosError{Line: opens[0].Line, Column: opens[0].Column, Err: lang.ErrUnbalancedLoop, Detail: "unclosed '['"}
	}
	if opts.DumpCells > 0 && target.DumpFormat != "" {
		if _, err := fmt.Fprintf(bw, target.DumpFormat, opts.DumpCells); err != nil {
			return err
		}
	}
	if _, err := bw.WriteString(target.Closing); err != nil {
		return err
	}
	return bw.Flush()
}

// TranslateString translates src held in memory.
func TranslateString(src string, opts Options) (string, error) {
	var sb strings.Builder
	if err := Translate(strings.NewReader(src), &sb, opts); err != nil {
		return "", err
	}
	return sb.String(), nil
}

// TranslateProgram writes an already parsed program. The output is
// identical to translating the program's source text.
func TranslateProgram(p *lang.Program, w io.Writer, opts Options) error {
	return Translate(strings.NewReader(p.Source()), w, opts)
}
