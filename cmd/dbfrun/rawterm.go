package main

import (
	"bufio"
	"bytes"
	"errors"
	"io"
)

var errInterrupted = errors.New("interrupted")

const (
	keyCtrlC = 0x03
	keyCtrlD = 0x04
)

// rawReader adapts a terminal in raw mode: Ctrl-D ends input, Ctrl-C
// aborts the run, and Enter arrives as '\n'.
type rawReader struct {
	r           io.Reader
	eof         bool
	interrupted bool
}

func (r *rawReader) Read(p []byte) (int, error) {
	if r.interrupted {
		return 0, errInterrupted
	}
	if r.eof {
		return 0, io.EOF
	}
	n, err := r.r.Read(p)
	for i := 0; i < n; i++ {
		switch p[i] {
		case keyCtrlC:
			r.interrupted = true
			return 0, errInterrupted
		case keyCtrlD:
			r.eof = true
			if i == 0 {
				return 0, io.EOF
			}
			return i, nil
		case '\r':
			p[i] = '\n'
		}
	}
	return n, err
}

// crlfWriter turns '\n' into "\r\n" for a terminal in raw mode.
type crlfWriter struct {
	w io.Writer
}

func (c crlfWriter) Write(p []byte) (int, error) {
	if bytes.IndexByte(p, '\n') < 0 {
		return c.w.Write(p)
	}
	if _, err := c.w.Write(bytes.ReplaceAll(p, []byte("\n"), []byte("\r\n"))); err != nil {
		return 0, err
	}
	return len(p), nil
}

// flushingReader flushes pending program output before blocking on input,
// so prompts appear before the program waits.
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
