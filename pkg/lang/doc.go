// Package lang defines the Dynamic Brainfuck operation set: the eight
// classic tape commands plus formatted numeric I/O (#, $), pointer
// indirection (*, &) and heap management (?, !).
//
// The translator decodes source one byte at a time with Decode. The
// interpreter needs matched brackets up front and goes through Parse:
//
//	source bytes → Parse → Program → vm
package lang
