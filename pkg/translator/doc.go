// Package translator streams Dynamic Brainfuck source into host-language
// source for the tape runtime. It reads one byte at a time and writes the
// statement template for that byte immediately; there is no syntax tree
// and no lookahead.
//
// Output layout: preamble (tape, ownership array, reference stack, panic
// helper, allocator, deallocator, zeroing) → one statement per recognized
// byte → closing boilerplate.
package translator
