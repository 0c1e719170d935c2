// Package shell implements the interactive command loop.
//
// The shell reads one command per line from its input, runs the matching
// engine operation, and prints the outcome to its output. Input and
// output are injected so tests can drive the loop with buffers.
package shell
