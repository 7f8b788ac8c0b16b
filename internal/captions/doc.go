// Package captions turns chunk-local transcription segments into globally
// timed, numbered, line-wrapped caption records.
//
// Two pieces live here:
//   - Assembler keeps the cumulative offset and the 1-based caption counter.
//     The offset advances by each chunk's nominal duration after the chunk's
//     segments are emitted, so trailing silence never shifts later chunks.
//   - Wrapper reformats caption text into fixed-width lines. Wrapping is
//     positional (rune based) and lossless: joining the output lines with no
//     separator reproduces the cleaned input.
//
// Nothing in this package performs I/O.
package captions
