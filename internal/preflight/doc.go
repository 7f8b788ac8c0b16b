// Package preflight provides readiness checks for the binaries, filesystem
// paths, and transcription endpoint that video2srt depends on.
//
// The "video2srt check" command renders RunAll as a table. Each check returns
// a Result rather than an error so callers can report every problem at once.
package preflight
