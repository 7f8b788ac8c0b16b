// Package ffprobe provides a typed wrapper around ffprobe JSON output.
//
// Inspect runs ffprobe and returns a Result; InspectWith accepts a Runner so
// callers and tests can substitute the process. Durations are parsed as
// decimals and rounded to whole milliseconds.
package ffprobe
