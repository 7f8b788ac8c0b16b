// Package pipeline orchestrates a video2srt conversion.
//
// Run extracts the audio stream, splits it into chunks, transcribes each
// chunk in order, and feeds the segments to a captions.Assembler that keeps
// the cumulative offset. The SRT file is written atomically once every chunk
// has been assembled. A flock on the work directory keeps concurrent runs
// from sharing scratch space, and each run is recorded in the history store
// when one is configured.
package pipeline
