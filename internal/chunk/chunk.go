// Package chunk splits a linear audio timeline into bounded, contiguous
// slices that are transcribed one at a time.
package chunk

import (
	"fmt"
	"time"

	"video2srt/internal/services"
)

// Chunk is one contiguous slice of the source audio.
type Chunk struct {
	Index      int
	StartMs    int64
	DurationMs int64
}

// EndMs returns the exclusive end of the chunk in milliseconds.
func (c Chunk) EndMs() int64 {
	return c.StartMs + c.DurationMs
}

// Start returns the chunk start as a duration from the beginning of the audio.
func (c Chunk) Start() time.Duration {
	return time.Duration(c.StartMs) * time.Millisecond
}

// Duration returns the nominal chunk length.
func (c Chunk) Duration() time.Duration {
	return time.Duration(c.DurationMs) * time.Millisecond
}

// Name returns the scratch file stem for the chunk, e.g. chunk_0003.
func (c Chunk) Name() string {
	return fmt.Sprintf("chunk_%04d", c.Index)
}

// Split covers [0, durationMs) with chunks of maxMs, the last one holding the
// remainder. An empty timeline yields no chunks.
func Split(durationMs, maxMs int64) ([]Chunk, error) {
	if maxMs <= 0 {
		return nil, services.Wrap(services.ErrValidation, "chunk", "split", fmt.Sprintf("max chunk duration must be positive, got %dms", maxMs), nil)
	}
	if durationMs < 0 {
		return nil, services.Wrap(services.ErrValidation, "chunk", "split", fmt.Sprintf("negative audio duration %dms", durationMs), nil)
	}
	if durationMs == 0 {
		return nil, nil
	}

	count := int((durationMs + maxMs - 1) / maxMs)
	chunks := make([]Chunk, 0, count)
	for start, idx := int64(0), 0; start < durationMs; start, idx = start+maxMs, idx+1 {
		length := maxMs
		if remaining := durationMs - start; remaining < length {
			length = remaining
		}
		chunks = append(chunks, Chunk{Index: idx, StartMs: start, DurationMs: length})
	}
	return chunks, nil
}

// Total returns the summed nominal duration of chunks.
func Total(chunks []Chunk) time.Duration {
	var total time.Duration
	for _, c := range chunks {
		total += c.Duration()
	}
	return total
}
