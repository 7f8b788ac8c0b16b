package captions

import (
	"fmt"
	"time"

	"video2srt/internal/chunk"
	"video2srt/internal/services"
)

// Assembler converts per-chunk segments into global captions. Chunks must be
// added in timeline order.
type Assembler struct {
	wrapper  *Wrapper
	offset   time.Duration
	captions []Caption
	chunks   int
	skipped  int
}

// NewAssembler returns an Assembler that formats text with w, or with
// DefaultWrapper when w is nil.
func NewAssembler(w *Wrapper) *Assembler {
	if w == nil {
		w = DefaultWrapper()
	}
	return &Assembler{wrapper: w}
}

// Add emits one caption per segment of c, shifted by the cumulative offset,
// then advances the offset by c's full duration. A chunk with no segments
// still advances the offset. Segments whose text is empty after formatting
// are skipped and take no index, since an SRT block needs a text line. If
// any segment is invalid nothing from c is kept and the offset is left
// unchanged.
func (a *Assembler) Add(c chunk.Chunk, segments []RawSegment) error {
	pending := make([]Caption, 0, len(segments))
	next := len(a.captions) + 1
	skipped := 0
	for i, seg := range segments {
		if err := seg.Validate(); err != nil {
			return services.Wrap(services.ErrInvalidSegment, "captions", "assemble",
				fmt.Sprintf("chunk %d segment %d", c.Index, i), err)
		}
		text := a.wrapper.Format(seg.Text)
		if text == "" {
			skipped++
			continue
		}
		pending = append(pending, Caption{
			Index: next + len(pending),
			Start: a.offset + SecondsToDuration(seg.Start),
			End:   a.offset + SecondsToDuration(seg.End),
			Text:  text,
		})
	}
	a.captions = append(a.captions, pending...)
	a.skipped += skipped
	a.offset += c.Duration()
	a.chunks++
	return nil
}

// Offset returns the cumulative duration of all chunks added so far.
func (a *Assembler) Offset() time.Duration {
	return a.offset
}

// ChunkCount returns how many chunks have been added.
func (a *Assembler) ChunkCount() int {
	return a.chunks
}

// Skipped returns how many segments were dropped for having no text.
func (a *Assembler) Skipped() int {
	return a.skipped
}

// Len returns the number of captions emitted so far.
func (a *Assembler) Len() int {
	return len(a.captions)
}

// Captions returns a copy of the captions in emission order.
func (a *Assembler) Captions() []Caption {
	out := make([]Caption, len(a.captions))
	copy(out, a.captions)
	return out
}

// Assemble runs every chunk through a fresh Assembler. segmentsFor is called
// once per chunk, in order.
func Assemble(w *Wrapper, chunks []chunk.Chunk, segmentsFor func(chunk.Chunk) ([]RawSegment, error)) ([]Caption, error) {
	asm := NewAssembler(w)
	for _, c := range chunks {
		segs, err := segmentsFor(c)
		if err != nil {
			return nil, err
		}
		if err := asm.Add(c, segs); err != nil {
			return nil, err
		}
	}
	return asm.Captions(), nil
}
