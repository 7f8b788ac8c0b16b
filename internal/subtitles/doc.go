// Package subtitles serializes captions to SRT and reads them back.
//
// WriteSRT replaces the destination atomically so a failed run never leaves a
// truncated subtitle file behind. Validate performs a last structural check
// (gapless indices, ordered times, no caption beyond the media). The optional
// DOCX transcript joins wrapped lines back into reading paragraphs.
package subtitles
