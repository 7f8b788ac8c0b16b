// Package services defines shared utilities consumed by the conversion
// pipeline and its external integrations.
//
// Key responsibilities:
//   - Context helpers that stamp run IDs, stage names, and chunk indices for
//     logging.
//   - Structured error markers plus the Wrap helper so every failure carries
//     a stable category (usage, unsupported format, transcription, invalid
//     segment) up to the CLI.
//
// Backend integrations live in subpackages (whisperx, openai) and return
// chunk-local segments only; timeline math stays in internal/captions.
package services
