// Package openai transcribes audio chunks against an OpenAI-compatible
// /audio/transcriptions endpoint using the verbose_json response format.
//
// Any server that speaks the same API (for example a local faster-whisper
// sidecar) works by pointing BaseURL at it.
package openai
