// Package whisperx transcribes audio chunks with WhisperX launched through
// uvx. The JSON output's segments are returned with chunk-local timestamps.
//
// Configuration options (model, CUDA, VAD method, batch size, language) are
// passed via Config.
package whisperx
