// Package audio turns an input media file into the single linear audio
// stream that video2srt transcribes.
//
// Classify sorts inputs into plain audio (used as-is), containers (demuxed
// with ffmpeg to mono 16 kHz PCM), and unsupported files. SelectTrack ranks a
// container's audio streams by language hint, default disposition, channel
// count, and order. Source.Cut slices chunk files at millisecond precision.
package audio
