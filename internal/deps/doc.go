// Package deps checks that the external binaries video2srt shells out to
// (ffmpeg, ffprobe, uvx) are on PATH.
package deps
