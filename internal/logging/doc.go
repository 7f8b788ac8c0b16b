// Package logging assembles structured slog loggers for video2srt.
//
// Console output uses a compact human format (or JSON when configured) on
// stderr; when a log file is configured every record is also appended to it
// as JSON. Context helpers tag lines with run IDs, stages, and chunk indices.
package logging
