// Package watch converts media files as they appear in a directory.
//
// Events from fsnotify are debounced per path; a file is handed to the
// Handler once it has gone a settle window without further writes. Files are
// handled sequentially on the Run goroutine.
package watch
