// Package history records every conversion run in a SQLite database.
//
// Each run gets a UUID, the input's BLAKE3 fingerprint, the backend and
// model used, and its final status. The "video2srt history" command lists
// recent runs and flags inputs that were converted more than once.
package history
