// Package fileutil holds small file helpers: atomic replacement for output
// files and content fingerprints for run history.
package fileutil
