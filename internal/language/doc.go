// Package language normalizes language hints and container tags to base
// ISO 639-1 codes using golang.org/x/text/language.
package language
