// Package main hosts the video2srt CLI entrypoint and command graph.
//
// The root command performs a conversion from its positional arguments;
// subcommands cover preflight checks, run history, directory watching, and
// configuration scaffolding. Configuration resolution, flag overrides, and
// logger setup live in commandContext so commands stay declarative.
package main
