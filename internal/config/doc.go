// Package config loads, normalizes, and validates video2srt configuration data.
//
// It supplies defaults, expands user paths (including tilde shortcuts), reads
// TOML or YAML files chosen by extension, loads .env files, and honours
// environment fallbacks such as OPENAI_API_KEY and VIDEO2SRT_BACKEND.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config
