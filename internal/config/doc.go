// Package config loads, normalizes, and validates vidbits configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment overrides such as
// VIDBITS_FFMPEG and VIDBITS_LOG_LEVEL. The Config type centralizes every knob
// the encode and decode runs need, so codec parameters, audio format, and
// external tool locations are discovered in one pass.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical names, and clear validation errors.
package config
