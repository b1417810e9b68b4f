// Package services defines shared utilities consumed by the encode and decode
// runs and the CLI commands that drive them.
//
// Key responsibilities:
//   - Context helpers that stamp run IDs, stage names, and the run direction
//     for logging.
//   - Structured error markers plus the Wrap helper that let the CLI pick a
//     consistent exit code for each class of failure.
package services
