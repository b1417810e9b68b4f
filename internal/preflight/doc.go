// Package preflight provides readiness checks for the binaries and
// directories an encode or decode run depends on.
//
// The run commands call RunAll before touching any frame so a missing
// ffmpeg or an unwritable output directory fails fast instead of after a
// partial write. The deps command uses CheckSystemDeps to render a table.
package preflight
