// Package catalog keeps the run history in SQLite.
//
// Every encode and decode inserts a row when it starts and completes it with
// frame counters when it finishes. The runs command renders the table; the
// catalog is never consulted to decode a video, the manifest sidecar is.
package catalog
