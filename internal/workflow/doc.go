// Package workflow runs complete encode, decode, analyze and inspect
// operations: it resolves parameters from configuration and the manifest
// sidecar, opens the containers, drives the pipeline and records history.
//
// Each encode or decode is a session. A session holds a run ID, an advisory
// lock on its output, an optional per-run log file and a row in the run
// catalog. Catalog and run log problems are logged as warnings and never
// fail a run.
package workflow
