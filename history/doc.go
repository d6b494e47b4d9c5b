// Package history persists a record per pipeline run under the repository's
// history directory, one JSON file per run. Records capture what was
// requested, what was applied and how the run ended, so a patched repository
// carries its own audit trail.
package history
