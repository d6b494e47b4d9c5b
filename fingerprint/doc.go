// Package fingerprint produces deterministic summaries of a repository's
// file state. A summary maps every relative file path to a SHA-256 digest of
// its raw bytes and is sent to the model as compact context.
//
// Dependency caches, VCS metadata and the patch backup store are excluded
// from the walk. Files that cannot be read are omitted from the summary and
// counted in Summary.Skipped rather than failing the whole scan.
package fingerprint
