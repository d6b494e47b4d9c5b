// Package apply writes a patch document's changes to the local file tree.
//
// Changes are processed in order. Before any existing file is overwritten
// its prior bytes are copied into a backup store under the base directory.
// Backups are keyed by base name only, so two directories sharing a file
// name collide in the store; the later backup wins. Nothing prunes the
// store.
//
// Application is not transactional: the first I/O failure aborts the
// remaining changes with an error instead of a partial result list. Callers
// must treat that error as "apply state unknown" and inspect the filesystem
// directly.
package apply
