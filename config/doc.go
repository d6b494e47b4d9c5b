// Package config resolves pipeline settings from layered sources: built-in
// defaults, a global file under ~/.config/patchflow/, a local .patchflow.yaml
// at the repository root, and PATCHFLOW_* environment variables, in rising
// priority. Unreadable or malformed layers degrade to warnings; resolution
// always yields usable settings.
package config
