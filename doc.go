// Package patchflow turns natural-language change requests into applied,
// published patches. It fingerprints a repository, asks a completion API for
// a structured JSON patch, applies the patch to the local file tree with
// backups, and publishes the result as a branch and pull request through the
// host's object-level git API - no local working-copy commit.
//
// The package is organized into subpackages by domain:
//
//   - fingerprint: deterministic path -> content-hash repository summaries
//   - llm: OpenAI-compatible chat completion client
//   - prompt: instruction templates and model payload construction
//   - patch: patch document types, extraction and strict decoding
//   - apply: local patch application with pre-overwrite backups
//   - publish: remote commit-graph construction (GitHub, GitLab)
//   - auth: token sources and GitHub App JWTs
//   - config: YAML settings resolution with env override
//   - httpapi: shared REST client utilities
//   - notify: notification services (log, webhook)
//   - history: file-based run history
//   - testutil: test utilities and fixtures
//
// # Quick Start
//
//	settings, _ := config.Load(repoDir)
//	u := patchflow.New(repoDir, settings)
//
//	// Preview: no side effects.
//	preview := u.PreviewUpdate(ctx, "add a retry flag to the CLI", modelKey)
//
//	// Apply: local writes plus a pull request on the remote host.
//	outcome := u.ApplyUpdate(ctx, patchflow.ApplyRequest{
//	    RequestText: "add a retry flag to the CLI",
//	    ModelKey:    modelKey,
//	    Token:       ghToken,
//	    Owner:       "acme",
//	    Repo:        "widgets",
//	})
//
// Local application and remote publishing are two independent systems and
// can diverge: local changes are retained even when publishing fails, and
// deletions never reach the remote commit on the GitHub path. See the apply
// and publish package documentation for the details.
package patchflow
