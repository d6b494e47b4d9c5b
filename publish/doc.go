// Package publish builds a remote commit graph for a set of patch changes
// and opens a pull request, entirely through the host's object-level API.
// No local working copy is involved.
//
// The GitHub publisher follows the git-data object model: branch ref, one
// blob per created/modified file, a tree layered over the base commit's
// tree, a single-parent commit and a forced ref update. Deleted files
// contribute no blob or tree entry, so the remote commit never reflects
// deletions - only the local filesystem does. The GitLab publisher uses the
// commits API, whose file actions do carry deletions; the two hosts
// deliberately diverge here.
//
// Every commit-graph step is fatal on failure. Pull request creation alone
// is captured into Result.PRErr instead, so a publish that built the branch
// but could not open the PR still reports what it did.
package publish
