package publish

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/google/go-github/v57/github"
	"golang.org/x/oauth2"

	"github.com/randalmurphal/patchflow/auth"
	"github.com/randalmurphal/patchflow/patch"
)

// GitHubPublisher implements Publisher against the GitHub git-data API.
type GitHubPublisher struct {
	client *github.Client
	owner  string
	repo   string
}

// NewGitHubPublisher creates a publisher for owner/repo.
// token is a personal access token or GitHub App installation token.
func NewGitHubPublisher(token, owner, repo string) (*GitHubPublisher, error) {
	if token == "" {
		return nil, fmt.Errorf("GitHub token is required")
	}
	if owner == "" || repo == "" {
		return nil, fmt.Errorf("owner and repo are required")
	}

	tc := oauth2.NewClient(context.Background(), auth.StaticTokenSource(token))
	return &GitHubPublisher{
		client: github.NewClient(tc),
		owner:  owner,
		repo:   repo,
	}, nil
}

// newGitHubPublisherWithClient is the test seam; it bypasses token wiring.
func newGitHubPublisherWithClient(client *github.Client, owner, repo string) *GitHubPublisher {
	return &GitHubPublisher{client: client, owner: owner, repo: repo}
}

// Publish creates the branch, uploads blobs for every created/modified file,
// commits the layered tree and opens a pull request. Deleted files are not
// represented in the remote commit.
func (p *GitHubPublisher) Publish(ctx context.Context, changes []patch.Change, opts Options) (*Result, error) {
	if err := opts.validate(); err != nil {
		return nil, err
	}

	baseSHA, reused, err := p.ensureBranch(ctx, opts.BaseBranch, opts.Branch)
	if err != nil {
		return nil, err
	}

	blobs, err := p.createBlobs(ctx, changes)
	if err != nil {
		return nil, err
	}

	treeSHA, err := p.createTree(ctx, baseSHA, changes, blobs)
	if err != nil {
		return nil, err
	}

	commitSHA, err := p.createCommit(ctx, opts.Title, baseSHA, treeSHA)
	if err != nil {
		return nil, err
	}

	if err := p.updateRef(ctx, opts.Branch, commitSHA); err != nil {
		return nil, err
	}

	result := &Result{
		CommitSHA:    commitSHA,
		BaseSHA:      baseSHA,
		BranchReused: reused,
	}

	pr, prErr := p.openPullRequest(ctx, opts)
	if prErr != nil {
		result.PRErr = prErr
	} else {
		result.PRURL = pr.GetHTMLURL()
		result.PRNumber = pr.GetNumber()
	}
	return result, nil
}

// ensureBranch points a new branch ref at the base branch tip and returns
// that tip. An already-existing ref is reused as-is; its own tip is left
// alone, so the commit built here still layers over the base tip.
func (p *GitHubPublisher) ensureBranch(ctx context.Context, baseBranch, branch string) (baseSHA string, reused bool, err error) {
	ref, _, err := p.client.Git.GetRef(ctx, p.owner, p.repo, "heads/"+baseBranch)
	if err != nil {
		return "", false, fmt.Errorf("get base branch %q: %w", baseBranch, err)
	}
	baseSHA = ref.GetObject().GetSHA()

	newRef := &github.Reference{
		Ref:    github.String("refs/heads/" + branch),
		Object: &github.GitObject{SHA: github.String(baseSHA)},
	}
	_, resp, err := p.client.Git.CreateRef(ctx, p.owner, p.repo, newRef)
	if err != nil {
		if resp != nil && resp.StatusCode == http.StatusUnprocessableEntity {
			slog.Warn("branch already exists, reusing", "branch", branch, "base_sha", baseSHA)
			return baseSHA, true, nil
		}
		return "", false, fmt.Errorf("create branch %q: %w", branch, err)
	}
	return baseSHA, false, nil
}

// createBlobs uploads one blob per mutating change and returns path -> SHA.
func (p *GitHubPublisher) createBlobs(ctx context.Context, changes []patch.Change) (map[string]string, error) {
	blobs := make(map[string]string)
	for _, c := range changes {
		if !c.Mutates() {
			continue
		}
		blob := &github.Blob{
			Content:  github.String(c.Content),
			Encoding: github.String("utf-8"),
		}
		created, _, err := p.client.Git.CreateBlob(ctx, p.owner, p.repo, blob)
		if err != nil {
			return nil, fmt.Errorf("create blob for %q: %w", c.Path, err)
		}
		blobs[c.Path] = created.GetSHA()
	}
	return blobs, nil
}

// createTree layers the new blobs over the base commit's tree. Only create
// and modify actions contribute entries; the additive base_tree semantics
// cannot express deletions.
func (p *GitHubPublisher) createTree(ctx context.Context, baseSHA string, changes []patch.Change, blobs map[string]string) (string, error) {
	baseCommit, _, err := p.client.Git.GetCommit(ctx, p.owner, p.repo, baseSHA)
	if err != nil {
		return "", fmt.Errorf("get base commit %s: %w", baseSHA, err)
	}

	var entries []*github.TreeEntry
	for _, c := range changes {
		sha, ok := blobs[c.Path]
		if !ok {
			continue
		}
		entries = append(entries, &github.TreeEntry{
			Path: github.String(c.Path),
			Mode: github.String("100644"),
			Type: github.String("blob"),
			SHA:  github.String(sha),
		})
	}

	tree, _, err := p.client.Git.CreateTree(ctx, p.owner, p.repo, baseCommit.GetTree().GetSHA(), entries)
	if err != nil {
		return "", fmt.Errorf("create tree: %w", err)
	}
	return tree.GetSHA(), nil
}

// createCommit writes a single-parent commit over the base tip.
func (p *GitHubPublisher) createCommit(ctx context.Context, message, baseSHA, treeSHA string) (string, error) {
	commit := &github.Commit{
		Message: github.String(message),
		Tree:    &github.Tree{SHA: github.String(treeSHA)},
		Parents: []*github.Commit{{SHA: github.String(baseSHA)}},
	}
	created, _, err := p.client.Git.CreateCommit(ctx, p.owner, p.repo, commit, nil)
	if err != nil {
		return "", fmt.Errorf("create commit: %w", err)
	}
	return created.GetSHA(), nil
}

// updateRef force-moves the branch to the new commit.
func (p *GitHubPublisher) updateRef(ctx context.Context, branch, commitSHA string) error {
	ref := &github.Reference{
		Ref:    github.String("refs/heads/" + branch),
		Object: &github.GitObject{SHA: github.String(commitSHA)},
	}
	if _, _, err := p.client.Git.UpdateRef(ctx, p.owner, p.repo, ref, true); err != nil {
		return fmt.Errorf("update branch %q: %w", branch, err)
	}
	return nil
}

func (p *GitHubPublisher) openPullRequest(ctx context.Context, opts Options) (*github.PullRequest, error) {
	newPR := &github.NewPullRequest{
		Title: github.String(opts.Title),
		Body:  github.String(opts.Body),
		Head:  github.String(opts.Branch),
		Base:  github.String(opts.PRBase),
	}
	pr, _, err := p.client.PullRequests.Create(ctx, p.owner, p.repo, newPR)
	if err != nil {
		return nil, fmt.Errorf("create PR: %w", err)
	}
	return pr, nil
}
