package publish

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/xanzy/go-gitlab"

	"github.com/randalmurphal/patchflow/patch"
)

// GitLabPublisher implements Publisher against the GitLab commits API.
// Unlike the GitHub publisher it pushes all changes as a single commit
// request, and file deletions do reach the remote.
type GitLabPublisher struct {
	client    *gitlab.Client
	projectID string // numeric ID or "namespace/project"
}

// NewGitLabPublisher creates a publisher for the given project.
// baseURL is the GitLab instance URL (empty for gitlab.com).
func NewGitLabPublisher(token, baseURL, projectID string) (*GitLabPublisher, error) {
	if token == "" {
		return nil, fmt.Errorf("GitLab token is required")
	}
	if projectID == "" {
		return nil, fmt.Errorf("project ID is required")
	}

	var client *gitlab.Client
	var err error
	if baseURL != "" {
		client, err = gitlab.NewClient(token, gitlab.WithBaseURL(baseURL))
	} else {
		client, err = gitlab.NewClient(token)
	}
	if err != nil {
		return nil, fmt.Errorf("create GitLab client: %w", err)
	}

	return &GitLabPublisher{client: client, projectID: projectID}, nil
}

// Publish creates the branch, commits all changes in one commit and opens a
// merge request.
func (p *GitLabPublisher) Publish(ctx context.Context, changes []patch.Change, opts Options) (*Result, error) {
	if err := opts.validate(); err != nil {
		return nil, err
	}

	baseSHA, reused, err := p.ensureBranch(ctx, opts.BaseBranch, opts.Branch)
	if err != nil {
		return nil, err
	}

	actions := commitActions(changes)
	commit, _, err := p.client.Commits.CreateCommit(p.projectID, &gitlab.CreateCommitOptions{
		Branch:        gitlab.Ptr(opts.Branch),
		CommitMessage: gitlab.Ptr(opts.Title),
		Actions:       actions,
	}, gitlab.WithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("create commit: %w", err)
	}

	result := &Result{
		CommitSHA:    commit.ID,
		BaseSHA:      baseSHA,
		BranchReused: reused,
	}

	mr, _, mrErr := p.client.MergeRequests.CreateMergeRequest(p.projectID, &gitlab.CreateMergeRequestOptions{
		Title:        gitlab.Ptr(opts.Title),
		Description:  gitlab.Ptr(opts.Body),
		SourceBranch: gitlab.Ptr(opts.Branch),
		TargetBranch: gitlab.Ptr(opts.PRBase),
	}, gitlab.WithContext(ctx))
	if mrErr != nil {
		result.PRErr = fmt.Errorf("create MR: %w", mrErr)
	} else {
		result.PRURL = mr.WebURL
		result.PRNumber = mr.IID
	}
	return result, nil
}

func (p *GitLabPublisher) ensureBranch(ctx context.Context, baseBranch, branch string) (baseSHA string, reused bool, err error) {
	created, resp, err := p.client.Branches.CreateBranch(p.projectID, &gitlab.CreateBranchOptions{
		Branch: gitlab.Ptr(branch),
		Ref:    gitlab.Ptr(baseBranch),
	}, gitlab.WithContext(ctx))
	if err == nil {
		if created.Commit != nil {
			baseSHA = created.Commit.ID
		}
		return baseSHA, false, nil
	}
	if resp == nil || resp.StatusCode != http.StatusBadRequest {
		return "", false, fmt.Errorf("create branch %q: %w", branch, err)
	}

	// GitLab answers 400 when the branch name is taken.
	slog.Warn("branch already exists, reusing", "branch", branch)
	base, _, err := p.client.Branches.GetBranch(p.projectID, baseBranch, gitlab.WithContext(ctx))
	if err != nil {
		return "", false, fmt.Errorf("get base branch %q: %w", baseBranch, err)
	}
	if base.Commit != nil {
		baseSHA = base.Commit.ID
	}
	return baseSHA, true, nil
}

// commitActions maps patch changes onto commit API file actions. Unknown
// actions are skipped.
func commitActions(changes []patch.Change) []*gitlab.CommitActionOptions {
	var actions []*gitlab.CommitActionOptions
	for _, c := range changes {
		switch c.Action {
		case patch.ActionCreate:
			actions = append(actions, &gitlab.CommitActionOptions{
				Action:   gitlab.Ptr(gitlab.FileCreate),
				FilePath: gitlab.Ptr(c.Path),
				Content:  gitlab.Ptr(c.Content),
			})
		case patch.ActionModify:
			actions = append(actions, &gitlab.CommitActionOptions{
				Action:   gitlab.Ptr(gitlab.FileUpdate),
				FilePath: gitlab.Ptr(c.Path),
				Content:  gitlab.Ptr(c.Content),
			})
		case patch.ActionDelete:
			actions = append(actions, &gitlab.CommitActionOptions{
				Action:   gitlab.Ptr(gitlab.FileDelete),
				FilePath: gitlab.Ptr(c.Path),
			})
		}
	}
	return actions
}
