package publish

import (
	"context"
	"errors"

	"github.com/randalmurphal/patchflow/patch"
)

// ErrMissingBranch indicates Options lacked a branch or base branch name.
var ErrMissingBranch = errors.New("branch and base branch are required")

// Options configures one publish run.
type Options struct {
	// Branch is the new branch to create for the patch commit.
	Branch string

	// BaseBranch is the branch whose tip seeds the new branch.
	BaseBranch string

	// PRBase is the fixed branch the pull request targets. It is
	// independent of BaseBranch; if the two differ the PR silently
	// targets PRBase anyway.
	PRBase string

	// Title doubles as the commit message and the pull request title.
	Title string

	// Body is the pull request description.
	Body string
}

// Result reports the outcome of a publish run.
type Result struct {
	// PRURL and PRNumber identify the opened pull request. Empty/zero
	// when PRErr is set.
	PRURL    string
	PRNumber int

	// CommitSHA is the patch commit, BaseSHA the base branch tip it was
	// built on.
	CommitSHA string
	BaseSHA   string

	// BranchReused is true when the branch ref already existed and the
	// publisher proceeded against the base tip anyway. If the branch
	// pre-existed with a different tip, the run used a stale base.
	BranchReused bool

	// PRErr holds a pull request creation failure. All earlier steps
	// abort Publish with an error instead.
	PRErr error
}

// Publisher publishes patch changes to a remote VCS host.
type Publisher interface {
	Publish(ctx context.Context, changes []patch.Change, opts Options) (*Result, error)
}

func (o Options) validate() error {
	if o.Branch == "" || o.BaseBranch == "" {
		return ErrMissingBranch
	}
	return nil
}
