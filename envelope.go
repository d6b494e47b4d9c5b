package patchflow

import (
	"context"

	"github.com/randalmurphal/patchflow/apply"
	"github.com/randalmurphal/patchflow/patch"
)

// PreviewEnvelope is the serializable result of a preview run.
type PreviewEnvelope struct {
	OK      bool            `json:"ok"`
	Preview *patch.Document `json:"preview,omitempty"`
	Error   string          `json:"error,omitempty"`
}

// ApplyEnvelope is the serializable result of a full pipeline run. PRError
// is set when everything succeeded except opening the pull request; OK is
// still true in that case.
type ApplyEnvelope struct {
	OK      bool           `json:"ok"`
	PRURL   string         `json:"pr_url,omitempty"`
	Summary string         `json:"summary,omitempty"`
	Applied []apply.Result `json:"applied,omitempty"`
	PRError string         `json:"pr_error,omitempty"`
	Error   string         `json:"error,omitempty"`
}

// PreviewUpdate runs Preview and folds the result into an envelope. Errors
// are converted to strings exactly once, here at the boundary.
func (u *Updater) PreviewUpdate(ctx context.Context, requestText, modelKey string) PreviewEnvelope {
	doc, err := u.Preview(ctx, requestText, modelKey)
	if err != nil {
		return PreviewEnvelope{Error: err.Error()}
	}
	return PreviewEnvelope{OK: true, Preview: doc}
}

// ApplyUpdate runs Apply and folds the result into an envelope.
func (u *Updater) ApplyUpdate(ctx context.Context, req ApplyRequest) ApplyEnvelope {
	outcome, err := u.Apply(ctx, req)
	if err != nil {
		env := ApplyEnvelope{Error: err.Error()}
		if outcome != nil {
			// Local changes survived a remote failure; surface them.
			env.Summary = outcome.Summary
			env.Applied = outcome.Applied
		}
		return env
	}

	env := ApplyEnvelope{
		OK:      true,
		PRURL:   outcome.PRURL,
		Summary: outcome.Summary,
		Applied: outcome.Applied,
	}
	if outcome.RemoteErr != nil {
		env.PRError = outcome.RemoteErr.Error()
	}
	return env
}
