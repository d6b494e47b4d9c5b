package patchflow

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/randalmurphal/patchflow/apply"
	"github.com/randalmurphal/patchflow/auth"
	"github.com/randalmurphal/patchflow/config"
	"github.com/randalmurphal/patchflow/fingerprint"
	"github.com/randalmurphal/patchflow/history"
	"github.com/randalmurphal/patchflow/llm"
	"github.com/randalmurphal/patchflow/notify"
	"github.com/randalmurphal/patchflow/patch"
	"github.com/randalmurphal/patchflow/publish"
)

// ModelClient produces raw completion text for a change request.
// *llm.Client is the production implementation.
type ModelClient interface {
	Complete(ctx context.Context, repoSummary map[string]string, requestText, apiKey string) (string, error)
	Model() string
}

// PublisherFactory builds a publisher for the given credentials. The
// default factory returns a GitHub publisher.
type PublisherFactory func(token, owner, repo string) (publish.Publisher, error)

// Updater runs the patch pipeline against one local repository.
type Updater struct {
	baseDir  string
	settings config.Settings

	logger       *slog.Logger
	notifier     notify.Notifier
	store        *history.Store
	model        ModelClient
	fp           *fingerprint.Computer
	newPublisher PublisherFactory
	now          func() time.Time
}

// Option customizes an Updater.
type Option func(*Updater)

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(u *Updater) { u.logger = logger }
}

// WithNotifier sets the event notifier.
func WithNotifier(n notify.Notifier) Option {
	return func(u *Updater) { u.notifier = n }
}

// WithHistory sets the run record store. Passing nil disables history.
func WithHistory(store *history.Store) Option {
	return func(u *Updater) { u.store = store }
}

// WithModelClient replaces the completion client.
func WithModelClient(m ModelClient) Option {
	return func(u *Updater) { u.model = m }
}

// WithPublisherFactory replaces how publishers are constructed.
func WithPublisherFactory(f PublisherFactory) Option {
	return func(u *Updater) { u.newPublisher = f }
}

// WithClock replaces the time source. Branch names derive from it.
func WithClock(now func() time.Time) Option {
	return func(u *Updater) { u.now = now }
}

// New creates an Updater for the repository at baseDir. A history store is
// created under the configured history directory; if that fails, history is
// disabled with a warning rather than failing construction.
func New(baseDir string, settings config.Settings, opts ...Option) *Updater {
	u := &Updater{
		baseDir:  baseDir,
		settings: settings,
		logger:   slog.Default(),
		now:      time.Now,
	}

	for _, opt := range opts {
		opt(u)
	}

	if u.notifier == nil {
		u.notifier = notify.NewLogNotifier(u.logger)
	}
	if u.model == nil {
		u.model = llm.NewClient(llm.Config{
			Endpoint: settings.APIURL,
			Model:    settings.Model,
			Timeout:  settings.Timeout(),
		})
	}
	if u.fp == nil {
		u.fp = fingerprint.New(skipExtras(settings)...)
	}
	if u.newPublisher == nil {
		u.newPublisher = func(token, owner, repo string) (publish.Publisher, error) {
			return publish.NewGitHubPublisher(token, owner, repo)
		}
	}
	if u.store == nil {
		store, err := history.NewStore(filepath.Join(baseDir, settings.HistoryDir))
		if err != nil {
			u.logger.Warn("history disabled", "error", err)
		} else {
			u.store = store
		}
	}

	return u
}

// skipExtras derives fingerprint skip directories from configured storage
// locations, so the pipeline's own artifacts never enter the summary.
func skipExtras(settings config.Settings) []string {
	var extras []string
	if settings.BackupDir != "" {
		extras = append(extras, topSegment(settings.BackupDir))
	}
	if settings.HistoryDir != "" {
		extras = append(extras, topSegment(settings.HistoryDir))
	}
	return extras
}

func topSegment(path string) string {
	path = filepath.ToSlash(path)
	if i := strings.IndexByte(path, '/'); i > 0 {
		return path[:i]
	}
	return path
}

// Preview runs the request through the model and returns the parsed patch
// document without touching the file tree or the remote.
func (u *Updater) Preview(ctx context.Context, requestText, modelKey string) (*patch.Document, error) {
	if strings.TrimSpace(requestText) == "" {
		return nil, ErrEmptyRequest
	}
	if modelKey == "" {
		return nil, ErrMissingModelKey
	}

	runID := auth.NewRunID()
	started := u.now()
	u.logger.Info("preview started", "run_id", runID, "model", u.model.Model())

	doc, err := u.propose(ctx, requestText, modelKey)
	u.record(history.Record{
		RunID:      runID,
		Kind:       history.KindPreview,
		Request:    requestText,
		Summary:    summaryOf(doc),
		OK:         err == nil,
		Error:      errString(err),
		StartedAt:  started,
		FinishedAt: u.now(),
	})
	if err != nil {
		u.logger.Error("preview failed", "run_id", runID, "error", err)
		return nil, err
	}

	u.logger.Info("preview complete", "run_id", runID, "changes", len(doc.Changes))
	return doc, nil
}

// ApplyRequest carries the inputs of a full pipeline run.
type ApplyRequest struct {
	// RequestText is the natural-language change request.
	RequestText string

	// ModelKey authenticates the completion API call.
	ModelKey string

	// Token, Owner and Repo identify and authenticate the remote
	// repository for publishing.
	Token string
	Owner string
	Repo  string
}

func (r ApplyRequest) validate() error {
	if strings.TrimSpace(r.RequestText) == "" {
		return ErrEmptyRequest
	}
	if r.ModelKey == "" {
		return ErrMissingModelKey
	}
	if r.Token == "" {
		return ErrMissingToken
	}
	if r.Owner == "" {
		return ErrMissingOwner
	}
	if r.Repo == "" {
		return ErrMissingRepo
	}
	return nil
}

// ApplyOutcome reports what a pipeline run did. Applied is populated as
// soon as local application succeeds, even when publishing later fails.
type ApplyOutcome struct {
	RunID   string
	Summary string
	Applied []apply.Result

	Branch       string
	PRURL        string
	PRNumber     int
	BranchReused bool

	// RemoteErr is set when the remote side failed after a successful
	// local apply: fatally (the returned error is non-nil) or just for
	// the pull request (error is nil, PRURL empty).
	RemoteErr error
}

// Apply runs the full pipeline: model call, local application with backups,
// remote branch + commit, pull request. Local changes are never rolled back
// once written, even if publishing fails.
func (u *Updater) Apply(ctx context.Context, req ApplyRequest) (*ApplyOutcome, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}

	runID := auth.NewRunID()
	started := u.now()
	outcome := &ApplyOutcome{RunID: runID}

	u.logger.Info("apply started", "run_id", runID, "repo", req.Owner+"/"+req.Repo)
	u.notify(ctx, notify.Event{
		Type:     notify.EventRunStarted,
		RunID:    runID,
		Message:  "patch run started",
		Severity: notify.SeverityInfo,
	})

	// fail records and reports a failed run; the call site decides what
	// value accompanies the error.
	fail := func(stage string, err error) error {
		u.logger.Error("apply failed", "run_id", runID, "stage", stage, "error", err)
		u.notify(ctx, notify.Event{
			Type:     notify.EventRunFailed,
			RunID:    runID,
			Message:  fmt.Sprintf("patch run failed: %s", stage),
			Severity: notify.SeverityError,
			Metadata: map[string]any{"error": err.Error()},
		})
		u.record(history.Record{
			RunID:      runID,
			Kind:       history.KindApply,
			Request:    req.RequestText,
			Summary:    outcome.Summary,
			Applied:    outcome.Applied,
			Error:      err.Error(),
			StartedAt:  started,
			FinishedAt: u.now(),
		})
		return err
	}

	doc, err := u.propose(ctx, req.RequestText, req.ModelKey)
	if err != nil {
		return nil, fail("propose", err)
	}
	outcome.Summary = doc.Summary

	applier := apply.New(u.baseDir)
	if u.settings.BackupDir != "" {
		applier.BackupDir = u.settings.BackupDir
	}
	applied, err := applier.Apply(doc.Changes)
	if err != nil {
		return nil, fail("apply", err)
	}
	outcome.Applied = applied
	u.logger.Info("local apply complete", "run_id", runID, "files", len(applied))

	// Local writes are kept from here on, whatever the remote does.
	publisher, err := u.newPublisher(req.Token, req.Owner, req.Repo)
	if err != nil {
		outcome.RemoteErr = err
		return outcome, fail("publisher", err)
	}

	outcome.Branch = fmt.Sprintf("ai-update-%d", u.now().Unix())
	result, err := publisher.Publish(ctx, doc.Changes, publish.Options{
		Branch:     outcome.Branch,
		BaseBranch: u.settings.BaseBranch,
		PRBase:     u.settings.PRBase,
		Title:      doc.PRTitle,
		Body:       doc.PRBody,
	})
	if err != nil {
		outcome.RemoteErr = err
		return outcome, fail("publish", err)
	}
	outcome.BranchReused = result.BranchReused

	if result.PRErr != nil {
		// The branch and commit exist; only the PR is missing. The run
		// still counts as successful.
		outcome.RemoteErr = result.PRErr
		u.logger.Warn("pull request creation failed", "run_id", runID, "branch", outcome.Branch, "error", result.PRErr)
		u.notify(ctx, notify.Event{
			Type:     notify.EventPRFailed,
			RunID:    runID,
			Message:  "pull request creation failed",
			Severity: notify.SeverityWarning,
			Metadata: map[string]any{"branch": outcome.Branch, "error": result.PRErr.Error()},
		})
	} else {
		outcome.PRURL = result.PRURL
		outcome.PRNumber = result.PRNumber
		u.notify(ctx, notify.Event{
			Type:     notify.EventPRCreated,
			RunID:    runID,
			Message:  "pull request opened",
			Severity: notify.SeverityInfo,
			Metadata: map[string]any{"pr_url": result.PRURL},
		})
	}

	u.notify(ctx, notify.Event{
		Type:     notify.EventRunCompleted,
		RunID:    runID,
		Message:  "patch run completed",
		Severity: notify.SeverityInfo,
		Metadata: map[string]any{"files": len(applied), "pr_url": outcome.PRURL},
	})
	u.record(history.Record{
		RunID:      runID,
		Kind:       history.KindApply,
		Request:    req.RequestText,
		Summary:    outcome.Summary,
		PRURL:      outcome.PRURL,
		Applied:    outcome.Applied,
		OK:         true,
		Error:      errString(outcome.RemoteErr),
		StartedAt:  started,
		FinishedAt: u.now(),
	})
	u.logger.Info("apply complete", "run_id", runID, "pr_url", outcome.PRURL, "branch", outcome.Branch)
	return outcome, nil
}

// propose runs fingerprint -> completion -> parse.
func (u *Updater) propose(ctx context.Context, requestText, modelKey string) (*patch.Document, error) {
	summary, err := u.fp.Compute(u.baseDir)
	if err != nil {
		return nil, fmt.Errorf("fingerprint repository: %w", err)
	}
	if summary.Skipped > 0 {
		u.logger.Warn("unreadable files skipped from summary", "count", summary.Skipped)
	}

	raw, err := u.model.Complete(ctx, summary.Files, requestText, modelKey)
	if err != nil {
		return nil, err
	}

	doc, err := patch.Parse(raw)
	if err != nil {
		return nil, err
	}
	return doc, nil
}

func (u *Updater) notify(ctx context.Context, event notify.Event) {
	if u.notifier == nil {
		return
	}
	event.Timestamp = u.now()
	if err := u.notifier.Notify(ctx, event); err != nil {
		u.logger.Warn("notification failed", "error", err, "event_type", event.Type)
	}
}

func (u *Updater) record(rec history.Record) {
	if u.store == nil {
		return
	}
	if err := u.store.Save(rec); err != nil {
		u.logger.Warn("history write failed", "error", err, "run_id", rec.RunID)
	}
}

func summaryOf(doc *patch.Document) string {
	if doc == nil {
		return ""
	}
	return doc.Summary
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
