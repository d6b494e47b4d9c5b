package publish

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/xanzy/go-gitlab"

	"github.com/randalmurphal/patchflow/patch"
)

type gitlabServer struct {
	mux *http.ServeMux

	branchExists bool
	mrFails      bool

	commitReq struct {
		Branch        string `json:"branch"`
		CommitMessage string `json:"commit_message"`
		Actions       []struct {
			Action   string `json:"action"`
			FilePath string `json:"file_path"`
			Content  string `json:"content"`
		} `json:"actions"`
	}
	mrReq struct {
		Title        string `json:"title"`
		SourceBranch string `json:"source_branch"`
		TargetBranch string `json:"target_branch"`
	}
}

func newGitLabServer(t *testing.T) *gitlabServer {
	t.Helper()
	s := &gitlabServer{mux: http.NewServeMux()}

	s.mux.HandleFunc("/api/v4/projects/42/repository/branches", func(w http.ResponseWriter, r *http.Request) {
		if s.branchExists {
			w.WriteHeader(http.StatusBadRequest)
			w.Write([]byte(`{"message":"Branch already exists"}`))
			return
		}
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"name":"ai-update-1","commit":{"id":"base-sha"}}`))
	})

	s.mux.HandleFunc("/api/v4/projects/42/repository/branches/main", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"name":"main","commit":{"id":"base-sha"}}`))
	})

	s.mux.HandleFunc("/api/v4/projects/42/repository/commits", func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&s.commitReq)
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"id":"new-commit-sha"}`))
	})

	s.mux.HandleFunc("/api/v4/projects/42/merge_requests", func(w http.ResponseWriter, r *http.Request) {
		if s.mrFails {
			w.WriteHeader(http.StatusConflict)
			w.Write([]byte(`{"message":"Another open merge request already exists"}`))
			return
		}
		json.NewDecoder(r.Body).Decode(&s.mrReq)
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"iid":3,"web_url":"https://gitlab.example.com/group/proj/-/merge_requests/3"}`))
	})

	return s
}

func newTestGitLabPublisher(t *testing.T, s *gitlabServer) (*GitLabPublisher, *httptest.Server) {
	t.Helper()

	server := httptest.NewServer(s.mux)

	client, err := gitlab.NewClient("token", gitlab.WithBaseURL(server.URL))
	if err != nil {
		t.Fatalf("gitlab.NewClient: %v", err)
	}
	return &GitLabPublisher{client: client, projectID: "42"}, server
}

func TestGitLabPublish(t *testing.T) {
	changes := []patch.Change{
		{Path: "src/app.py", Action: patch.ActionModify, Content: "print('v2')\n"},
		{Path: "docs/old.md", Action: patch.ActionDelete},
		{Path: "src/new.py", Action: patch.ActionCreate, Content: "new\n"},
	}

	t.Run("single commit carries deletions", func(t *testing.T) {
		s := newGitLabServer(t)
		p, server := newTestGitLabPublisher(t, s)
		defer server.Close()

		result, err := p.Publish(context.Background(), changes, testOptions())
		if err != nil {
			t.Fatalf("Publish: %v", err)
		}

		if result.CommitSHA != "new-commit-sha" || result.BaseSHA != "base-sha" {
			t.Errorf("SHAs = %s/%s", result.CommitSHA, result.BaseSHA)
		}
		if result.PRURL == "" || result.PRNumber != 3 {
			t.Errorf("MR = %q !%d", result.PRURL, result.PRNumber)
		}

		if s.commitReq.Branch != "ai-update-1" || s.commitReq.CommitMessage != "AI Update" {
			t.Errorf("commit = %+v", s.commitReq)
		}
		if len(s.commitReq.Actions) != 3 {
			t.Fatalf("actions = %d, want 3", len(s.commitReq.Actions))
		}
		// Unlike the GitHub path, the delete reaches the remote.
		wantActions := []string{"update", "delete", "create"}
		for i, a := range s.commitReq.Actions {
			if a.Action != wantActions[i] {
				t.Errorf("action[%d] = %q, want %q", i, a.Action, wantActions[i])
			}
		}
		if s.commitReq.Actions[1].FilePath != "docs/old.md" || s.commitReq.Actions[1].Content != "" {
			t.Errorf("delete action = %+v", s.commitReq.Actions[1])
		}

		if s.mrReq.SourceBranch != "ai-update-1" || s.mrReq.TargetBranch != "main" {
			t.Errorf("MR branches = %s -> %s", s.mrReq.SourceBranch, s.mrReq.TargetBranch)
		}
	})

	t.Run("existing branch is reused via base lookup", func(t *testing.T) {
		s := newGitLabServer(t)
		s.branchExists = true
		p, server := newTestGitLabPublisher(t, s)
		defer server.Close()

		result, err := p.Publish(context.Background(), changes, testOptions())
		if err != nil {
			t.Fatalf("Publish: %v", err)
		}
		if !result.BranchReused {
			t.Error("BranchReused = false")
		}
		if result.BaseSHA != "base-sha" {
			t.Errorf("BaseSHA = %q", result.BaseSHA)
		}
	})

	t.Run("MR failure is captured, not raised", func(t *testing.T) {
		s := newGitLabServer(t)
		s.mrFails = true
		p, server := newTestGitLabPublisher(t, s)
		defer server.Close()

		result, err := p.Publish(context.Background(), changes, testOptions())
		if err != nil {
			t.Fatalf("Publish: %v", err)
		}
		if result.PRErr == nil {
			t.Fatal("PRErr = nil")
		}
		if result.CommitSHA != "new-commit-sha" {
			t.Errorf("CommitSHA = %q", result.CommitSHA)
		}
	})

	t.Run("unknown actions are skipped", func(t *testing.T) {
		got := commitActions([]patch.Change{
			{Path: "a.txt", Action: patch.ActionCreate, Content: "x"},
			{Path: "b.txt", Action: "rename"},
		})
		if len(got) != 1 {
			t.Errorf("actions = %d, want 1", len(got))
		}
	})
}

func TestNewGitLabPublisher(t *testing.T) {
	t.Run("valid inputs", func(t *testing.T) {
		p, err := NewGitLabPublisher("token", "", "group/proj")
		if err != nil {
			t.Fatalf("NewGitLabPublisher: %v", err)
		}
		if p.projectID != "group/proj" {
			t.Errorf("projectID = %q", p.projectID)
		}
	})

	t.Run("missing token", func(t *testing.T) {
		if _, err := NewGitLabPublisher("", "", "42"); err == nil {
			t.Error("expected error for missing token")
		}
	})

	t.Run("missing project", func(t *testing.T) {
		if _, err := NewGitLabPublisher("token", "", ""); err == nil {
			t.Error("expected error for missing project ID")
		}
	})
}
