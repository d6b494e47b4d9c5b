package prompt

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoader(t *testing.T) {
	t.Run("embedded system prompt", func(t *testing.T) {
		l := NewLoader(t.TempDir())
		content, err := l.Load(PatchSystem)
		if err != nil {
			t.Fatalf("Load: %v", err)
		}
		for _, want := range []string{"VALID JSON", "changes", "pr_title", "NEVER rewrite"} {
			if !strings.Contains(content, want) {
				t.Errorf("system prompt missing %q", want)
			}
		}
	})

	t.Run("project override wins", func(t *testing.T) {
		dir := t.TempDir()
		promptDir := filepath.Join(dir, ".patchflow", "prompts")
		if err := os.MkdirAll(promptDir, 0o755); err != nil {
			t.Fatal(err)
		}
		custom := "custom instruction for {{.Name | upper}}"
		if err := os.WriteFile(filepath.Join(promptDir, "patch_system.txt"), []byte(custom), 0o644); err != nil {
			t.Fatal(err)
		}

		l := NewLoader(dir)
		content, err := l.LoadWithVars(PatchSystem, map[string]any{"Name": "widgets"})
		if err != nil {
			t.Fatalf("LoadWithVars: %v", err)
		}
		if content != "custom instruction for WIDGETS" {
			t.Errorf("content = %q", content)
		}
	})

	t.Run("unknown prompt", func(t *testing.T) {
		l := NewLoader(t.TempDir())
		if _, err := l.Load("nope"); err == nil {
			t.Error("expected error")
		}
		if l.Exists("nope") {
			t.Error("Exists = true for unknown prompt")
		}
	})
}

func TestUserPayload(t *testing.T) {
	payload, err := UserPayload(map[string]string{"a.txt": "abc123"}, "add a flag")
	if err != nil {
		t.Fatalf("UserPayload: %v", err)
	}

	var decoded struct {
		RepoSummary map[string]string `json:"repo_summary"`
		Request     string            `json:"request"`
	}
	if err := json.Unmarshal([]byte(payload), &decoded); err != nil {
		t.Fatalf("payload is not JSON: %v", err)
	}
	if decoded.Request != "add a flag" {
		t.Errorf("request = %q", decoded.Request)
	}
	if decoded.RepoSummary["a.txt"] != "abc123" {
		t.Errorf("repo_summary = %v", decoded.RepoSummary)
	}

	t.Run("nil summary", func(t *testing.T) {
		payload, err := UserPayload(nil, "x")
		if err != nil {
			t.Fatalf("UserPayload: %v", err)
		}
		if !strings.Contains(payload, `"repo_summary":{}`) {
			t.Errorf("payload = %q", payload)
		}
	})
}
