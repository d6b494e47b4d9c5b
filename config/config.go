package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// File locations. The local file lives at the root of the repository being
// patched; the global file under the user's config directory.
const (
	LocalConfigName  = ".patchflow.yaml"
	GlobalConfigDir  = "patchflow"
	GlobalConfigFile = "config.yaml"

	// EnvPrefix is prepended to upper-cased field names for environment
	// overrides, e.g. PATCHFLOW_MODEL.
	EnvPrefix = "PATCHFLOW_"
)

// Settings is the resolved pipeline configuration.
type Settings struct {
	// Model is the completion model name.
	Model string `yaml:"model"`

	// APIURL is the chat completions endpoint.
	APIURL string `yaml:"api_url"`

	// BaseBranch seeds new patch branches.
	BaseBranch string `yaml:"base_branch"`

	// PRBase is the branch pull requests target.
	PRBase string `yaml:"pr_base"`

	// BackupDir collects pre-change file snapshots, relative to the
	// repository root.
	BackupDir string `yaml:"backup_dir"`

	// TimeoutSeconds bounds the model API call.
	TimeoutSeconds int `yaml:"timeout_seconds"`

	// HistoryDir stores run records, relative to the repository root.
	HistoryDir string `yaml:"history_dir"`
}

// Defaults returns the built-in settings.
func Defaults() Settings {
	return Settings{
		Model:          "gpt-4o",
		APIURL:         "https://api.openai.com/v1/chat/completions",
		BaseBranch:     "main",
		PRBase:         "main",
		BackupDir:      ".ai_patch_backups",
		TimeoutSeconds: 60,
		HistoryDir:     filepath.Join(".patchflow", "history"),
	}
}

// Timeout returns TimeoutSeconds as a duration.
func (s Settings) Timeout() time.Duration {
	return time.Duration(s.TimeoutSeconds) * time.Second
}

// Load resolves settings for the repository at baseDir. Missing layers are
// skipped silently; malformed ones produce warnings and are skipped.
func Load(baseDir string) (Settings, []string) {
	return load(baseDir, globalPath(), os.Getenv)
}

func load(baseDir, globalPath string, getenv func(string) string) (Settings, []string) {
	s := Defaults()
	var warnings []string

	if globalPath != "" {
		if w := applyFile(&s, globalPath); w != "" {
			warnings = append(warnings, w)
		}
	}
	if w := applyFile(&s, filepath.Join(baseDir, LocalConfigName)); w != "" {
		warnings = append(warnings, w)
	}
	warnings = append(warnings, applyEnv(&s, getenv)...)

	return s, warnings
}

// applyFile merges one YAML layer into s. A missing file is not an error;
// a malformed one returns a warning.
func applyFile(s *Settings, path string) string {
	data, err := os.ReadFile(path)
	if err != nil {
		return ""
	}
	// Decode into a scratch copy so a malformed file cannot leave s
	// half-updated.
	layer := *s
	if err := yaml.Unmarshal(data, &layer); err != nil {
		return fmt.Sprintf("could not parse %s: %v", path, err)
	}
	*s = layer
	return ""
}

func applyEnv(s *Settings, getenv func(string) string) []string {
	var warnings []string

	for key, dst := range map[string]*string{
		"MODEL":       &s.Model,
		"API_URL":     &s.APIURL,
		"BASE_BRANCH": &s.BaseBranch,
		"PR_BASE":     &s.PRBase,
		"BACKUP_DIR":  &s.BackupDir,
		"HISTORY_DIR": &s.HistoryDir,
	} {
		if v := getenv(EnvPrefix + key); v != "" {
			*dst = v
		}
	}

	if v := getenv(EnvPrefix + "TIMEOUT_SECONDS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			warnings = append(warnings, fmt.Sprintf("ignoring invalid %sTIMEOUT_SECONDS=%q", EnvPrefix, v))
		} else {
			s.TimeoutSeconds = n
		}
	}

	return warnings
}

func globalPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", GlobalConfigDir, GlobalConfigFile)
}
