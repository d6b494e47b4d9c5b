package apply

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/randalmurphal/patchflow/patch"
)

// Status is the per-change outcome of local application.
type Status string

const (
	StatusWritten       Status = "written"
	StatusDeleted       Status = "deleted"
	StatusNotFound      Status = "not_found"
	StatusUnknownAction Status = "unknown_action"
)

// Result records the outcome of applying one change.
type Result struct {
	Path   string `json:"path"`
	Status Status `json:"status"`
}

// DefaultBackupDir is the backup store location, relative to the base
// directory.
const DefaultBackupDir = ".ai_patch_backups"

// Applier applies patch changes under a base directory.
type Applier struct {
	// BaseDir is the repository root all change paths resolve under.
	BaseDir string

	// BackupDir is the backup store, relative to BaseDir. Backups are
	// named <basename>.bak and overwritten in place on repeated
	// collisions.
	BackupDir string
}

// New creates an Applier for baseDir using the default backup store.
func New(baseDir string) *Applier {
	return &Applier{BaseDir: baseDir, BackupDir: DefaultBackupDir}
}

// Apply processes changes in order and returns one Result per change.
// Unknown actions and deletes of missing files are recorded and skipped;
// the first I/O failure aborts with a *FileError and no result list.
func (a *Applier) Apply(changes []patch.Change) ([]Result, error) {
	results := make([]Result, 0, len(changes))

	for _, ch := range changes {
		switch ch.Action {
		case patch.ActionCreate, patch.ActionModify:
			if err := a.write(ch); err != nil {
				return nil, err
			}
			results = append(results, Result{Path: ch.Path, Status: StatusWritten})

		case patch.ActionDelete:
			status, err := a.remove(ch)
			if err != nil {
				return nil, err
			}
			results = append(results, Result{Path: ch.Path, Status: status})

		default:
			results = append(results, Result{Path: ch.Path, Status: StatusUnknownAction})
		}
	}

	return results, nil
}

// write backs up any existing file at the change path and replaces its
// content verbatim, creating parent directories as needed.
func (a *Applier) write(ch patch.Change) error {
	target, err := a.resolve(ch.Path)
	if err != nil {
		return err
	}

	if prior, readErr := os.ReadFile(target); readErr == nil {
		if backupErr := a.backup(ch.Path, target, prior); backupErr != nil {
			return backupErr
		}
	} else if !errors.Is(readErr, fs.ErrNotExist) {
		return &FileError{Op: "read existing", Path: ch.Path, Err: readErr}
	}

	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return &FileError{Op: "mkdir", Path: ch.Path, Err: err}
	}
	if err := os.WriteFile(target, []byte(ch.Content), 0o644); err != nil {
		return &FileError{Op: "write", Path: ch.Path, Err: err}
	}

	return nil
}

// remove deletes the file at the change path if it exists.
func (a *Applier) remove(ch patch.Change) (Status, error) {
	target, err := a.resolve(ch.Path)
	if err != nil {
		return "", err
	}

	if _, statErr := os.Stat(target); errors.Is(statErr, fs.ErrNotExist) {
		return StatusNotFound, nil
	}
	if rmErr := os.Remove(target); rmErr != nil {
		return "", &FileError{Op: "delete", Path: ch.Path, Err: rmErr}
	}
	return StatusDeleted, nil
}

// backup copies prior bytes into the backup store, keyed by base name.
func (a *Applier) backup(relPath, target string, prior []byte) error {
	backupDir := filepath.Join(a.BaseDir, a.backupDir())
	if err := os.MkdirAll(backupDir, 0o755); err != nil {
		return &FileError{Op: "backup", Path: relPath, Err: err}
	}

	backupPath := filepath.Join(backupDir, filepath.Base(target)+".bak")
	if err := os.WriteFile(backupPath, prior, 0o644); err != nil {
		return &FileError{Op: "backup", Path: relPath, Err: err}
	}
	return nil
}

func (a *Applier) backupDir() string {
	if a.BackupDir != "" {
		return a.BackupDir
	}
	return DefaultBackupDir
}

// resolve maps a forward-slash change path to a location under BaseDir.
// Absolute paths and paths that climb out of the base directory are
// rejected.
func (a *Applier) resolve(rel string) (string, error) {
	if rel == "" {
		return "", &FileError{Op: "resolve", Path: rel, Err: ErrPathEscape}
	}

	clean := filepath.Clean(filepath.FromSlash(rel))
	if filepath.IsAbs(clean) ||
		clean == "." || clean == ".." ||
		strings.HasPrefix(clean, ".."+string(filepath.Separator)) {
		return "", &FileError{Op: "resolve", Path: rel, Err: ErrPathEscape}
	}

	return filepath.Join(a.BaseDir, clean), nil
}
