package apply

import "errors"

// ErrPathEscape indicates a change path resolves outside the base
// directory.
var ErrPathEscape = errors.New("path escapes base directory")

// FileError wraps an I/O failure during patch application.
type FileError struct {
	Op   string // Operation that failed (e.g., "write", "backup")
	Path string // Change path, as given in the patch
	Err  error  // Underlying error
}

func (e *FileError) Error() string {
	return e.Op + " " + e.Path + ": " + e.Err.Error()
}

func (e *FileError) Unwrap() error {
	return e.Err
}
