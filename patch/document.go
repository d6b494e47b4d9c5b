package patch

import (
	"fmt"

	"github.com/goccy/go-json"
)

// Action is the kind of file-level change a patch requests.
type Action string

const (
	ActionCreate Action = "create"
	ActionModify Action = "modify"
	ActionDelete Action = "delete"
)

// Change is a single file-level operation.
type Change struct {
	// Path is the file's location relative to the repository root,
	// forward-slash separated.
	Path string `json:"path"`

	// Action is create, modify or delete.
	Action Action `json:"action"`

	// Content is the FULL new file content for create/modify. Unused for
	// delete.
	Content string `json:"content,omitempty"`
}

// Mutates reports whether the change writes file content (create or modify).
// Only mutating changes are represented in the remote commit graph.
func (c Change) Mutates() bool {
	return c.Action == ActionCreate || c.Action == ActionModify
}

// TestSpec describes a verification command suggested by the model. It is
// informational only; nothing in this module executes it.
type TestSpec struct {
	Command string `json:"command"`
	Expect  string `json:"expect"`
}

// Document is the model's structured description of an update.
type Document struct {
	Version string     `json:"version"`
	Summary string     `json:"summary"`
	Changes []Change   `json:"changes"`
	Tests   []TestSpec `json:"tests,omitempty"`
	PRTitle string     `json:"pr_title"`
	PRBody  string     `json:"pr_body"`
}

// Defaults for optional document fields, applied once at parse time.
const (
	DefaultVersion = "1.0"
	DefaultPRTitle = "AI Update"
	DefaultPRBody  = "Auto-generated update"
)

// Parse extracts the embedded JSON patch document from raw completion text
// and decodes it. Optional fields are defaulted; Changes is never nil after
// a successful parse. Returns an error wrapping ErrNoJSON or ErrInvalidJSON
// on failure.
func Parse(raw string) (*Document, error) {
	span, err := Extract(raw)
	if err != nil {
		return nil, err
	}

	var doc Document
	if err := json.Unmarshal([]byte(span), &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidJSON, err)
	}

	doc.applyDefaults()
	return &doc, nil
}

// applyDefaults fills optional fields. A change without an action is
// treated as a modify.
func (d *Document) applyDefaults() {
	if d.Version == "" {
		d.Version = DefaultVersion
	}
	if d.PRTitle == "" {
		d.PRTitle = DefaultPRTitle
	}
	if d.PRBody == "" {
		d.PRBody = DefaultPRBody
	}
	if d.Changes == nil {
		d.Changes = []Change{}
	}
	for i := range d.Changes {
		if d.Changes[i].Action == "" {
			d.Changes[i].Action = ActionModify
		}
	}
}
