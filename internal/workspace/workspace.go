// Package workspace manages the ephemeral directory holding the
// intermediate header text and unaligned BAM of a two-step conversion.
package workspace

import (
	"errors"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/me/fastq2bam/pkg/model"
)

// Files owned by a workspace.
const (
	HeaderFile       = "header.sam"
	IntermediateFile = "tmp.bam"
)

// Workspace is a private temporary directory. It must be released with
// Remove, or used through With which releases it on every path.
type Workspace struct {
	Dir string
}

// New creates a uniquely named workspace under parent. An empty parent
// means os.TempDir().
func New(parent string) (*Workspace, error) {
	if parent == "" {
		parent = os.TempDir()
	}
	dir := filepath.Join(parent, "fastq2bam-"+uuid.New().String())
	if err := os.Mkdir(dir, 0o700); err != nil {
		return nil, &model.ResourceError{Op: "create workspace", Path: dir, Err: err}
	}
	return &Workspace{Dir: dir}, nil
}

// With runs fn inside a fresh workspace and removes it afterwards. A removal
// failure is joined to fn's error rather than replacing it.
func With(parent string, fn func(*Workspace) error) (err error) {
	ws, err := New(parent)
	if err != nil {
		return err
	}
	defer func() {
		if rmErr := ws.Remove(); rmErr != nil {
			err = errors.Join(err, rmErr)
		}
	}()
	return fn(ws)
}

// HeaderPath is where the synthesized header text is written.
func (w *Workspace) HeaderPath() string {
	return filepath.Join(w.Dir, HeaderFile)
}

// IntermediatePath is where the conversion step writes its BAM.
func (w *Workspace) IntermediatePath() string {
	return filepath.Join(w.Dir, IntermediateFile)
}

// WriteHeader persists header text and returns its path.
func (w *Workspace) WriteHeader(text string) (string, error) {
	path := w.HeaderPath()
	if err := os.WriteFile(path, []byte(text), 0o600); err != nil {
		return "", &model.ResourceError{Op: "write header", Path: path, Err: err}
	}
	return path, nil
}

// Remove deletes the workspace and everything in it.
func (w *Workspace) Remove() error {
	if err := os.RemoveAll(w.Dir); err != nil {
		return &model.ResourceError{Op: "remove workspace", Path: w.Dir, Err: err}
	}
	return nil
}
