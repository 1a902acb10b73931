package tools

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Workspace confines tool file access to one root folder.
type Workspace struct {
	root string
}

// NewWorkspace resolves root to an absolute path and creates it if needed.
func NewWorkspace(root string) (*Workspace, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve workspace %q: %w", root, err)
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, fmt.Errorf("create workspace %q: %w", abs, err)
	}
	return &Workspace{root: abs}, nil
}

// Root returns the absolute workspace folder.
func (w *Workspace) Root() string {
	return w.root
}

// Resolve maps a workspace file name to an absolute path. A leading slash
// means the workspace root. Names that escape the root are rejected.
func (w *Workspace) Resolve(name string) (string, error) {
	name = strings.TrimPrefix(name, "/")
	full := filepath.Join(w.root, filepath.FromSlash(name))
	rel, err := filepath.Rel(w.root, full)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%s is outside the workspace", name)
	}
	return full, nil
}

// Rel returns full relative to the workspace root using forward slashes.
func (w *Workspace) Rel(full string) string {
	rel, err := filepath.Rel(w.root, full)
	if err != nil {
		return full
	}
	return filepath.ToSlash(rel)
}

// ensureDir creates the parent folders of a resolved file path.
func ensureDir(full string) error {
	return os.MkdirAll(filepath.Dir(full), 0o755)
}
