package security

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// PathValidator restricts file access to a set of root directories.
// Relative paths resolve against the first root.
type PathValidator struct {
	roots []string
}

// NewPathValidator creates a validator for the given root directories
func NewPathValidator(roots ...string) (*PathValidator, error) {
	if len(roots) == 0 {
		return nil, fmt.Errorf("at least one directory is required")
	}

	v := &PathValidator{}
	for _, root := range roots {
		if root == "" {
			return nil, fmt.Errorf("configured directory cannot be empty")
		}
		abs, err := filepath.Abs(root)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve directory %s: %w", root, err)
		}
		v.roots = append(v.roots, filepath.Clean(abs))
	}

	return v, nil
}

// Roots returns the absolute root directories
func (v *PathValidator) Roots() []string {
	return append([]string(nil), v.roots...)
}

// ValidatePath checks that path lies inside one of the roots
func (v *PathValidator) ValidatePath(path string) error {
	if path == "" {
		return fmt.Errorf("path cannot be empty")
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("failed to resolve path: %w", err)
	}

	for _, root := range v.roots {
		if IsPathWithinDirectory(absPath, root) {
			return nil
		}
	}

	return fmt.Errorf("path is outside configured directories: %s", path)
}

// Resolve cleans path, anchors a relative path at the first root and
// validates the result.
func (v *PathValidator) Resolve(path string) (string, error) {
	path = strings.ReplaceAll(path, "\x00", "")
	if strings.TrimSpace(path) == "" {
		return "", fmt.Errorf("path cannot be empty")
	}

	if !filepath.IsAbs(path) {
		path = filepath.Join(v.roots[0], path)
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("failed to resolve path: %w", err)
	}

	if err := v.ValidatePath(absPath); err != nil {
		return "", err
	}

	return absPath, nil
}

// IsPathWithinDirectory reports whether path is dir or below it, both
// lexically and after resolving symlinks. A path that does not exist yet is
// checked through its nearest existing parent.
func IsPathWithinDirectory(path, dir string) bool {
	cleanPath := filepath.Clean(path)
	cleanDir := filepath.Clean(dir)

	if !within(cleanPath, cleanDir) {
		return false
	}

	realDir, ok := resolveExisting(cleanDir)
	if !ok {
		realDir = cleanDir
	}

	realPath, ok := resolveExisting(cleanPath)
	if !ok {
		return true
	}

	return within(realPath, realDir) || within(realPath, cleanDir)
}

func within(path, dir string) bool {
	if path == dir {
		return true
	}
	dirWithSep := dir
	if !strings.HasSuffix(dirWithSep, string(filepath.Separator)) {
		dirWithSep += string(filepath.Separator)
	}
	return strings.HasPrefix(path, dirWithSep)
}

// resolveExisting evaluates symlinks on the longest existing prefix of path
// and re-appends the missing tail.
func resolveExisting(path string) (string, bool) {
	var tail []string
	current := path
	for {
		if _, err := os.Lstat(current); err == nil {
			resolved, err := filepath.EvalSymlinks(current)
			if err != nil {
				return "", false
			}
			for i := len(tail) - 1; i >= 0; i-- {
				resolved = filepath.Join(resolved, tail[i])
			}
			return resolved, true
		}

		parent := filepath.Dir(current)
		if parent == current {
			return "", false
		}
		tail = append(tail, filepath.Base(current))
		current = parent
	}
}
