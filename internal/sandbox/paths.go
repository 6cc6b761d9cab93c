package sandbox

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ValidatePath resolves path against workDir and verifies the result falls
// under an allowed prefix. Symlinks are canonicalized before the check so a
// link inside the jail cannot reach outside it; for targets that do not
// exist yet the deepest existing ancestor is canonicalized instead. Returns
// the canonical absolute path.
func (p *Policy) ValidatePath(path, workDir string) (string, error) {
	if path == "" {
		return "", &BlockedError{Reason: "empty path"}
	}

	abs := path
	if !filepath.IsAbs(abs) {
		if workDir == "" {
			workDir = p.ProjectRoot
		}
		abs = filepath.Join(workDir, abs)
	}
	abs = filepath.Clean(abs)

	resolved, err := canonicalize(abs)
	if err != nil {
		return "", fmt.Errorf("failed to resolve path: %w", err)
	}

	for _, prefix := range p.AllowedPrefixes {
		if isWithinDir(resolved, prefix) {
			return resolved, nil
		}
	}

	return "", &BlockedError{Reason: fmt.Sprintf("path %s is outside the allowed directories", path)}
}

// canonicalize resolves symlinks in abs. When the target does not exist,
// the deepest existing ancestor is resolved and the missing remainder
// reattached, so write targets are jailed by their real parent.
func canonicalize(abs string) (string, error) {
	resolved, err := filepath.EvalSymlinks(abs)
	if err == nil {
		return resolved, nil
	}
	if !os.IsNotExist(err) {
		return "", err
	}

	dir := abs
	var tail []string
	for {
		parent := filepath.Dir(dir)
		if parent == dir {
			// Hit the filesystem root without finding anything
			return abs, nil
		}
		tail = append(tail, filepath.Base(dir))
		dir = parent

		resolved, err = filepath.EvalSymlinks(dir)
		if err == nil {
			for i := len(tail) - 1; i >= 0; i-- {
				resolved = filepath.Join(resolved, tail[i])
			}
			return resolved, nil
		}
		if !os.IsNotExist(err) {
			return "", err
		}
	}
}

// isWithinDir checks if path is dir or lies under it.
func isWithinDir(path, dir string) bool {
	path = filepath.Clean(path)
	dir = filepath.Clean(dir)

	rel, err := filepath.Rel(dir, path)
	if err != nil {
		return false
	}
	return rel == "." || (!strings.HasPrefix(rel, "..") && !filepath.IsAbs(rel))
}
