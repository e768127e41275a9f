// Package security keeps user-supplied names and paths inside the places
// the service writes to.
package security

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ErrPathEscape is wrapped when a path resolves outside its directory.
var ErrPathEscape = errors.New("path escapes directory")

// JoinWithin joins name onto dir and rejects results outside dir. The check
// is lexical, so it also holds for in-memory filesystems.
func JoinWithin(dir, name string) (string, error) {
	if name == "" || filepath.IsAbs(name) {
		return "", fmt.Errorf("%w: %q", ErrPathEscape, name)
	}
	joined := filepath.Join(dir, name)
	if !within(filepath.Clean(dir), joined) {
		return "", fmt.Errorf("%w: %q not under %q", ErrPathEscape, name, dir)
	}
	return joined, nil
}

func within(dir, path string) bool {
	rel, err := filepath.Rel(dir, path)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)) && !filepath.IsAbs(rel)
}

// ValidatePathWithinDirectory checks that filePath stays inside safeDir on
// the real filesystem after symlinks are resolved. For a path that does not
// exist yet, its nearest existing ancestor is resolved instead.
func ValidatePathWithinDirectory(filePath, safeDir string) error {
	abs, err := filepath.Abs(filePath)
	if err != nil {
		return fmt.Errorf("failed to resolve path: %w", err)
	}
	root, err := filepath.Abs(safeDir)
	if err != nil {
		return fmt.Errorf("failed to resolve directory: %w", err)
	}
	root, err = filepath.EvalSymlinks(root)
	if err != nil {
		return fmt.Errorf("failed to resolve directory symlinks: %w", err)
	}
	if !within(root, resolveExisting(abs)) {
		return fmt.Errorf("%w: %s not under %s", ErrPathEscape, filePath, safeDir)
	}
	return nil
}

// resolveExisting evaluates symlinks on the longest existing prefix of abs.
func resolveExisting(abs string) string {
	for dir := abs; ; {
		if resolved, err := filepath.EvalSymlinks(dir); err == nil {
			rest, _ := filepath.Rel(dir, abs)
			return filepath.Join(resolved, rest)
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return abs
		}
		dir = parent
	}
}

// ValidateExportPath accepts paths under the temp directory, the working
// directory, or any of extraDirs.
func ValidateExportPath(filePath string, extraDirs ...string) error {
	cwd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("failed to get working directory: %w", err)
	}
	for _, dir := range append([]string{os.TempDir(), cwd}, extraDirs...) {
		if ValidatePathWithinDirectory(filePath, dir) == nil {
			return nil
		}
	}
	return fmt.Errorf("%w: %s must be under the working or temp directory", ErrPathEscape, filePath)
}

// Slugify lowercases s and keeps ASCII letters and digits, joining runs of
// anything else with a single dash. The result is at most 60 bytes and may
// be empty.
func Slugify(s string) string {
	return clean(strings.ToLower(s), func(r rune) bool { return false }, '-', 60)
}

// SanitizeFilename keeps letters, digits, dot, underscore and dash and
// replaces other runs with an underscore. It never returns an empty name.
func SanitizeFilename(s string) string {
	out := clean(s, func(r rune) bool { return r == '.' || r == '_' || r == '-' }, '_', 128)
	out = strings.Trim(out, "._")
	if out == "" {
		return "unknown"
	}
	return out
}

func clean(s string, extra func(rune) bool, sep rune, maxLen int) string {
	var b strings.Builder
	pending := false
	for _, r := range s {
		if b.Len() >= maxLen {
			break
		}
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || extra(r) {
			if pending && b.Len() > 0 {
				b.WriteRune(sep)
			}
			pending = false
			b.WriteRune(r)
			continue
		}
		pending = true
	}
	out := b.String()
	if len(out) > maxLen {
		out = out[:maxLen]
	}
	return strings.TrimRight(out, string(sep))
}
