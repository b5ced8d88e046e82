package validation

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ErrUnsafePath wraps every rejection from PathValidator.
var ErrUnsafePath = errors.New("unsafe path")

// PathValidator checks the database, index, log and seed paths that come
// from configuration or flags.
type PathValidator struct {
	// Roots limits accepted paths to these directories. Empty allows any.
	Roots     []string
	MaxLength int
}

// DataDir is where mrkt keeps its database, index and log by default.
func DataDir() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".mrkt")
}

// ConfigDir holds config.toml.
func ConfigDir() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "mrkt")
}

// NewPathValidator restricts paths to the mrkt data and config directories
// and the system temp directory.
func NewPathValidator() *PathValidator {
	return &PathValidator{
		Roots:     []string{DataDir(), ConfigDir(), os.TempDir()},
		MaxLength: 4096,
	}
}

// NewUnrestrictedPathValidator still rejects malformed paths but accepts
// any location.
func NewUnrestrictedPathValidator() *PathValidator {
	return &PathValidator{MaxLength: 4096}
}

func rejectPath(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrUnsafePath, fmt.Sprintf(format, args...))
}

// Clean expands a leading ~/, makes p absolute and checks it against Roots.
func (v *PathValidator) Clean(p string) (string, error) {
	switch {
	case p == "":
		return "", rejectPath("empty")
	case v.MaxLength > 0 && len(p) > v.MaxLength:
		return "", rejectPath("longer than %d characters", v.MaxLength)
	}
	for _, r := range p {
		if r < 32 && r != '\t' {
			return "", rejectPath("control character")
		}
	}
	for _, part := range strings.FieldsFunc(p, func(r rune) bool { return r == '/' || r == '\\' }) {
		if part == ".." {
			return "", rejectPath("parent directory reference")
		}
	}

	expanded, err := ExpandHome(p)
	if err != nil {
		return "", err
	}
	abs, err := filepath.Abs(expanded)
	if err != nil {
		return "", rejectPath("%v", err)
	}
	if !v.withinRoots(abs) {
		return "", rejectPath("%s is outside %v", abs, v.Roots)
	}
	return abs, nil
}

// ExpandHome replaces a leading "~/" with the user's home directory.
func ExpandHome(p string) (string, error) {
	if p == "~" || strings.HasPrefix(p, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("cannot determine home directory: %w", err)
		}
		return filepath.Join(home, strings.TrimPrefix(p, "~")), nil
	}
	if strings.HasPrefix(p, "~") {
		return "", rejectPath("unsupported home reference %q", p)
	}
	return p, nil
}

func (v *PathValidator) withinRoots(abs string) bool {
	if len(v.Roots) == 0 {
		return true
	}
	for _, root := range v.Roots {
		r, err := filepath.Abs(root)
		if err != nil {
			continue
		}
		rel, err := filepath.Rel(r, abs)
		if err != nil {
			continue
		}
		if rel == "." || (rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))) {
			return true
		}
	}
	return false
}

// File validates a path that must be a regular file or not exist yet.
func (v *PathValidator) File(p string) (string, error) {
	clean, err := v.Clean(p)
	if err != nil {
		return "", err
	}
	if info, err := os.Stat(clean); err == nil && info.IsDir() {
		return "", rejectPath("%s is a directory", clean)
	}
	return clean, nil
}

// Dir validates a directory path and optionally creates it.
func (v *PathValidator) Dir(p string, create bool) (string, error) {
	clean, err := v.Clean(p)
	if err != nil {
		return "", err
	}
	info, err := os.Stat(clean)
	switch {
	case err == nil && !info.IsDir():
		return "", rejectPath("%s is not a directory", clean)
	case os.IsNotExist(err) && create:
		if err := os.MkdirAll(clean, 0o755); err != nil {
			return "", fmt.Errorf("creating %s: %w", clean, err)
		}
	case err != nil && !os.IsNotExist(err):
		return "", fmt.Errorf("checking %s: %w", clean, err)
	}
	return clean, nil
}
