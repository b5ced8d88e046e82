package validation

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPathValidatorClean(t *testing.T) {
	root := t.TempDir()
	v := &PathValidator{Roots: []string{root}, MaxLength: 4096}

	got, err := v.Clean(filepath.Join(root, "mrkt.db"))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "mrkt.db"), got)

	got, err = v.Clean(root)
	require.NoError(t, err)
	assert.Equal(t, root, got)

	tests := []struct {
		name string
		path string
	}{
		{"empty", ""},
		{"traversal", filepath.Join(root, "..", "escape.db")},
		{"raw traversal", root + "/../escape.db"},
		{"outside root", "/etc/passwd"},
		{"sibling prefix", root + "-other/x.db"},
		{"control char", filepath.Join(root, "a\x01b")},
		{"null byte", filepath.Join(root, "a\x00b")},
		{"user tilde", "~other/x"},
		{"too long", filepath.Join(root, strings.Repeat("a", 5000))},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := v.Clean(tt.path)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrUnsafePath), err.Error())
		})
	}
}

func TestExpandHome(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)

	got, err := ExpandHome("~/.mrkt/mrkt.db")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, ".mrkt", "mrkt.db"), got)

	got, err = ExpandHome("~")
	require.NoError(t, err)
	assert.Equal(t, home, got)

	got, err = ExpandHome("/abs/path")
	require.NoError(t, err)
	assert.Equal(t, "/abs/path", got)
}

func TestDefaultRoots(t *testing.T) {
	v := NewPathValidator()
	_, err := v.Clean(filepath.Join(DataDir(), "index.bleve"))
	assert.NoError(t, err)
	_, err = v.Clean(filepath.Join(ConfigDir(), "config.toml"))
	assert.NoError(t, err)
	_, err = v.Clean(filepath.Join(os.TempDir(), "mrkt-test.db"))
	assert.NoError(t, err)

	_, err = NewUnrestrictedPathValidator().Clean("/srv/catalog/seed.toml")
	assert.NoError(t, err)
}

func TestPathValidatorFileAndDir(t *testing.T) {
	root := t.TempDir()
	v := &PathValidator{Roots: []string{root}}

	dir, err := v.Dir(filepath.Join(root, "index.bleve"), true)
	require.NoError(t, err)
	info, err := os.Stat(dir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())

	_, err = v.File(dir)
	assert.ErrorIs(t, err, ErrUnsafePath, "a directory is not a file")

	file := filepath.Join(root, "mrkt.db")
	require.NoError(t, os.WriteFile(file, []byte("x"), 0o600))
	got, err := v.File(file)
	require.NoError(t, err)
	assert.Equal(t, file, got)

	_, err = v.Dir(file, false)
	assert.ErrorIs(t, err, ErrUnsafePath, "a file is not a directory")

	missing, err := v.Dir(filepath.Join(root, "later"), false)
	require.NoError(t, err)
	_, err = os.Stat(missing)
	assert.True(t, os.IsNotExist(err))
}
