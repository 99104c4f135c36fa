package scan

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dfmorales/tb-conciliador/constants"
)

func touch(t *testing.T, path string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))
}

func TestScanDirectory(t *testing.T) {
	root := t.TempDir()
	touch(t, filepath.Join(root, "soporte_00123.pdf"))
	touch(t, filepath.Join(root, "soporte_00124.PNG"))
	touch(t, filepath.Join(root, "foto.jpeg"))
	touch(t, filepath.Join(root, ".hidden.pdf"))
	touch(t, filepath.Join(root, "notas.txt"))
	touch(t, filepath.Join(root, "sub", "soporte_00125.pdf"))

	s := NewScanner(false, nil)
	docs, stats, err := s.ScanDirectory(root)
	require.NoError(t, err)

	names := make([]string, len(docs))
	for i, d := range docs {
		names[i] = d.Name
	}
	// sorted by path, hidden and unsupported skipped, subdir not entered
	assert.Equal(t, []string{"foto", "soporte_00123", "soporte_00124"}, names)
	assert.Equal(t, uint32(3), stats.Matched)
	assert.Equal(t, uint32(2), stats.Skipped)

	for _, d := range docs {
		assert.NotEmpty(t, d.Format)
		assert.Equal(t, constants.NormalizeExt(d.Ext), d.Ext)
	}
}

func TestScanDirectoryRecursive(t *testing.T) {
	root := t.TempDir()
	touch(t, filepath.Join(root, "a.pdf"))
	touch(t, filepath.Join(root, "sub", "b.pdf"))
	touch(t, filepath.Join(root, ".git", "c.pdf"))

	s := NewScanner(true, nil)
	docs, _, err := s.ScanDirectory(root)
	require.NoError(t, err)

	names := make([]string, len(docs))
	for i, d := range docs {
		names[i] = d.Name
	}
	// hidden directories stay skipped even recursively
	assert.Equal(t, []string{"a", "b"}, names)
}

func TestScanDirectoryCustomExtensions(t *testing.T) {
	root := t.TempDir()
	touch(t, filepath.Join(root, "a.pdf"))
	touch(t, filepath.Join(root, "b.png"))

	s := NewScanner(false, nil)
	s.AllowedExts = map[string]struct{}{"pdf": {}}
	docs, _, err := s.ScanDirectory(root)
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "a", docs[0].Name)
}

func TestScanDirectoryMissing(t *testing.T) {
	s := NewScanner(false, nil)
	_, _, err := s.ScanDirectory(filepath.Join(t.TempDir(), "nope"))
	assert.Error(t, err)
}
