package scanner

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileScannerScanDirectory(t *testing.T) {
	tempDir := t.TempDir()

	testFiles := []struct {
		path    string
		isJSONL bool
	}{
		{"b.jsonl", true},
		{"a.jsonl", true},
		{"c.JSONL", true},
		{"data.json", false},
		{"readme.txt", false},
		{"subdir/d.jsonl", true},
		{"subdir/other.log", false},
	}

	var expected []string
	for _, file := range testFiles {
		fullPath := filepath.Join(tempDir, file.path)
		require.NoError(t, os.MkdirAll(filepath.Dir(fullPath), 0755))
		require.NoError(t, os.WriteFile(fullPath, []byte("{}\n"), 0644))
		if file.isJSONL {
			expected = append(expected, fullPath)
		}
	}

	files, err := NewFileScanner(tempDir).Scan()
	require.NoError(t, err)
	assert.ElementsMatch(t, expected, files)
	assert.Equal(t, filepath.Join(tempDir, "a.jsonl"), files[0], "files are sorted")
}

func TestFileScannerScanSingleFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "events.txt")
	require.NoError(t, os.WriteFile(path, []byte("{}\n"), 0644))

	files, err := NewFileScanner(path).Scan()
	require.NoError(t, err)
	assert.Equal(t, []string{path}, files, "an explicit file is used whatever its extension")
}

func TestFileScannerScanEmptyDirectory(t *testing.T) {
	files, err := NewFileScanner(t.TempDir()).Scan()
	require.NoError(t, err)
	assert.Empty(t, files)
}

func TestFileScannerScanMissingPath(t *testing.T) {
	_, err := NewFileScanner("/path/that/does/not/exist").Scan()
	assert.Error(t, err)
}
