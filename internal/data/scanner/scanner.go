package scanner

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/penwyp/go-team-monitor/internal/util"
)

// FileScanner finds event replay files. The root may be a single file,
// which is returned as is, or a directory walked for *.jsonl files.
type FileScanner struct {
	root      string
	extension string
}

// NewFileScanner creates a new FileScanner instance
func NewFileScanner(root string) *FileScanner {
	return &FileScanner{
		root:      util.ExpandPath(root),
		extension: ".jsonl",
	}
}

// Scan returns the matching files in lexical order
func (s *FileScanner) Scan() ([]string, error) {
	start := time.Now()

	info, err := os.Stat(s.root)
	if err != nil {
		return nil, fmt.Errorf("failed to scan %s: %w", s.root, err)
	}
	if !info.IsDir() {
		return []string{s.root}, nil
	}

	var files []string
	dirCount := 0
	err = filepath.WalkDir(s.root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			util.LogDebug(fmt.Sprintf("Skip file (error): %s - %v", path, err))
			return nil
		}
		if d.IsDir() {
			dirCount++
			return nil
		}
		if strings.HasSuffix(strings.ToLower(path), s.extension) {
			files = append(files, path)
		}
		return nil
	})
	sort.Strings(files)

	util.LogDebug(fmt.Sprintf("File scan completed: duration %v, scanned %d directories, found %d replay files",
		time.Since(start), dirCount, len(files)))
	return files, err
}
