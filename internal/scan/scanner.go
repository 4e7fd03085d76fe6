package scan

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

type FileInfo struct {
	Path  string
	Mtime int64
	Size  int64
}

var importExts = map[string]bool{
	".json": true,
	".html": true,
	".htm":  true,
}

// IsImportable reports whether a file name looks like a chat export.
func IsImportable(path string) bool {
	return importExts[strings.ToLower(filepath.Ext(path))]
}

// ScanPaths expands files and directories into the export files to import.
// Files named explicitly are always kept; directories are walked for
// .json/.html/.htm files, skipping hidden directories.
func ScanPaths(paths ...string) ([]FileInfo, error) {
	var files []FileInfo
	seen := make(map[string]bool)
	add := func(path string, info os.FileInfo) {
		if seen[path] {
			return
		}
		seen[path] = true
		files = append(files, FileInfo{
			Path:  path,
			Mtime: info.ModTime().Unix(),
			Size:  info.Size(),
		})
	}

	for _, root := range paths {
		info, err := os.Stat(root)
		if err != nil {
			return nil, fmt.Errorf("scan %s: %w", root, err)
		}
		if !info.IsDir() {
			add(root, info)
			continue
		}
		err = filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
			if err != nil {
				return nil // skip unreadable dirs
			}
			if info.IsDir() {
				if path != root && strings.HasPrefix(info.Name(), ".") {
					return filepath.SkipDir
				}
				return nil
			}
			if IsImportable(path) {
				add(path, info)
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
	}

	sort.Slice(files, func(i, j int) bool { return files[i].Path < files[j].Path })
	return files, nil
}
