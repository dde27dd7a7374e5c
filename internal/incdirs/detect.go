// Package incdirs detects the header directories of a C project so they can
// seed parse.include_dirs.
package incdirs

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// conventionalNames are directory names that hold public headers.
var conventionalNames = map[string]bool{
	"include":  true,
	"includes": true,
	"inc":      true,
	"headers":  true,
	"public":   true,
}

// skippedNames are never searched: build output, VCS data and dependency
// caches.
var skippedNames = map[string]bool{
	"build":        true,
	"out":          true,
	"node_modules": true,
	"vendor":       true,
	"target":       true,
}

// Result contains the detected include directories and why each was chosen.
type Result struct {
	// Directories relative to the project root, sorted
	Directories []string
	// Reasons maps each directory to why it was selected
	Reasons map[string]string
}

// Detect walks projectRoot and returns every conventionally named directory
// that directly contains at least one .h file. Directories nested inside an
// already detected one are not reported separately.
func Detect(projectRoot string) *Result {
	result := &Result{
		Directories: []string{},
		Reasons:     make(map[string]string),
	}

	_ = filepath.WalkDir(projectRoot, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return nil // Skip directories we can't read
		}
		if !d.IsDir() || path == projectRoot {
			return nil
		}

		name := d.Name()
		if strings.HasPrefix(name, ".") || skippedNames[name] {
			return filepath.SkipDir
		}

		relPath, err := filepath.Rel(projectRoot, path)
		if err != nil {
			return nil
		}

		if !conventionalNames[strings.ToLower(name)] {
			return nil
		}

		count := countHeaders(path)
		if count == 0 {
			return nil
		}

		result.Directories = append(result.Directories, relPath)
		result.Reasons[relPath] = reason(name, count)
		return filepath.SkipDir
	})

	sort.Strings(result.Directories)
	return result
}

// countHeaders returns the number of .h files directly inside dir.
func countHeaders(dir string) int {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0
	}
	n := 0
	for _, e := range entries {
		if !e.IsDir() && strings.EqualFold(filepath.Ext(e.Name()), ".h") {
			n++
		}
	}
	return n
}

func reason(name string, count int) string {
	if count == 1 {
		return name + "/ directory with 1 header"
	}
	return name + "/ directory with " + itoa(count) + " headers"
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	var buf [20]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	return string(buf[i:])
}
