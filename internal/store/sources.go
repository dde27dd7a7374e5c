package store

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
)

// HashFile returns the hex SHA-256 of a file's contents.
func HashFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("hash %s: %w", path, err)
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}

// ChangedSources returns the source files of run whose contents differ from
// what was read when the run was saved. Files that can no longer be read
// count as changed.
func ChangedSources(run *Run) []string {
	var changed []string
	check := func(path, saved string) {
		current, err := HashFile(path)
		if err != nil || current != saved {
			changed = append(changed, path)
		}
	}
	check(run.CommandFile, run.CommandHash)
	if run.TelemetryFile != run.CommandFile {
		check(run.TelemetryFile, run.TelemetryHash)
	}
	return changed
}
