// Package fileutil provides line-oriented edits of plain-text system files.
//
// The davfs2 secrets file, the per-user davfs2.conf and /etc/fstab are all
// line-keyed text files that davprov updates in place. Every mutation here
// follows the same shape: read the file, drop lines matching a key
// predicate, append the replacement, and swap the result in atomically so
// an interrupted run never leaves a truncated file behind.
package fileutil

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// KeyFunc reports whether a line belongs to the record being replaced.
type KeyFunc func(line string) bool

// EnsureFile creates an empty file with the given mode if it does not
// exist. The mode is enforced on existing files as well, since secrets
// files must stay private regardless of who created them.
func EnsureFile(path string, mode os.FileMode) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create parent directory for %s: %w", path, err)
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY, mode)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return err
	}

	return os.Chmod(path, mode)
}

// ReadLines returns the lines of path without trailing newlines. A missing
// file reads as empty.
func ReadLines(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	text := strings.TrimRight(string(data), "\n")
	if text == "" {
		return nil, nil
	}
	return strings.Split(text, "\n"), nil
}

// UpsertLine replaces every line matching key with a single instance of
// newLine, appended at the end of the file. When no line matches, newLine
// is simply appended. The file is created with mode if missing. A rewrite
// that would not change the file's content is skipped entirely, which
// keeps repeated runs byte-identical in both content and mtime.
func UpsertLine(path string, key KeyFunc, newLine string, mode os.FileMode) error {
	lines, err := ReadLines(path)
	if err != nil {
		return err
	}

	kept := make([]string, 0, len(lines)+1)
	for _, line := range lines {
		if !key(line) {
			kept = append(kept, line)
		}
	}
	kept = append(kept, newLine)

	if equalLines(lines, kept) {
		return nil
	}
	return writeLines(path, kept, mode)
}

// RemoveLines deletes every line matching key. Removing from a missing
// file is a no-op. Returns the number of lines removed.
func RemoveLines(path string, key KeyFunc, mode os.FileMode) (int, error) {
	lines, err := ReadLines(path)
	if err != nil {
		return 0, err
	}

	kept := make([]string, 0, len(lines))
	for _, line := range lines {
		if !key(line) {
			kept = append(kept, line)
		}
	}

	removed := len(lines) - len(kept)
	if removed == 0 {
		return 0, nil
	}
	return removed, writeLines(path, kept, mode)
}

// AppendLineIfAbsent appends line unless an identical line already exists.
func AppendLineIfAbsent(path string, line string, mode os.FileMode) error {
	lines, err := ReadLines(path)
	if err != nil {
		return err
	}

	for _, existing := range lines {
		if existing == line {
			return nil
		}
	}
	return writeLines(path, append(lines, line), mode)
}

// writeLines rewrites path with the given lines. The content is written to
// a temporary file in the same directory and renamed over the original so
// readers never observe a partially written file. An existing file keeps
// its permissions; mode applies only when the file is created here.
func writeLines(path string, lines []string, mode os.FileMode) error {
	if info, err := os.Stat(path); err == nil {
		mode = info.Mode().Perm()
	}

	var content string
	if len(lines) > 0 {
		content = strings.Join(lines, "\n") + "\n"
	}

	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, []byte(content), mode); err != nil {
		return err
	}

	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return err
	}

	return os.Chmod(path, mode)
}

func equalLines(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
