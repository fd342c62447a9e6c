package davfs

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/davprov/davprov/internal/fileutil"
)

// FstabEntry is one line of the system mount table.
type FstabEntry struct {
	Spec    string // mount source, for davfs the WebDAV URL
	Dir     string // mount point
	Type    string
	Options string
	Freq    int
	Pass    int
}

// Line renders the entry in fstab syntax. Spec and Dir are escaped per
// fstab conventions (space, tab and backslash as octal sequences) so paths
// with whitespace survive a round trip through the file.
func (e FstabEntry) Line() string {
	return fmt.Sprintf("%s %s %s %s %d %d",
		escapeFstabField(e.Spec), escapeFstabField(e.Dir), e.Type, e.Options, e.Freq, e.Pass)
}

// UpsertMount inserts or replaces the davfs entry for e.Dir. Entries of
// other filesystem types for the same directory are left alone.
func UpsertMount(fstabPath string, e FstabEntry) error {
	return fileutil.UpsertLine(fstabPath, matchDavfsMount(e.Dir), e.Line(), 0644)
}

// RemoveMount deletes the davfs entry for dir. Returns the number of
// lines removed (0 when no entry exists).
func RemoveMount(fstabPath, dir string) (int, error) {
	return fileutil.RemoveLines(fstabPath, matchDavfsMount(dir), 0644)
}

// LookupMount returns the davfs entry mounted at dir, if any.
func LookupMount(fstabPath, dir string) (FstabEntry, bool, error) {
	entries, err := ListMounts(fstabPath)
	if err != nil {
		return FstabEntry{}, false, err
	}
	for _, e := range entries {
		if e.Dir == dir {
			return e, true, nil
		}
	}
	return FstabEntry{}, false, nil
}

// ListMounts returns all davfs-typed entries in the mount table, in file
// order.
func ListMounts(fstabPath string) ([]FstabEntry, error) {
	lines, err := fileutil.ReadLines(fstabPath)
	if err != nil {
		return nil, err
	}

	var entries []FstabEntry
	for _, line := range lines {
		if e, ok := parseFstabLine(line); ok && e.Type == FilesystemType {
			entries = append(entries, e)
		}
	}
	return entries, nil
}

// ActiveMountDirs returns the set of directories with a live davfs mount,
// parsed from a kernel mount table in /proc/mounts format. A missing table
// yields an empty set.
func ActiveMountDirs(procMountsPath string) (map[string]bool, error) {
	lines, err := fileutil.ReadLines(procMountsPath)
	if err != nil {
		return nil, err
	}

	dirs := make(map[string]bool)
	for _, line := range lines {
		if e, ok := parseFstabLine(line); ok && e.Type == FilesystemType {
			dirs[e.Dir] = true
		}
	}
	return dirs, nil
}

// matchDavfsMount keys an fstab line by (dir, type davfs).
func matchDavfsMount(dir string) fileutil.KeyFunc {
	return func(line string) bool {
		e, ok := parseFstabLine(line)
		return ok && e.Type == FilesystemType && e.Dir == dir
	}
}

// parseFstabLine parses a single fstab line. Comments, blank lines and
// lines with fewer than four fields are rejected.
func parseFstabLine(line string) (FstabEntry, bool) {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" || strings.HasPrefix(trimmed, "#") {
		return FstabEntry{}, false
	}

	fields := strings.Fields(trimmed)
	if len(fields) < 4 {
		return FstabEntry{}, false
	}

	e := FstabEntry{
		Spec:    unescapeFstabField(fields[0]),
		Dir:     unescapeFstabField(fields[1]),
		Type:    fields[2],
		Options: fields[3],
	}
	if len(fields) > 4 {
		e.Freq, _ = strconv.Atoi(fields[4])
	}
	if len(fields) > 5 {
		e.Pass, _ = strconv.Atoi(fields[5])
	}
	return e, true
}

var fstabEscaper = strings.NewReplacer(
	"\\", `\134`,
	" ", `\040`,
	"\t", `\011`,
)

func escapeFstabField(s string) string {
	return fstabEscaper.Replace(s)
}

func unescapeFstabField(s string) string {
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		if s[i] == '\\' && i+3 < len(s) {
			if n, err := strconv.ParseUint(s[i+1:i+4], 8, 8); err == nil {
				b.WriteByte(byte(n))
				i += 3
				continue
			}
		}
		b.WriteByte(s[i])
	}
	return b.String()
}
