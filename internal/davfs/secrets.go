package davfs

import (
	"strings"

	"github.com/davprov/davprov/internal/fileutil"
)

// SecretRecord is one credential line in a davfs2 secrets file, mapping a
// WebDAV URL and account to a password. A secrets file holds at most one
// record per (URL, user) pair; updates replace the existing line.
type SecretRecord struct {
	URL      string
	User     string
	Password string
}

// Line renders the record in davfs2 secrets syntax. Fields are separated
// by two spaces; fields containing whitespace, quotes or backslashes are
// double-quoted with backslash escaping, which is the quoting mount.davfs
// itself understands. This avoids the ambiguity of delimiter-only formats
// when a password contains consecutive spaces.
func (r SecretRecord) Line() string {
	return quoteField(r.URL) + "  " + quoteField(r.User) + "  " + quoteField(r.Password)
}

// UpsertSecret inserts or replaces the record for (URL, User) in the
// secrets file at path. The file is created with mode 0600 if missing.
func UpsertSecret(path string, rec SecretRecord) error {
	return fileutil.UpsertLine(path, matchSecret(rec.URL, rec.User), rec.Line(), SecretsFileMode)
}

// RemoveSecretsByURL deletes every record for the given URL regardless of
// user. Returns the number of lines removed.
func RemoveSecretsByURL(path, url string) (int, error) {
	return fileutil.RemoveLines(path, func(line string) bool {
		fields := splitSecretFields(line)
		return len(fields) >= 2 && fields[0] == url
	}, SecretsFileMode)
}

// matchSecret matches the record line keyed by (url, user). Comments and
// blank lines never match.
func matchSecret(url, user string) fileutil.KeyFunc {
	return func(line string) bool {
		fields := splitSecretFields(line)
		return len(fields) >= 2 && fields[0] == url && fields[1] == user
	}
}

// splitSecretFields splits a secrets line into fields the way mount.davfs
// reads them: whitespace separated, with optional double-quoted fields
// supporting \" and \\ escapes. Comment lines yield no fields.
func splitSecretFields(line string) []string {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" || strings.HasPrefix(trimmed, "#") {
		return nil
	}

	var fields []string
	var cur strings.Builder
	inQuote := false
	escaped := false
	inField := false

	for _, c := range trimmed {
		switch {
		case escaped:
			cur.WriteRune(c)
			escaped = false
		case inQuote && c == '\\':
			escaped = true
		case c == '"':
			inQuote = !inQuote
			inField = true
		case !inQuote && (c == ' ' || c == '\t'):
			if inField {
				fields = append(fields, cur.String())
				cur.Reset()
				inField = false
			}
		default:
			cur.WriteRune(c)
			inField = true
		}
	}
	if inField {
		fields = append(fields, cur.String())
	}

	return fields
}

// quoteField quotes a field when it contains characters that would break
// whitespace-separated parsing.
func quoteField(s string) string {
	if s != "" && !strings.ContainsAny(s, " \t\"\\#") {
		return s
	}

	var b strings.Builder
	b.WriteByte('"')
	for _, c := range s {
		if c == '"' || c == '\\' {
			b.WriteByte('\\')
		}
		b.WriteRune(c)
	}
	b.WriteByte('"')
	return b.String()
}
