package davfs

import "github.com/davprov/davprov/internal/fileutil"

// Option-override lines written into a per-user davfs2.conf.
const (
	// ConfNoLocks disables WebDAV file locking. Some servers (including
	// several Nextcloud setups) reject LOCK requests outright.
	ConfNoLocks = "use_locks 0"

	// ConfTrustServerCert makes mount.davfs accept whatever TLS
	// certificate the server presents.
	ConfTrustServerCert = "trust_server_cert 1"
)

// EnsureConfLine appends an option line to a davfs2.conf unless the exact
// line is already present. Other lines in the file are never touched.
func EnsureConfLine(confPath, line string) error {
	return fileutil.AppendLineIfAbsent(confPath, line, ConfFileMode)
}
