// Package provision implements the idempotent provisioning of WebDAV
// (davfs2) mounts: credential files, per-user option overrides, group
// membership and mount-table entries, driven by a list of mount mappings.
package provision

import (
	"path/filepath"
	"strings"
)

// MountMapping associates a local account with a remote WebDAV account and
// the directory where that account's storage is mounted. Mappings are
// keyed by MountPath: provisioning the same path again replaces the
// earlier state instead of duplicating it.
type MountMapping struct {
	LocalUser  string `json:"local_user"`
	RemoteUser string `json:"remote_user"`
	MountPath  string `json:"mount_path"`
}

// ParseMapping parses a "local:remote:/mount/path" triple.
func ParseMapping(s string) (MountMapping, error) {
	parts := strings.SplitN(s, ":", 3)
	if len(parts) != 3 {
		return MountMapping{}, validationf("mapping %q must have the form local:remote:/mount/path", s)
	}

	m := MountMapping{
		LocalUser:  strings.TrimSpace(parts[0]),
		RemoteUser: strings.TrimSpace(parts[1]),
		MountPath:  strings.TrimSpace(parts[2]),
	}

	if m.LocalUser == "" || m.RemoteUser == "" || m.MountPath == "" {
		return MountMapping{}, validationf("mapping %q has an empty field", s)
	}
	if !filepath.IsAbs(m.MountPath) {
		return MountMapping{}, validationf("mount path %q must be absolute", m.MountPath)
	}

	m.MountPath = filepath.Clean(m.MountPath)
	return m, nil
}

// CredentialSource names the environment variable holding the password for
// a remote account. When a remote user has no source, the password is
// requested interactively instead.
type CredentialSource struct {
	RemoteUser string `json:"remote_user"`
	EnvVar     string `json:"env"`
}

// ParseCredentialSource parses a "remote:ENVVAR" pair.
func ParseCredentialSource(s string) (CredentialSource, error) {
	parts := strings.SplitN(s, ":", 2)
	if len(parts) != 2 {
		return CredentialSource{}, validationf("credential source %q must have the form remote:ENVVAR", s)
	}

	c := CredentialSource{
		RemoteUser: strings.TrimSpace(parts[0]),
		EnvVar:     strings.TrimSpace(parts[1]),
	}
	if c.RemoteUser == "" || c.EnvVar == "" {
		return CredentialSource{}, validationf("credential source %q has an empty field", s)
	}
	return c, nil
}

// NormalizeBaseURL strips trailing slashes so URL composition yields
// exactly one separator between the base and the remote user segment.
func NormalizeBaseURL(baseURL string) string {
	return strings.TrimRight(strings.TrimSpace(baseURL), "/")
}

// UserURL composes the per-account WebDAV URL. davfs2 secrets match on
// the exact URL string, so the trailing slash is part of the key.
func UserURL(baseURL, remoteUser string) string {
	return NormalizeBaseURL(baseURL) + "/" + remoteUser + "/"
}
