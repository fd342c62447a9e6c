// Package davfs knows the on-disk formats and conventions of the davfs2
// mount helper: the secrets file, the per-user davfs2.conf and the fstab
// entries it mounts from.
package davfs

import "os"

const (
	// FilesystemType is the fstab filesystem type handled by mount.davfs.
	FilesystemType = "davfs"

	// HelperBinary is the mount helper binary provided by the davfs2 package.
	HelperBinary = "mount.davfs"

	// PackageName is the distribution package that ships the mount helper.
	PackageName = "davfs2"

	// HelperGroup is the system group that gates non-root davfs2 mounts.
	HelperGroup = "davfs2"

	// UserConfigDirName is the per-user configuration directory under $HOME.
	UserConfigDirName = ".davfs2"

	// SecretsFileName is the credentials file name inside a config directory.
	SecretsFileName = "secrets"

	// ConfFileName is the option-override file name inside a config directory.
	ConfFileName = "davfs2.conf"

	// DefaultSystemSecrets is the system-wide secrets file read at boot.
	DefaultSystemSecrets = "/etc/davfs2/secrets"

	// DefaultFstab is the system mount table.
	DefaultFstab = "/etc/fstab"
)

// File and directory modes mandated for davfs2 credential material.
// mount.davfs refuses secrets files readable by group or other.
const (
	SecretsFileMode   os.FileMode = 0600
	ConfFileMode      os.FileMode = 0600
	UserConfigDirMode os.FileMode = 0700
	MountDirMode      os.FileMode = 0750
)
