package provision

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/davprov/davprov/internal/davfs"
	"github.com/davprov/davprov/internal/logger"
	"github.com/davprov/davprov/internal/system"
)

// RemoveResult summarizes what a removal touched.
type RemoveResult struct {
	MountPath         string `json:"mount_path"`
	URL               string `json:"url"`
	LocalUser         string `json:"local_user,omitempty"`
	UserSecretsLines  int    `json:"user_secrets_removed"`
	SystemSecretLines int    `json:"system_secrets_removed"`
}

// Remover deletes a provisioned mount: its fstab entry plus the matching
// credential lines in the owning user's secrets file and the system
// secrets file. The mount directory, group membership and davfs2.conf
// overrides are left in place.
type Remover struct {
	Layout Layout
	Users  system.UserDB
	Log    *slog.Logger
	Euid   func() int
}

// NewRemover returns a Remover wired to the real host.
func NewRemover() *Remover {
	return &Remover{
		Layout: DefaultLayout(),
		Users:  system.OSUserDB{},
		Log:    logger.With("run_id", uuid.NewString()),
		Euid:   os.Geteuid,
	}
}

// Remove deletes the davfs mount at mountPath. The owning user is
// recovered from the entry's uid option; when that fails, only the fstab
// entry and system secrets are cleaned.
func (r *Remover) Remove(mountPath string) (RemoveResult, error) {
	mountPath = filepath.Clean(mountPath)
	res := RemoveResult{MountPath: mountPath}

	if r.Euid() != 0 {
		return res, fmt.Errorf("%w: removal must run as root", ErrPermission)
	}

	entry, found, err := davfs.LookupMount(r.Layout.Fstab, mountPath)
	if err != nil {
		return res, fmt.Errorf("read mount table: %w", err)
	}
	if !found {
		return res, validationf("no davfs mount at %s", mountPath)
	}
	res.URL = entry.Spec

	if _, err := davfs.RemoveMount(r.Layout.Fstab, mountPath); err != nil {
		return res, fmt.Errorf("update mount table: %w", err)
	}

	if uid, ok := optionUID(entry.Options); !ok {
		r.Log.Warn("entry has no uid option; per-user secrets left in place",
			"mount_path", mountPath,
			"url", entry.Spec)
	} else if u, err := r.Users.LookupUserID(uid); err != nil {
		r.Log.Warn("owning user not found; its ~/.davfs2/secrets keeps the credential",
			"uid", uid,
			"url", entry.Spec)
	} else {
		res.LocalUser = u.Name
		userSecrets := filepath.Join(u.HomeDir, davfs.UserConfigDirName, davfs.SecretsFileName)
		n, err := davfs.RemoveSecretsByURL(userSecrets, entry.Spec)
		if err != nil {
			return res, fmt.Errorf("update secrets for %s: %w", u.Name, err)
		}
		res.UserSecretsLines = n
	}

	n, err := davfs.RemoveSecretsByURL(r.Layout.SystemSecrets, entry.Spec)
	if err != nil {
		return res, fmt.Errorf("update system secrets: %w", err)
	}
	res.SystemSecretLines = n

	return res, nil
}

// optionUID extracts the uid= value from an fstab option string.
func optionUID(options string) (int, bool) {
	for _, opt := range strings.Split(options, ",") {
		if v, ok := strings.CutPrefix(opt, "uid="); ok {
			uid, err := strconv.Atoi(v)
			return uid, err == nil
		}
	}
	return 0, false
}
