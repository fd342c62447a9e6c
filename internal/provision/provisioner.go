package provision

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/davprov/davprov/internal/davfs"
	"github.com/davprov/davprov/internal/fileutil"
	"github.com/davprov/davprov/internal/logger"
	"github.com/davprov/davprov/internal/system"
)

// Config is the validated input of one provisioning run.
type Config struct {
	BaseURL       string
	Mappings      []MountMapping
	Sources       []CredentialSource
	Mode          Mode
	NoLocks       bool
	InsecureTLS   bool
	SystemSecrets bool
	DryRun        bool
}

// Validate checks the input shape before any mutation begins.
func (c *Config) Validate() error {
	if NormalizeBaseURL(c.BaseURL) == "" {
		return validationf("base URL is required")
	}
	u, err := url.Parse(NormalizeBaseURL(c.BaseURL))
	if err != nil || u.Scheme == "" || u.Host == "" {
		return validationf("base URL %q is not a valid URL", c.BaseURL)
	}

	if len(c.Mappings) == 0 {
		return validationf("at least one mount mapping is required")
	}

	seen := make(map[string]bool, len(c.Mappings))
	for _, m := range c.Mappings {
		if seen[m.MountPath] {
			return validationf("duplicate mount path %s", m.MountPath)
		}
		seen[m.MountPath] = true
	}

	mode, err := ParseMode(string(c.Mode))
	if err != nil {
		return err
	}
	c.Mode = mode
	return nil
}

// Layout carries the host paths a run writes to. Tests point it at a
// temporary directory.
type Layout struct {
	Fstab         string
	SystemSecrets string
}

// DefaultLayout returns the real host paths.
func DefaultLayout() Layout {
	return Layout{
		Fstab:         davfs.DefaultFstab,
		SystemSecrets: davfs.DefaultSystemSecrets,
	}
}

// Provisioner performs one pass over the mapping list, applying the
// idempotent per-mapping sequence. All host interaction is routed through
// the exported collaborator fields so tests can substitute fakes.
type Provisioner struct {
	Config      Config
	Layout      Layout
	Runner      system.Runner
	Users       system.UserDB
	Credentials CredentialResolver
	Log         *slog.Logger

	// Euid and Chown default to the real os calls.
	Euid  func() int
	Chown func(path string, uid, gid int) error
}

// New creates a Provisioner wired to the real host.
func New(cfg Config) *Provisioner {
	return &Provisioner{
		Config: cfg,
		Layout: DefaultLayout(),
		Runner: system.ExecRunner{},
		Users:  system.OSUserDB{},
		Credentials: &EnvCredentials{
			Sources:  BuildSourceMap(cfg.Sources),
			Fallback: &PromptCredentials{},
		},
		Log:   logger.With("run_id", uuid.NewString()),
		Euid:  os.Geteuid,
		Chown: os.Chown,
	}
}

// Run validates the inputs, prepares the host and applies the per-mapping
// sequence in input order. The first failure aborts the run; mappings
// already applied stay applied, and re-running after the fix converges
// because every step is an upsert.
func (p *Provisioner) Run(ctx context.Context) error {
	if err := p.Config.Validate(); err != nil {
		return err
	}

	// Resolve every local user up front so a typo in the last mapping
	// does not leave the first half applied.
	users := make(map[string]system.User, len(p.Config.Mappings))
	for _, m := range p.Config.Mappings {
		if _, ok := users[m.LocalUser]; ok {
			continue
		}
		u, err := p.Users.LookupUser(m.LocalUser)
		if err != nil {
			return environmentf("local user %s does not exist on this host", m.LocalUser)
		}
		users[m.LocalUser] = u
	}

	if p.Config.DryRun {
		return p.dryRun(users)
	}

	if p.Euid() != 0 {
		return fmt.Errorf("%w: provisioning must run as root", ErrPermission)
	}

	if err := p.ensureHelperInstalled(ctx); err != nil {
		return err
	}

	if err := fileutil.EnsureFile(p.Layout.SystemSecrets, davfs.SecretsFileMode); err != nil {
		return fmt.Errorf("prepare system secrets file: %w", err)
	}

	for _, m := range p.Config.Mappings {
		if err := p.provisionMapping(ctx, m, users[m.LocalUser]); err != nil {
			return fmt.Errorf("mapping %s: %w", m.MountPath, err)
		}
	}

	return nil
}

// ensureHelperInstalled probes for mount.davfs and installs the davfs2
// package when absent, using the first supported package manager found on
// the host.
func (p *Provisioner) ensureHelperInstalled(ctx context.Context) error {
	if system.BinaryInstalled(p.Runner, davfs.HelperBinary) {
		return nil
	}

	pm, ok := system.DetectPackageManager(p.Runner)
	if !ok {
		return environmentf("%s is not installed and no supported package manager was found", davfs.HelperBinary)
	}

	p.Log.Info("installing mount helper", "package", davfs.PackageName, "manager", pm.Probe)
	if err := system.InstallPackage(ctx, p.Runner, pm, davfs.PackageName); err != nil {
		return environmentf("%v", err)
	}
	return nil
}

// provisionMapping applies the full idempotent sequence for one mapping.
func (p *Provisioner) provisionMapping(ctx context.Context, m MountMapping, u system.User) error {
	userURL := UserURL(p.Config.BaseURL, m.RemoteUser)

	password, err := p.Credentials.Resolve(m.RemoteUser)
	if err != nil {
		return err
	}

	if err := system.EnsureGroupMembership(ctx, p.Runner, p.Users, m.LocalUser, davfs.HelperGroup); err != nil {
		return err
	}

	if err := p.ensureMountDir(m.MountPath, u); err != nil {
		return err
	}

	confDir := filepath.Join(u.HomeDir, davfs.UserConfigDirName)
	userSecrets := filepath.Join(confDir, davfs.SecretsFileName)
	userConf := filepath.Join(confDir, davfs.ConfFileName)
	if err := p.ensureUserConfig(confDir, userSecrets, userConf, u); err != nil {
		return err
	}

	rec := davfs.SecretRecord{URL: userURL, User: m.RemoteUser, Password: password}
	if err := davfs.UpsertSecret(userSecrets, rec); err != nil {
		return fmt.Errorf("update secrets for %s: %w", m.LocalUser, err)
	}
	if err := p.Chown(userSecrets, u.UID, u.GID); err != nil {
		return err
	}

	if p.Config.SystemSecrets {
		if err := davfs.UpsertSecret(p.Layout.SystemSecrets, rec); err != nil {
			return fmt.Errorf("update system secrets: %w", err)
		}
	}

	if p.Config.NoLocks {
		if err := davfs.EnsureConfLine(userConf, davfs.ConfNoLocks); err != nil {
			return err
		}
	}
	if p.Config.InsecureTLS {
		if err := davfs.EnsureConfLine(userConf, davfs.ConfTrustServerCert); err != nil {
			return err
		}
	}

	entry := davfs.FstabEntry{
		Spec:    userURL,
		Dir:     m.MountPath,
		Type:    davfs.FilesystemType,
		Options: MountOptions(p.Config.Mode, u.UID, u.GID),
	}
	if err := davfs.UpsertMount(p.Layout.Fstab, entry); err != nil {
		return fmt.Errorf("update mount table: %w", err)
	}

	p.Log.Info("mount provisioned",
		"mount_path", m.MountPath,
		"url", userURL,
		"local_user", m.LocalUser,
		"mode", string(p.Config.Mode))
	return nil
}

// ensureMountDir creates the mount point owned by the local user. An
// existing directory keeps its content; ownership and mode are enforced.
func (p *Provisioner) ensureMountDir(path string, u system.User) error {
	if err := os.MkdirAll(path, davfs.MountDirMode); err != nil {
		return fmt.Errorf("create mount directory %s: %w", path, err)
	}
	if err := os.Chmod(path, davfs.MountDirMode); err != nil {
		return err
	}
	return p.Chown(path, u.UID, u.GID)
}

// ensureUserConfig creates ~user/.davfs2 with its secrets and conf files,
// all private to the user.
func (p *Provisioner) ensureUserConfig(confDir, secrets, conf string, u system.User) error {
	if err := os.MkdirAll(confDir, davfs.UserConfigDirMode); err != nil {
		return fmt.Errorf("create config directory %s: %w", confDir, err)
	}
	if err := os.Chmod(confDir, davfs.UserConfigDirMode); err != nil {
		return err
	}
	if err := p.Chown(confDir, u.UID, u.GID); err != nil {
		return err
	}

	for path, mode := range map[string]os.FileMode{
		secrets: davfs.SecretsFileMode,
		conf:    davfs.ConfFileMode,
	} {
		if err := fileutil.EnsureFile(path, mode); err != nil {
			return err
		}
		if err := p.Chown(path, u.UID, u.GID); err != nil {
			return err
		}
	}
	return nil
}

// dryRun reports the planned changes without touching the host. Credential
// resolution is skipped so a dry run never prompts.
func (p *Provisioner) dryRun(users map[string]system.User) error {
	if !system.BinaryInstalled(p.Runner, davfs.HelperBinary) {
		p.Log.Info("would install mount helper", "package", davfs.PackageName)
	}

	for _, m := range p.Config.Mappings {
		u := users[m.LocalUser]
		p.Log.Info("would provision mount",
			"mount_path", m.MountPath,
			"url", UserURL(p.Config.BaseURL, m.RemoteUser),
			"local_user", m.LocalUser,
			"mode", string(p.Config.Mode),
			"options", MountOptions(p.Config.Mode, u.UID, u.GID))
	}
	return nil
}
