package commands

import (
	"github.com/spf13/cobra"

	"github.com/davprov/davprov/internal/provision"
	"github.com/davprov/davprov/pkg/config"
)

var (
	provisionBaseURL       string
	provisionMaps          []string
	provisionSecrets       []string
	provisionAuto          bool
	provisionPersist       bool
	provisionNoLocks       bool
	provisionInsecure      bool
	provisionSystemSecrets bool
	provisionProfile       string
	provisionDryRun        bool
)

var provisionCmd = &cobra.Command{
	Use:   "provision",
	Short: "Provision WebDAV mounts for local users",
	Long: `Provision WebDAV mounts for one or more local users.

Each --map entry associates a local user with a remote WebDAV account and
the directory where that account's storage is mounted. Passwords are read
from the environment variables declared via --secret; accounts without a
declared variable are prompted for interactively.

By default entries are written with noauto: users mount on demand with
'mount <path>'. Use --auto for systemd on-demand automounting or --persist
to mount during boot.

Must run as root (except with --dry-run).

Examples:
  # One user, password prompted interactively
  davprov provision --base-url https://cloud.example.com/remote.php/dav/files \
    --map alice:alice:/mnt/dav/alice

  # Two users with passwords from the environment, mounted on demand
  ALICE_PW=... BOB_PW=... davprov provision \
    --base-url https://cloud.example.com/remote.php/dav/files \
    --map alice:alice:/mnt/dav/alice --secret alice:ALICE_PW \
    --map bob:robert:/mnt/dav/bob --secret robert:BOB_PW \
    --auto

  # Everything declared in a profile file
  davprov provision --profile /etc/davprov/profile.yaml

  # Show what would change without touching the host
  davprov provision --profile /etc/davprov/profile.yaml --dry-run`,
	RunE: runProvision,
}

func init() {
	provisionCmd.Flags().StringVar(&provisionBaseURL, "base-url", "", "WebDAV base URL shared by all mounts")
	provisionCmd.Flags().StringArrayVar(&provisionMaps, "map", nil, "Mount mapping local:remote:/mount/path (repeatable)")
	provisionCmd.Flags().StringArrayVar(&provisionSecrets, "secret", nil, "Credential source remote:ENVVAR (repeatable)")
	provisionCmd.Flags().BoolVar(&provisionAuto, "auto", false, "Mount on demand via systemd automount")
	provisionCmd.Flags().BoolVar(&provisionPersist, "persist", false, "Mount during system boot")
	provisionCmd.Flags().BoolVar(&provisionNoLocks, "no-locks", false, "Disable WebDAV locking in each user's davfs2.conf")
	provisionCmd.Flags().BoolVar(&provisionInsecure, "insecure", false, "Accept untrusted server certificates")
	provisionCmd.Flags().BoolVar(&provisionSystemSecrets, "system-secrets", false, "Also store credentials in /etc/davfs2/secrets")
	provisionCmd.Flags().StringVar(&provisionProfile, "profile", "", "Profile file declaring mounts and secrets")
	provisionCmd.Flags().BoolVar(&provisionDryRun, "dry-run", false, "Report planned changes without touching the host")

	provisionCmd.MarkFlagsMutuallyExclusive("auto", "persist")
}

func runProvision(cmd *cobra.Command, args []string) error {
	cfg, err := buildProvisionConfig()
	if err != nil {
		return err
	}

	return provision.New(cfg).Run(cmd.Context())
}

// buildProvisionConfig merges the profile file (when given) with the
// command-line flags. Flags win: an explicit --base-url or --map list
// replaces what the profile declares.
func buildProvisionConfig() (provision.Config, error) {
	var cfg provision.Config

	if provisionProfile != "" {
		prof, err := config.MustLoad(provisionProfile)
		if err != nil {
			return cfg, err
		}
		cfg.BaseURL = prof.BaseURL
		cfg.Mappings = prof.Mappings()
		cfg.Sources = prof.Sources()
		cfg.Mode = prof.Mode
		cfg.NoLocks = prof.NoLocks
		cfg.InsecureTLS = prof.TrustAnyCert
		cfg.SystemSecrets = prof.SystemSecrets
	} else {
		cfg.Mode = provision.ModeManual
	}

	if provisionBaseURL != "" {
		cfg.BaseURL = provisionBaseURL
	}

	if len(provisionMaps) > 0 {
		cfg.Mappings = nil
		for _, raw := range provisionMaps {
			m, err := provision.ParseMapping(raw)
			if err != nil {
				return cfg, err
			}
			cfg.Mappings = append(cfg.Mappings, m)
		}
	}

	for _, raw := range provisionSecrets {
		s, err := provision.ParseCredentialSource(raw)
		if err != nil {
			return cfg, err
		}
		cfg.Sources = append(cfg.Sources, s)
	}

	if provisionAuto {
		cfg.Mode = provision.ModeAuto
	}
	if provisionPersist {
		cfg.Mode = provision.ModeBoot
	}

	cfg.NoLocks = cfg.NoLocks || provisionNoLocks
	cfg.InsecureTLS = cfg.InsecureTLS || provisionInsecure
	cfg.SystemSecrets = cfg.SystemSecrets || provisionSystemSecrets
	cfg.DryRun = provisionDryRun

	return cfg, nil
}
