package config

import (
	"strings"

	"github.com/davprov/davprov/internal/provision"
)

// ApplyDefaults fills unspecified profile fields with sensible defaults.
// Zero values are replaced; explicit values are preserved.
func ApplyDefaults(p *Profile) {
	if p.Mode == "" {
		p.Mode = provision.ModeManual
	}
	applyLoggingDefaults(&p.Logging)
}

func applyLoggingDefaults(cfg *LoggingConfig) {
	if cfg.Level == "" {
		cfg.Level = "INFO"
	}
	cfg.Level = strings.ToUpper(cfg.Level)

	if cfg.Format == "" {
		cfg.Format = "text"
	}
}

// DefaultProfile returns a profile with all defaults applied. Used when no
// profile file exists and as the skeleton written by `davprov init`.
func DefaultProfile() *Profile {
	p := &Profile{}
	ApplyDefaults(p)
	return p
}

// SampleProfile returns a complete example profile for `davprov init`.
func SampleProfile() *Profile {
	p := &Profile{
		BaseURL: "https://cloud.example.com/remote.php/dav/files",
		Mounts: []MountConfig{
			{LocalUser: "alice", RemoteUser: "alice", MountPath: "/mnt/dav/alice"},
		},
		Secrets: []SecretSourceConfig{
			{RemoteUser: "alice", Env: "ALICE_DAV_PASSWORD"},
		},
		Mode: provision.ModeManual,
	}
	ApplyDefaults(p)
	return p
}
