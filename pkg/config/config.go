package config

import (
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/davprov/davprov/internal/provision"
)

// Profile is the declarative description of a set of WebDAV mounts.
//
// A profile replaces the flag-only invocation for hosts that provision the
// same mounts repeatedly: `davprov provision --profile host.yaml` applies
// everything the file declares, and individual flags still override it.
//
// Configuration sources (in order of precedence):
//  1. CLI flags (highest priority)
//  2. Environment variables (DAVPROV_*)
//  3. Profile file (YAML)
//  4. Default values (lowest priority)
type Profile struct {
	// BaseURL is the WebDAV base URL shared by all mounts.
	BaseURL string `mapstructure:"base_url" validate:"required,url" yaml:"base_url"`

	// Mounts lists the local-user to remote-account mappings to provision.
	Mounts []MountConfig `mapstructure:"mounts" validate:"required,min=1,dive" yaml:"mounts"`

	// Secrets declares which environment variable holds the password for
	// a remote account. Accounts without an entry are prompted for.
	Secrets []SecretSourceConfig `mapstructure:"secrets" validate:"omitempty,dive" yaml:"secrets,omitempty"`

	// Mode selects when mounts are established.
	// Valid values: manual, auto, boot
	Mode provision.Mode `mapstructure:"mode" validate:"required,oneof=manual auto boot" yaml:"mode"`

	// NoLocks disables WebDAV locking in each user's davfs2.conf, for
	// servers that do not implement the LOCK method.
	NoLocks bool `mapstructure:"no_locks" yaml:"no_locks"`

	// TrustAnyCert makes davfs2 accept untrusted server certificates.
	TrustAnyCert bool `mapstructure:"trust_any_cert" yaml:"trust_any_cert"`

	// SystemSecrets mirrors credentials into /etc/davfs2/secrets in
	// addition to each user's private secrets file.
	SystemSecrets bool `mapstructure:"system_secrets" yaml:"system_secrets"`

	// Logging controls log output behavior.
	Logging LoggingConfig `mapstructure:"logging" yaml:"logging"`
}

// MountConfig is one mount declaration, the profile-file form of a
// local:remote:/mount/path mapping.
type MountConfig struct {
	// LocalUser is the local account that owns the mount.
	LocalUser string `mapstructure:"local_user" validate:"required" yaml:"local_user"`

	// RemoteUser is the WebDAV account whose storage is mounted.
	RemoteUser string `mapstructure:"remote_user" validate:"required" yaml:"remote_user"`

	// MountPath is the absolute directory the storage is mounted at.
	MountPath string `mapstructure:"mount_path" validate:"required" yaml:"mount_path"`
}

// SecretSourceConfig names the environment variable holding a remote
// account's password.
type SecretSourceConfig struct {
	RemoteUser string `mapstructure:"remote_user" validate:"required" yaml:"remote_user"`
	Env        string `mapstructure:"env" validate:"required" yaml:"env"`
}

// LoggingConfig controls logging behavior.
type LoggingConfig struct {
	// Level is the minimum log level to output.
	// Valid values: DEBUG, INFO, WARN, ERROR (case-insensitive)
	Level string `mapstructure:"level" validate:"required,oneof=DEBUG INFO WARN ERROR debug info warn error" yaml:"level"`

	// Format specifies the log output format.
	// Valid values: text, json
	Format string `mapstructure:"format" validate:"required,oneof=text json" yaml:"format"`
}

// Mappings converts the mount declarations to provisioning mappings.
func (p *Profile) Mappings() []provision.MountMapping {
	mappings := make([]provision.MountMapping, 0, len(p.Mounts))
	for _, m := range p.Mounts {
		mappings = append(mappings, provision.MountMapping{
			LocalUser:  m.LocalUser,
			RemoteUser: m.RemoteUser,
			MountPath:  filepath.Clean(m.MountPath),
		})
	}
	return mappings
}

// Sources converts the secret declarations to credential sources.
func (p *Profile) Sources() []provision.CredentialSource {
	sources := make([]provision.CredentialSource, 0, len(p.Secrets))
	for _, s := range p.Secrets {
		sources = append(sources, provision.CredentialSource{
			RemoteUser: s.RemoteUser,
			EnvVar:     s.Env,
		})
	}
	return sources
}

// Load loads a profile from file, environment, and defaults.
//
// Precedence (highest to lowest):
//  1. Environment variables (DAVPROV_*)
//  2. Profile file
//  3. Default values
//
// An empty path uses the default location. A missing file yields the
// default profile, which is incomplete by design: commands that require a
// full profile call MustLoad instead.
func Load(path string) (*Profile, error) {
	v := viper.New()
	setupViper(v, path)

	found, err := readProfileFile(v)
	if err != nil {
		return nil, err
	}
	if !found {
		return DefaultProfile(), nil
	}

	var p Profile
	if err := v.Unmarshal(&p, viper.DecodeHook(profileDecodeHooks())); err != nil {
		return nil, fmt.Errorf("failed to unmarshal profile: %w", err)
	}

	ApplyDefaults(&p)

	if err := Validate(&p); err != nil {
		return nil, fmt.Errorf("profile validation failed: %w", err)
	}

	return &p, nil
}

// MustLoad loads a profile and fails with instructions when the file does
// not exist.
func MustLoad(path string) (*Profile, error) {
	if path == "" {
		if !DefaultProfileExists() {
			return nil, fmt.Errorf("no profile found at default location: %s\n\n"+
				"Initialize one first:\n"+
				"  davprov init\n\n"+
				"Or specify a profile file:\n"+
				"  davprov provision --profile /path/to/profile.yaml",
				DefaultProfilePath())
		}
		path = DefaultProfilePath()
	} else if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, fmt.Errorf("profile file not found: %s\n\n"+
			"Create it first:\n"+
			"  davprov init --profile %s",
			path, path)
	}

	p, err := Load(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load profile: %w", err)
	}
	return p, nil
}

// SaveProfile writes the profile to path in YAML form. The file is
// created with mode 0600: a profile names credential sources and hosts,
// so it stays private to root.
func SaveProfile(p *Profile, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create profile directory: %w", err)
	}

	data, err := yaml.Marshal(p)
	if err != nil {
		return fmt.Errorf("failed to marshal profile: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write profile file: %w", err)
	}
	return nil
}

// setupViper configures environment variable support and the profile file
// location. Environment variables use the DAVPROV_ prefix with underscores,
// e.g. DAVPROV_BASE_URL or DAVPROV_LOGGING_LEVEL.
func setupViper(v *viper.Viper, path string) {
	v.SetEnvPrefix("DAVPROV")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.AddConfigPath(profileDir())
		v.SetConfigName("profile")
		v.SetConfigType("yaml")
	}
}

// readProfileFile reads the profile file if it exists. Returns whether a
// file was found.
func readProfileFile(v *viper.Viper) (bool, error) {
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return false, nil
		}
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("failed to read profile file: %w", err)
	}
	return true, nil
}

// profileDecodeHooks converts YAML scalars to the profile's custom types.
func profileDecodeHooks() mapstructure.DecodeHookFunc {
	return mapstructure.ComposeDecodeHookFunc(
		modeDecodeHook(),
	)
}

// modeDecodeHook parses mount mode strings, accepting any casing.
func modeDecodeHook() mapstructure.DecodeHookFunc {
	return func(from reflect.Type, to reflect.Type, data interface{}) (interface{}, error) {
		if to != reflect.TypeOf(provision.Mode("")) {
			return data, nil
		}
		if s, ok := data.(string); ok {
			return provision.ParseMode(s)
		}
		return data, nil
	}
}

// profileDir returns the profile directory.
//
// Uses XDG_CONFIG_HOME if set, otherwise ~/.config, falling back to the
// current directory when the home directory cannot be determined.
func profileDir() string {
	if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
		return filepath.Join(xdgConfig, "davprov")
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return filepath.Join(home, ".config", "davprov")
}

// DefaultProfilePath returns the default profile file path.
func DefaultProfilePath() string {
	return filepath.Join(profileDir(), "profile.yaml")
}

// DefaultProfileExists checks whether a profile exists at the default
// location.
func DefaultProfileExists() bool {
	_, err := os.Stat(DefaultProfilePath())
	return err == nil
}
