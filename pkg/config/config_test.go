package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/davprov/davprov/internal/provision"
)

func writeProfile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "profile.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

const sampleYAML = `
base_url: https://cloud.example.com/remote.php/dav/files
mode: auto
no_locks: true
system_secrets: true
mounts:
  - local_user: alice
    remote_user: alice
    mount_path: /mnt/dav/alice
  - local_user: bob
    remote_user: robert
    mount_path: /mnt/dav/bob
secrets:
  - remote_user: alice
    env: ALICE_DAV_PASSWORD
logging:
  level: debug
  format: json
`

func TestLoad(t *testing.T) {
	t.Run("full profile", func(t *testing.T) {
		p, err := Load(writeProfile(t, sampleYAML))
		require.NoError(t, err)

		assert.Equal(t, "https://cloud.example.com/remote.php/dav/files", p.BaseURL)
		assert.Equal(t, provision.ModeAuto, p.Mode)
		assert.True(t, p.NoLocks)
		assert.False(t, p.TrustAnyCert)
		assert.True(t, p.SystemSecrets)
		require.Len(t, p.Mounts, 2)
		assert.Equal(t, MountConfig{LocalUser: "bob", RemoteUser: "robert", MountPath: "/mnt/dav/bob"}, p.Mounts[1])
		require.Len(t, p.Secrets, 1)
		assert.Equal(t, "ALICE_DAV_PASSWORD", p.Secrets[0].Env)
		assert.Equal(t, "DEBUG", p.Logging.Level)
		assert.Equal(t, "json", p.Logging.Format)
	})

	t.Run("defaults fill omitted fields", func(t *testing.T) {
		p, err := Load(writeProfile(t, `
base_url: https://cloud.example.com/dav
mounts:
  - local_user: alice
    remote_user: alice
    mount_path: /mnt/dav/alice
`))
		require.NoError(t, err)
		assert.Equal(t, provision.ModeManual, p.Mode)
		assert.Equal(t, "INFO", p.Logging.Level)
		assert.Equal(t, "text", p.Logging.Format)
	})

	t.Run("missing file at default location yields defaults", func(t *testing.T) {
		t.Setenv("XDG_CONFIG_HOME", t.TempDir())

		p, err := Load("")
		require.NoError(t, err)
		assert.Equal(t, provision.ModeManual, p.Mode)
		assert.Empty(t, p.Mounts)
	})

	t.Run("malformed yaml is an error", func(t *testing.T) {
		_, err := Load(writeProfile(t, "mounts: ["))
		require.Error(t, err)
	})
}

func TestLoadValidation(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		wantMsg string
	}{
		{
			name: "missing base url",
			yaml: `
mounts:
  - {local_user: alice, remote_user: alice, mount_path: /mnt/dav/alice}
`,
			wantMsg: "baseurl",
		},
		{
			name: "no mounts",
			yaml: `
base_url: https://cloud.example.com/dav
mounts: []
`,
			wantMsg: "mounts",
		},
		{
			name: "invalid mode",
			yaml: `
base_url: https://cloud.example.com/dav
mode: ondemand
mounts:
  - {local_user: alice, remote_user: alice, mount_path: /mnt/dav/alice}
`,
			wantMsg: "mount mode",
		},
		{
			name: "relative mount path",
			yaml: `
base_url: https://cloud.example.com/dav
mounts:
  - {local_user: alice, remote_user: alice, mount_path: mnt/dav/alice}
`,
			wantMsg: "absolute",
		},
		{
			name: "duplicate mount path",
			yaml: `
base_url: https://cloud.example.com/dav
mounts:
  - {local_user: alice, remote_user: alice, mount_path: /mnt/dav/shared}
  - {local_user: bob, remote_user: robert, mount_path: /mnt/dav/shared}
`,
			wantMsg: "duplicate mount_path",
		},
		{
			name: "duplicate secret source",
			yaml: `
base_url: https://cloud.example.com/dav
mounts:
  - {local_user: alice, remote_user: alice, mount_path: /mnt/dav/alice}
secrets:
  - {remote_user: alice, env: FIRST}
  - {remote_user: alice, env: SECOND}
`,
			wantMsg: "duplicate secrets entry",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeProfile(t, tt.yaml))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantMsg)
		})
	}
}

func TestMustLoad(t *testing.T) {
	t.Run("missing default profile names init", func(t *testing.T) {
		t.Setenv("XDG_CONFIG_HOME", t.TempDir())

		_, err := MustLoad("")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "davprov init")
	})

	t.Run("missing explicit profile names the path", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "nope.yaml")
		_, err := MustLoad(path)
		require.Error(t, err)
		assert.Contains(t, err.Error(), path)
	})
}

func TestSaveProfileRoundTrip(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	path := DefaultProfilePath()
	require.NoError(t, SaveProfile(SampleProfile(), path))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	p, err := MustLoad("")
	require.NoError(t, err)
	assert.Equal(t, SampleProfile(), p)
}

func TestProfileConversions(t *testing.T) {
	p := &Profile{
		Mounts: []MountConfig{
			{LocalUser: "alice", RemoteUser: "alice", MountPath: "/mnt/dav/alice/"},
		},
		Secrets: []SecretSourceConfig{
			{RemoteUser: "alice", Env: "ALICE_DAV_PASSWORD"},
		},
	}

	assert.Equal(t, []provision.MountMapping{
		{LocalUser: "alice", RemoteUser: "alice", MountPath: "/mnt/dav/alice"},
	}, p.Mappings())

	assert.Equal(t, []provision.CredentialSource{
		{RemoteUser: "alice", EnvVar: "ALICE_DAV_PASSWORD"},
	}, p.Sources())
}

func TestEnvOverride(t *testing.T) {
	t.Setenv("DAVPROV_MODE", "boot")

	p, err := Load(writeProfile(t, `
base_url: https://cloud.example.com/dav
mode: manual
mounts:
  - {local_user: alice, remote_user: alice, mount_path: /mnt/dav/alice}
`))
	require.NoError(t, err)
	assert.Equal(t, provision.ModeBoot, p.Mode)
}
