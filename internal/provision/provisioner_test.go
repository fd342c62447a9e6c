package provision

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/davprov/davprov/internal/davfs"
	"github.com/davprov/davprov/internal/system"
)

// staticCredentials answers every resolution with a fixed password.
type staticCredentials struct{ password string }

func (s staticCredentials) Resolve(string) (string, error) { return s.password, nil }

// testHost is a provisioner wired against a temporary directory and fakes,
// so the full sequence runs without root.
type testHost struct {
	*Provisioner
	Runner *system.FakeRunner
	Users  *system.FakeUserDB
	Root   string
	Chowns map[string][2]int
}

func newTestHost(t *testing.T, cfg Config) *testHost {
	t.Helper()

	root := t.TempDir()
	runner := system.NewFakeRunner("mount.davfs")
	users := system.NewFakeUserDB()
	users.AddUser(system.User{Name: "alice", UID: 1000, GID: 1000, HomeDir: filepath.Join(root, "home", "alice")})
	users.AddUser(system.User{Name: "bob", UID: 1001, GID: 1001, HomeDir: filepath.Join(root, "home", "bob")})

	h := &testHost{
		Runner: runner,
		Users:  users,
		Root:   root,
		Chowns: make(map[string][2]int),
	}
	h.Provisioner = &Provisioner{
		Config: cfg,
		Layout: Layout{
			Fstab:         filepath.Join(root, "etc", "fstab"),
			SystemSecrets: filepath.Join(root, "etc", "davfs2", "secrets"),
		},
		Runner:      runner,
		Users:       users,
		Credentials: staticCredentials{"secret123"},
		Log:         slog.New(slog.NewTextHandler(io.Discard, nil)),
		Euid:        func() int { return 0 },
		Chown: func(path string, uid, gid int) error {
			h.Chowns[path] = [2]int{uid, gid}
			return nil
		},
	}
	return h
}

func (h *testHost) mountPath(elem ...string) string {
	return filepath.Join(append([]string{h.Root, "mnt"}, elem...)...)
}

func (h *testHost) userSecrets(name string) string {
	return filepath.Join(h.Root, "home", name, ".davfs2", "secrets")
}

func (h *testHost) userConf(name string) string {
	return filepath.Join(h.Root, "home", name, ".davfs2", "davfs2.conf")
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(data)
}

func fileMode(t *testing.T, path string) os.FileMode {
	t.Helper()
	info, err := os.Stat(path)
	require.NoError(t, err)
	return info.Mode().Perm()
}

func TestProvisionerRun(t *testing.T) {
	h := newTestHost(t, Config{
		BaseURL: "https://cloud.example/remote.php/dav/files",
		Mode:    ModeManual,
	})
	h.Config.Mappings = []MountMapping{
		{LocalUser: "alice", RemoteUser: "alice", MountPath: h.mountPath("alice")},
	}

	require.NoError(t, h.Run(context.Background()))

	t.Run("user secrets line", func(t *testing.T) {
		assert.Equal(t,
			"https://cloud.example/remote.php/dav/files/alice/  alice  secret123\n",
			readFile(t, h.userSecrets("alice")))
		assert.Equal(t, os.FileMode(0600), fileMode(t, h.userSecrets("alice")))
		assert.Equal(t, [2]int{1000, 1000}, h.Chowns[h.userSecrets("alice")])
	})

	t.Run("fstab entry", func(t *testing.T) {
		entries, err := davfs.ListMounts(h.Layout.Fstab)
		require.NoError(t, err)
		require.Len(t, entries, 1)
		assert.Equal(t, "https://cloud.example/remote.php/dav/files/alice/", entries[0].Spec)
		assert.Equal(t, h.mountPath("alice"), entries[0].Dir)
		assert.Equal(t, "davfs", entries[0].Type)
		assert.Equal(t, "rw,user,noauto,uid=1000,gid=1000,dir_mode=0750,file_mode=0640,_netdev", entries[0].Options)
	})

	t.Run("directories and modes", func(t *testing.T) {
		assert.Equal(t, os.FileMode(0750), fileMode(t, h.mountPath("alice")))
		assert.Equal(t, os.FileMode(0700), fileMode(t, filepath.Join(h.Root, "home", "alice", ".davfs2")))
		assert.Equal(t, [2]int{1000, 1000}, h.Chowns[h.mountPath("alice")])
	})

	t.Run("system secrets file exists but holds no record", func(t *testing.T) {
		assert.Equal(t, "", readFile(t, h.Layout.SystemSecrets))
		assert.Equal(t, os.FileMode(0600), fileMode(t, h.Layout.SystemSecrets))
	})

	t.Run("group membership commands ran", func(t *testing.T) {
		assert.True(t, h.Runner.Ran("groupadd --system davfs2"))
		assert.True(t, h.Runner.Ran("usermod -aG davfs2 alice"))
	})
}

func TestProvisionerRunIdempotent(t *testing.T) {
	h := newTestHost(t, Config{
		BaseURL:       "https://cloud.example/dav",
		Mode:          ModeAuto,
		NoLocks:       true,
		SystemSecrets: true,
	})
	h.Config.Mappings = []MountMapping{
		{LocalUser: "alice", RemoteUser: "alice", MountPath: h.mountPath("alice")},
		{LocalUser: "bob", RemoteUser: "robert", MountPath: h.mountPath("bob")},
	}

	require.NoError(t, h.Run(context.Background()))

	files := []string{
		h.userSecrets("alice"),
		h.userSecrets("bob"),
		h.userConf("alice"),
		h.Layout.SystemSecrets,
		h.Layout.Fstab,
	}
	before := make(map[string]string, len(files))
	for _, f := range files {
		before[f] = readFile(t, f)
	}

	require.NoError(t, h.Run(context.Background()))

	for _, f := range files {
		assert.Equal(t, before[f], readFile(t, f), "second run changed %s", f)
	}

	entries, err := davfs.ListMounts(h.Layout.Fstab)
	require.NoError(t, err)
	assert.Len(t, entries, 2)
}

func TestProvisionerRunAutoMode(t *testing.T) {
	h := newTestHost(t, Config{BaseURL: "https://cloud.example/dav", Mode: ModeAuto})
	h.Config.Mappings = []MountMapping{
		{LocalUser: "alice", RemoteUser: "alice", MountPath: h.mountPath("alice")},
	}

	require.NoError(t, h.Run(context.Background()))

	entries, err := davfs.ListMounts(h.Layout.Fstab)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.NotContains(t, entries[0].Options, "noauto")
	assert.Contains(t, entries[0].Options, "x-systemd.automount")
	assert.Contains(t, entries[0].Options, "x-systemd.idle-timeout=60")
}

func TestProvisionerRunUnsetModeDefaultsToManual(t *testing.T) {
	h := newTestHost(t, Config{BaseURL: "https://cloud.example/dav"})
	h.Config.Mappings = []MountMapping{
		{LocalUser: "alice", RemoteUser: "alice", MountPath: h.mountPath("alice")},
	}

	require.NoError(t, h.Run(context.Background()))

	// An unset mode must normalize to manual: the entry carries noauto
	// instead of silently auto-mounting at boot without nofail.
	entries, err := davfs.ListMounts(h.Layout.Fstab)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Contains(t, strings.Split(entries[0].Options, ","), "noauto")
	assert.Equal(t, ModeManual, h.Config.Mode)
}

func TestProvisionerRunSystemSecrets(t *testing.T) {
	h := newTestHost(t, Config{
		BaseURL:       "https://cloud.example/dav",
		SystemSecrets: true,
		Mode:          ModeManual,
	})
	h.Config.Mappings = []MountMapping{
		{LocalUser: "alice", RemoteUser: "alice", MountPath: h.mountPath("alice")},
	}

	require.NoError(t, h.Run(context.Background()))

	assert.Equal(t,
		"https://cloud.example/dav/alice/  alice  secret123\n",
		readFile(t, h.Layout.SystemSecrets))
}

func TestProvisionerRunConfOverrides(t *testing.T) {
	h := newTestHost(t, Config{
		BaseURL:     "https://cloud.example/dav",
		NoLocks:     true,
		InsecureTLS: true,
		Mode:        ModeManual,
	})
	h.Config.Mappings = []MountMapping{
		{LocalUser: "alice", RemoteUser: "alice", MountPath: h.mountPath("alice")},
	}

	require.NoError(t, h.Run(context.Background()))
	require.NoError(t, h.Run(context.Background()))

	conf := readFile(t, h.userConf("alice"))
	assert.Equal(t, "use_locks 0\ntrust_server_cert 1\n", conf)
}

func TestProvisionerRunRequiresRoot(t *testing.T) {
	h := newTestHost(t, Config{BaseURL: "https://cloud.example/dav", Mode: ModeManual})
	h.Config.Mappings = []MountMapping{
		{LocalUser: "alice", RemoteUser: "alice", MountPath: h.mountPath("alice")},
	}
	h.Euid = func() int { return 1000 }

	err := h.Run(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrPermission))

	_, statErr := os.Stat(h.Layout.Fstab)
	assert.True(t, os.IsNotExist(statErr))
}

func TestProvisionerRunUnknownUserFailsBeforeMutation(t *testing.T) {
	h := newTestHost(t, Config{BaseURL: "https://cloud.example/dav", Mode: ModeManual})
	h.Config.Mappings = []MountMapping{
		{LocalUser: "alice", RemoteUser: "alice", MountPath: h.mountPath("alice")},
		{LocalUser: "mallory", RemoteUser: "mallory", MountPath: h.mountPath("mallory")},
	}

	err := h.Run(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrEnvironment))
	assert.Contains(t, err.Error(), "mallory")

	// The bad mapping was rejected before the good one was applied.
	_, statErr := os.Stat(h.Layout.Fstab)
	assert.True(t, os.IsNotExist(statErr))
	assert.Empty(t, h.Runner.Commands)
}

func TestProvisionerRunValidation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(h *testHost)
	}{
		{
			name:   "missing base URL",
			mutate: func(h *testHost) { h.Config.BaseURL = "" },
		},
		{
			name:   "base URL without scheme",
			mutate: func(h *testHost) { h.Config.BaseURL = "cloud.example/dav" },
		},
		{
			name:   "no mappings",
			mutate: func(h *testHost) { h.Config.Mappings = nil },
		},
		{
			name: "duplicate mount path",
			mutate: func(h *testHost) {
				h.Config.Mappings = append(h.Config.Mappings, h.Config.Mappings[0])
			},
		},
		{
			name:   "unknown mode",
			mutate: func(h *testHost) { h.Config.Mode = Mode("sometimes") },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newTestHost(t, Config{BaseURL: "https://cloud.example/dav", Mode: ModeManual})
			h.Config.Mappings = []MountMapping{
				{LocalUser: "alice", RemoteUser: "alice", MountPath: h.mountPath("alice")},
			}
			tt.mutate(h)

			err := h.Run(context.Background())
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrValidation))
		})
	}
}

func TestProvisionerRunInstallsHelper(t *testing.T) {
	h := newTestHost(t, Config{BaseURL: "https://cloud.example/dav", Mode: ModeManual})
	h.Config.Mappings = []MountMapping{
		{LocalUser: "alice", RemoteUser: "alice", MountPath: h.mountPath("alice")},
	}

	t.Run("installs via first detected manager", func(t *testing.T) {
		h.Runner.Binaries = map[string]string{"apt-get": "/usr/bin/apt-get"}
		h.Runner.Commands = nil

		require.NoError(t, h.Run(context.Background()))
		assert.True(t, h.Runner.Ran("apt-get install -y davfs2"))
	})

	t.Run("no manager is an environment error", func(t *testing.T) {
		h.Runner.Binaries = map[string]string{}
		h.Runner.Commands = nil

		err := h.Run(context.Background())
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrEnvironment))
	})

	t.Run("helper already present skips install", func(t *testing.T) {
		h.Runner.Binaries = map[string]string{"mount.davfs": "/usr/sbin/mount.davfs", "apt-get": "/usr/bin/apt-get"}
		h.Runner.Commands = nil

		require.NoError(t, h.Run(context.Background()))
		assert.False(t, h.Runner.Ran("apt-get"))
	})
}

func TestProvisionerRunDryRun(t *testing.T) {
	h := newTestHost(t, Config{BaseURL: "https://cloud.example/dav", Mode: ModeManual, DryRun: true})
	h.Config.Mappings = []MountMapping{
		{LocalUser: "alice", RemoteUser: "alice", MountPath: h.mountPath("alice")},
	}
	// A dry run must neither escalate, prompt nor mutate.
	h.Euid = func() int { return 1000 }
	h.Credentials = failingResolver{t}

	require.NoError(t, h.Run(context.Background()))

	_, statErr := os.Stat(h.Layout.Fstab)
	assert.True(t, os.IsNotExist(statErr))
	_, statErr = os.Stat(h.mountPath("alice"))
	assert.True(t, os.IsNotExist(statErr))
	assert.Empty(t, h.Runner.Commands)
}
