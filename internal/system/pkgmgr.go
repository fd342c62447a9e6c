package system

import (
	"context"
	"fmt"
	"strings"
)

// PackageManager describes how to install a package with one of the
// package managers davprov knows about. Managers are probed in order and
// the first one present on the host wins, so adding support for another
// distribution is a matter of appending to the list.
type PackageManager struct {
	// Probe is the binary whose presence identifies the manager.
	Probe string

	// InstallArgs builds the argument vector for a non-interactive
	// install of pkg.
	InstallArgs func(pkg string) []string
}

// PackageManagers is the ordered list of supported package managers.
var PackageManagers = []PackageManager{
	{
		Probe: "apt-get",
		InstallArgs: func(pkg string) []string {
			return []string{"install", "-y", pkg}
		},
	},
	{
		Probe: "dnf",
		InstallArgs: func(pkg string) []string {
			return []string{"install", "-y", pkg}
		},
	},
	{
		Probe: "yum",
		InstallArgs: func(pkg string) []string {
			return []string{"install", "-y", pkg}
		},
	},
	{
		Probe: "zypper",
		InstallArgs: func(pkg string) []string {
			return []string{"--non-interactive", "install", pkg}
		},
	},
}

// DetectPackageManager returns the first supported package manager found
// on the host, or ok=false when none is present.
func DetectPackageManager(runner Runner) (PackageManager, bool) {
	for _, pm := range PackageManagers {
		if _, err := runner.LookPath(pm.Probe); err == nil {
			return pm, true
		}
	}
	return PackageManager{}, false
}

// InstallPackage installs pkg using the given manager.
func InstallPackage(ctx context.Context, runner Runner, pm PackageManager, pkg string) error {
	if err := runner.Run(ctx, pm.Probe, pm.InstallArgs(pkg)...); err != nil {
		return fmt.Errorf("install %s via %s: %w", pkg, pm.Probe, err)
	}
	return nil
}

// BinaryInstalled reports whether the named binary is reachable, checking
// PATH first and then the sbin directories that mount helpers usually
// live in but that unprivileged PATHs often omit.
func BinaryInstalled(runner Runner, name string) bool {
	if _, err := runner.LookPath(name); err == nil {
		return true
	}
	for _, dir := range []string{"/sbin", "/usr/sbin"} {
		if _, err := runner.LookPath(strings.TrimSuffix(dir, "/") + "/" + name); err == nil {
			return true
		}
	}
	return false
}
