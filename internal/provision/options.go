package provision

import (
	"fmt"
	"strings"
)

// Mode selects when a provisioned mount is established.
type Mode string

const (
	// ModeManual leaves mounting to the user: the entry carries noauto
	// and is never mounted automatically.
	ModeManual Mode = "manual"

	// ModeAuto mounts on demand via systemd automount and unmounts after
	// an idle period.
	ModeAuto Mode = "auto"

	// ModeBoot mounts during system startup.
	ModeBoot Mode = "boot"
)

// AutomountIdleTimeout is the idle period in seconds after which an
// on-demand mount is torn down again.
const AutomountIdleTimeout = 60

// ParseMode parses a mode name.
func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case ModeManual, "":
		return ModeManual, nil
	case ModeAuto:
		return ModeAuto, nil
	case ModeBoot:
		return ModeBoot, nil
	default:
		return "", validationf("unknown mount mode %q (valid: manual, auto, boot)", s)
	}
}

// MountOptions builds the fstab option string for a mapping. Every mode
// mounts read-write, lets group members mount without root, pins ownership
// to the local user and marks the entry as a network filesystem so boot
// ordering waits for the network.
func MountOptions(mode Mode, uid, gid int) string {
	opts := []string{"rw", "user"}

	if mode == ModeManual {
		opts = append(opts, "noauto")
	}

	opts = append(opts,
		fmt.Sprintf("uid=%d", uid),
		fmt.Sprintf("gid=%d", gid),
		"dir_mode=0750",
		"file_mode=0640",
		"_netdev",
	)

	switch mode {
	case ModeAuto:
		opts = append(opts,
			"x-systemd.automount",
			fmt.Sprintf("x-systemd.idle-timeout=%d", AutomountIdleTimeout),
			"nofail",
		)
	case ModeBoot:
		opts = append(opts, "nofail")
	}

	return strings.Join(opts, ",")
}

// ModeFromOptions recovers the mode from a persisted option string, used
// by the status command to describe existing entries.
func ModeFromOptions(options string) Mode {
	set := make(map[string]bool)
	for _, o := range strings.Split(options, ",") {
		set[o] = true
	}

	switch {
	case set["x-systemd.automount"]:
		return ModeAuto
	case set["noauto"]:
		return ModeManual
	default:
		return ModeBoot
	}
}
