package provision

import (
	"fmt"

	"github.com/davprov/davprov/internal/davfs"
)

// MountStatus describes one provisioned mount: its fstab entry plus
// whether the filesystem is currently mounted.
type MountStatus struct {
	MountPath string `json:"mount_path"`
	URL       string `json:"url"`
	Mode      Mode   `json:"mode"`
	Options   string `json:"options"`
	Mounted   bool   `json:"mounted"`
}

// StatusReader lists the davfs mounts known to the host.
type StatusReader struct {
	Layout Layout

	// ProcMounts is the kernel mount table consulted for live state.
	ProcMounts string
}

// NewStatusReader returns a StatusReader wired to the real host paths.
func NewStatusReader() *StatusReader {
	return &StatusReader{
		Layout:     DefaultLayout(),
		ProcMounts: "/proc/mounts",
	}
}

// List returns every davfs entry of the mount table in file order,
// annotated with its derived mode and live mount state.
func (s *StatusReader) List() ([]MountStatus, error) {
	entries, err := davfs.ListMounts(s.Layout.Fstab)
	if err != nil {
		return nil, fmt.Errorf("read mount table: %w", err)
	}

	active, err := davfs.ActiveMountDirs(s.ProcMounts)
	if err != nil {
		return nil, fmt.Errorf("read active mounts: %w", err)
	}

	statuses := make([]MountStatus, 0, len(entries))
	for _, e := range entries {
		statuses = append(statuses, MountStatus{
			MountPath: e.Dir,
			URL:       e.Spec,
			Mode:      ModeFromOptions(e.Options),
			Options:   e.Options,
			Mounted:   active[e.Dir],
		})
	}
	return statuses, nil
}
