package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/davprov/davprov/internal/cli/prompt"
	"github.com/davprov/davprov/internal/provision"
)

var removeForce bool

var removeCmd = &cobra.Command{
	Use:   "remove [mount-path]",
	Short: "Remove a provisioned WebDAV mount",
	Long: `Remove the davfs mount at the given path: its /etc/fstab entry and the
matching credential lines in the owning user's secrets file and the system
secrets file.

The mount directory and its contents are left in place, as is the user's
davfs2 group membership.

Must run as root.

Examples:
  davprov remove /mnt/dav/alice
  davprov remove --force /mnt/dav/alice`,
	Args: cobra.ExactArgs(1),
	RunE: runRemove,
}

func init() {
	removeCmd.Flags().BoolVarP(&removeForce, "force", "f", false, "Skip confirmation prompt")
}

func runRemove(cmd *cobra.Command, args []string) error {
	mountPath := args[0]

	confirmed, err := prompt.ConfirmWithForce(
		fmt.Sprintf("Remove davfs mount at %s", mountPath), removeForce)
	if err != nil {
		return err
	}
	if !confirmed {
		fmt.Println("Removal cancelled.")
		return nil
	}

	res, err := provision.NewRemover().Remove(mountPath)
	if err != nil {
		return err
	}

	fmt.Printf("Removed mount %s (%s)\n", res.MountPath, res.URL)
	if res.LocalUser != "" {
		fmt.Printf("Removed %d credential line(s) for user %s\n", res.UserSecretsLines, res.LocalUser)
	}
	if res.SystemSecretLines > 0 {
		fmt.Printf("Removed %d credential line(s) from system secrets\n", res.SystemSecretLines)
	}
	return nil
}
