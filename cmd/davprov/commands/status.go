package commands

import (
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/davprov/davprov/internal/cli/output"
	"github.com/davprov/davprov/internal/provision"
)

var statusOutput string

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "List provisioned WebDAV mounts",
	Long: `List the davfs mounts declared in /etc/fstab together with their mount
mode and whether each one is currently mounted.

Examples:
  davprov status
  davprov status --output json`,
	RunE: runStatus,
}

func init() {
	statusCmd.Flags().StringVarP(&statusOutput, "output", "o", "table", "Output format (table|json)")
}

func runStatus(cmd *cobra.Command, args []string) error {
	format, err := output.ParseFormat(statusOutput)
	if err != nil {
		return err
	}

	statuses, err := provision.NewStatusReader().List()
	if err != nil {
		return err
	}

	if format == output.FormatJSON {
		return output.PrintJSON(os.Stdout, statuses)
	}

	if len(statuses) == 0 {
		fmt.Println("No davfs mounts provisioned.")
		return nil
	}

	table := output.NewTableData("MOUNT PATH", "URL", "MODE", "MOUNTED")
	for _, s := range statuses {
		table.AddRow(s.MountPath, s.URL, string(s.Mode), strconv.FormatBool(s.Mounted))
	}
	return output.PrintTable(os.Stdout, table)
}
