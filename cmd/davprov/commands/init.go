package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/davprov/davprov/pkg/config"
)

var (
	initProfile string
	initForce   bool
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize a sample profile file",
	Long: `Write a sample profile file to edit and use with 'davprov provision
--profile'.

Examples:
  # Write the sample to the default location
  davprov init

  # Write to a custom path, overwriting an existing file
  davprov init --profile /etc/davprov/profile.yaml --force`,
	RunE: runInit,
}

func init() {
	initCmd.Flags().StringVar(&initProfile, "profile", "", "Profile file path (default: "+config.DefaultProfilePath()+")")
	initCmd.Flags().BoolVar(&initForce, "force", false, "Overwrite an existing profile file")
}

func runInit(cmd *cobra.Command, args []string) error {
	path := initProfile
	if path == "" {
		path = config.DefaultProfilePath()
	}

	if _, err := os.Stat(path); err == nil && !initForce {
		return fmt.Errorf("profile file already exists: %s (use --force to overwrite)", path)
	}

	if err := config.SaveProfile(config.SampleProfile(), path); err != nil {
		return err
	}

	fmt.Printf("Profile written to %s\n", path)
	fmt.Println("Edit it, then run: davprov provision --profile " + path)
	return nil
}
