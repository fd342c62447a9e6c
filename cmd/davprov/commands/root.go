// Package commands implements the CLI commands for davprov.
package commands

import (
	"github.com/spf13/cobra"

	"github.com/davprov/davprov/internal/logger"
)

var (
	// Version information injected at build time.
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

var (
	logLevel  string
	logFormat string
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "davprov",
	Short: "Provision WebDAV (davfs2) mounts for local users",
	Long: `davprov sets up WebDAV storage as local filesystem mounts via davfs2.

For each local-user to remote-account mapping it installs the davfs2 mount
helper if needed, stores credentials in the user's private secrets file,
adds an /etc/fstab entry and prepares the mount directory, so users can
mount their remote storage without further setup.

All operations are idempotent: running the same invocation twice leaves
the host unchanged.

Use "davprov [command] --help" for more information about a command.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return logger.Init(logger.Config{
			Level:  logLevel,
			Format: logFormat,
			Output: "stderr",
		})
	},
}

// Execute adds all child commands to the root command and runs it.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "INFO", "Log level (DEBUG|INFO|WARN|ERROR)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "text", "Log format (text|json)")

	rootCmd.AddCommand(provisionCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(removeCmd)
	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(completionCmd)

	// Hide the default completion command (we provide our own)
	rootCmd.CompletionOptions.DisableDefaultCmd = true
}
