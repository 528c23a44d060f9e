package commands

import (
	"fmt"

	pkgzerolog "github.com/duynhne/pkg/logger/zerolog"
	"github.com/spf13/cobra"

	"github.com/duynhne/peek-service/config"
)

var (
	version = "dev"
	commit  = "none"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "peekd",
	Short: "Idea session service with random peeks and admin analytics",
	Long: `peekd serves the idea session API: users group ideas into sessions and
"peek" to have one picked at random. Every peek increments the session's
counter and is written to an audit log that feeds the admin dashboard.`,
	SilenceUsage:      true,
	PersistentPreRunE: loadConfig,
}

// loadConfig reads and validates configuration and sets up logging before
// any subcommand runs.
func loadConfig(_ *cobra.Command, _ []string) error {
	c, err := config.Load()
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}
	if err := c.Validate(); err != nil {
		return fmt.Errorf("configuration validation failed: %w", err)
	}
	if c.Service.Version == "" || c.Service.Version == "dev" {
		c.Service.Version = version
	}
	pkgzerolog.Setup(c.Logging.Level)
	cfg = c
	return nil
}

// SetVersion sets the build version information.
func SetVersion(v, c string) {
	version = v
	commit = c
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

var versionCmd = &cobra.Command{
	Use:               "version",
	Short:             "Print the version",
	PersistentPreRunE: func(*cobra.Command, []string) error { return nil },
	Run: func(cmd *cobra.Command, _ []string) {
		cmd.Printf("peekd %s (%s)\n", version, commit)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(reconcileCmd)
	rootCmd.AddCommand(versionCmd)
}
