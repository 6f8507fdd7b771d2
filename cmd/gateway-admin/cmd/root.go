// Package cmd implements the gateway-admin CLI commands.
package cmd

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"
)

var version string

var rootCmd = &cobra.Command{
	Use:   "gateway-admin",
	Short: "Gateway administration CLI",
	Long: `gateway-admin provides operational tooling for the edge gateway.

It can mint and inspect session tokens, test traffic filter rules
against user agents and paths, and hash admin passwords for
configuration.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// SetVersion sets the CLI version from build flags.
func SetVersion(v string) {
	version = v
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("gateway-admin %s (%s/%s)\n", version, runtime.GOOS, runtime.GOARCH)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
