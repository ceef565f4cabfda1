package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"nuance/internal/version"
)

var (
	versionVerbose bool
	versionJSON    bool
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	Args:  cobra.NoArgs,
	// Skips config loading so version works without a valid config.
	PersistentPreRunE: func(*cobra.Command, []string) error { return nil },
	RunE: func(cmd *cobra.Command, _ []string) error {
		out := cmd.OutOrStdout()
		switch {
		case versionJSON:
			info, err := version.GetInfo()
			if err != nil {
				return err
			}
			data, err := json.MarshalIndent(info, "", "  ")
			if err != nil {
				return err
			}
			fmt.Fprintln(out, string(data))
		case versionVerbose:
			fmt.Fprintln(out, version.GetDetailedVersion())
		default:
			fmt.Fprintln(out, version.GetFormattedVersion())
		}
		return nil
	},
}

func init() {
	versionCmd.Flags().BoolVarP(&versionVerbose, "verbose", "v", false, "Show detailed build information")
	versionCmd.Flags().BoolVar(&versionJSON, "json", false, "Print version information as JSON")
}
