package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/conneroisu/fab/internal/version"
)

var (
	versionFormat string
	versionShort  bool
)

// versionCmd represents the version command
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	Long: `Display the version, commit, build time, Go version and platform.

Examples:
  fab version
  fab version --short
  fab version --format json`,
	Args: cobra.NoArgs,
	RunE: runVersionCommand,
}

func init() {
	rootCmd.AddCommand(versionCmd)

	versionCmd.Flags().StringVarP(&versionFormat, "format", "f", "text", "Output format (text, json, yaml)")
	versionCmd.Flags().BoolVar(&versionShort, "short", false, "Show short version only")
}

func runVersionCommand(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	info := version.GetBuildInfo()

	switch versionFormat {
	case "json":
		return writeJSON(out, info)
	case "yaml":
		return writeYAML(out, info)
	case "text":
		if versionShort {
			_, err := fmt.Fprintln(out, info.Short())
			return err
		}
		_, err := fmt.Fprintln(out, info.String())
		return err
	default:
		return fmt.Errorf("unsupported format: %s (supported: text, json, yaml)", versionFormat)
	}
}
