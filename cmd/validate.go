package cmd

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	fabErrors "github.com/conneroisu/fab/internal/errors"
	"github.com/conneroisu/fab/internal/manifest"
)

var validateCmd = &cobra.Command{
	Use:   "validate [manifest]",
	Short: "Check a blueprint manifest",
	Long: `Parse and validate a manifest without registering it. Every problem is
reported, not just the first. Defaults to the configured manifest path.

Examples:
  fab validate
  fab validate blueprints.yml`,
	Args: cobra.MaximumNArgs(1),
	RunE: runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

func runValidate(cmd *cobra.Command, args []string) error {
	path := ""
	if len(args) == 1 {
		path = args[0]
	} else {
		a, err := newApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()
		path = a.cfg.Manifest.Path
	}

	out := cmd.OutOrStdout()
	m, err := manifest.Load(path)
	if err != nil {
		var fe *fabErrors.FabError
		if errors.As(err, &fe) && fe.Code == fabErrors.ErrCodeManifestInvalid && len(fe.Context) > 0 {
			fmt.Fprintf(out, "%s is invalid:\n", path)
			problems := strings.Split(fe.Message, "; ")
			for _, problem := range problems {
				fmt.Fprintf(out, "  - %s\n", problem)
			}
			return fmt.Errorf("%d problems in %s", len(problems), path)
		}
		return err
	}

	_, err = fmt.Fprintf(out, "%s: %d blueprints OK\n", path, len(m.Blueprints))
	return err
}
