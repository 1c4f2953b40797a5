package cmd

import (
	"github.com/spf13/cobra"
)

var constructCmd = &cobra.Command{
	Use:     "construct <blueprint>",
	Aliases: []string{"c"},
	Short:   "Build a controller and print its element",
	Long: `Register the manifest, construct one controller from the named blueprint
and print its id, state and element HTML. --attrs and --el override the
blueprint defaults; each --arg is passed to the initializer.

Examples:
  fab construct counter
  fab construct counter --el '#other' --attrs '{"label":"Hits"}'
  fab construct counter --attrs @attrs.json -o json`,
	Args: cobra.ExactArgs(1),
	RunE: runConstruct,
}

var (
	constructFlags *StandardFlags
	constructArgs  []string
)

func init() {
	rootCmd.AddCommand(constructCmd)
	constructFlags = AddStandardFlags(constructCmd, "controller", "output")
	constructCmd.Flags().StringArrayVar(&constructArgs, "arg", nil, "Initializer argument (repeatable)")
}

func runConstruct(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	if _, err := a.registerManifest(true); err != nil {
		return err
	}

	attrs, err := constructFlags.ParseAttrs()
	if err != nil {
		return err
	}

	initArgs := make([]any, len(constructArgs))
	for i, arg := range constructArgs {
		initArgs[i] = arg
	}

	c, err := a.factory.ConstructFrom(args[0], attrs, initArgs...)
	if err != nil {
		return a.suggestBlueprints(err)
	}
	return printController(cmd.OutOrStdout(), constructFlags.Format, viewOf(c))
}
