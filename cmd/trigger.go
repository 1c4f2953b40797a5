package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var triggerCmd = &cobra.Command{
	Use:     "trigger <blueprint> <event>",
	Aliases: []string{"t"},
	Short:   "Construct a controller, dispatch an event at it and print the result",
	Long: `Construct a controller from the named blueprint, then dispatch <event>
at its element or at the first descendant matching --target. Delegated
handlers from the event map run as they would in a browser.

Examples:
  fab trigger counter click --target .inc
  fab trigger counter click -t .inc --times 3 -o yaml
  fab trigger menu click -t .toggle --page`,
	Args: cobra.ExactArgs(2),
	RunE: runTrigger,
}

var (
	triggerFlags  *StandardFlags
	triggerTarget string
	triggerTimes  int
	triggerPage   bool
)

func init() {
	rootCmd.AddCommand(triggerCmd)
	triggerFlags = AddStandardFlags(triggerCmd, "controller", "output")
	triggerCmd.Flags().StringVarP(&triggerTarget, "target", "t", "", "Selector of the descendant to dispatch at")
	triggerCmd.Flags().IntVarP(&triggerTimes, "times", "n", 1, "How many times to dispatch")
	triggerCmd.Flags().BoolVar(&triggerPage, "page", false, "Print the whole page instead of the element")
}

func runTrigger(cmd *cobra.Command, args []string) error {
	if triggerTimes < 1 {
		return fmt.Errorf("--times must be at least 1, got %d", triggerTimes)
	}

	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	if _, err := a.registerManifest(true); err != nil {
		return err
	}

	attrs, err := triggerFlags.ParseAttrs()
	if err != nil {
		return err
	}

	c, err := a.factory.ConstructFrom(args[0], attrs)
	if err != nil {
		return a.suggestBlueprints(err)
	}

	for range triggerTimes {
		if err := c.Trigger(args[1], triggerTarget); err != nil {
			return err
		}
	}

	if triggerPage {
		_, err := fmt.Fprintln(cmd.OutOrStdout(), a.document.HTML())
		return err
	}
	return printController(cmd.OutOrStdout(), triggerFlags.Format, viewOf(c))
}
