package cmd

import (
	"fmt"
	"io"
	"maps"
	"slices"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/conneroisu/fab/internal/manifest"
)

var listCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"l"},
	Short:   "List the blueprints declared in the manifest",
	Long: `List the blueprints declared in the manifest with their element
selector, attributes and event keys.

Examples:
  fab list                # table
  fab list -o json        # JSON
  fab list -o yaml        # the manifest, normalised`,
	Args: cobra.NoArgs,
	RunE: runList,
}

var listFlags *StandardFlags

func init() {
	rootCmd.AddCommand(listCmd)
	listFlags = AddStandardFlags(listCmd, "output")
}

func runList(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	m, err := a.registerManifest(true)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	switch strings.ToLower(listFlags.Format) {
	case "json":
		return writeJSON(out, m.Blueprints)
	case "yaml":
		return m.Encode(out)
	case "table", "":
		return outputTable(out, m.Blueprints)
	default:
		return fmt.Errorf("unsupported format: %s", listFlags.Format)
	}
}

func outputTable(out io.Writer, blueprints []manifest.Blueprint) error {
	if len(blueprints) == 0 {
		_, err := fmt.Fprintln(out, "No blueprints found.")
		return err
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tELEMENT\tATTRS\tMODEL\tEVENTS")
	for _, bp := range blueprints {
		el := bp.El
		if el == "" {
			el = "-"
		}
		model := "-"
		if bp.Model != nil {
			model = strings.Join(slices.Sorted(maps.Keys(bp.Model)), ",")
		}
		events := "-"
		if len(bp.Events) > 0 {
			events = strings.Join(slices.Sorted(maps.Keys(bp.Events)), ", ")
		}
		fmt.Fprintf(w, "%s\t%s\t%d\t%s\t%s\n", bp.Name, el, len(bp.Attrs), model, events)
	}
	return w.Flush()
}
