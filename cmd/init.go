package cmd

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"

	"github.com/spf13/cobra"

	"github.com/conneroisu/fab/internal/config"
	"github.com/conneroisu/fab/internal/manifest"
)

var initCmd = &cobra.Command{
	Use:     "init",
	Aliases: []string{"i"},
	Short:   "Write a starter .fab.yml and blueprint manifest",
	Long: `Write .fab.yml with the default settings, an example manifest and an
example page into the current directory. Existing files are left alone.

Examples:
  fab init
  fab init --minimal     # config only`,
	Args: cobra.NoArgs,
	RunE: runInit,
}

var initMinimal bool

func init() {
	rootCmd.AddCommand(initCmd)
	initCmd.Flags().BoolVar(&initMinimal, "minimal", false, "Only write .fab.yml")
}

const examplePage = `<!DOCTYPE html>
<html>
<body>
  <div id="counter">
    <span class="label">Clicks</span>
    <span class="count">0</span>
    <button class="inc">+</button>
    <button class="toggle">highlight</button>
  </div>
</body>
</html>
`

func exampleManifest() *manifest.Manifest {
	return &manifest.Manifest{Blueprints: []manifest.Blueprint{{
		Name:  "counter",
		El:    "#counter",
		Attrs: map[string]any{"label": "Clicks"},
		Model: map[string]any{"count": 0},
		Init:  []string{"add-class ready"},
		Events: map[string]string{
			"click .inc":    "model-inc count",
			"click .toggle": "toggle-class active",
		},
	}}}
}

func runInit(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()

	cfg := config.Default()
	if !initMinimal {
		cfg.Document.Path = "index.html"
	}
	if err := writeIfMissing(out, ".fab.yml", cfg.Save); err != nil {
		return err
	}
	if initMinimal {
		return nil
	}

	if err := writeIfMissing(out, cfg.Manifest.Path, func(path string) error {
		f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
		if err != nil {
			return err
		}
		defer f.Close()
		return exampleManifest().Encode(f)
	}); err != nil {
		return err
	}

	return writeIfMissing(out, cfg.Document.Path, func(path string) error {
		return os.WriteFile(path, []byte(examplePage), 0o644)
	})
}

func writeIfMissing(out io.Writer, path string, write func(string) error) error {
	if _, err := os.Stat(path); err == nil {
		fmt.Fprintf(out, "%s exists, skipping\n", path)
		return nil
	} else if !errors.Is(err, fs.ErrNotExist) {
		return err
	}

	if err := write(path); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	_, err := fmt.Fprintf(out, "wrote %s\n", path)
	return err
}
