package cmd

import (
	"context"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/conneroisu/fab/internal/manifest"
	"github.com/conneroisu/fab/internal/server"
	"github.com/conneroisu/fab/internal/watcher"
)

var serveCmd = &cobra.Command{
	Use:     "serve",
	Aliases: []string{"s"},
	Short:   "Serve the factory over a websocket",
	Long: `Register the manifest and accept websocket clients on /ws. Clients send
{"op":"construct"}, {"op":"trigger"} and {"op":"list"} requests and are told
whenever a blueprint is registered or replaced. With manifest.watch enabled
the manifest is re-registered whenever it changes on disk.

Examples:
  fab serve
  fab serve --port 3000 --host 0.0.0.0
  fab serve --no-watch`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

var serveNoWatch bool

func init() {
	rootCmd.AddCommand(serveCmd)
	AddStandardFlags(serveCmd, "server")
	serveCmd.Flags().BoolVar(&serveNoWatch, "no-watch", false, "Do not reload the manifest on change")

	viper.BindPFlag("server.port", serveCmd.Flags().Lookup("port"))
	viper.BindPFlag("server.host", serveCmd.Flags().Lookup("host"))
}

func runServe(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if _, err := a.registerManifest(false); err != nil {
		return err
	}

	if a.cfg.Manifest.Watch && !serveNoWatch {
		fw, err := a.watchFiles(ctx)
		if err != nil {
			return err
		}
		defer fw.Stop()
	}

	srv := server.New(&a.cfg.Server, a.factory, a.logger)
	errc := make(chan error, 1)
	go func() { errc <- srv.Start(ctx) }()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return <-errc
}

// watchFilter accepts manifests and pages but skips dotfiles and editor
// backups, unless the path is the configured manifest itself.
func watchFilter(manifestPath string) watcher.FileFilter {
	isManifest := watcher.FileNameFilter(manifestPath)
	relevant := watcher.AnyFilter(watcher.ManifestFilter, watcher.DocumentFilter, isManifest)
	visible := watcher.AnyFilter(watcher.NoHiddenFilter, isManifest)
	return func(path string) bool {
		return relevant(path) && visible(path)
	}
}

// watchFiles re-registers the manifest when it changes and warns when the
// page changes, since live controllers keep the elements they resolved.
func (a *app) watchFiles(ctx context.Context) (*watcher.FileWatcher, error) {
	manifestPath, err := filepath.Abs(a.cfg.Manifest.Path)
	if err != nil {
		return nil, err
	}

	fw, err := watcher.NewFileWatcher(a.cfg.Manifest.Debounce, a.logger)
	if err != nil {
		return nil, err
	}
	fw.AddFilter(watchFilter(manifestPath))

	if err := fw.AddFile(manifestPath); err != nil {
		fw.Stop()
		return nil, err
	}
	if a.cfg.Document.Path != "" {
		if err := fw.AddFile(a.cfg.Document.Path); err != nil {
			fw.Stop()
			return nil, err
		}
	}

	reloader := manifest.NewReloader(a.cfg.Manifest.Path, a.factory, a.logger)
	fw.AddHandler(func(events []watcher.ChangeEvent) error {
		var changed []watcher.ChangeEvent
		for _, ev := range events {
			if ev.Path == manifestPath {
				changed = append(changed, ev)
				continue
			}
			a.logger.Warn(ctx, nil, "Page changed on disk, restart to construct against it", "path", ev.Path)
		}
		if len(changed) == 0 {
			return nil
		}
		return reloader.Handle(changed)
	})

	if err := fw.Start(ctx); err != nil {
		fw.Stop()
		return nil, err
	}
	a.logger.Info(ctx, "Watching files", "paths", fw.WatchList())
	return fw, nil
}
