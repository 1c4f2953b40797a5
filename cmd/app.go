package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/conneroisu/fab/internal/config"
	"github.com/conneroisu/fab/internal/controller"
	"github.com/conneroisu/fab/internal/dom"
	fabErrors "github.com/conneroisu/fab/internal/errors"
	"github.com/conneroisu/fab/internal/logging"
	"github.com/conneroisu/fab/internal/manifest"
	"github.com/conneroisu/fab/internal/model"
)

// app is the runtime every command shares: configuration, logger, page
// and factory.
type app struct {
	cfg      *config.Config
	logger   logging.Logger
	document *dom.Document
	factory  *controller.Factory
	closeLog func() error
}

func newApp(cmd *cobra.Command) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	logger, closeLog, err := newLogger(cfg, cmd.ErrOrStderr())
	if err != nil {
		return nil, err
	}

	doc := dom.NewDocument()
	if cfg.Document.Path != "" {
		doc, err = dom.LoadDocument(cfg.Document.Path)
		if err != nil {
			closeLog()
			return nil, err
		}
	}

	opts := []controller.Option{controller.WithLogger(logger)}
	if cfg.Tracking.Enabled {
		opts = append(opts, controller.WithTracker(controller.NewTracker(cfg.Tracking.Capacity)))
	}
	if cfg.Models.Enabled {
		opts = append(opts, controller.WithModels(model.NewStore()))
	}

	return &app{
		cfg:      cfg,
		logger:   logger,
		document: doc,
		factory:  controller.NewFactory(doc, opts...),
		closeLog: closeLog,
	}, nil
}

// newLogger logs to w and, when logging.dir is set, to a rotated file.
func newLogger(cfg *config.Config, w io.Writer) (logging.Logger, func() error, error) {
	lc, err := cfg.Logging.LoggerConfig()
	if err != nil {
		return nil, nil, err
	}
	lc.Output = w
	console := logging.NewLogger(lc)

	if cfg.Logging.Dir == "" {
		return console, func() error { return nil }, nil
	}

	file, err := logging.NewFileLogger(lc, cfg.Logging.Dir)
	if err != nil {
		return nil, nil, fabErrors.WrapConfig(err, fabErrors.ErrCodeConfigInvalid, "failed to open log file")
	}
	return logging.NewMultiLogger(console, file), file.Close, nil
}

// registerManifest loads the configured manifest into the factory. A
// missing file is an error only when required is set.
func (a *app) registerManifest(required bool) (*manifest.Manifest, error) {
	m, err := manifest.Load(a.cfg.Manifest.Path)
	if err != nil {
		if !required && fabErrors.HasCode(err, fabErrors.ErrCodeFileNotFound) {
			a.logger.Warn(context.Background(), err, "No manifest found, starting with an empty registry",
				"path", a.cfg.Manifest.Path)
			return nil, nil
		}
		return nil, err
	}

	if _, err := m.Register(a.factory, a.logger); err != nil {
		return nil, err
	}
	return m, nil
}

func (a *app) Close() error {
	if err := a.closeLog(); err != nil {
		return fmt.Errorf("failed to close log file: %w", err)
	}
	return nil
}

// suggestBlueprints lists the registered names on a blueprint lookup miss.
func (a *app) suggestBlueprints(err error) error {
	var fe *fabErrors.FabError
	if !fabErrors.IsNotFound(err) || !errors.As(err, &fe) {
		return err
	}

	names := a.factory.Registry().Names()
	if len(names) == 0 {
		return fe.WithContext("registered", names)
	}
	fe.Message += " (registered: " + strings.Join(names, ", ") + ")"
	return fe.WithContext("registered", names)
}
