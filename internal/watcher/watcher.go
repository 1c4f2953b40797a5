// Package watcher reports debounced file changes, used to reload
// manifests and documents while fab serve is running.
package watcher

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/conneroisu/fab/internal/logging"
)

// FileWatcher watches files and directories and hands batches of changes
// to its handlers once activity settles.
type FileWatcher struct {
	watcher   *fsnotify.Watcher
	debouncer *Debouncer
	filters   []FileFilter
	handlers  []ChangeHandler
	files     map[string]struct{}
	logger    logging.Logger
	stopOnce  sync.Once
	mutex     sync.RWMutex
}

// ChangeEvent is one file change.
type ChangeEvent struct {
	Type    EventType
	Path    string
	ModTime time.Time
	Size    int64
}

// EventType represents the type of file change
type EventType int

const (
	EventTypeCreated EventType = iota
	EventTypeModified
	EventTypeDeleted
	EventTypeRenamed
)

// String returns the string representation of the EventType
func (e EventType) String() string {
	switch e {
	case EventTypeCreated:
		return "created"
	case EventTypeModified:
		return "modified"
	case EventTypeDeleted:
		return "deleted"
	case EventTypeRenamed:
		return "renamed"
	default:
		return "unknown"
	}
}

// FileFilter reports whether a path is of interest. All filters must agree.
type FileFilter func(path string) bool

// ChangeHandler receives a debounced batch, one event per path.
type ChangeHandler func(events []ChangeEvent) error

// Debouncer collects events until none arrive for delay, then emits them
// as one batch.
type Debouncer struct {
	delay   time.Duration
	events  chan ChangeEvent
	output  chan []ChangeEvent
	timer   *time.Timer
	pending []ChangeEvent
	mutex   sync.Mutex
}

// NewDebouncer creates a debouncer emitting batches delay after the last event.
func NewDebouncer(delay time.Duration) *Debouncer {
	return &Debouncer{
		delay:  delay,
		events: make(chan ChangeEvent, 100),
		output: make(chan []ChangeEvent, 10),
	}
}

// NewFileWatcher creates a watcher with the given debounce delay.
func NewFileWatcher(debounceDelay time.Duration, logger logging.Logger) (*FileWatcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating fsnotify watcher: %w", err)
	}
	if logger == nil {
		logger = logging.NewDiscardLogger()
	}

	return &FileWatcher{
		watcher:   watcher,
		debouncer: NewDebouncer(debounceDelay),
		logger:    logger.WithComponent("watcher"),
	}, nil
}

// AddFilter adds a file filter
func (fw *FileWatcher) AddFilter(filter FileFilter) {
	fw.mutex.Lock()
	defer fw.mutex.Unlock()
	fw.filters = append(fw.filters, filter)
}

// AddHandler adds a change handler
func (fw *FileWatcher) AddHandler(handler ChangeHandler) {
	fw.mutex.Lock()
	defer fw.mutex.Unlock()
	fw.handlers = append(fw.handlers, handler)
}

// AddPath watches a single file or directory.
func (fw *FileWatcher) AddPath(path string) error {
	cleanPath, err := validatePath(path)
	if err != nil {
		return fmt.Errorf("invalid path: %w", err)
	}
	return fw.watcher.Add(cleanPath)
}

// AddFile watches the directory holding path so editors that save by
// renaming a temp file over the original keep being noticed. Once a file
// is added, only events for added files are reported.
func (fw *FileWatcher) AddFile(path string) error {
	cleanPath, err := validatePath(path)
	if err != nil {
		return fmt.Errorf("invalid path: %w", err)
	}
	if err := fw.watcher.Add(filepath.Dir(cleanPath)); err != nil {
		return err
	}

	fw.mutex.Lock()
	defer fw.mutex.Unlock()
	if fw.files == nil {
		fw.files = make(map[string]struct{})
	}
	fw.files[cleanPath] = struct{}{}
	return nil
}

// WatchList returns the watched paths.
func (fw *FileWatcher) WatchList() []string {
	return fw.watcher.WatchList()
}

// validatePath cleans path and makes it absolute, rejecting traversal.
func validatePath(path string) (string, error) {
	cleanPath := filepath.Clean(path)
	if strings.Contains(cleanPath, "..") {
		return "", fmt.Errorf("path contains directory traversal: %s", path)
	}

	absPath, err := filepath.Abs(cleanPath)
	if err != nil {
		return "", fmt.Errorf("getting absolute path: %w", err)
	}
	return absPath, nil
}

// Start runs the watcher until ctx is done or Stop is called.
func (fw *FileWatcher) Start(ctx context.Context) error {
	go fw.debouncer.Run(ctx)
	go fw.processEvents(ctx)
	go fw.watchLoop(ctx)

	fw.logger.Debug(ctx, "File watcher started", "paths", len(fw.watcher.WatchList()))
	return nil
}

// Stop releases the underlying watcher. It is safe to call more than once.
func (fw *FileWatcher) Stop() error {
	var err error
	fw.stopOnce.Do(func() {
		fw.debouncer.stop()
		err = fw.watcher.Close()
	})
	return err
}

func (fw *FileWatcher) watchLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-fw.watcher.Events:
			if !ok {
				return
			}
			fw.handleFsnotifyEvent(event)
		case err, ok := <-fw.watcher.Errors:
			if !ok {
				return
			}
			fw.logger.Warn(ctx, err, "File watcher error")
		}
	}
}

func (fw *FileWatcher) handleFsnotifyEvent(event fsnotify.Event) {
	if event.Op == fsnotify.Chmod {
		return
	}

	fw.mutex.RLock()
	filters := fw.filters
	_, listed := fw.files[filepath.Clean(event.Name)]
	scoped := len(fw.files) > 0
	fw.mutex.RUnlock()

	if scoped && !listed {
		return
	}
	for _, filter := range filters {
		if !filter(event.Name) {
			return
		}
	}

	change := ChangeEvent{Type: eventTypeOf(event.Op), Path: event.Name}
	if info, err := os.Stat(event.Name); err == nil {
		change.ModTime = info.ModTime()
		change.Size = info.Size()
	}

	fw.debouncer.Add(change)
}

func eventTypeOf(op fsnotify.Op) EventType {
	switch {
	case op.Has(fsnotify.Create):
		return EventTypeCreated
	case op.Has(fsnotify.Write):
		return EventTypeModified
	case op.Has(fsnotify.Remove):
		return EventTypeDeleted
	case op.Has(fsnotify.Rename):
		return EventTypeRenamed
	default:
		return EventTypeModified
	}
}

func (fw *FileWatcher) processEvents(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case events := <-fw.debouncer.output:
			fw.mutex.RLock()
			handlers := fw.handlers
			fw.mutex.RUnlock()

			for _, handler := range handlers {
				if err := handler(events); err != nil {
					fw.logger.Error(ctx, err, "File change handler failed", "events", len(events))
				}
			}
		}
	}
}

// Add queues an event. Events are dropped while the queue is full.
func (d *Debouncer) Add(event ChangeEvent) {
	select {
	case d.events <- event:
	default:
	}
}

// Output delivers debounced batches.
func (d *Debouncer) Output() <-chan []ChangeEvent {
	return d.output
}

// Run processes queued events until ctx is done.
func (d *Debouncer) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			d.stop()
			return
		case event := <-d.events:
			d.addEvent(event)
		}
	}
}

func (d *Debouncer) stop() {
	d.mutex.Lock()
	defer d.mutex.Unlock()
	if d.timer != nil {
		d.timer.Stop()
	}
}

func (d *Debouncer) addEvent(event ChangeEvent) {
	d.mutex.Lock()
	defer d.mutex.Unlock()

	d.pending = append(d.pending, event)

	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.delay, d.flush)
}

func (d *Debouncer) flush() {
	d.mutex.Lock()
	defer d.mutex.Unlock()

	if len(d.pending) == 0 {
		return
	}

	// last event per path wins
	latest := make(map[string]ChangeEvent, len(d.pending))
	for _, event := range d.pending {
		latest[event.Path] = event
	}

	events := make([]ChangeEvent, 0, len(latest))
	for _, event := range latest {
		events = append(events, event)
	}
	slices.SortFunc(events, func(a, b ChangeEvent) int {
		return strings.Compare(a.Path, b.Path)
	})

	select {
	case d.output <- events:
	default:
	}

	d.pending = d.pending[:0]
}

// ManifestFilter accepts YAML files.
func ManifestFilter(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yml", ".yaml":
		return true
	}
	return false
}

// DocumentFilter accepts HTML files.
func DocumentFilter(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".html", ".htm":
		return true
	}
	return false
}

// NoHiddenFilter rejects dotfiles and editor backup files.
func NoHiddenFilter(path string) bool {
	base := filepath.Base(path)
	return !strings.HasPrefix(base, ".") && !strings.HasSuffix(base, "~") &&
		!strings.HasSuffix(base, ".swp")
}

// FileNameFilter accepts only the file at path.
func FileNameFilter(path string) FileFilter {
	want := filepath.Clean(path)
	return func(p string) bool {
		return filepath.Clean(p) == want
	}
}

// AnyFilter accepts a path when at least one of filters does.
func AnyFilter(filters ...FileFilter) FileFilter {
	return func(path string) bool {
		for _, f := range filters {
			if f(path) {
				return true
			}
		}
		return false
	}
}
