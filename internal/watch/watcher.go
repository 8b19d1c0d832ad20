package watch

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/penwyp/go-bubble-hist/internal/util"
)

// DefaultDebounce collapses the burst of events an editor or exporter
// produces when it rewrites a file.
const DefaultDebounce = 200 * time.Millisecond

// RunFunc is called once per settled change of the watched file.
type RunFunc func(ctx context.Context) error

// FileWatcher watches a single file through its parent directory, so the
// file may be replaced by rename or recreated after deletion.
type FileWatcher struct {
	watcher  *fsnotify.Watcher
	path     string
	debounce time.Duration
	events   chan fsnotify.Event

	// fingerprint of the content the last run saw
	last string
}

func NewFileWatcher(path string, debounce time.Duration) (*FileWatcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	if debounce <= 0 {
		debounce = DefaultDebounce
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	dir := filepath.Dir(abs)
	if err := watcher.Add(dir); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("failed to watch %s: %w", dir, err)
	}

	fw := &FileWatcher{
		watcher:  watcher,
		path:     abs,
		debounce: debounce,
		events:   make(chan fsnotify.Event, 100),
	}
	fw.last, _ = util.FileFingerprint(abs)

	go fw.processEvents()

	return fw, nil
}

func (fw *FileWatcher) processEvents() {
	defer close(fw.events)
	for {
		select {
		case event, ok := <-fw.watcher.Events:
			if !ok {
				return
			}
			if !fw.relevant(event) {
				continue
			}
			util.LogDebug("Input changed", util.F("path", event.Name), util.F("op", event.Op.String()))
			select {
			case fw.events <- event:
			default:
				// a run is already pending
			}

		case err, ok := <-fw.watcher.Errors:
			if !ok {
				return
			}
			util.LogError("File monitoring error: " + err.Error())
		}
	}
}

func (fw *FileWatcher) relevant(event fsnotify.Event) bool {
	if filepath.Clean(event.Name) != fw.path {
		return false
	}
	return event.Has(fsnotify.Write) || event.Has(fsnotify.Create) || event.Has(fsnotify.Rename)
}

// Events delivers filtered events for the watched file.
func (fw *FileWatcher) Events() <-chan fsnotify.Event {
	return fw.events
}

// Run calls run after every debounced change until ctx is cancelled.
// Changes that leave the content identical are skipped. A failing run is
// logged and watching continues.
func (fw *FileWatcher) Run(ctx context.Context, run RunFunc) error {
	util.LogInfo("Watching input for changes", util.F("path", fw.path))

	var (
		timer   *time.Timer
		pending <-chan time.Time
	)
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case _, ok := <-fw.events:
			if !ok {
				return nil
			}
			if timer == nil {
				timer = time.NewTimer(fw.debounce)
			} else {
				if !timer.Stop() {
					select {
					case <-timer.C:
					default:
					}
				}
				timer.Reset(fw.debounce)
			}
			pending = timer.C

		case <-pending:
			pending = nil
			if fp, err := util.FileFingerprint(fw.path); err == nil {
				if fp == fw.last {
					util.LogDebug("Input content unchanged, skipping re-run", util.F("path", fw.path))
					continue
				}
				fw.last = fp
			}
			start := time.Now()
			if err := run(ctx); err != nil {
				util.LogError("Re-run failed", util.F("error", err.Error()))
				continue
			}
			util.LogDebug(fmt.Sprintf("Re-run duration: %v", time.Since(start)))
		}
	}
}

func (fw *FileWatcher) Close() error {
	return fw.watcher.Close()
}
