package monitor

import (
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/TimelordUK/mtail/internal/config"
	"github.com/TimelordUK/mtail/internal/logx"
)

// BeginMonitor starts a file system watcher on the entry folder. Console
// and archive entries have nothing to watch and are polled by sweeps only.
func (e *Entry) BeginMonitor() error {
	if e.Kind == ConsoleEntry || e.Kind == ArchiveEntry {
		return nil
	}

	e.watchMu.Lock()
	defer e.watchMu.Unlock()
	if e.watcher != nil || e.closed {
		return nil
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	if err := w.Add(e.Folder); err != nil {
		w.Close()
		return err
	}
	if e.recursive && e.Kind == WildcardEntry {
		e.watchSubdirs(w, e.Folder)
	}

	e.watcher = w
	go e.watch(w)
	logx.Debugf("watching %s for %s", e.Folder, e.Mask)
	return nil
}

func (e *Entry) watchSubdirs(w *fsnotify.Watcher, root string) {
	_ = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() && path != root {
			if err := w.Add(path); err != nil {
				logx.Debugf("watch %s: %v", path, err)
			}
		}
		return nil
	})
}

func (e *Entry) watch(w *fsnotify.Watcher) {
	for {
		select {
		case ev, ok := <-w.Events:
			if !ok {
				return
			}
			e.dispatch(w, ev)
		case err, ok := <-w.Errors:
			if !ok {
				return
			}
			logx.Warnf("watcher %s: %v, restarting", e.Folder, err)
			e.stopWatcher(w)
			time.AfterFunc(config.WaitOnError, func() {
				if err := e.BeginMonitor(); err != nil {
					logx.Errorf("restart watcher %s: %v", e.Folder, err)
				}
			})
			return
		}
	}
}

func (e *Entry) dispatch(w *fsnotify.Watcher, ev fsnotify.Event) {
	switch {
	case ev.Has(fsnotify.Create):
		if e.recursive && e.Kind == WildcardEntry && isDir(ev.Name) {
			e.watchSubdirs(w, ev.Name)
			_ = w.Add(ev.Name)
			return
		}
		if e.matches(ev.Name) {
			e.createdOrChanged(ev.Name, Push)
		}
	case ev.Has(fsnotify.Write):
		if e.matches(ev.Name) {
			e.createdOrChanged(ev.Name, Push)
		}
	case ev.Has(fsnotify.Remove), ev.Has(fsnotify.Rename):
		e.removed(ev.Name)
	}
}

func (e *Entry) stopWatcher(w *fsnotify.Watcher) {
	e.watchMu.Lock()
	if e.watcher == w {
		e.watcher = nil
	}
	e.watchMu.Unlock()
	w.Close()
}

// Close stops the watcher for good
func (e *Entry) Close() {
	e.watchMu.Lock()
	w := e.watcher
	e.watcher = nil
	e.closed = true
	e.watchMu.Unlock()
	if w != nil {
		w.Close()
	}
}

func isDir(path string) bool {
	fi, err := os.Stat(path)
	return err == nil && fi.IsDir()
}
