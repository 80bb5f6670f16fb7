// Package monitor discovers the files behind the command line arguments and
// reports their creation, change and removal.
package monitor

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"
	"sync"
	"syscall"

	"github.com/fsnotify/fsnotify"

	"github.com/TimelordUK/mtail/internal/archive"
	"github.com/TimelordUK/mtail/internal/config"
)

// Origin tells whether an event comes from a notification or a sweep
type Origin int

const (
	Push Origin = iota
	Poll
)

func (o Origin) String() string {
	if o == Push {
		return "push"
	}
	return "poll"
}

// Event names a discovered file
type Event struct {
	Path   string
	Origin Origin
}

// Handler receives discovery events
type Handler interface {
	Created(e Event)
	Changed(e Event)
	Deleted(e Event)
	DiscoveryError(err *DiscoveryError)
}

// DiscoveryError reports a failure while enumerating an entry
type DiscoveryError struct {
	Path      string
	Err       error
	Ignorable bool
}

func (e *DiscoveryError) Error() string {
	return fmt.Sprintf("%v. [%s]", e.Err, e.Path)
}

func (e *DiscoveryError) Unwrap() error { return e.Err }

// ignorable reports enumeration errors that must not abort a sweep
func ignorable(err error) bool {
	var pathErr *fs.PathError
	return errors.Is(err, fs.ErrPermission) ||
		errors.Is(err, syscall.ENAMETOOLONG) ||
		errors.As(err, &pathErr)
}

// EntryKind classifies a monitored argument
type EntryKind int

const (
	RegularEntry EntryKind = iota
	WildcardEntry
	ArchiveEntry
	ConsoleEntry
)

func (k EntryKind) String() string {
	switch k {
	case WildcardEntry:
		return "wildcard"
	case ArchiveEntry:
		return "archive"
	case ConsoleEntry:
		return "console"
	default:
		return "regular"
	}
}

// ParseEntry splits a command line path into folder and mask. Archive paths
// use the archive as folder and the inner path as mask.
func ParseEntry(path string, archives archive.Reader) (folder, mask string, kind EntryKind) {
	if path == config.ConsoleName {
		return "", path, ConsoleEntry
	}
	if archives != nil {
		if arch, member, ok := archives.SplitPath(path); ok {
			return arch, member, ArchiveEntry
		}
	}

	folder, mask = filepath.Split(path)
	folder = strings.TrimSpace(folder)
	if folder == "" {
		folder = "."
	}
	folder = filepath.Clean(folder)
	kind = RegularEntry
	if HasWildcards(mask) {
		kind = WildcardEntry
	}
	return folder, mask, kind
}

// Entry watches the files selected by one argument
type Entry struct {
	Folder string
	Mask   string
	Kind   EntryKind

	recursive bool
	archives  archive.Reader
	handler   Handler

	filesMu sync.Mutex
	files   map[string]string

	reportedMu sync.Mutex
	reported   map[string]struct{}

	watchMu sync.Mutex
	watcher *fsnotify.Watcher
	closed  bool
}

// NewEntry creates the entry for path
func NewEntry(path string, recursive bool, archives archive.Reader, h Handler) *Entry {
	folder, mask, kind := ParseEntry(path, archives)
	return &Entry{
		Folder:    folder,
		Mask:      mask,
		Kind:      kind,
		recursive: recursive,
		archives:  archives,
		handler:   h,
		files:     make(map[string]string),
		reported:  make(map[string]struct{}),
	}
}

// Key identifies entries watching the same folder and mask
func (e *Entry) Key() string {
	return strings.ToLower(filepath.ToSlash(e.Folder)) + "|" + strings.ToLower(filepath.ToSlash(e.Mask))
}

// ForceProcess enumerates the entry and emits a poll event for every file.
// Files of a wildcard entry that disappeared are reported deleted.
func (e *Entry) ForceProcess() error {
	switch e.Kind {
	case ConsoleEntry:
		e.handler.Changed(Event{Path: config.ConsoleName, Origin: Poll})
		return nil
	case ArchiveEntry:
		return e.processArchive()
	case WildcardEntry:
		return e.processWildcard()
	default:
		e.createdOrChanged(filepath.Join(e.Folder, e.Mask), Poll)
		return nil
	}
}

func (e *Entry) processArchive() error {
	members, err := e.archives.ListMembers(e.Folder)
	if err != nil {
		return &DiscoveryError{Path: e.Folder, Err: err}
	}
	for _, m := range members {
		if MatchMask(m, e.Mask) {
			e.createdOrChanged(e.Folder+string(filepath.Separator)+filepath.FromSlash(m), Poll)
		}
	}
	return nil
}

func (e *Entry) processWildcard() error {
	stale := make(map[string]string)
	e.filesMu.Lock()
	for k, v := range e.files {
		stale[k] = v
	}
	e.filesMu.Unlock()

	err := filepath.WalkDir(e.Folder, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if !ignorable(err) {
				return err
			}
			e.report(path, err)
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			if path != e.Folder && !e.recursive {
				return filepath.SkipDir
			}
			return nil
		}
		if !MatchMask(d.Name(), e.Mask) {
			return nil
		}
		delete(stale, fileKey(path))
		e.createdOrChanged(path, Poll)
		return nil
	})
	if err != nil {
		return &DiscoveryError{Path: e.Folder, Err: err}
	}

	for _, path := range stale {
		e.removed(path)
	}
	return nil
}

// report forwards an ignorable error once per path
func (e *Entry) report(path string, err error) {
	e.reportedMu.Lock()
	_, seen := e.reported[fileKey(path)]
	e.reported[fileKey(path)] = struct{}{}
	e.reportedMu.Unlock()
	if !seen {
		e.handler.DiscoveryError(&DiscoveryError{Path: path, Err: err, Ignorable: true})
	}
}

func fileKey(path string) string {
	return strings.ToLower(filepath.Clean(path))
}

// matches reports whether a notified path belongs to the entry
func (e *Entry) matches(path string) bool {
	if e.Kind == RegularEntry {
		return strings.EqualFold(filepath.Base(path), e.Mask)
	}
	return MatchMask(filepath.Base(path), e.Mask)
}

func (e *Entry) createdOrChanged(path string, origin Origin) {
	if !MatchMask(path, e.Mask) {
		return
	}
	key := fileKey(path)
	e.filesMu.Lock()
	_, known := e.files[key]
	e.files[key] = path
	e.filesMu.Unlock()

	ev := Event{Path: path, Origin: origin}
	if known {
		e.handler.Changed(ev)
		return
	}
	e.handler.Created(ev)
}

func (e *Entry) removed(path string) {
	key := fileKey(path)
	e.filesMu.Lock()
	_, known := e.files[key]
	delete(e.files, key)
	e.filesMu.Unlock()

	if known {
		e.handler.Deleted(Event{Path: path, Origin: Push})
	}
}
