package monitor

import (
	"sync"

	"github.com/TimelordUK/mtail/internal/archive"
	"github.com/TimelordUK/mtail/internal/logx"
)

// Monitor holds the set of entries of one run
type Monitor struct {
	handler   Handler
	archives  archive.Reader
	recursive bool
	follow    bool

	mu      sync.Mutex
	entries []*Entry
	keys    map[string]struct{}
}

// New creates a monitor reporting to h; entries get a watcher when follow
// is set
func New(h Handler, archives archive.Reader, recursive, follow bool) *Monitor {
	return &Monitor{
		handler:   h,
		archives:  archives,
		recursive: recursive,
		follow:    follow,
		keys:      make(map[string]struct{}),
	}
}

// Add registers path. It returns false when an entry with the same folder
// and mask exists already.
func (m *Monitor) Add(path string) bool {
	e := NewEntry(path, m.recursive, m.archives, m.handler)

	m.mu.Lock()
	if _, dup := m.keys[e.Key()]; dup {
		m.mu.Unlock()
		return false
	}
	m.keys[e.Key()] = struct{}{}
	m.entries = append(m.entries, e)
	m.mu.Unlock()

	logx.Debugf("monitor %s entry %s for %s", e.Kind, e.Folder, e.Mask)
	if m.follow {
		if err := e.BeginMonitor(); err != nil {
			logx.Warnf("watch %s: %v", e.Folder, err)
		}
	}
	return true
}

// Entries returns a snapshot of the registered entries
func (m *Monitor) Entries() []*Entry {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*Entry(nil), m.entries...)
}

// ForceProcess sweeps every entry. The first error that is not ignorable
// stops the sweep.
func (m *Monitor) ForceProcess() error {
	for _, e := range m.Entries() {
		if err := e.ForceProcess(); err != nil {
			return err
		}
	}
	return nil
}

// Close stops every watcher
func (m *Monitor) Close() {
	for _, e := range m.Entries() {
		e.Close()
	}
}
