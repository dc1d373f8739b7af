package watch

import (
	"io/fs"
	"log"
	"path/filepath"
	"strings"
	"sync"

	"fwatch/internal/domain"
	"fwatch/internal/eventbus"
)

// Options configures a Manager
type Options struct {
	// Ignore holds extra doublestar patterns on top of .git
	Ignore []string
	// Bus receives watch lifecycle events, may be nil
	Bus eventbus.EventBus
	// Source overrides the kernel primitive, mainly for tests
	Source Source
}

// Manager keeps one registration per directory under the configured roots
// and keeps the table in step with what the kernel reports.
type Manager struct {
	source    Source
	table     *Table
	roots     []string
	ignore    []string
	bus       eventbus.EventBus
	closeOnce sync.Once
	closeErr  error
}

// Open creates the watch source and registers every directory under roots.
// Directories that cannot be read or registered are logged and skipped.
func Open(roots []string, opts Options) (*Manager, error) {
	source := opts.Source
	if source == nil {
		var err error
		source, err = NewSource()
		if err != nil {
			return nil, err
		}
	}

	m := &Manager{
		source: source,
		table:  NewTable(),
		ignore: opts.Ignore,
		bus:    opts.Bus,
	}
	for _, root := range roots {
		root = filepath.Clean(root)
		m.roots = append(m.roots, root)
		added := m.walk(root, root)
		log.Printf("watch: registered %d directories under %s", added, root)
	}
	return m, nil
}

// Extend registers path and every directory below it that is not yet
// watched. It returns the number of new registrations.
func (m *Manager) Extend(path string) int {
	path = filepath.Clean(path)
	return m.walk(m.rootFor(path), path)
}

// Observe updates the table from a raw event. IGNORED drops the handle the
// kernel already released; a directory moved away loses its whole subtree.
func (m *Manager) Observe(ev RawEvent) {
	switch {
	case ev.Mask.Has(OpOverflow):
		log.Printf("watch: kernel event queue overflowed, some changes were missed")
		m.publish(domain.ErrorEvent{Message: "inotify queue overflow"})
	case ev.Mask.Has(OpIgnored):
		if path, ok := m.table.Remove(ev.Handle); ok {
			m.publish(domain.WatchRemovedEvent{Watch: domain.Watch{Handle: int(ev.Handle), Path: path}})
		}
	case ev.Mask.Has(OpMovedFrom) && ev.Mask.Has(OpIsDir):
		if path, ok := m.table.Resolve(ev.Handle, ev.Name); ok {
			m.forget(path)
		}
	}
}

// Resolve turns a handle and event name into a full path
func (m *Manager) Resolve(h Handle, name string) (string, bool) {
	return m.table.Resolve(h, name)
}

// Next blocks for the next batch of raw events
func (m *Manager) Next() ([]RawEvent, error) {
	return m.source.Read()
}

// Close releases the source. Safe to call from any goroutine.
func (m *Manager) Close() error {
	m.closeOnce.Do(func() {
		m.closeErr = m.source.Close()
	})
	return m.closeErr
}

// Len returns the number of watched directories
func (m *Manager) Len() int {
	return m.table.Len()
}

// Paths returns every watched directory, sorted
func (m *Manager) Paths() []string {
	return m.table.Paths()
}

func (m *Manager) walk(root, start string) int {
	ignorer := NewIgnorer(root, m.ignore)
	added := 0

	err := filepath.WalkDir(start, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			log.Printf("watch: error walking %s: %v", path, err)
			m.publish(domain.WalkErrorEvent{Path: path, Err: err})
			return nil
		}

		if !d.IsDir() {
			return nil
		}
		if path != root && ignorer.Ignore(path, true) {
			return fs.SkipDir
		}
		if m.table.Has(path) {
			return nil
		}

		h, err := m.source.Add(path, watchMask)
		if err != nil {
			log.Printf("watch: failed to watch %s: %v", path, err)
			m.publish(domain.WatchFailedEvent{Path: path, Err: err})
			return nil
		}
		m.table.Insert(h, path)
		m.publish(domain.WatchAddedEvent{Watch: domain.Watch{Handle: int(h), Path: path}})
		added++
		return nil
	})
	if err != nil {
		log.Printf("watch: walk of %s stopped: %v", start, err)
	}
	return added
}

func (m *Manager) forget(path string) {
	for _, h := range m.table.Under(path) {
		if err := m.source.Remove(h); err != nil {
			// Usually the kernel released it already
			log.Printf("watch: %v", err)
		}
		if p, ok := m.table.Remove(h); ok {
			m.publish(domain.WatchRemovedEvent{Watch: domain.Watch{Handle: int(h), Path: p}})
		}
	}
}

// rootFor returns the configured root containing path, so relative ignore
// patterns keep matching the same way they did during the initial walk.
func (m *Manager) rootFor(path string) string {
	best := ""
	for _, root := range m.roots {
		if path == root || strings.HasPrefix(path, root+string(filepath.Separator)) || root == "." && !filepath.IsAbs(path) {
			if len(root) > len(best) {
				best = root
			}
		}
	}
	if best == "" {
		return path
	}
	return best
}

func (m *Manager) publish(event domain.DomainEvent) {
	if m.bus != nil {
		m.bus.Publish(event)
	}
}
