package watch

import (
	"path/filepath"
	"sort"
	"strings"
)

// Table maps kernel handles to the directories they were registered for.
// It is owned by the watch loop and not safe for concurrent use.
type Table struct {
	dirs    map[Handle]string
	handles map[string]Handle
}

// NewTable returns an empty table
func NewTable() *Table {
	return &Table{
		dirs:    make(map[Handle]string),
		handles: make(map[string]Handle),
	}
}

// Insert records that h watches path
func (t *Table) Insert(h Handle, path string) {
	if old, ok := t.dirs[h]; ok && old != path {
		delete(t.handles, old)
	}
	t.dirs[h] = path
	t.handles[path] = h
}

// Lookup returns the directory registered under h
func (t *Table) Lookup(h Handle) (string, bool) {
	path, ok := t.dirs[h]
	return path, ok
}

// Has reports whether path is already watched
func (t *Table) Has(path string) bool {
	_, ok := t.handles[path]
	return ok
}

// Remove forgets h and returns the path it was watching
func (t *Table) Remove(h Handle) (string, bool) {
	path, ok := t.dirs[h]
	if !ok {
		return "", false
	}
	delete(t.dirs, h)
	if t.handles[path] == h {
		delete(t.handles, path)
	}
	return path, true
}

// Under returns the handles watching path or anything below it
func (t *Table) Under(path string) []Handle {
	prefix := path + string(filepath.Separator)
	var out []Handle
	for h, p := range t.dirs {
		if p == path || strings.HasPrefix(p, prefix) {
			out = append(out, h)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Resolve joins an event name onto the directory registered under h.
// Unknown handles and events without a name resolve to nothing.
func (t *Table) Resolve(h Handle, name string) (string, bool) {
	if name == "" {
		return "", false
	}
	dir, ok := t.dirs[h]
	if !ok {
		return "", false
	}
	return filepath.Join(dir, name), true
}

// Len returns the number of live registrations
func (t *Table) Len() int {
	return len(t.dirs)
}

// Paths returns every watched directory, sorted
func (t *Table) Paths() []string {
	out := make([]string, 0, len(t.handles))
	for p := range t.handles {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}
