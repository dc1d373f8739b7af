package filter

import (
	"path/filepath"
	"regexp"
	"strings"

	"fwatch/internal/watch"
)

// Kind is the outcome of classifying a raw event
type Kind int

const (
	// Ignore means the event neither changes the watch set nor runs anything
	Ignore Kind = iota
	// WatchDir means a directory appeared and should be registered
	WatchDir
	// Trigger means the command should be (re)started for the path
	Trigger
)

func (k Kind) String() string {
	switch k {
	case WatchDir:
		return "watch-dir"
	case Trigger:
		return "trigger"
	default:
		return "ignore"
	}
}

// Decision pairs a Kind with the resolved path it applies to
type Decision struct {
	Kind Kind
	Path string
}

// Resolver maps a handle and name back to a full path
type Resolver interface {
	Resolve(h watch.Handle, name string) (string, bool)
}

// Filter decides what each raw event means
type Filter struct {
	resolver  Resolver
	extension string
	regex     *regexp.Regexp
}

// New builds a filter. An empty extension and a nil regex mean every
// qualifying file event triggers.
func New(resolver Resolver, extension string, regex *regexp.Regexp) *Filter {
	return &Filter{
		resolver:  resolver,
		extension: strings.TrimPrefix(extension, "."),
		regex:     regex,
	}
}

// Classify turns one raw event into a decision
func (f *Filter) Classify(ev watch.RawEvent) Decision {
	if ev.Mask.Has(watch.OpIgnored) || ev.Mask.Has(watch.OpOverflow) {
		return Decision{Kind: Ignore}
	}

	path, ok := f.resolver.Resolve(ev.Handle, ev.Name)
	if !ok {
		return Decision{Kind: Ignore}
	}

	if ev.Mask.Has(watch.OpIsDir) {
		if ev.Mask.Has(watch.OpCreate) || ev.Mask.Has(watch.OpMovedTo) {
			return Decision{Kind: WatchDir, Path: path}
		}
		return Decision{Kind: Ignore, Path: path}
	}

	if !ev.Mask.Has(watch.OpCloseWrite) {
		return Decision{Kind: Ignore, Path: path}
	}

	if f.Matches(path) {
		return Decision{Kind: Trigger, Path: path}
	}
	return Decision{Kind: Ignore, Path: path}
}

// Matches applies the configured filters. An extension match wins, then a
// regex match; with neither configured every path matches.
func (f *Filter) Matches(path string) bool {
	if f.extension != "" {
		if ext, ok := Extension(path); ok && ext == f.extension {
			return true
		}
	}
	if f.regex != nil && f.regex.MatchString(path) {
		return true
	}
	return f.extension == "" && f.regex == nil
}

// Extension returns what follows the last dot in the base name. Names with
// no dot, or whose only dot is the first character, have no extension.
func Extension(path string) (string, bool) {
	base := filepath.Base(path)
	i := strings.LastIndexByte(base, '.')
	if i <= 0 {
		return "", false
	}
	return base[i+1:], true
}
