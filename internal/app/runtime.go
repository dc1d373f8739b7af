package app

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/sync/errgroup"

	"fwatch/internal/config"
	"fwatch/internal/domain"
	"fwatch/internal/eventbus"
	"fwatch/internal/filter"
	"fwatch/internal/pager"
	"fwatch/internal/supervisor"
	"fwatch/internal/watch"
)

// Runtime ties the watcher, the filter, the supervisor and the optional
// pager together
type Runtime struct {
	bus        eventbus.EventBus
	manager    *watch.Manager
	filter     *filter.Filter
	supervisor *supervisor.Supervisor
	pager      *pager.Pager
	pagerOpts  []tea.ProgramOption
	source     watch.Source
}

// Option customizes a Runtime
type Option func(*Runtime)

// WithWatchSource replaces the kernel watch primitive
func WithWatchSource(source watch.Source) Option {
	return func(r *Runtime) {
		r.source = source
	}
}

// WithPagerOptions passes extra options to the pager program
func WithPagerOptions(opts ...tea.ProgramOption) Option {
	return func(r *Runtime) {
		r.pagerOpts = append(r.pagerOpts, opts...)
	}
}

// New validates cfg and sets up every component. Setup problems are
// returned; nothing is running yet.
func New(cfg *config.Config, bus eventbus.EventBus, opts ...Option) (*Runtime, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	for _, root := range cfg.Roots {
		info, err := os.Stat(root)
		if err != nil {
			return nil, fmt.Errorf("cannot watch %s: %w", root, err)
		}
		if !info.IsDir() {
			return nil, fmt.Errorf("cannot watch %s: not a directory", root)
		}
	}

	re, err := cfg.CompiledRegex()
	if err != nil {
		return nil, err
	}
	template, err := supervisor.NewTemplate(cfg.Command)
	if err != nil {
		return nil, err
	}

	r := &Runtime{bus: bus}
	for _, opt := range opts {
		opt(r)
	}

	manager, err := watch.Open(cfg.Roots, watch.Options{
		Ignore: cfg.Ignore,
		Bus:    bus,
		Source: r.source,
	})
	if err != nil {
		return nil, err
	}
	r.manager = manager
	r.filter = filter.New(manager, cfg.Extension, re)

	supOpts := supervisor.Options{Bus: bus}
	if cfg.Pager {
		r.pager = pager.New()
		r.pager.Follow(bus)
		supOpts.Console = r.pager
	}
	r.supervisor = supervisor.New(template, supOpts)

	log.Printf("app: watching %d directories, command %s", manager.Len(), template)
	return r, nil
}

// Run blocks until ctx is cancelled, the pager is closed, or the watch
// source fails. The current command is killed before Run returns.
func (r *Runtime) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return r.supervisor.Run(gctx)
	})
	g.Go(func() error {
		<-gctx.Done()
		return r.manager.Close()
	})
	g.Go(func() error {
		return r.watchLoop(gctx)
	})
	if r.pager != nil {
		g.Go(func() error {
			defer cancel()
			return r.pager.Run(gctx, r.pagerOpts...)
		})
	}

	return g.Wait()
}

// Supervisor exposes the process supervisor, mainly for status queries
func (r *Runtime) Supervisor() *supervisor.Supervisor {
	return r.supervisor
}

// Pager returns the pager, or nil when output goes to the terminal
func (r *Runtime) Pager() *pager.Pager {
	return r.pager
}

func (r *Runtime) watchLoop(ctx context.Context) error {
	for {
		events, err := r.manager.Next()
		if err != nil {
			if errors.Is(err, watch.ErrClosed) {
				return nil
			}
			return fmt.Errorf("watch: %w", err)
		}
		for _, ev := range events {
			if err := r.dispatch(ctx, ev); err != nil {
				return nil
			}
		}
	}
}

func (r *Runtime) dispatch(ctx context.Context, ev watch.RawEvent) error {
	decision := r.filter.Classify(ev)
	r.manager.Observe(ev)

	switch decision.Kind {
	case filter.WatchDir:
		r.manager.Extend(decision.Path)
	case filter.Trigger:
		trigger := domain.Trigger{Path: decision.Path, At: time.Now()}
		r.bus.Publish(domain.TriggeredEvent{Trigger: trigger})
		return r.supervisor.Trigger(ctx, decision.Path)
	}
	return nil
}
