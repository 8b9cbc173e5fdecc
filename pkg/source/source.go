// Package source defines where raw snapshots come from and where completion
// updates go.
package source

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/harrisonrobin/workload/pkg/model"
	"github.com/harrisonrobin/workload/pkg/toggle"
)

var (
	// ErrReadOnly is returned by sources that cannot persist completion changes.
	ErrReadOnly = errors.New("source: read-only")
	// ErrUnsupportedKind is returned when an update targets a kind the source does not own.
	ErrUnsupportedKind = errors.New("source: unsupported kind")
)

// DefaultFetchTimeout bounds one Combined.Fetch.
const DefaultFetchTimeout = 30 * time.Second

// Source yields raw snapshots and persists completion updates for the
// records it owns.
type Source interface {
	Name() string
	Fetch(ctx context.Context) (model.Snapshot, error)
	Apply(ctx context.Context, u model.CompletionUpdate) error
}

// Combined pairs a manual task source with a synced calendar source.
type Combined struct {
	Manual  Source
	Synced  Source
	Timeout time.Duration
}

func NewCombined(manual, synced Source, timeout time.Duration) *Combined {
	if timeout <= 0 {
		timeout = DefaultFetchTimeout
	}
	return &Combined{Manual: manual, Synced: synced, Timeout: timeout}
}

func (c *Combined) Name() string {
	return fmt.Sprintf("%s+%s", name(c.Manual), name(c.Synced))
}

// Fetch loads both collections concurrently under one deadline. Only tasks
// are taken from the manual source and only events from the synced one.
func (c *Combined) Fetch(ctx context.Context) (model.Snapshot, error) {
	ctx, cancel := context.WithTimeout(ctx, c.Timeout)
	defer cancel()

	var manual, synced model.Snapshot
	g, ctx := errgroup.WithContext(ctx)
	if c.Manual != nil {
		g.Go(func() error {
			s, err := c.Manual.Fetch(ctx)
			if err != nil {
				return fmt.Errorf("fetch %s: %w", c.Manual.Name(), err)
			}
			manual = s
			return nil
		})
	}
	if c.Synced != nil {
		g.Go(func() error {
			s, err := c.Synced.Fetch(ctx)
			if err != nil {
				return fmt.Errorf("fetch %s: %w", c.Synced.Name(), err)
			}
			synced = s
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return model.Snapshot{}, err
	}
	return model.Snapshot{Tasks: nonNil(manual.Tasks), Events: nonNilEvents(synced.Events)}, nil
}

// Apply routes u to the source owning its kind.
func (c *Combined) Apply(ctx context.Context, u model.CompletionUpdate) error {
	var target Source
	switch u.Kind {
	case model.Manual:
		target = c.Manual
	case model.SyncedAssignment:
		target = c.Synced
	}
	if target == nil {
		return fmt.Errorf("%w: no source for %q", ErrUnsupportedKind, u.Kind)
	}
	if err := target.Apply(ctx, u); err != nil {
		return fmt.Errorf("apply to %s: %w", target.Name(), err)
	}
	return nil
}

// Memory is an in-process source holding one snapshot.
type Memory struct {
	mu   sync.RWMutex
	name string
	snap model.Snapshot
}

func NewMemory(name string, s model.Snapshot) *Memory {
	return &Memory{name: name, snap: s.Clone()}
}

func (m *Memory) Name() string { return m.name }

func (m *Memory) Fetch(ctx context.Context) (model.Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return model.Snapshot{}, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.snap.Clone(), nil
}

func (m *Memory) Apply(ctx context.Context, u model.CompletionUpdate) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	next, err := toggle.ApplyToSnapshot(m.snap, u)
	if err != nil {
		return err
	}
	m.snap = next
	return nil
}

// ReadOnly wraps a source so that Apply always fails.
func ReadOnly(s Source) Source {
	return readOnly{s}
}

type readOnly struct {
	Source
}

func (r readOnly) Apply(context.Context, model.CompletionUpdate) error {
	return fmt.Errorf("%w: %s", ErrReadOnly, r.Name())
}

func name(s Source) string {
	if s == nil {
		return "none"
	}
	return s.Name()
}

func nonNil(t []model.Task) []model.Task {
	if t == nil {
		return []model.Task{}
	}
	return t
}

func nonNilEvents(e []model.Event) []model.Event {
	if e == nil {
		return []model.Event{}
	}
	return e
}
