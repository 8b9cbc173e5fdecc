// Package cache keeps an offline copy of raw tasks and events on disk.
package cache

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"sort"
	"strings"
	"sync"

	"github.com/peterbourgon/diskv/v3"

	"github.com/harrisonrobin/workload/pkg/model"
	"github.com/harrisonrobin/workload/pkg/toggle"
)

const (
	collectionTasks  = "tasks"
	collectionEvents = "events"
)

var ErrEmptyID = errors.New("cache: record id required")

// Cache stores every record as one JSON file under BasePath/<collection>/.
type Cache struct {
	mu       sync.Mutex
	d        *diskv.Diskv
	basePath string
}

func New(basePath string) (*Cache, error) {
	if basePath == "" {
		return nil, errors.New("cache: base path required")
	}
	if err := os.MkdirAll(basePath, 0o755); err != nil {
		return nil, fmt.Errorf("cache: ensure base path: %w", err)
	}
	return &Cache{
		d: diskv.New(diskv.Options{
			BasePath:          basePath,
			AdvancedTransform: keyToPathTransform,
			InverseTransform:  pathToKeyTransform,
			CacheSizeMax:      1024 * 1024, // 1MB
		}),
		basePath: basePath,
	}, nil
}

func (c *Cache) Name() string { return "cache" }

func (c *Cache) BasePath() string { return c.basePath }

// Fetch reads every stored record. Unreadable files are logged and skipped.
func (c *Cache) Fetch(ctx context.Context) (model.Snapshot, error) {
	s := model.Snapshot{Tasks: []model.Task{}, Events: []model.Event{}}
	for key := range c.d.Keys(ctx.Done()) {
		pk := keyToPathTransform(key)
		val, err := c.d.Read(key)
		if err != nil {
			log.Printf("cache: %s: %v", key, err)
			continue
		}
		switch pk.Path[0] {
		case collectionTasks:
			var t model.Task
			if err := json.Unmarshal(val, &t); err != nil {
				log.Printf("cache: %s: %v", key, err)
				continue
			}
			s.Tasks = append(s.Tasks, t)
		case collectionEvents:
			var e model.Event
			if err := json.Unmarshal(val, &e); err != nil {
				log.Printf("cache: %s: %v", key, err)
				continue
			}
			s.Events = append(s.Events, e)
		}
	}
	if err := ctx.Err(); err != nil {
		return model.Snapshot{}, err
	}
	sort.SliceStable(s.Tasks, func(i, j int) bool { return s.Tasks[i].ID < s.Tasks[j].ID })
	sort.SliceStable(s.Events, func(i, j int) bool { return s.Events[i].ID < s.Events[j].ID })
	return s, nil
}

// Apply rewrites the one record u targets.
func (c *Cache) Apply(ctx context.Context, u model.CompletionUpdate) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := toggle.Validate(u); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	var (
		key  string
		snap model.Snapshot
	)
	switch u.Kind {
	case model.Manual:
		key = toKey(collectionTasks, u.ID)
		if c.d.Has(key) {
			t, err := c.readTask(key)
			if err != nil {
				return err
			}
			snap.Tasks = []model.Task{t}
		}
	case model.SyncedAssignment:
		key = toKey(collectionEvents, u.ID)
		if c.d.Has(key) {
			e, err := c.readEvent(key)
			if err != nil {
				return err
			}
			snap.Events = []model.Event{e}
		}
	default:
		return fmt.Errorf("%w: %q", toggle.ErrUnknownKind, u.Kind)
	}

	next, err := toggle.ApplyToSnapshot(snap, u)
	if err != nil {
		return err
	}
	if u.Kind == model.Manual {
		return c.write(key, next.Tasks[0])
	}
	return c.write(key, next.Events[0])
}

// AddTask stores t, replacing any task with the same id.
func (c *Cache) AddTask(t model.Task) error {
	if t.ID == "" {
		return ErrEmptyID
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.write(toKey(collectionTasks, t.ID), t)
}

// Import stores every record of s. With replace set the cache is cleared first.
func (c *Cache) Import(s model.Snapshot, replace bool) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if replace {
		if err := c.d.EraseAll(); err != nil {
			return 0, fmt.Errorf("cache: clear: %w", err)
		}
		if err := os.MkdirAll(c.basePath, 0o755); err != nil {
			return 0, fmt.Errorf("cache: ensure base path: %w", err)
		}
	}
	n := 0
	for _, t := range s.Tasks {
		if t.ID == "" {
			log.Printf("cache: skipping task %q without id", t.Title)
			continue
		}
		if err := c.write(toKey(collectionTasks, t.ID), t); err != nil {
			return n, err
		}
		n++
	}
	for _, e := range s.Events {
		if e.ID == "" {
			log.Printf("cache: skipping event %q without id", e.Title)
			continue
		}
		if err := c.write(toKey(collectionEvents, e.ID), e); err != nil {
			return n, err
		}
		n++
	}
	return n, nil
}

func (c *Cache) readTask(key string) (model.Task, error) {
	var t model.Task
	val, err := c.d.Read(key)
	if err != nil {
		return t, fmt.Errorf("cache: read %s: %w", key, err)
	}
	if err := json.Unmarshal(val, &t); err != nil {
		return t, fmt.Errorf("cache: decode %s: %w", key, err)
	}
	return t, nil
}

func (c *Cache) readEvent(key string) (model.Event, error) {
	var e model.Event
	val, err := c.d.Read(key)
	if err != nil {
		return e, fmt.Errorf("cache: read %s: %w", key, err)
	}
	if err := json.Unmarshal(val, &e); err != nil {
		return e, fmt.Errorf("cache: decode %s: %w", key, err)
	}
	return e, nil
}

func (c *Cache) write(key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	if err := c.d.Write(key, data); err != nil {
		return fmt.Errorf("cache: write %s: %w", key, err)
	}
	return nil
}

// Ids are hex encoded so any id is a safe file name.
func keyToPathTransform(s string) *diskv.PathKey {
	parts := strings.SplitN(s, "-", 2)
	if len(parts) < 2 {
		return &diskv.PathKey{Path: []string{""}, FileName: s}
	}
	return &diskv.PathKey{
		Path:     parts[:1],
		FileName: parts[1],
	}
}

func pathToKeyTransform(pathKey *diskv.PathKey) string {
	return fmt.Sprintf("%s-%s", strings.Join(pathKey.Path, "-"), pathKey.FileName)
}

// toKey makes `collection-hexid`
func toKey(collection, id string) string {
	return fmt.Sprintf("%s-%s", collection, hex.EncodeToString([]byte(id)))
}
