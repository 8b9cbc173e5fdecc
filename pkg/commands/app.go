package commands

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/harrisonrobin/workload/pkg/cache"
	"github.com/harrisonrobin/workload/pkg/colors"
	"github.com/harrisonrobin/workload/pkg/config"
	"github.com/harrisonrobin/workload/pkg/google"
	"github.com/harrisonrobin/workload/pkg/orgmode"
	"github.com/harrisonrobin/workload/pkg/printers"
	"github.com/harrisonrobin/workload/pkg/source"
	"github.com/harrisonrobin/workload/pkg/store"
	"github.com/harrisonrobin/workload/pkg/taskwarrior"
	"github.com/harrisonrobin/workload/pkg/workload"
)

// app is everything a command needs for one invocation.
type app struct {
	cfg    *config.Config
	engine *workload.Engine
	src    *source.Combined
	// cache and db are set when a side of src uses them.
	cache *cache.Cache
	db    *store.Store
	sqlDB *sql.DB
}

// openApp loads config and the engine without connecting any source.
func openApp() (*app, error) {
	cfg, err := config.Load(co.Path)
	if err != nil {
		return nil, err
	}
	wc, err := cfg.Engine()
	if err != nil {
		return nil, err
	}
	engine, err := workload.New(wc)
	if err != nil {
		return nil, err
	}
	return &app{cfg: cfg, engine: engine}, nil
}

// loadApp is openApp plus the configured manual and synced sources.
func loadApp(ctx context.Context) (*app, error) {
	a, err := openApp()
	if err != nil {
		return nil, err
	}
	cfg := a.cfg

	manual, err := a.source(ctx, cfg.Source.Manual, true)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("manual source %q: %w", cfg.Source.Manual, err)
	}
	synced, err := a.source(ctx, cfg.Source.Synced, false)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("synced source %q: %w", cfg.Source.Synced, err)
	}
	a.src = source.NewCombined(manual, synced, cfg.FetchTimeout)
	return a, nil
}

func (a *app) source(ctx context.Context, name string, manual bool) (source.Source, error) {
	switch name {
	case config.SourceCache:
		return a.localCache()
	case config.SourcePostgres:
		if a.db == nil {
			db, err := store.Connect(ctx, a.cfg.Database.ConnString())
			if err != nil {
				return nil, err
			}
			a.sqlDB = db
			a.db = store.New(db, a.cfg.Database.UserID)
			if err := a.db.Migrate(ctx); err != nil {
				return nil, err
			}
		}
		return a.db, nil
	case config.SourceTaskwarrior:
		if manual {
			return taskwarrior.NewClient(), nil
		}
	case config.SourceOrgMode:
		if manual {
			return &orgmode.Files{Paths: a.cfg.OrgMode.Files, Course: a.cfg.OrgMode.Course}, nil
		}
	case config.SourceGoogle:
		if !manual {
			return google.NewClient(ctx, a.cfg.Calendar)
		}
	case config.SourceNone, "":
		if !manual {
			return nil, nil
		}
	}
	return nil, errors.New("unsupported source")
}

func (a *app) localCache() (*cache.Cache, error) {
	if a.cache == nil {
		c, err := cache.New(a.cfg.Cache.Path)
		if err != nil {
			return nil, err
		}
		a.cache = c
	}
	return a.cache, nil
}

// forUser scopes the postgres side of the source to userID.
func (a *app) forUser(ctx context.Context, userID int) (source.Source, error) {
	if a.db == nil {
		return a.src, nil
	}
	scoped := a.db.ForUser(userID)
	c := *a.src
	if c.Manual == source.Source(a.db) {
		c.Manual = scoped
	}
	if c.Synced == source.Source(a.db) {
		c.Synced = scoped
	}
	return &c, nil
}

// run fetches a fresh snapshot and computes every view.
func (a *app) run(ctx context.Context) (workload.View, error) {
	snap, err := a.src.Fetch(ctx)
	if err != nil {
		return workload.View{}, err
	}
	return a.engine.Run(snap, time.Now())
}

func (a *app) printer(now time.Time) (*printers.PrettyPrint, func()) {
	pp := &printers.PrettyPrint{Now: now}
	dir, err := config.Dir()
	if err != nil {
		return pp, func() {}
	}
	cc, err := colors.NewColorCache(dir)
	if err != nil {
		log.Printf("Warning: course colors unavailable: %v", err)
		return pp, func() {}
	}
	pp.Colors = cc
	return pp, func() {
		if err := cc.Save(); err != nil {
			log.Printf("Warning: failed to save course colors: %v", err)
		}
	}
}

func (a *app) Close() {
	if a.sqlDB != nil {
		if err := a.sqlDB.Close(); err != nil {
			log.Printf("Warning: closing database: %v", err)
		}
	}
}
