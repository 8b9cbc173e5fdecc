// Package colors assigns each course a stable terminal color. Assignments
// persist across runs; when the palette is exhausted the least recently
// seen course gives up its color.
package colors

import (
	"encoding/json"
	"errors"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/fatih/color"
)

const cacheFile = "course_colors.json"

// Palette is the set of colors handed out to courses, in assignment order.
var Palette = []color.Attribute{
	color.FgHiCyan,
	color.FgHiMagenta,
	color.FgHiGreen,
	color.FgHiBlue,
	color.FgHiYellow,
	color.FgCyan,
	color.FgMagenta,
	color.FgGreen,
	color.FgBlue,
	color.FgYellow,
	color.FgHiRed,
}

// Unassigned is used for items without a course.
const Unassigned = color.FgHiBlack

type CourseState struct {
	Slot     int       `json:"slot"`
	LastSeen time.Time `json:"last_seen"`
}

type ColorCache struct {
	Path    string
	Courses map[string]*CourseState
	dirty   bool
}

// NewColorCache loads the cache stored in dir, starting empty when there is none.
func NewColorCache(dir string) (*ColorCache, error) {
	cache := &ColorCache{
		Path:    filepath.Join(dir, cacheFile),
		Courses: make(map[string]*CourseState),
	}
	if err := cache.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, err
	}
	return cache, nil
}

func (c *ColorCache) Load() error {
	f, err := os.Open(c.Path)
	if err != nil {
		return err
	}
	defer f.Close()
	return json.NewDecoder(f).Decode(&c.Courses)
}

func (c *ColorCache) Save() error {
	if !c.dirty {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(c.Path), 0700); err != nil {
		log.Printf("Error creating color cache directory: %v", err)
		return err
	}

	f, err := os.Create(c.Path)
	if err != nil {
		log.Printf("Error creating color cache file: %v", err)
		return err
	}
	defer f.Close()
	err = json.NewEncoder(f).Encode(c.Courses)
	if err == nil {
		c.dirty = false
	}
	return err
}

// Attribute returns the color for course, assigning one on first sight.
// now marks the course as recently seen.
func (c *ColorCache) Attribute(course string, now time.Time) color.Attribute {
	if course == "" {
		return Unassigned
	}
	if state, ok := c.Courses[course]; ok && state.Slot >= 0 && state.Slot < len(Palette) {
		if now.After(state.LastSeen) {
			state.LastSeen = now
			c.dirty = true
		}
		return Palette[state.Slot]
	}
	return Palette[c.assign(course, now)]
}

func (c *ColorCache) assign(course string, now time.Time) int {
	used := make(map[int]bool, len(c.Courses))
	for _, s := range c.Courses {
		used[s.Slot] = true
	}

	slot := -1
	for i := range Palette {
		if !used[i] {
			slot = i
			break
		}
	}

	if slot < 0 {
		// Palette is full: recycle the least recently seen course's slot.
		var oldest string
		for name, s := range c.Courses {
			if oldest == "" || s.LastSeen.Before(c.Courses[oldest].LastSeen) ||
				(s.LastSeen.Equal(c.Courses[oldest].LastSeen) && name < oldest) {
				oldest = name
			}
		}
		slot = c.Courses[oldest].Slot
		delete(c.Courses, oldest)
	}

	c.Courses[course] = &CourseState{Slot: slot, LastSeen: now}
	c.dirty = true
	return slot
}
