package colors

import (
	"fmt"
	"testing"
	"time"
)

var base = time.Date(2024, 3, 14, 9, 0, 0, 0, time.UTC)

func TestAttributeStable(t *testing.T) {
	c, err := NewColorCache(t.TempDir())
	if err != nil {
		t.Fatalf("NewColorCache failed: %v", err)
	}
	first := c.Attribute("CS101", base)
	if again := c.Attribute("CS101", base.Add(time.Hour)); again != first {
		t.Errorf("Expected stable color %v, got %v", first, again)
	}
	if other := c.Attribute("HIST", base); other == first {
		t.Errorf("Expected distinct colors, got %v twice", first)
	}
	if c.Attribute("", base) != Unassigned {
		t.Error("Expected the unassigned color for an empty course")
	}
}

func TestEvictsLeastRecentlySeen(t *testing.T) {
	c, _ := NewColorCache(t.TempDir())
	for i := range Palette {
		c.Attribute(fmt.Sprintf("course-%02d", i), base.Add(time.Duration(i)*time.Minute))
	}
	c.Attribute("course-00", base.Add(time.Hour))

	oldest := c.Courses["course-01"].Slot
	got := c.Attribute("new", base.Add(2*time.Hour))
	if got != Palette[oldest] {
		t.Errorf("Expected recycled color %v, got %v", Palette[oldest], got)
	}
	if _, ok := c.Courses["course-01"]; ok {
		t.Error("Expected course-01 to be evicted")
	}
	if len(c.Courses) != len(Palette) {
		t.Errorf("Expected %d courses, got %d", len(Palette), len(c.Courses))
	}
}

func TestSaveLoad(t *testing.T) {
	dir := t.TempDir()
	c, _ := NewColorCache(dir)
	want := c.Attribute("MATH", base)
	if err := c.Save(); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	reloaded, err := NewColorCache(dir)
	if err != nil {
		t.Fatalf("NewColorCache failed: %v", err)
	}
	if got := reloaded.Attribute("MATH", base); got != want {
		t.Errorf("Expected persisted color %v, got %v", want, got)
	}
}
