package commands

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/fatih/color"
	"github.com/mitchellh/go-homedir"

	"github.com/harrisonrobin/workload/pkg/freetime"
	"github.com/harrisonrobin/workload/pkg/model"
)

// setup writes a config using the local cache for both sources and returns
// its path.
func setup(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	homedir.DisableCache = true
	t.Cleanup(func() { homedir.DisableCache = false })

	cfg := fmt.Sprintf(`timezone: UTC
sleep:
  wake_up_time: "00:00"
  bed_time: "00:00"
source:
  manual: cache
  synced: cache
cache:
  path: %s
`, filepath.Join(home, "cache"))
	path := filepath.Join(home, "config.yaml")
	if err := os.WriteFile(path, []byte(cfg), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var buf bytes.Buffer
	prev := color.Output
	color.Output = &buf
	defer func() { color.Output = prev }()

	cmd := New()
	cmd.SetArgs(args)
	cmd.SetOut(&buf)
	cmd.SetErr(&buf)
	err := cmd.Execute()
	return buf.String(), err
}

func writeSnapshot(t *testing.T, dir string) string {
	t.Helper()
	today := time.Now().UTC().Format("2006-01-02")
	snap := fmt.Sprintf(`tasks:
  - id: t1
    title: Essay
    due_date: %q
    completion_status: pending
    course_name: WRIT 101
  - id: t2
    title: Reading
    completion_status: pending
events:
  - id: a1
    title: "[CS 201] Lab report"
    start_time: %q
    event_type: assignment
    is_completed: false
`, today, today)
	path := filepath.Join(dir, "snapshot.yaml")
	if err := os.WriteFile(path, []byte(snap), 0o600); err != nil {
		t.Fatalf("write snapshot: %v", err)
	}
	return path
}

func TestImportThenToday(t *testing.T) {
	cfg := setup(t)
	snap := writeSnapshot(t, t.TempDir())

	out, err := execute(t, "--config", cfg, "import", snap, "--json")
	if err != nil {
		t.Fatalf("import failed: %v\n%s", err, out)
	}
	if !strings.Contains(out, `"imported": 3`) {
		t.Errorf("Expected 3 records imported, got %s", out)
	}

	out, err = execute(t, "--config", cfg, "today", "--json")
	if err != nil {
		t.Fatalf("today failed: %v\n%s", err, out)
	}
	var got struct {
		Today []model.WorkItem `json:"today"`
	}
	if err := json.Unmarshal([]byte(out), &got); err != nil {
		t.Fatalf("decode today: %v\n%s", err, out)
	}
	if len(got.Today) != 2 {
		t.Fatalf("Expected 2 items due today, got %+v", got.Today)
	}
	for _, it := range got.Today {
		if it.Tier != model.TierCritical {
			t.Errorf("Expected critical tier for %s, got %s", it.ID, it.Tier)
		}
	}
}

func TestImportTaskwarrior(t *testing.T) {
	cfg := setup(t)
	export := `[
{"uuid": "tw-1", "description": "Lab write-up", "status": "pending", "due": "20300102T170000Z", "project": "CHEM"},
{"uuid": "tw-2", "description": "Old", "status": "deleted"}
]`

	var buf bytes.Buffer
	prev := color.Output
	color.Output = &buf
	defer func() { color.Output = prev }()
	cmd := New()
	cmd.SetArgs([]string{"--config", cfg, "import", "--taskwarrior", "-", "--json"})
	cmd.SetIn(strings.NewReader(export))
	cmd.SetOut(&buf)
	cmd.SetErr(&buf)
	if err := cmd.Execute(); err != nil {
		t.Fatalf("import failed: %v\n%s", err, buf.String())
	}
	if !strings.Contains(buf.String(), `"imported": 1`) {
		t.Errorf("Expected 1 record imported, got %s", buf.String())
	}

	out, err := execute(t, "--config", cfg, "buckets", "--json")
	if err != nil {
		t.Fatalf("buckets failed: %v\n%s", err, out)
	}
	if !strings.Contains(out, `"tw-1"`) || !strings.Contains(out, `"2030-01-02"`) {
		t.Errorf("Expected tw-1 bucketed on 2030-01-02, got %s", out)
	}
	if strings.Contains(out, `"tw-2"`) {
		t.Errorf("Expected deleted task to be skipped, got %s", out)
	}
}

func TestToggleCommand(t *testing.T) {
	cfg := setup(t)
	snap := writeSnapshot(t, t.TempDir())
	if out, err := execute(t, "--config", cfg, "import", snap); err != nil {
		t.Fatalf("import failed: %v\n%s", err, out)
	}

	out, err := execute(t, "--config", cfg, "toggle", "assignment", "a1", "--json")
	if err != nil {
		t.Fatalf("toggle failed: %v\n%s", err, out)
	}
	var item model.WorkItem
	if err := json.Unmarshal([]byte(out), &item); err != nil {
		t.Fatalf("decode item: %v\n%s", err, out)
	}
	if !item.Completed || item.Course != "CS 201" {
		t.Errorf("Expected completed CS 201 assignment, got %+v", item)
	}

	out, err = execute(t, "--config", cfg, "toggle", "assignment", "a1", "--undo", "--json")
	if err != nil {
		t.Fatalf("toggle --undo failed: %v\n%s", err, out)
	}
	if err := json.Unmarshal([]byte(out), &item); err != nil {
		t.Fatalf("decode item: %v\n%s", err, out)
	}
	if item.Completed {
		t.Errorf("Expected reopened assignment, got %+v", item)
	}

	out, err = execute(t, "--config", cfg, "toggle", "manual", "missing", "--json")
	if err != nil {
		t.Fatalf("Expected JSON error rendering, got %v", err)
	}
	if !strings.Contains(out, `"error"`) {
		t.Errorf("Expected JSON error, got %s", out)
	}
}

func TestAddCommand(t *testing.T) {
	cfg := setup(t)
	out, err := execute(t, "--config", cfg, "add", "Problem", "set", "6", "--due", "2030-01-02 17:00", "--estimate", "PT2H30M", "--json")
	if err != nil {
		t.Fatalf("add failed: %v\n%s", err, out)
	}
	var task model.Task
	if err := json.Unmarshal([]byte(out), &task); err != nil {
		t.Fatalf("decode task: %v\n%s", err, out)
	}
	if task.Title != "Problem set 6" || task.DueDate != "2030-01-02T17:00:00Z" {
		t.Errorf("Expected parsed task, got %+v", task)
	}
	if task.EstimatedHours == nil || *task.EstimatedHours != 2.5 {
		t.Errorf("Expected 2.5h estimate, got %v", task.EstimatedHours)
	}
	if task.ID == "" {
		t.Error("Expected generated id")
	}

	out, err = execute(t, "--config", cfg, "buckets", "--json")
	if err != nil {
		t.Fatalf("buckets failed: %v\n%s", err, out)
	}
	if !strings.Contains(out, `"2030-01-02"`) {
		t.Errorf("Expected bucket for 2030-01-02, got %s", out)
	}
}

func TestAddRejectsBadDue(t *testing.T) {
	cfg := setup(t)
	if _, err := execute(t, "--config", cfg, "add", "Thing", "--due", "someday"); err == nil {
		t.Error("Expected error for invalid due date")
	}
}

func TestFreeTimeCommand(t *testing.T) {
	cfg := setup(t)
	out, err := execute(t, "--config", cfg, "freetime", "--json")
	if err != nil {
		t.Fatalf("freetime failed: %v\n%s", err, out)
	}
	var est freetime.Estimate
	if err := json.Unmarshal([]byte(out), &est); err != nil {
		t.Fatalf("decode estimate: %v\n%s", err, out)
	}
	if !est.Ready || est.AvailableHours != 0 {
		t.Errorf("Expected ready estimate with no awake time, got %+v", est)
	}
}

func TestWeekCommand(t *testing.T) {
	cfg := setup(t)
	out, err := execute(t, "--config", cfg, "week", "--offset", "3", "--yaml")
	if err != nil {
		t.Fatalf("week failed: %v\n%s", err, out)
	}
	if !strings.Contains(out, "offset: 3") || !strings.Contains(out, "total_count: 0") {
		t.Errorf("Expected empty week 3, got %s", out)
	}
}

func TestSetCalendar(t *testing.T) {
	cfg := setup(t)
	if out, err := execute(t, "--config", cfg, "set-calendar", "Coursework"); err != nil {
		t.Fatalf("set-calendar failed: %v\n%s", err, out)
	}
	b, err := os.ReadFile(cfg)
	if err != nil {
		t.Fatalf("read config: %v", err)
	}
	if !strings.Contains(string(b), "calendar: Coursework") {
		t.Errorf("Expected calendar saved, got %s", b)
	}
	if !strings.Contains(string(b), "manual: cache") {
		t.Errorf("Expected other keys kept, got %s", b)
	}
}
