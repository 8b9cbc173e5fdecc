package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Calendar != DefaultCalendar {
		t.Errorf("Expected calendar %s, got %s", DefaultCalendar, cfg.Calendar)
	}
	if cfg.StaleCutoffDays != 7 || !cfg.EndOfDaySentinel {
		t.Errorf("Expected staleness defaults, got %d / %v", cfg.StaleCutoffDays, cfg.EndOfDaySentinel)
	}
	if cfg.FreeTime.EssentialHours != 6 || cfg.FreeTime.OverdueSurchargeHours != 1.5 || cfg.FreeTime.LookaheadDays != 3 {
		t.Errorf("Expected free time defaults, got %+v", cfg.FreeTime)
	}
	if cfg.SleepSchedule() != nil {
		t.Error("Expected no sleep schedule by default")
	}
	if cfg.FetchTimeout != 30*time.Second {
		t.Errorf("Expected 30s fetch timeout, got %s", cfg.FetchTimeout)
	}
	if cfg.Source.Manual != SourceCache || cfg.Source.Synced != SourceNone {
		t.Errorf("Expected cache/none sources, got %+v", cfg.Source)
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `calendar: School
timezone: America/New_York
week_start: sunday
stale_cutoff_days: 10
strict: true
sleep:
  wake_up_time: "07:00"
  bed_time: "23:00"
freetime:
  essential_hours: 5
source:
  manual: taskwarrior
  synced: google
orgmode:
  files: [term.org]
  course: MATH
database:
  host: db.internal
  user: app
  password: secret
  name: school
`
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Calendar != "School" || cfg.StaleCutoffDays != 10 || !cfg.Strict {
		t.Errorf("Expected file values, got %+v", cfg)
	}
	if cfg.OrgMode.Course != "MATH" || len(cfg.OrgMode.Files) != 1 {
		t.Errorf("Expected orgmode settings, got %+v", cfg.OrgMode)
	}
	if s := cfg.SleepSchedule(); s == nil || s.WakeUpTime != "07:00" || s.BedTime != "23:00" {
		t.Errorf("Expected sleep schedule, got %+v", s)
	}
	if cfg.FreeTime.EssentialHours != 5 || cfg.FreeTime.DefaultEventHours != 1 {
		t.Errorf("Expected merged free time params, got %+v", cfg.FreeTime)
	}
	want := "host=db.internal port=5432 user=app password=secret dbname=school sslmode=disable"
	if got := cfg.Database.ConnString(); got != want {
		t.Errorf("Expected %q, got %q", want, got)
	}

	wc, err := cfg.Engine()
	if err != nil {
		t.Fatalf("Engine failed: %v", err)
	}
	if wc.WeekStart != time.Sunday || wc.Location.String() != "America/New_York" || wc.Sleep == nil || !wc.Strict {
		t.Errorf("Expected engine config from file, got %+v", wc)
	}
}

func TestEnvOverride(t *testing.T) {
	t.Setenv("WORKLOAD_SLEEP_BED_TIME", "22:30")
	t.Setenv("WORKLOAD_SLEEP_WAKE_UP_TIME", "06:30")
	t.Setenv("WORKLOAD_STALE_CUTOFF_DAYS", "3")

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if s := cfg.SleepSchedule(); s == nil || s.BedTime != "22:30" || s.WakeUpTime != "06:30" {
		t.Errorf("Expected sleep schedule from env, got %+v", s)
	}
	if cfg.StaleCutoffDays != 3 {
		t.Errorf("Expected cutoff 3 from env, got %d", cfg.StaleCutoffDays)
	}
}

func TestInvalidTimezone(t *testing.T) {
	cfg := &Config{Timezone: "Mars/Olympus_Mons"}
	if _, err := cfg.Engine(); err == nil {
		t.Error("Expected invalid timezone to fail")
	}
}

func TestSetCalendar(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("strict: true\n"), 0600); err != nil {
		t.Fatal(err)
	}
	if err := SetCalendar(path, "Coursework"); err != nil {
		t.Fatalf("SetCalendar failed: %v", err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Calendar != "Coursework" || !cfg.Strict {
		t.Errorf("Expected calendar saved and strict kept, got %s / %v", cfg.Calendar, cfg.Strict)
	}

	fresh := filepath.Join(t.TempDir(), "new", "config.yaml")
	if err := SetCalendar(fresh, "Tasks"); err != nil {
		t.Fatalf("SetCalendar on a new file failed: %v", err)
	}
}
