package orgmode

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"

	"github.com/harrisonrobin/workload/pkg/model"
	"github.com/harrisonrobin/workload/pkg/source"
	"github.com/harrisonrobin/workload/pkg/util"
)

var (
	headingRegex  = regexp.MustCompile(`^\*+\s+(TODO|DONE)\s*(?:\[#([A-Z])\])?\s*(.*?)(?:\s+(:(\w+(:\w+)*):))?\s*$`)
	deadlineRegex = regexp.MustCompile(`DEADLINE:\s+<(\d{4}-\d{2}-\d{2})(?:\s+[A-Za-z]{2,3})?(?:\s+(\d{1,2}:\d{2}))?[^>]*>`)
	closedRegex   = regexp.MustCompile(`CLOSED:\s+\[(\d{4}-\d{2}-\d{2})(?:\s+[A-Za-z]{2,3})?(?:\s+(\d{1,2}:\d{2}))?[^\]]*\]`)
	idRegex       = regexp.MustCompile(`^:ID:\s+(\S+)`)
	courseRegex   = regexp.MustCompile(`^:COURSE:\s+(.+)$`)
	effortRegex   = regexp.MustCompile(`^:EFFORT:\s+(\S+)`)
)

// parseFile parses an Org-mode file and returns its tasks.
func parseFile(filePath string) ([]model.Task, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, err
	}
	defer file.Close()
	return Parse(file)
}

// ParseFiles parses multiple Org-mode files and returns their tasks.
func ParseFiles(filePaths []string) ([]model.Task, error) {
	var allTasks []model.Task
	for _, filePath := range filePaths {
		tasks, err := parseFile(filePath)
		if err != nil {
			return nil, fmt.Errorf("orgmode: %s: %w", filePath, err)
		}
		allTasks = append(allTasks, tasks...)
	}
	return allTasks, nil
}

// Parse reads TODO and DONE headings with an :ID: property. DEADLINE and
// CLOSED timestamps are emitted without a zone so they are read in the
// user's zone downstream. The first tag is the course unless a :COURSE:
// property names one.
func Parse(r io.Reader) ([]model.Task, error) {
	scanner := bufio.NewScanner(r)
	var (
		tasks   []model.Task
		current *model.Task
	)

	flush := func() {
		if current != nil && current.ID != "" && current.Title != "" {
			tasks = append(tasks, *current)
		}
		current = nil
	}

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())

		if strings.HasPrefix(line, "*") {
			flush()
			matches := headingRegex.FindStringSubmatch(line)
			if matches == nil {
				continue
			}
			current = &model.Task{
				Title:            strings.TrimSpace(matches[3]),
				CompletionStatus: model.StatusPending,
			}
			if matches[1] == "DONE" {
				current.CompletionStatus = model.StatusCompleted
			}
			if p := priorityScore(matches[2]); p != nil {
				current.PriorityScore = p
			}
			if tags := strings.Trim(matches[4], ":"); tags != "" {
				current.CourseName = strings.Split(tags, ":")[0]
			}
			continue
		}
		if current == nil {
			continue
		}

		if m := deadlineRegex.FindStringSubmatch(line); m != nil {
			current.DueDate = stamp(m[1], m[2])
		}
		if m := closedRegex.FindStringSubmatch(line); m != nil {
			current.CompletedAt = stamp(m[1], m[2])
		}
		if m := idRegex.FindStringSubmatch(line); m != nil {
			current.ID = m[1]
		} else if m := courseRegex.FindStringSubmatch(line); m != nil {
			current.CourseName = strings.TrimSpace(m[1])
		} else if m := effortRegex.FindStringSubmatch(line); m != nil {
			if d, err := util.ParseClock(m[1]); err == nil {
				h := d.Hours()
				current.EstimatedHours = &h
			}
		}
	}
	flush()

	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return tasks, nil
}

func stamp(date, clock string) string {
	if clock == "" {
		return date
	}
	if len(clock) == 4 {
		clock = "0" + clock
	}
	return date + "T" + clock
}

// priorityScore maps [#A].. to descending scores, A highest.
func priorityScore(p string) *float64 {
	if p == "" {
		return nil
	}
	v := float64('Z'-p[0]) + 1
	return &v
}

// FilterTasks keeps the tasks whose course matches filter, ignoring case.
func FilterTasks(tasks []model.Task, filter string) []model.Task {
	filteredTasks := []model.Task{}
	for _, task := range tasks {
		if strings.EqualFold(task.CourseName, filter) {
			filteredTasks = append(filteredTasks, task)
		}
	}
	return filteredTasks
}

// Files is a read-only manual task source over a set of Org files. A
// non-empty Course limits the source to that course's headings.
type Files struct {
	Paths  []string
	Course string
}

func (f *Files) Name() string { return "orgmode" }

func (f *Files) Fetch(ctx context.Context) (model.Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return model.Snapshot{}, err
	}
	tasks, err := ParseFiles(f.Paths)
	if err != nil {
		return model.Snapshot{}, err
	}
	if f.Course != "" {
		tasks = FilterTasks(tasks, f.Course)
	}
	return model.Snapshot{Tasks: tasks}, nil
}

func (f *Files) Apply(context.Context, model.CompletionUpdate) error {
	return fmt.Errorf("%w: org files are edited by hand", source.ErrReadOnly)
}
