package taskwarrior

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"time"

	"github.com/harrisonrobin/workload/pkg/model"
	"github.com/harrisonrobin/workload/pkg/util"
)

// DefaultFilter selects every task that can show up in a view.
var DefaultFilter = []string{"status.not:deleted"}

type runFunc func(ctx context.Context, args ...string) ([]byte, error)

// Client shells out to the task binary. It is the manual task source.
type Client struct {
	Filter []string
	run    runFunc
}

func NewClient() *Client {
	return &Client{Filter: DefaultFilter, run: runTask}
}

func runTask(ctx context.Context, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, "task", args...)
	output, err := cmd.Output()
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return nil, fmt.Errorf("taskwarrior command failed: exit code %d, %s, stderr: %s",
				exitErr.ExitCode(), err, exitErr.Stderr)
		}
		return nil, fmt.Errorf("taskwarrior command failed: %w", err)
	}
	return output, nil
}

func (c *Client) GetTasks(ctx context.Context, filter []string) ([]Task, error) {
	args := append(append([]string{}, filter...), "export", "rc.hooks=0")
	output, err := c.run(ctx, args...)
	if err != nil {
		return nil, err
	}
	return ParseTasks(bytes.NewReader(output))
}

// ParseTasks decodes `task export` output. Both the JSON array form and a
// stream of one object per line are accepted.
func ParseTasks(r io.Reader) ([]Task, error) {
	br := bufio.NewReader(r)
	first, err := peekNonSpace(br)
	if err == io.EOF {
		return []Task{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read task json: %w", err)
	}

	decoder := json.NewDecoder(br)
	if first == '[' {
		var tasks []Task
		if err := decoder.Decode(&tasks); err != nil {
			return nil, fmt.Errorf("failed to unmarshal taskwarrior output: %w", err)
		}
		if tasks == nil {
			tasks = []Task{}
		}
		return tasks, nil
	}

	tasks := []Task{}
	for {
		var task Task
		if err := decoder.Decode(&task); err != nil {
			if err == io.EOF {
				break
			}
			return nil, fmt.Errorf("failed to decode task json: %w", err)
		}
		tasks = append(tasks, task)
	}
	return tasks, nil
}

func peekNonSpace(br *bufio.Reader) (byte, error) {
	for {
		b, err := br.ReadByte()
		if err != nil {
			return 0, err
		}
		switch b {
		case ' ', '\t', '\r', '\n':
			continue
		}
		return b, br.UnreadByte()
	}
}

// Snapshot converts exported tasks into a raw snapshot, dropping deleted ones.
func Snapshot(tasks []Task) model.Snapshot {
	s := model.Snapshot{Tasks: make([]model.Task, 0, len(tasks)), Events: []model.Event{}}
	for i := range tasks {
		if tasks[i].Status == StatusDeleted {
			continue
		}
		s.Tasks = append(s.Tasks, ToRaw(&tasks[i]))
	}
	return s
}

func (c *Client) Name() string { return "taskwarrior" }

// Fetch exports the filtered task list as raw manual tasks.
func (c *Client) Fetch(ctx context.Context) (model.Snapshot, error) {
	tasks, err := c.GetTasks(ctx, c.Filter)
	if err != nil {
		return model.Snapshot{}, err
	}
	return Snapshot(tasks), nil
}

// Apply marks a task done or reopens it. Taskwarrior sets and clears the end
// timestamp itself, so the update's completed_at is not written.
func (c *Client) Apply(ctx context.Context, u model.CompletionUpdate) error {
	if u.Kind != model.Manual {
		return fmt.Errorf("taskwarrior: cannot apply %s update", u.Kind)
	}
	args := []string{"rc.confirmation=off", "rc.hooks=0", u.ID}
	if u.Completed() {
		args = append(args, "done")
	} else {
		args = append(args, "modify", "status:"+StatusPending)
	}
	_, err := c.run(ctx, args...)
	return err
}

// ToRaw converts an exported task into the raw manual task shape. The est
// UDA becomes the estimate and urgency the priority score.
func ToRaw(task *Task) model.Task {
	raw := model.Task{
		ID:               task.UUID,
		Title:            task.Description,
		CompletionStatus: model.StatusPending,
		CourseName:       task.Course(),
	}
	if task.Status == StatusCompleted {
		raw.CompletionStatus = model.StatusCompleted
		if !task.End.IsZero() {
			raw.CompletedAt = task.End.UTC().Format(time.RFC3339)
		}
	}
	if !task.Due.IsZero() {
		raw.DueDate = task.Due.UTC().Format(time.RFC3339)
	}
	if hours, err := util.ParseHours(task.Est); err == nil && hours > 0 {
		raw.EstimatedHours = &hours
	}
	if task.Urgency != nil {
		u := *task.Urgency
		raw.PriorityScore = &u
	}
	return raw
}
