package commands

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/harrisonrobin/workload/pkg/commands/options"
	"github.com/harrisonrobin/workload/pkg/model"
	"github.com/harrisonrobin/workload/pkg/taskwarrior"
)

func addImport(topLevel *cobra.Command) {
	oo := &options.OutputOptions{}
	imo := &importOptions{}
	cmd := &cobra.Command{
		Use:   "import <file>",
		Short: options.Wrap80("Load a snapshot of tasks and events (YAML or JSON) into the local cache. With --taskwarrior the file holds `task export` output instead; - reads standard input."),
		Example: `
workload import snapshot.yaml
workload import export.json --replace
task export | workload import --taskwarrior -
`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceUsage = true
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			err := runImport(ctx, oo, imo, cmd.InOrStdin(), args[0])
			return oo.HandleError(err)
		},
	}
	cmd.Flags().BoolVar(&imo.Replace, "replace", false, "Clear the cache before importing.")
	cmd.Flags().BoolVar(&imo.Taskwarrior, "taskwarrior", false, "Read Taskwarrior export JSON as manual tasks.")
	options.AddOutputArg(cmd, oo)

	topLevel.AddCommand(cmd)
}

type importOptions struct {
	Replace     bool
	Taskwarrior bool
}

func readInput(stdin io.Reader, path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(stdin)
	}
	return os.ReadFile(path)
}

// readSnapshot decodes a JSON or YAML snapshot, or a Taskwarrior export when
// taskwarrior is set.
func readSnapshot(stdin io.Reader, path string, tw bool) (model.Snapshot, error) {
	var s model.Snapshot
	b, err := readInput(stdin, path)
	if err != nil {
		return s, err
	}
	if tw {
		tasks, err := taskwarrior.ParseTasks(bytes.NewReader(b))
		if err != nil {
			return s, fmt.Errorf("decode %s: %w", path, err)
		}
		return taskwarrior.Snapshot(tasks), nil
	}
	if isJSON(path, b) {
		err = json.Unmarshal(b, &s)
	} else {
		err = yaml.Unmarshal(b, &s)
	}
	if err != nil {
		return s, fmt.Errorf("decode %s: %w", path, err)
	}
	return s, nil
}

func isJSON(path string, b []byte) bool {
	if strings.EqualFold(filepath.Ext(path), ".json") {
		return true
	}
	trimmed := bytes.TrimSpace(b)
	return len(trimmed) > 0 && trimmed[0] == '{'
}

func runImport(ctx context.Context, oo *options.OutputOptions, opts *importOptions, stdin io.Reader, path string) error {
	s, err := readSnapshot(stdin, path, opts.Taskwarrior)
	if err != nil {
		return err
	}
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	c, err := a.localCache()
	if err != nil {
		return err
	}
	n, err := c.Import(s, opts.Replace)
	if err != nil {
		return err
	}
	if oo.Structured() {
		return oo.Write(map[string]any{"imported": n, "path": c.BasePath()})
	}
	_, _ = fmt.Fprintf(color.Output, "Imported %d records into %s\n", n, c.BasePath())
	return nil
}
