package options

import (
	"encoding/json"
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// OutputOptions
type OutputOptions struct {
	JSON bool
	YAML bool
}

func AddOutputArg(cmd *cobra.Command, po *OutputOptions) {
	cmd.Flags().BoolVar(&po.JSON, "json", false,
		"Output as JSON.")
	cmd.Flags().BoolVar(&po.YAML, "yaml", false,
		"Output as YAML.")
	cmd.MarkFlagsMutuallyExclusive("json", "yaml")
}

// Structured reports whether output should be machine readable.
func (o *OutputOptions) Structured() bool {
	return o.JSON || o.YAML
}

// Write renders v as JSON or YAML.
func (o *OutputOptions) Write(v any) error {
	var (
		b   []byte
		err error
	)
	if o.YAML {
		b, err = yaml.Marshal(v)
	} else {
		b, err = json.MarshalIndent(v, "", "  ")
		b = append(b, '\n')
	}
	if err != nil {
		return err
	}
	_, err = fmt.Fprint(color.Output, string(b))
	return err
}

func (o *OutputOptions) HandleError(err error) error {
	if o.Structured() && err != nil {
		out := map[string]string{
			"error": err.Error(),
		}
		if werr := o.Write(out); werr != nil {
			return werr
		}
		return nil
	}
	return err
}
