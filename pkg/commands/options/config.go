package options

import (
	"github.com/spf13/cobra"
)

// ConfigOptions
type ConfigOptions struct {
	Path string
}

func AddConfigArg(cmd *cobra.Command, co *ConfigOptions) {
	cmd.PersistentFlags().StringVar(&co.Path, "config", "",
		Wrap80("Config file to read. Defaults to ~/.config/workload/config.yaml."))
}
