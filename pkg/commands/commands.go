package commands

import (
	"github.com/spf13/cobra"

	"github.com/harrisonrobin/workload/pkg/commands/options"
)

var (
	co = &options.ConfigOptions{}
)

func New() *cobra.Command {

	cmd := &cobra.Command{
		Use:   "workload",
		Short: options.Wrap80("Prioritized coursework across your task list and calendar."),
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}
	options.AddConfigArg(cmd, co)

	AddCommands(cmd)
	return cmd
}

func AddCommands(topLevel *cobra.Command) {
	addToday(topLevel)
	addWeek(topLevel)
	addBuckets(topLevel)
	addFreeTime(topLevel)
	addToggle(topLevel)
	addAdd(topLevel)
	addImport(topLevel)
	addWatch(topLevel)
	addServe(topLevel)
	addAuth(topLevel)
	addSetCalendar(topLevel)
	addVersion(topLevel)
}
