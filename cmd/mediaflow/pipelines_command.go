package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"mediaflow/internal/pipeline"
)

func newPipelinesCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "pipelines",
		Short: "List the pipelines jobs can run",
		RunE: func(cmd *cobra.Command, args []string) error {
			catalog, err := ctx.catalog()
			if err != nil {
				return err
			}
			pipelines := catalog.Pipelines()
			if asJSON {
				return writeJSON(cmd, pipelines)
			}
			rows := make([][]string, 0, len(pipelines))
			for _, p := range pipelines {
				rows = append(rows, []string{p.Name, describeTasks(p), p.Description})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable([]string{"Pipeline", "Tasks", "Description"}, rows, nil))
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print pipelines as JSON")
	return cmd
}

// describeTasks renders the task chain, e.g. "PERSON -> FACECV -> MARKUP".
func describeTasks(p pipeline.Pipeline) string {
	steps := make([]string, 0, len(p.Tasks))
	for _, task := range p.Tasks {
		if task.Type() == pipeline.ActionMarkup {
			steps = append(steps, string(pipeline.ActionMarkup))
			continue
		}
		algos := make([]string, 0, len(task.Actions))
		for _, action := range task.Actions {
			algos = append(algos, action.Algorithm)
		}
		steps = append(steps, strings.Join(algos, "+"))
	}
	return strings.Join(steps, " -> ")
}
