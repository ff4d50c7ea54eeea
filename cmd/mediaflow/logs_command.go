package main

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"mediaflow/internal/logging"
	"mediaflow/internal/logs"
)

const logFollowWait = 2 * time.Second

func newLogsCommand(ctx *commandContext) *cobra.Command {
	var (
		lines     int
		follow    bool
		jobID     int64
		level     string
		component string
	)
	cmd := &cobra.Command{
		Use:   "logs",
		Short: "Show daemon log records",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			path := filepath.Join(cfg.Paths.LogDir, logging.LogFileName)
			opts := logs.TailOptions{
				Offset: -1,
				Limit:  max(lines, 0),
				Filter: logs.Filter{
					JobID:     jobID,
					MinLevel:  strings.TrimSpace(level),
					Component: strings.TrimSpace(component),
				},
			}
			out := cmd.OutOrStdout()
			runCtx := cmd.Context()
			for {
				result, err := logs.Tail(runCtx, path, opts)
				if err != nil {
					return err
				}
				for _, line := range result.Lines {
					fmt.Fprintln(out, line)
				}
				if !follow {
					return nil
				}
				if len(result.Lines) == 0 && result.Offset == 0 {
					// No log file yet.
					select {
					case <-runCtx.Done():
						return nil
					case <-time.After(logFollowWait):
					}
				}
				if runCtx.Err() != nil {
					return nil
				}
				opts.Offset = result.Offset
				opts.Follow = true
				opts.Wait = logFollowWait
			}
		},
	}
	cmd.Flags().IntVarP(&lines, "lines", "n", 50, "Number of trailing records to show")
	cmd.Flags().BoolVarP(&follow, "follow", "f", false, "Keep printing new records")
	cmd.Flags().Int64Var(&jobID, "job", 0, "Only records for this job ID")
	cmd.Flags().StringVar(&level, "level", "", "Minimum level (debug, info, warn, error)")
	cmd.Flags().StringVar(&component, "component", "", "Only records from this component")
	return cmd
}
