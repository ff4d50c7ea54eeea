package main

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"mediaflow/internal/api"
	"mediaflow/internal/jobaccess"
)

func newJobCommand(ctx *commandContext) *cobra.Command {
	jobCmd := &cobra.Command{
		Use:   "job",
		Short: "Submit and manage jobs",
	}
	jobCmd.AddCommand(newJobSubmitCommand(ctx))
	jobCmd.AddCommand(newJobListCommand(ctx))
	jobCmd.AddCommand(newJobShowCommand(ctx))
	jobCmd.AddCommand(newJobCancelCommand(ctx))
	jobCmd.AddCommand(newJobRemoveCommand(ctx))
	jobCmd.AddCommand(newJobClearCommand(ctx))
	return jobCmd
}

func newJobSubmitCommand(ctx *commandContext) *cobra.Command {
	var (
		pipelineName string
		properties   []string
		priority     int
		outputDir    string
		asJSON       bool
	)
	cmd := &cobra.Command{
		Use:   "submit <media>...",
		Short: "Submit media files to a pipeline",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			props, err := parseProperties(properties)
			if err != nil {
				return err
			}
			req := api.SubmitRequest{
				Pipeline:   pipelineName,
				Properties: props,
				Priority:   priority,
			}
			if strings.TrimSpace(outputDir) != "" {
				if req.OutputDir, err = filepath.Abs(outputDir); err != nil {
					return fmt.Errorf("resolve output dir: %w", err)
				}
			}
			// The daemon resolves paths against its own working directory.
			for _, arg := range args {
				abs, err := filepath.Abs(arg)
				if err != nil {
					return fmt.Errorf("resolve %q: %w", arg, err)
				}
				req.Media = append(req.Media, api.SubmitMedia{Path: abs})
			}

			return ctx.withJobs(func(access jobaccess.Access) error {
				job, err := access.Submit(cmd.Context(), req)
				if err != nil {
					return err
				}
				if asJSON {
					return writeJSON(cmd, job)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Submitted job %d (%s) with %d media\n", job.ID, job.Pipeline, len(req.Media))
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&pipelineName, "pipeline", "p", "", "Pipeline name (see `mediaflow pipelines`)")
	cmd.Flags().StringArrayVar(&properties, "property", nil, "Job property KEY=VALUE (repeatable)")
	cmd.Flags().IntVar(&priority, "priority", 0, "Job priority; higher runs first")
	cmd.Flags().StringVar(&outputDir, "output-dir", "", "Override the markup output directory")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the created job as JSON")
	_ = cmd.MarkFlagRequired("pipeline")
	return cmd
}

func newJobListCommand(ctx *commandContext) *cobra.Command {
	var (
		statuses []string
		asJSON   bool
	)
	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List jobs",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withJobs(func(access jobaccess.Access) error {
				list, err := access.List(cmd.Context(), statuses)
				if err != nil {
					return err
				}
				if asJSON {
					return writeJSON(cmd, list)
				}
				if len(list) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "No jobs")
					return nil
				}
				rows := make([][]string, 0, len(list))
				for _, job := range list {
					rows = append(rows, []string{
						fmt.Sprint(job.ID),
						job.Pipeline,
						job.Status,
						fmt.Sprintf("%d/%d", job.CurrentTask, job.TaskCount),
						fmt.Sprint(job.Priority),
						job.CreatedAt,
					})
				}
				fmt.Fprintln(cmd.OutOrStdout(), renderTable(
					[]string{"ID", "Pipeline", "Status", "Task", "Priority", "Created"},
					rows,
					[]columnAlignment{alignRight, alignLeft, alignLeft, alignRight, alignRight, alignLeft},
				))
				return nil
			})
		},
	}
	cmd.Flags().StringSliceVarP(&statuses, "status", "s", nil, "Filter by status (repeatable)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print jobs as JSON")
	return cmd
}

func newJobShowCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Show a job with its media, warnings and track counts",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseJobID(args[0])
			if err != nil {
				return err
			}
			return ctx.withJobs(func(access jobaccess.Access) error {
				job, err := access.Describe(cmd.Context(), id)
				if err != nil {
					return err
				}
				if job == nil {
					return fmt.Errorf("job %d not found", id)
				}
				if asJSON {
					return writeJSON(cmd, job)
				}
				renderJob(cmd, job)
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the job as JSON")
	return cmd
}

func renderJob(cmd *cobra.Command, job *api.Job) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Job %d (%s)\n", job.ID, job.UUID)
	fmt.Fprintf(out, "  Pipeline:  %s\n", job.Pipeline)
	fmt.Fprintf(out, "  Status:    %s\n", job.Status)
	fmt.Fprintf(out, "  Task:      %d/%d\n", job.CurrentTask, job.TaskCount)
	fmt.Fprintf(out, "  Cancel:    %s\n", yesNo(job.CancelRequested))
	if job.ErrorMessage != "" {
		fmt.Fprintf(out, "  Error:     %s\n", job.ErrorMessage)
	}
	if job.OutputDir != "" {
		fmt.Fprintf(out, "  Output:    %s\n", job.OutputDir)
	}

	if len(job.Media) > 0 {
		rows := make([][]string, 0, len(job.Media))
		for _, m := range job.Media {
			state := "ok"
			if m.Failed {
				state = "failed: " + m.ErrorMessage
			}
			rows = append(rows, []string{fmt.Sprint(m.ID), m.Path, m.Type, fmt.Sprint(m.FrameCount), m.MarkupPath, state})
		}
		fmt.Fprintln(out)
		fmt.Fprintln(out, renderTable(
			[]string{"Media", "Path", "Type", "Frames", "Markup", "State"},
			rows,
			[]columnAlignment{alignRight, alignLeft, alignLeft, alignRight, alignLeft, alignLeft},
		))
	}

	if len(job.TrackCounts) > 0 {
		rows := make([][]string, 0, len(job.TrackCounts))
		for task := range job.TaskCount {
			if count, ok := job.TrackCounts[task]; ok {
				rows = append(rows, []string{fmt.Sprint(task), fmt.Sprint(count)})
			}
		}
		fmt.Fprintln(out)
		fmt.Fprintln(out, renderTable([]string{"Task", "Tracks"}, rows, []columnAlignment{alignRight, alignRight}))
	}

	if len(job.Warnings) > 0 {
		rows := make([][]string, 0, len(job.Warnings))
		for _, w := range job.Warnings {
			media := "-"
			if w.MediaID != 0 {
				media = fmt.Sprint(w.MediaID)
			}
			rows = append(rows, []string{w.Severity, w.Code, media, w.Message})
		}
		fmt.Fprintln(out)
		fmt.Fprintln(out, renderTable([]string{"Severity", "Code", "Media", "Message"}, rows, nil))
	}
}

func newJobCancelCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "cancel <id>",
		Short: "Cancel a pending or running job at its next task boundary",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseJobID(args[0])
			if err != nil {
				return err
			}
			return ctx.withJobs(func(access jobaccess.Access) error {
				ok, err := access.Cancel(cmd.Context(), id)
				if err != nil {
					return err
				}
				if !ok {
					fmt.Fprintf(cmd.OutOrStdout(), "Job %d is not pending or running\n", id)
					return nil
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Cancellation requested for job %d\n", id)
				return nil
			})
		},
	}
}

func newJobRemoveCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "remove <id>",
		Short: "Remove a finished job",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseJobID(args[0])
			if err != nil {
				return err
			}
			return ctx.withJobs(func(access jobaccess.Access) error {
				ok, err := access.Remove(cmd.Context(), id)
				if err != nil {
					return err
				}
				if !ok {
					return fmt.Errorf("job %d not found", id)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Removed job %d\n", id)
				return nil
			})
		},
	}
}

func newJobClearCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Remove every finished job",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withJobs(func(access jobaccess.Access) error {
				removed, err := access.ClearFinished(cmd.Context())
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Removed %d finished jobs\n", removed)
				return nil
			})
		},
	}
}

func parseJobID(raw string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid job id %q", raw)
	}
	return id, nil
}

// parseProperties turns KEY=VALUE flags into a map. Keys are upper-cased to
// match pipeline property names.
func parseProperties(values []string) (map[string]string, error) {
	if len(values) == 0 {
		return nil, nil
	}
	out := make(map[string]string, len(values))
	for _, raw := range values {
		key, value, ok := strings.Cut(raw, "=")
		key = strings.ToUpper(strings.TrimSpace(key))
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid property %q (want KEY=VALUE)", raw)
		}
		out[key] = value
	}
	return out, nil
}
