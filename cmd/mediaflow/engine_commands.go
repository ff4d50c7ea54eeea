package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"mediaflow/internal/interval"
	"mediaflow/internal/markup"
	"mediaflow/internal/props"
	"mediaflow/internal/segment"
	"mediaflow/internal/track"
	"mediaflow/internal/workers"
)

// loadTrackFile reads tracks in the sidecar format: a JSON array of
// {type, properties, detections}.
func loadTrackFile(path string) ([]track.Track, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read track file: %w", err)
	}
	var recorded []workers.SidecarTrack
	if err := json.Unmarshal(data, &recorded); err != nil {
		return nil, fmt.Errorf("parse track file: %w", err)
	}
	tracks := make([]track.Track, 0, len(recorded))
	for i, rt := range recorded {
		t, err := track.New(rt.Type, rt.Detections, rt.Properties)
		if err != nil {
			return nil, fmt.Errorf("track %d: %w", i, err)
		}
		tracks = append(tracks, t)
	}
	return tracks, nil
}

func printWarnings(cmd *cobra.Command, warnings []props.Warning) {
	for _, w := range warnings {
		fmt.Fprintf(cmd.ErrOrStderr(), "warning: %s\n", w)
	}
}

func newSegmentCommand(ctx *commandContext) *cobra.Command {
	var (
		properties []string
		frames     int
		asJSON     bool
	)
	cmd := &cobra.Command{
		Use:   "segment [track-file]",
		Short: "Plan detection segments offline",
		Long: "Plans the segments a detection action would dispatch. With a track file the\n" +
			"segments follow the tracks of a previous task (feed-forward when\n" +
			"FEED_FORWARD_TYPE is set); with --frames they cover a whole video.",
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			values, err := parseProperties(properties)
			if err != nil {
				return err
			}
			bag := props.NewBag(values)
			settings := segment.ParseSettings(bag, cfg.SegmentSettings())
			printWarnings(cmd, bag.Warnings())

			var segs []segment.Segment
			switch {
			case len(args) == 1:
				tracks, err := loadTrackFile(args[0])
				if err != nil {
					return err
				}
				if settings.FeedForward.Enabled() {
					segs, err = segment.CreateFeedForwardSegments(settings.TopConfidenceCount, tracks, settings.Plan)
				} else {
					segs, err = segment.CreateSegments(tracks, settings.Plan)
				}
				if err != nil {
					return err
				}
			case frames > 0:
				segs, err = segment.CreateRangeSegments([]interval.Interval{interval.New(0, frames-1)}, settings.Plan, segment.UnitFrames)
				if err != nil {
					return err
				}
			default:
				return fmt.Errorf("provide a track file or --frames")
			}

			if asJSON {
				if segs == nil {
					segs = []segment.Segment{}
				}
				return writeJSON(cmd, segs)
			}
			if len(segs) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No segments")
				return nil
			}
			rows := make([][]string, 0, len(segs))
			for i, s := range segs {
				rows = append(rows, []string{fmt.Sprint(i), fmt.Sprint(s.Start), fmt.Sprint(s.End), fmt.Sprint(s.Len()), fmt.Sprint(len(s.Frames))})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable(
				[]string{"#", "Start", "End", "Length", "Selected"},
				rows,
				[]columnAlignment{alignRight, alignRight, alignRight, alignRight, alignRight},
			))
			return nil
		},
	}
	cmd.Flags().StringArrayVar(&properties, "property", nil, "Action property KEY=VALUE (repeatable)")
	cmd.Flags().IntVar(&frames, "frames", 0, "Frame count of a video to segment without tracks")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print segments as JSON")
	return cmd
}

func newMarkupCommand(ctx *commandContext) *cobra.Command {
	var (
		properties []string
		output     string
	)
	cmd := &cobra.Command{
		Use:   "markup <track-file>",
		Short: "Build the bounding-box map for a track file offline",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			values, err := parseProperties(properties)
			if err != nil {
				return err
			}
			opts, warnings := markup.ParseOptions(values, cfg.MarkupOptions())
			printWarnings(cmd, warnings)

			tracks, err := loadTrackFile(args[0])
			if err != nil {
				return err
			}
			boxes, err := markup.BuildMap(tracks, opts, markup.NewColorSequence())
			if err != nil {
				return err
			}
			data, err := json.MarshalIndent(boxes.Snapshot(), "", "  ")
			if err != nil {
				return err
			}
			if output == "" || output == "-" {
				_, err := fmt.Fprintln(cmd.OutOrStdout(), string(data))
				return err
			}
			if err := os.WriteFile(output, append(data, '\n'), 0o644); err != nil {
				return fmt.Errorf("write box map: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %d frames and %d spans to %s\n", len(boxes.Frames()), len(boxes.Spans()), output)
			return nil
		},
	}
	cmd.Flags().StringArrayVar(&properties, "property", nil, "Markup property KEY=VALUE (repeatable)")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Write the box map to a file instead of stdout")
	return cmd
}
