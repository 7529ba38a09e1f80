package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/bstardust/photo-timeline/internal/logger"
	"github.com/bstardust/photo-timeline/internal/progress"
	"github.com/bstardust/photo-timeline/internal/source"
	"github.com/spf13/cobra"
)

type timelineOptions struct {
	out         string
	concurrency int
	noGeocode   bool
	pretty      bool
	progress    bool
}

func newTimelineCommand(opts *options) *cobra.Command {
	var topts timelineOptions

	cmd := &cobra.Command{
		Use:   "timeline [flags] <photo|folder|archive.zip|url>...",
		Short: "Group photos by day and place and print the groups as JSON",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("concurrency") {
				opts.cfg.Pipeline.Concurrency = topts.concurrency
			}
			if topts.noGeocode {
				opts.cfg.Geocode.Enabled = false
			}
			return runTimeline(cmd.Context(), opts, topts, args)
		},
	}

	cmd.Flags().StringVarP(&topts.out, "out", "o", "", "Write the JSON to a file instead of stdout")
	cmd.Flags().IntVar(&topts.concurrency, "concurrency", 4, "Number of photos processed concurrently")
	cmd.Flags().BoolVar(&topts.noGeocode, "no-geocode", false, "Skip reverse geocoding")
	cmd.Flags().BoolVar(&topts.pretty, "pretty", false, "Indent the JSON output")
	cmd.Flags().BoolVar(&topts.progress, "progress", false, "Print per-photo progress to stderr")

	return cmd
}

func runTimeline(ctx context.Context, opts *options, topts timelineOptions, args []string) error {
	sources, closeSources, err := source.Collect(ctx, args)
	if err != nil {
		return fmt.Errorf("failed to collect photos: %w", err)
	}
	defer closeSources()

	if len(sources) == 0 {
		logger.Warn("No photos found")
	}

	orchestrator, cleanup, err := newOrchestrator(opts.cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	var updates chan progress.Update
	var wg sync.WaitGroup
	if topts.progress {
		updates = make(chan progress.Update, opts.cfg.Pipeline.Concurrency)
		wg.Add(1)
		go func() {
			defer wg.Done()
			printProgress(os.Stderr, updates)
		}()
	}

	groups, err := orchestrator.Timeline(ctx, sources, updates)
	if updates != nil {
		close(updates)
		wg.Wait()
	}
	if err != nil {
		return fmt.Errorf("processing failed: %w", err)
	}

	return writeJSON(topts.out, topts.pretty, groups)
}

func printProgress(w io.Writer, updates <-chan progress.Update) {
	for u := range updates {
		if u.Err != nil {
			fmt.Fprintf(w, "[%d/%d] %s %s: %v\n", u.Index+1, u.Total, u.Status, u.Path, u.Err)
			continue
		}
		fmt.Fprintf(w, "[%d/%d] %s %s\n", u.Index+1, u.Total, u.Status, u.Path)
	}
}

func writeJSON(path string, pretty bool, v interface{}) error {
	var w io.Writer = os.Stdout
	if path != "" {
		f, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer f.Close()
		w = f
	}

	enc := json.NewEncoder(w)
	if pretty {
		enc.SetIndent("", "  ")
	}
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("failed to write JSON: %w", err)
	}
	return nil
}
