package cli

import (
	"fmt"
	"os"

	"github.com/bstardust/photo-timeline/internal/source"
	"github.com/bstardust/photo-timeline/pkg/models"
	"github.com/spf13/cobra"
)

func newInspectCommand(opts *options) *cobra.Command {
	var noGeocode bool

	cmd := &cobra.Command{
		Use:   "inspect [flags] <photo|url>",
		Short: "Print the capture time, position and address of a single photo",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if noGeocode {
				opts.cfg.Geocode.Enabled = false
			}

			var src models.PhotoSource
			if source.IsURL(args[0]) {
				if _, err := source.ParseURL(args[0]); err != nil {
					return err
				}
				src = source.FromURL(args[0])
			} else {
				if _, err := os.Stat(args[0]); err != nil {
					return fmt.Errorf("error accessing path %s: %w", args[0], err)
				}
				src = source.FromPath(args[0])
			}

			orchestrator, cleanup, err := newOrchestrator(opts.cfg)
			if err != nil {
				return err
			}
			defer cleanup()

			photo, err := orchestrator.Inspect(cmd.Context(), src)
			if err != nil {
				return err
			}

			return writeJSON("", true, photo)
		},
	}

	cmd.Flags().BoolVar(&noGeocode, "no-geocode", false, "Skip reverse geocoding")

	return cmd
}
