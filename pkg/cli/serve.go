package cli

import (
	"github.com/bstardust/photo-timeline/internal/server"
	"github.com/spf13/cobra"
)

func newServeCommand(opts *options) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve [flags]",
		Short: "Serve the timeline over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("addr") {
				opts.cfg.Server.Addr = addr
			}

			orchestrator, cleanup, err := newOrchestrator(opts.cfg)
			if err != nil {
				return err
			}
			defer cleanup()

			return server.New(orchestrator, opts.cfg.Server).Run(cmd.Context())
		},
	}

	cmd.Flags().StringVar(&addr, "addr", ":8080", "Address to listen on")

	return cmd
}
