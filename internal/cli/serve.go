package cli

import (
	"github.com/spf13/cobra"

	"github.com/matzehuels/organigram/internal/server"
)

// serveCommand creates the "serve" command.
func (c *CLI) serveCommand() *cobra.Command {
	var (
		addr    string
		noCache bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the chart API for the web editor",
		Long: `Serve stored charts over HTTP.

GET and POST /api/organigrams read and replace the whole collection, as the
web editor expects. Per-chart routes add reads, upserts, deletes, layout and
export. The server stops gracefully on interrupt.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg := c.settings()
			if addr == "" {
				addr = cfg.Server.Addr
			}

			st, err := c.openStore(ctx)
			if err != nil {
				return err
			}
			defer st.Close()

			exporter, cc := c.newExporter(ctx, noCache)
			defer cc.Close()

			srv := server.New(st,
				server.WithLogger(c.Logger),
				server.WithAllowedOrigins(cfg.Server.AllowedOrigins...),
				server.WithMaxBodyBytes(cfg.Server.MaxBodyBytes),
				server.WithExporter(exporter),
				server.WithSessionOptions(cfg.SessionOptions()...),
			)
			printInfo(cmd.OutOrStdout(), "Serving on %s", StyleValue.Render(addr))
			return srv.ListenAndServe(ctx, addr)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from config, :3001)")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable the artifact cache")
	return cmd
}
