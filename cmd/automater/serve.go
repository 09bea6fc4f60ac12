package main

import (
	"github.com/spf13/cobra"

	"osint-automater/internal/aggregator"
	"osint-automater/internal/server"
)

func newServeCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve site queries over HTTP",
		Long: `serve exposes the catalog as a REST API:
  GET /sites               site names
  GET /<site>/<target>     run one site, a semicolon list or allsources against a target`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			sink := a.sink()
			cat, err := a.loadCatalog(sink)
			if err != nil {
				return err
			}
			keys, err := a.mergedKeys()
			if err != nil {
				return err
			}
			mode, err := aggregator.ParseDedupMode(a.cfg.Dedup)
			if err != nil {
				return err
			}

			// sites are chosen per request
			a.cfg.Sources = nil
			engine, err := a.newEngine(sink, keys)
			if err != nil {
				return err
			}

			srv := server.New(cat, engine, a.log, server.Config{Mode: a.cfg.Server.Mode, Dedup: mode})
			a.log.WithField("listen", a.cfg.Server.Listen).Warn("serving site queries")
			return srv.Run(cmd.Context(), a.cfg.Server.Listen)
		},
	}

	cmd.Flags().String("listen", "", "listen address (default :8080)")
	a.v.BindPFlag("server.listen", cmd.Flags().Lookup("listen"))

	return cmd
}
