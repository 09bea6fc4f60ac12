package main

import (
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

func newRefreshCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "refresh",
		Short: "Replace the local catalog with the remote copy when it changed",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			changed, err := refreshCatalog(cmd.Context(), a)
			if err != nil {
				return err
			}
			if changed {
				pterm.Success.WithWriter(a.out).Printfln("%s updated from %s", a.cfg.Catalog, a.cfg.CatalogURL)
			} else {
				pterm.Info.WithWriter(a.out).Printfln("%s is up to date", a.cfg.Catalog)
			}
			return nil
		},
	}

	cmd.Flags().String("url", "", "remote catalog URL (config key catalog_url)")
	a.v.BindPFlag("catalog_url", cmd.Flags().Lookup("url"))

	return cmd
}
