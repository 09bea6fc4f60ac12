package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

func newSitesCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "sites",
		Short: "List the sites of the catalog",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cat, err := a.loadCatalog(a.sink())
			if err != nil {
				return err
			}
			keys, err := a.mergedKeys()
			if err != nil {
				return err
			}

			tableData := pterm.TableData{{"Name", "Types", "Slots", "Method", "Strategy"}}
			for _, site := range cat.Sites {
				key := keys[site.Name]
				if key == "" {
					key = site.APIKey
				}
				types := make([]string, len(site.ApplicableTargetTypes))
				for i, t := range site.ApplicableTargetTypes {
					types[i] = string(t)
				}
				tableData = append(tableData, []string{
					site.Name,
					strings.Join(types, ","),
					strconv.Itoa(site.Slots()),
					string(site.EffectiveMethod()),
					site.Kind(key).String(),
				})
			}

			out, err := pterm.DefaultTable.WithHasHeader(true).WithData(tableData).Srender()
			if err != nil {
				return fmt.Errorf("failed to render table: %w", err)
			}
			fmt.Fprintln(a.out, out)

			if n := len(cat.Rejected); n > 0 {
				pterm.Warning.WithWriter(a.out).Printfln("%d site definition(s) skipped, run with --log-level warn for details", n)
			}
			return nil
		},
	}
}
