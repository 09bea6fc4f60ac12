package main

import (
	"context"
	"errors"
	"net/http"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"osint-automater/internal/aggregator"
	"osint-automater/internal/catalog"
	"osint-automater/internal/models"
	"osint-automater/internal/reporter"
	"osint-automater/internal/target"
)

// queryOptions Flags of the root command that are not configuration keys
type queryOptions struct {
	source  string
	refresh bool
	quiet   bool
	table   bool
	format  string // stdout format replacing the console listing
	outputs map[reporter.Format]*string
}

func newRootCmd(a *app) *cobra.Command {
	opts := &queryOptions{outputs: make(map[reporter.Format]*string)}

	cmd := &cobra.Command{
		Use:   "automater [target | target-file]",
		Short: "Query OSINT sources for IP addresses, hostnames and MD5 hashes",
		Long: `automater looks up each target against the sites of a catalog and reports what they say.

A target is an IPv4 address, a hostname or an MD5 hash. Last-octet ranges are expanded:
  8.8.8.8-10       8.8.8.8, 8.8.8.9, 8.8.8.10
  8.8.8.0/30       addresses in the last octet window
A file argument is read one target per line.

Examples:
  automater 199.116.248.115
  automater -s "robtex;fortinet_classify" example.com
  automater targets.txt -c results.csv -w results.html`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				return cmd.Help()
			}
			if cmd.Flags().Changed("source") {
				a.cfg.Sources = []string{opts.source}
			}
			return runQuery(cmd.Context(), a, args[0], opts)
		},
	}

	pf := cmd.PersistentFlags()
	pf.StringVar(&a.cfgFile, "config", "", "config file (default ./automater.yaml, then ~/.osint-automater.yaml)")
	pf.String("catalog", "", "site catalog file (default sites.xml)")
	pf.String("log-level", "", "log level (debug, info, warn, error)")
	pf.String("proxy", "", "HTTP proxy host:port or socks5://host:port")
	pf.StringP("useragent", "a", "", "User-Agent header (default Automater/2.1)")
	pf.Int("timeout", 0, "per-request timeout in seconds")
	pf.Int("workers", 0, "concurrent queries")
	pf.StringArrayVar(&a.apiKeys, "api-key", nil, "site=key, overrides the catalog and config keys (repeatable)")

	f := cmd.Flags()
	f.StringVarP(&opts.source, "source", "s", "", "semicolon separated site names, or allsources")
	f.IntP("delay", "d", 0, "seconds between requests to the same site (default 2)")
	f.Bool("post", false, "submit targets to sites that need a POST to produce results")
	f.String("dedup", "", "duplicate suppression: consecutive or all")
	f.BoolVarP(&opts.refresh, "refresh", "r", false, "refresh the catalog from catalog_url before querying")
	f.BoolVarP(&opts.quiet, "quiet", "q", false, "no console report")
	f.BoolVarP(&opts.table, "table", "t", false, "console report as tables")
	f.StringVar(&opts.format, "format", "console", "report format printed to stdout (console, text, csv, cef, html, json, grouped-json, markdown)")

	opts.outputs[reporter.FormatText] = f.StringP("output", "o", "", "write a text report")
	opts.outputs[reporter.FormatCSV] = f.StringP("csv", "c", "", "write a CSV report")
	opts.outputs[reporter.FormatCEF] = f.StringP("cef", "f", "", "write a CEF report")
	opts.outputs[reporter.FormatHTML] = f.StringP("web", "w", "", "write an HTML report")
	opts.outputs[reporter.FormatJSON] = f.StringP("json", "j", "", "write a JSON report")
	opts.outputs[reporter.FormatGrouped] = f.StringP("grouped-json", "g", "", "write a JSON report nested as target, source, results")
	opts.outputs[reporter.FormatMarkdown] = f.StringP("markdown", "m", "", "write a Markdown report")
	opts.outputs[reporter.FormatExcel] = f.StringP("xlsx", "x", "", "write an XLSX report")
	opts.outputs[reporter.FormatDOCX] = f.String("docx", "", "write a DOCX report")

	a.v.BindPFlag("catalog", pf.Lookup("catalog"))
	a.v.BindPFlag("log.level", pf.Lookup("log-level"))
	a.v.BindPFlag("proxy", pf.Lookup("proxy"))
	a.v.BindPFlag("user_agent", pf.Lookup("useragent"))
	a.v.BindPFlag("timeout", pf.Lookup("timeout"))
	a.v.BindPFlag("workers", pf.Lookup("workers"))
	a.v.BindPFlag("delay", f.Lookup("delay"))
	a.v.BindPFlag("post", f.Lookup("post"))
	a.v.BindPFlag("dedup", f.Lookup("dedup"))

	cmd.AddCommand(
		newSitesCmd(a),
		newRefreshCmd(a),
		newServeCmd(a),
		newConfigCmd(a),
	)

	return cmd
}

// runQuery Resolves targets, queries the catalog and writes every requested report
func runQuery(ctx context.Context, a *app, arg string, opts *queryOptions) error {
	stdoutFormat, err := reporter.ParseFormat(opts.format)
	if err != nil {
		return err
	}

	targets, err := target.Resolve(arg)
	if err != nil {
		return err
	}

	sink := a.sink()
	if opts.refresh {
		if _, err := refreshCatalog(ctx, a); err != nil {
			a.log.WithError(err).Warn("catalog refresh failed, using the local copy")
		}
	}

	cat, err := a.loadCatalog(sink)
	if err != nil {
		return err
	}

	apiKeys, err := a.mergedKeys()
	if err != nil {
		return err
	}
	mode, err := aggregator.ParseDedupMode(a.cfg.Dedup)
	if err != nil {
		return err
	}
	engine, err := a.newEngine(sink, apiKeys)
	if err != nil {
		return err
	}

	sites := catalog.Filter(cat.Sites, a.sources())
	// status lines only go with the console listing
	chatty := !opts.quiet && stdoutFormat == reporter.FormatConsole
	if chatty {
		pterm.Info.WithWriter(a.out).Printfln("Querying %d target(s) against %d site(s)", len(targets), len(sites))
	}

	results := engine.ExecuteAll(ctx, targets, sites)
	records := aggregator.Normalize(results, mode)

	names := make([]string, len(sites))
	for i, s := range sites {
		names[i] = s.Name
	}
	report := models.NewReport(records, names)
	report.UserAgent = a.cfg.UserAgent

	if !opts.quiet {
		if err := printReport(a, stdoutFormat, report, opts.table); err != nil {
			return err
		}
	}

	for _, format := range reporter.Formats() {
		path, ok := opts.outputs[format]
		if !ok || *path == "" {
			continue
		}
		if err := reporter.Generate(format, report, *path); err != nil {
			return err
		}
		if chatty {
			pterm.Success.WithWriter(a.out).Printfln("%s report written to %s", format, *path)
		}
	}

	return ctx.Err()
}

// printReport Console listing, or the given format rendered to the command output
func printReport(a *app, format reporter.Format, report *models.Report, table bool) error {
	if format == reporter.FormatConsole {
		return reporter.PrintConsole(a.out, report, reporter.ConsoleOptions{Defang: true, Table: table})
	}
	return reporter.Render(a.out, format, report)
}

// refreshCatalog Replaces the local catalog when the remote copy differs
func refreshCatalog(ctx context.Context, a *app) (bool, error) {
	if a.cfg.CatalogURL == "" {
		return false, errors.New("no catalog_url configured")
	}
	client := &http.Client{Timeout: a.cfg.TimeoutDuration()}
	return catalog.Refresh(ctx, client, a.cfg.CatalogURL, a.cfg.Catalog)
}
