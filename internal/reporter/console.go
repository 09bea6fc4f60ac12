package reporter

import (
	"fmt"
	"io"

	"github.com/pterm/pterm"

	"osint-automater/internal/models"
)

// ConsoleOptions Screen output settings
type ConsoleOptions struct {
	Defang bool // Rewrite www. and http so URLs are not clickable
	Table  bool // One table per target instead of label lines
}

// PrintConsole Renders the report for a terminal
func PrintConsole(w io.Writer, report *models.Report, opts ConsoleOptions) error {
	if len(report.Targets) == 0 {
		_, err := fmt.Fprintln(w, pterm.Warning.Sprint("No results found."))
		return err
	}

	for _, t := range report.Targets {
		header := pterm.Bold.Sprintf("Results found for: %s", t.Target)
		summary := pterm.FgGray.Sprintf("(%s, %d of %d records with results)", t.TargetType, t.Hits, len(t.Records))
		if _, err := fmt.Fprintf(w, "\n%s %s\n", header, summary); err != nil {
			return err
		}

		if opts.Table {
			if err := printTable(w, t.Records, opts.Defang); err != nil {
				return err
			}
			continue
		}

		for _, rec := range t.Records {
			line := listingLine(rec, opts.Defang)
			if !rec.HasResult() {
				line = pterm.FgGray.Sprint(line)
			}
			if _, err := fmt.Fprintln(w, line); err != nil {
				return err
			}
		}
	}
	return nil
}

func printTable(w io.Writer, records []models.NormalizedRecord, defang bool) error {
	if len(records) == 0 {
		return nil
	}

	tableData := pterm.TableData{{"Source", "Result"}}
	for _, rec := range records {
		value := rec.Result
		if defang && rec.HasResult() {
			value = Defang(value)
		}
		tableData = append(tableData, []string{rec.Source, value})
	}

	out, err := pterm.DefaultTable.
		WithHasHeader(true).
		WithBoxed(false).
		WithData(tableData).
		Srender()
	if err != nil {
		return fmt.Errorf("failed to render table: %w", err)
	}
	_, err = fmt.Fprintln(w, out)
	return err
}
