package reporter

import (
	"bufio"
	"fmt"
	"io"

	"osint-automater/internal/models"
)

// TextOptions Listing settings
type TextOptions struct {
	Defang bool // Rewrite www. and http so URLs are not clickable
}

// GenerateTextReport Plain text listing grouped by target
func GenerateTextReport(report *models.Report, filename string) error {
	return writeOutput(filename, func(w io.Writer) error {
		return writeText(w, report, TextOptions{})
	})
}

func writeText(w io.Writer, report *models.Report, opts TextOptions) error {
	bw := bufio.NewWriter(w)
	for _, t := range report.Targets {
		fmt.Fprintf(bw, "\n____________________     Results found for: %s     ____________________\n", t.Target)
		for _, rec := range t.Records {
			bw.WriteString(listingLine(rec, opts.Defang) + "\n")
		}
	}
	return bw.Flush()
}

// listingLine Report label followed by the value, or the no-results notice for the source
func listingLine(rec models.NormalizedRecord, defang bool) string {
	if !rec.HasResult() {
		if rec.ReportLabel == "" {
			return "No results found in the " + rec.Source
		}
		return rec.ReportLabel + " " + models.NoResultsFound
	}

	label := rec.ReportLabel
	if label == "" {
		label = "[+] " + rec.Source + ":"
	}
	value := rec.Result
	if defang {
		value = Defang(value)
	}
	return label + " " + value
}
