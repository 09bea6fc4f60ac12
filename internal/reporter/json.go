package reporter

import (
	"encoding/json"
	"io"

	"osint-automater/internal/models"
)

// GenerateJSONReport JSON report: run metadata plus the flattened records
func GenerateJSONReport(report *models.Report, filename string) error {
	return writeOutput(filename, func(w io.Writer) error {
		return writeJSON(w, report)
	})
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// Grouped Nests records as target -> source -> results, the shape served by the REST API
func Grouped(report *models.Report) map[string]map[string][]models.SourceResult {
	out := make(map[string]map[string][]models.SourceResult, len(report.Targets))
	for _, t := range report.Targets {
		out[t.Target] = t.BySource()
	}
	return out
}

// GenerateGroupedJSONReport JSON report in the grouped shape
func GenerateGroupedJSONReport(report *models.Report, filename string) error {
	return writeOutput(filename, func(w io.Writer) error {
		return writeJSON(w, Grouped(report))
	})
}
