package reporter

import (
	"encoding/csv"
	"io"

	"osint-automater/internal/models"
)

// csvHeader Column order of the CSV report
var csvHeader = []string{"Target", "Type", "Source", "Result"}

// GenerateCSVReport One row per record
func GenerateCSVReport(report *models.Report, filename string) error {
	return writeOutput(filename, func(w io.Writer) error {
		return writeCSV(w, report.Records)
	})
}

func writeCSV(w io.Writer, records []models.NormalizedRecord) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return err
	}
	for _, rec := range records {
		if err := cw.Write([]string{rec.Target, string(rec.TargetType), rec.Source, rec.Result}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
