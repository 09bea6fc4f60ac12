package reporter

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"osint-automater/internal/models"
)

// Format Output format selector
type Format string

const (
	FormatConsole  Format = "console"
	FormatText     Format = "text"
	FormatCSV      Format = "csv"
	FormatCEF      Format = "cef"
	FormatHTML     Format = "html"
	FormatJSON     Format = "json"
	FormatGrouped  Format = "grouped-json"
	FormatMarkdown Format = "markdown"
	FormatExcel    Format = "xlsx"
	FormatDOCX     Format = "docx"
)

// Formats Every supported format in display order
func Formats() []Format {
	return []Format{FormatConsole, FormatText, FormatCSV, FormatCEF, FormatHTML, FormatJSON, FormatGrouped, FormatMarkdown, FormatExcel, FormatDOCX}
}

// ParseFormat Accepts a format name or a common alias
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "console", "screen":
		return FormatConsole, nil
	case "text", "txt":
		return FormatText, nil
	case "csv":
		return FormatCSV, nil
	case "cef":
		return FormatCEF, nil
	case "html", "htm":
		return FormatHTML, nil
	case "json":
		return FormatJSON, nil
	case "grouped-json", "grouped", "rest":
		return FormatGrouped, nil
	case "markdown", "md":
		return FormatMarkdown, nil
	case "xlsx", "excel":
		return FormatExcel, nil
	case "docx", "word":
		return FormatDOCX, nil
	}
	return "", fmt.Errorf("unsupported output format %q", s)
}

// Generate Writes the report in the given format. An empty filename writes to stdout, except
// for xlsx and docx which require a file.
func Generate(format Format, report *models.Report, filename string) error {
	switch format {
	case FormatConsole:
		return PrintConsole(os.Stdout, report, ConsoleOptions{Defang: true})
	case FormatText:
		return GenerateTextReport(report, filename)
	case FormatCSV:
		return GenerateCSVReport(report, filename)
	case FormatCEF:
		return GenerateCEFReport(report, filename)
	case FormatHTML:
		return GenerateHTMLReport(report, filename)
	case FormatJSON:
		return GenerateJSONReport(report, filename)
	case FormatGrouped:
		return GenerateGroupedJSONReport(report, filename)
	case FormatMarkdown:
		return GenerateMarkdownReport(report, filename)
	case FormatExcel:
		return GenerateExcelReport(report, filename)
	case FormatDOCX:
		return GenerateDOCXReport(report, filename)
	}
	return fmt.Errorf("unsupported output format %q", format)
}

// Render Writes a text based format to w. Binary formats need a file and are rejected.
func Render(w io.Writer, format Format, report *models.Report) error {
	switch format {
	case FormatConsole:
		return PrintConsole(w, report, ConsoleOptions{Defang: true})
	case FormatText:
		return writeText(w, report, TextOptions{})
	case FormatCSV:
		return writeCSV(w, report.Records)
	case FormatCEF:
		host, err := os.Hostname()
		if err != nil {
			host = "localhost"
		}
		return writeCEF(w, report, host)
	case FormatHTML:
		_, err := io.WriteString(w, renderHTML(report))
		return err
	case FormatJSON:
		return writeJSON(w, report)
	case FormatGrouped:
		return writeJSON(w, Grouped(report))
	case FormatMarkdown:
		_, err := io.WriteString(w, renderMarkdown(report))
		return err
	case FormatExcel, FormatDOCX:
		return fmt.Errorf("%s output needs a file name", format)
	}
	return fmt.Errorf("unsupported output format %q", format)
}

// writeOutput Runs render against the named file, or stdout when filename is empty
func writeOutput(filename string, render func(io.Writer) error) error {
	if filename == "" {
		return render(os.Stdout)
	}

	if dir := filepath.Dir(filename); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory for %s: %w", filename, err)
		}
	}

	f, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", filename, err)
	}
	if err := render(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

var defanger = strings.NewReplacer("www.", "www[.]", "http", "hxxp")

// Defang Makes URLs in a result non-clickable
func Defang(s string) string {
	return defanger.Replace(s)
}
