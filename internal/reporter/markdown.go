package reporter

import (
	"fmt"
	"io"
	"strings"

	"osint-automater/internal/models"
)

// truncateString truncates a string to maxLen runes and adds ellipsis if needed
func truncateString(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return string(r[:maxLen])
	}
	return string(r[:maxLen-3]) + "..."
}

// markdownCell Keeps a value inside its table cell
func markdownCell(s string) string {
	s = strings.ReplaceAll(s, "|", `\|`)
	s = strings.ReplaceAll(s, "\n", " ")
	return truncateString(s, 200)
}

// GenerateMarkdownReport Generate Markdown format report
func GenerateMarkdownReport(report *models.Report, filename string) error {
	return writeOutput(filename, func(w io.Writer) error {
		_, err := io.WriteString(w, renderMarkdown(report))
		return err
	})
}

func renderMarkdown(report *models.Report) string {
	var md strings.Builder

	md.WriteString("# Automater Report\n\n")
	md.WriteString("**Generated:** " + report.Timestamp.Format("2006-01-02 15:04:05") + "\n\n")
	if len(report.Sites) > 0 {
		md.WriteString("**Sources:** " + strings.Join(report.Sites, ", ") + "\n\n")
	}
	md.WriteString("---\n\n")

	if len(report.Targets) == 0 {
		md.WriteString("No results found.\n")
		return md.String()
	}

	md.WriteString("## Summary\n\n")
	md.WriteString("| Target | Type | Sources | Records with results |\n")
	md.WriteString("|--------|------|---------|----------------------|\n")
	for _, t := range report.Targets {
		md.WriteString(fmt.Sprintf("| %s | %s | %d | %d/%d |\n",
			markdownCell(t.Target), t.TargetType, len(t.Sources), t.Hits, len(t.Records)))
	}
	md.WriteString("\n")

	for _, t := range report.Targets {
		md.WriteString(fmt.Sprintf("## %s (%s)\n\n", t.Target, t.TargetType))
		md.WriteString("| Source | Result |\n")
		md.WriteString("|--------|--------|\n")
		for _, rec := range t.Records {
			result := markdownCell(rec.Result)
			if !rec.HasResult() {
				result = "_" + result + "_"
			}
			md.WriteString(fmt.Sprintf("| %s | %s |\n", markdownCell(rec.Source), result))
		}
		md.WriteString("\n")
	}

	return md.String()
}
