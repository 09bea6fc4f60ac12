package reporter

import (
	"fmt"
	"html"
	"io"
	"strings"

	"osint-automater/internal/models"
)

// GenerateHTMLReport Generate HTML format report
func GenerateHTMLReport(report *models.Report, filename string) error {
	return writeOutput(filename, func(w io.Writer) error {
		_, err := io.WriteString(w, renderHTML(report))
		return err
	})
}

func renderHTML(report *models.Report) string {
	var page strings.Builder

	page.WriteString(`<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>Automater Report</title>
    <style>
        body {
            font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, Oxygen, Ubuntu, Cantarell, sans-serif;
            line-height: 1.6;
            color: #333;
            max-width: 1200px;
            margin: 0 auto;
            padding: 20px;
            background: #f5f5f5;
        }
        .container {
            background: white;
            padding: 30px;
            border-radius: 8px;
            box-shadow: 0 2px 4px rgba(0,0,0,0.1);
        }
        h1 {
            color: #2c3e50;
            border-bottom: 3px solid #3498db;
            padding-bottom: 10px;
        }
        h2 {
            color: #34495e;
            margin-top: 30px;
            border-left: 4px solid #3498db;
            padding-left: 15px;
        }
        .badge {
            display: inline-block;
            padding: 4px 8px;
            border-radius: 3px;
            font-size: 0.85em;
            margin: 2px;
            background: #3498db;
            color: white;
        }
        .timestamp {
            color: #7f8c8d;
            font-size: 0.9em;
        }
        table {
            width: 100%;
            border-collapse: collapse;
            margin: 15px 0;
        }
        th, td {
            padding: 12px;
            text-align: left;
            border-bottom: 1px solid #ddd;
            word-break: break-all;
        }
        th {
            background: #3498db;
            color: white;
        }
        tr:hover {
            background: #f5f5f5;
        }
        tr.empty td {
            color: #95a5a6;
        }
    </style>
</head>
<body>
    <div class="container">
`)

	page.WriteString(fmt.Sprintf(`
        <h1>Automater Report</h1>
        <p class="timestamp">Generated: %s</p>
`, report.Timestamp.Format("2006-01-02 15:04:05")))

	if len(report.Sites) > 0 {
		page.WriteString(`<p><strong>Sources:</strong> `)
		for _, s := range report.Sites {
			page.WriteString(fmt.Sprintf(`<span class="badge">%s</span>`, html.EscapeString(s)))
		}
		page.WriteString(`</p>`)
	}

	for _, t := range report.Targets {
		page.WriteString(fmt.Sprintf(`<h2>%s <span class="badge">%s</span></h2>`,
			html.EscapeString(t.Target), html.EscapeString(string(t.TargetType))))
		page.WriteString(fmt.Sprintf(`<p>%d of %d records with results</p>`, t.Hits, len(t.Records)))
		page.WriteString(`<table><thead><tr><th>Target</th><th>Type</th><th>Source</th><th>Result</th></tr></thead><tbody>`)
		for _, rec := range t.Records {
			class := ""
			if !rec.HasResult() {
				class = ` class="empty"`
			}
			page.WriteString(fmt.Sprintf(`<tr%s><td>%s</td><td>%s</td><td>%s</td><td>%s</td></tr>`,
				class,
				html.EscapeString(rec.Target),
				html.EscapeString(string(rec.TargetType)),
				html.EscapeString(rec.Source),
				html.EscapeString(rec.Result)))
		}
		page.WriteString(`</tbody></table>`)
	}

	if len(report.Targets) == 0 {
		page.WriteString(`<p>No results found.</p>`)
	}

	page.WriteString(`
        <div style="margin-top: 40px; padding-top: 20px; border-top: 1px solid #eee; text-align: center; color: #7f8c8d; font-size: 0.85em;">
            <p>Generated by Automater</p>
        </div>
    </div>
</body>
</html>
`)

	return page.String()
}
