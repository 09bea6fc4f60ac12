package reporter

import (
	"bytes"
	_ "embed"
	"encoding/xml"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/nguyenthenguyen/docx"

	"osint-automater/internal/models"
)

//go:embed templates/report.docx
var docxTemplate []byte

const contentPlaceholder = "{{REPORT_CONTENT}}"

// GenerateDOCXReport Word document rendered into the bundled template
func GenerateDOCXReport(report *models.Report, filename string) error {
	if filename == "" {
		return fmt.Errorf("filename is required for DOCX output")
	}

	r, err := docx.ReadDocxFromMemory(bytes.NewReader(docxTemplate), int64(len(docxTemplate)))
	if err != nil {
		return fmt.Errorf("failed to read template file: %v", err)
	}
	defer r.Close()

	doc := r.Editable()

	title := "Automater Report"
	if len(report.Targets) > 0 {
		names := make([]string, len(report.Targets))
		for i, t := range report.Targets {
			names[i] = t.Target
		}
		title = "Automater Report: " + truncateString(strings.Join(names, ", "), 120)
	}
	doc.Replace("{{TITLE}}", title, -1)
	doc.Replace("{{TIMESTAMP}}", report.Timestamp.Format("2006-01-02 15:04:05"), -1)

	content, err := replaceParagraph(doc.GetContent(), contentPlaceholder, docxBody(report))
	if err != nil {
		return err
	}
	doc.SetContent(content)

	if dir := filepath.Dir(filename); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory for %s: %w", filename, err)
		}
	}
	return doc.WriteToFile(filename)
}

// docxBody WordprocessingML paragraphs for every target section
func docxBody(report *models.Report) string {
	var b strings.Builder
	if len(report.Targets) == 0 {
		b.WriteString(docxParagraph("No targets were queried.", false))
		return b.String()
	}
	for _, t := range report.Targets {
		b.WriteString(docxParagraph(fmt.Sprintf("Results found for: %s (%s, %d hit(s))", t.Target, t.TargetType, t.Hits), true))
		for _, rec := range t.Records {
			b.WriteString(docxParagraph(listingLine(rec, false), false))
		}
	}
	return b.String()
}

func docxParagraph(text string, bold bool) string {
	var escaped bytes.Buffer
	xml.EscapeText(&escaped, []byte(text))

	props := `<w:rFonts w:ascii="Consolas" w:hAnsi="Consolas"/><w:sz w:val="18"/>`
	if bold {
		props = `<w:b/><w:sz w:val="24"/>`
	}
	return `<w:p><w:r><w:rPr>` + props + `</w:rPr><w:t xml:space="preserve">` + escaped.String() + `</w:t></w:r></w:p>`
}

// replaceParagraph Swaps the whole paragraph holding placeholder for the given markup
func replaceParagraph(content, placeholder, markup string) (string, error) {
	at := strings.Index(content, placeholder)
	if at < 0 {
		return "", fmt.Errorf("template has no %s paragraph", placeholder)
	}
	start := strings.LastIndex(content[:at], "<w:p>")
	end := strings.Index(content[at:], "</w:p>")
	if start < 0 || end < 0 {
		return "", fmt.Errorf("template paragraph for %s is malformed", placeholder)
	}
	end += at + len("</w:p>")
	return content[:start] + markup + content[end:], nil
}
