package reporter

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"osint-automater/internal/models"
)

const (
	cefVersion = "CEF:0"
	cefVendor  = "TekDefense"
	cefProduct = "Automater"
	cefRelease = "2.1"
	cefSigID   = "0"
)

// GenerateCEFReport One CEF event per record, prefixed with syslog-style date and host
func GenerateCEFReport(report *models.Report, filename string) error {
	host, err := os.Hostname()
	if err != nil {
		host = "localhost"
	}
	return writeOutput(filename, func(w io.Writer) error {
		return writeCEF(w, report, host)
	})
}

func writeCEF(w io.Writer, report *models.Report, host string) error {
	ts := report.Timestamp
	if ts.IsZero() {
		ts = time.Now()
	}
	prefix := ts.Format("2006-01-02 15:04:05") + " " + host

	bw := bufio.NewWriter(w)
	for _, rec := range report.Records {
		name := fmt.Sprintf("[tgt=%s,typ=%s,src=%s,res=%s]", rec.Target, rec.TargetType, rec.Source, rec.Result)
		severity := "1"
		if rec.HasResult() {
			severity = "2"
		}
		fields := []string{
			prefix + " " + cefVersion,
			cefVendor,
			cefProduct,
			cefRelease,
			cefSigID,
			cefHeader(name),
			severity,
			"dst=" + cefExtension(rec.Target) + " cs1Label=source cs1=" + cefExtension(rec.Source) +
				" cs2Label=result cs2=" + cefExtension(rec.Result),
		}
		bw.WriteString(strings.Join(fields, "|") + "\n")
	}
	return bw.Flush()
}

var (
	cefHeaderEscaper    = strings.NewReplacer(`\`, `\\`, "|", `\|`)
	cefExtensionEscaper = strings.NewReplacer(`\`, `\\`, "=", `\=`, "\n", `\n`, "\r", `\r`)
)

// cefHeader Escapes pipes and backslashes in header fields
func cefHeader(s string) string {
	return cefHeaderEscaper.Replace(s)
}

// cefExtension Escapes equals signs, backslashes and line breaks in extension values
func cefExtension(s string) string {
	return cefExtensionEscaper.Replace(s)
}
