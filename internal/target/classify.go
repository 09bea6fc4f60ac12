package target

import (
	"regexp"
	"strings"

	"osint-automater/internal/models"
)

var (
	ipPattern        = regexp.MustCompile(`\d{1,3}\.\d{1,3}\.\d{1,3}\.\d{1,3}`)
	md5Pattern       = regexp.MustCompile(`(?i)[a-f0-9]{32}`)
	cidrPattern      = regexp.MustCompile(`\d{1,3}\.\d{1,3}\.\d{1,3}\.\d{1,3}/\d{1,2}`)
	dashRangePattern = regexp.MustCompile(`\d{1,3}\.\d{1,3}\.\d{1,3}\.\d{1,3}-\d{1,3}`)
)

// Classify Labels a raw target. First match wins: a dotted quad anywhere makes it an ip,
// then 32 hex characters make it an md5, anything else is a hostname.
// Octet ranges are not validated, so 999.1.1.1 is an ip.
func Classify(raw string) models.TargetType {
	if ipPattern.MatchString(raw) {
		return models.TargetIP
	}
	if md5Pattern.MatchString(raw) {
		return models.TargetMD5
	}
	return models.TargetHostname
}

// Refang Undoes common defanging of dots so "example[.]com" can be queried
func Refang(raw string) string {
	r := strings.NewReplacer("[.]", ".", "{.}", ".", "(.)", ".")
	return r.Replace(strings.TrimSpace(raw))
}
