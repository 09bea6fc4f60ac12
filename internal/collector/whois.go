package collector

import (
	"context"
	"strings"

	whoisparser "github.com/likexian/whois-parser"
)

// lookup Runs a WHOIS query for the target
func (f *HTTPFetcher) lookup(ctx context.Context, target string) (string, error) {
	return await(ctx, "whois://"+target, func() (string, error) {
		text, err := f.whois.Whois(target)
		if err != nil {
			return "", err
		}
		return withSummary(text), nil
	})
}

// withSummary Appends a normalized field block to a raw WHOIS answer so catalog patterns can
// match registry-independent names. Answers the parser does not understand (IP registries,
// unknown TLDs) are returned unchanged.
func withSummary(raw string) string {
	info, err := whoisparser.Parse(raw)
	if err != nil {
		return raw
	}

	var b strings.Builder
	b.WriteString(raw)
	b.WriteString("\n% normalized\n")

	field := func(name, value string) {
		if value = strings.TrimSpace(value); value != "" {
			b.WriteString(name + ": " + value + "\n")
		}
	}

	if d := info.Domain; d != nil {
		field("domain", d.Domain)
		field("created", d.CreatedDate)
		field("updated", d.UpdatedDate)
		field("expires", d.ExpirationDate)
		field("name_servers", strings.Join(d.NameServers, ","))
		field("status", strings.Join(d.Status, ","))
	}
	if r := info.Registrar; r != nil {
		field("registrar", r.Name)
	}
	if r := info.Registrant; r != nil {
		field("registrant", firstNonEmpty(r.Organization, r.Name))
		field("registrant_country", r.Country)
		field("registrant_email", r.Email)
	}
	if a := info.Administrative; a != nil {
		field("admin_email", a.Email)
	}
	if t := info.Technical; t != nil {
		field("tech_email", t.Email)
	}

	return b.String()
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
