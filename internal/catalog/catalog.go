package catalog

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"osint-automater/internal/models"
)

// Catalog Site definitions that passed validation, plus what was rejected
type Catalog struct {
	Sites    []models.SiteDefinition
	Rejected []error  // *models.ConfigError for each skipped definition
	Warnings []string // Non-fatal oddities such as unknown important properties
}

// Names Site names in catalog order
func (c *Catalog) Names() []string {
	names := make([]string, len(c.Sites))
	for i, s := range c.Sites {
		names[i] = s.Name
	}
	return names
}

// Lookup Finds a site by name
func (c *Catalog) Lookup(name string) (models.SiteDefinition, bool) {
	for _, s := range c.Sites {
		if s.Name == name {
			return s, true
		}
	}
	return models.SiteDefinition{}, false
}

// rawSite Format-neutral shape shared by the XML and YAML decoders
type rawSite struct {
	Name              string
	Disabled          bool
	DomainURL         string
	FullURL           string
	SiteTypes         []string
	ReportStrings     []string
	FriendlyNames     []string
	Regex             []string
	ImportantProperty []string
	Params            map[string]string
	Headers           map[string]string
	PostData          map[string]string
	Method            string
	APIKey            string
	StripHTML         bool
}

type xmlCatalog struct {
	Sites []xmlSite `xml:"site"`
}

type xmlSite struct {
	Name              string     `xml:"name,attr"`
	Enabled           string     `xml:"enabled,attr"`
	DomainURL         string     `xml:"domainurl"`
	FullURL           string     `xml:"fullurl"`
	SiteType          xmlEntries `xml:"sitetype"`
	ReportStrings     xmlEntries `xml:"reportstringforresult"`
	FriendlyNames     xmlEntries `xml:"sitefriendlyname"`
	Regex             xmlEntries `xml:"regex"`
	ImportantProperty xmlEntries `xml:"importantproperty"`
	Params            xmlEntries `xml:"params"`
	Headers           xmlEntries `xml:"headers"`
	PostData          xmlEntries `xml:"postdata"`
	Method            string     `xml:"method"`
	APIKey            xmlEntries `xml:"apikey"`
	StripHTML         string     `xml:"striphtml"`
}

type xmlEntries struct {
	Entries []xmlEntry `xml:"entry"`
}

type xmlEntry struct {
	Key   string `xml:"key,attr"`
	Value string `xml:",chardata"`
}

func (e xmlEntries) values() []string {
	var out []string
	for _, entry := range e.Entries {
		out = append(out, strings.TrimSpace(entry.Value))
	}
	return out
}

// verbatim Entry text without trimming, for patterns where whitespace may matter
func (e xmlEntries) verbatim() []string {
	var out []string
	for _, entry := range e.Entries {
		out = append(out, entry.Value)
	}
	return out
}

func (e xmlEntries) dict() map[string]string {
	if len(e.Entries) == 0 {
		return nil
	}
	out := make(map[string]string, len(e.Entries))
	for _, entry := range e.Entries {
		out[entry.Key] = strings.TrimSpace(entry.Value)
	}
	return out
}

func (s xmlSite) raw() rawSite {
	r := rawSite{
		Name:              strings.TrimSpace(s.Name),
		Disabled:          isFalse(s.Enabled),
		DomainURL:         strings.TrimSpace(s.DomainURL),
		FullURL:           strings.TrimSpace(s.FullURL),
		SiteTypes:         s.SiteType.values(),
		ReportStrings:     s.ReportStrings.values(),
		FriendlyNames:     s.FriendlyNames.values(),
		Regex:             s.Regex.verbatim(),
		ImportantProperty: s.ImportantProperty.values(),
		Params:            s.Params.dict(),
		Headers:           s.Headers.dict(),
		PostData:          s.PostData.dict(),
		Method:            strings.TrimSpace(s.Method),
		StripHTML:         isTrue(s.StripHTML),
	}
	if keys := s.APIKey.values(); len(keys) > 0 {
		r.APIKey = keys[0]
	}
	return r
}

type yamlCatalog struct {
	Sites []yamlSite `yaml:"sites"`
}

type yamlSite struct {
	Name              string            `yaml:"name"`
	Enabled           *bool             `yaml:"enabled"`
	DomainURL         string            `yaml:"domainurl"`
	FullURL           string            `yaml:"fullurl"`
	SiteType          []string          `yaml:"sitetype"`
	ReportStrings     []string          `yaml:"reportstringforresult"`
	FriendlyNames     []string          `yaml:"sitefriendlyname"`
	Regex             []string          `yaml:"regex"`
	ImportantProperty []string          `yaml:"importantproperty"`
	Params            map[string]string `yaml:"params"`
	Headers           map[string]string `yaml:"headers"`
	PostData          map[string]string `yaml:"postdata"`
	Method            string            `yaml:"method"`
	APIKey            string            `yaml:"apikey"`
	StripHTML         bool              `yaml:"striphtml"`
}

func (s yamlSite) raw() rawSite {
	return rawSite{
		Name:              strings.TrimSpace(s.Name),
		Disabled:          s.Enabled != nil && !*s.Enabled,
		DomainURL:         strings.TrimSpace(s.DomainURL),
		FullURL:           strings.TrimSpace(s.FullURL),
		SiteTypes:         s.SiteType,
		ReportStrings:     s.ReportStrings,
		FriendlyNames:     s.FriendlyNames,
		Regex:             s.Regex,
		ImportantProperty: s.ImportantProperty,
		Params:            s.Params,
		Headers:           s.Headers,
		PostData:          s.PostData,
		Method:            strings.TrimSpace(s.Method),
		APIKey:            strings.TrimSpace(s.APIKey),
		StripHTML:         s.StripHTML,
	}
}

// Load Reads a catalog file. The format follows the extension: .yaml/.yml is YAML,
// anything else is the sites.xml layout.
func Load(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read site catalog: %w", err)
	}
	return parseFor(path, data)
}

func parseFor(path string, data []byte) (*Catalog, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return ParseYAML(data)
	default:
		return ParseXML(data)
	}
}

// ParseXML Decodes a sites.xml document
func ParseXML(data []byte) (*Catalog, error) {
	var doc xmlCatalog
	if err := xml.NewDecoder(bytes.NewReader(data)).Decode(&doc); err != nil {
		return nil, fmt.Errorf("failed to parse site catalog XML: %w", err)
	}

	raws := make([]rawSite, len(doc.Sites))
	for i, s := range doc.Sites {
		raws[i] = s.raw()
	}
	return build(raws)
}

// ParseYAML Decodes a YAML catalog with a top-level sites list
func ParseYAML(data []byte) (*Catalog, error) {
	var doc yamlCatalog
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse site catalog YAML: %w", err)
	}

	raws := make([]rawSite, len(doc.Sites))
	for i, s := range doc.Sites {
		raws[i] = s.raw()
	}
	return build(raws)
}

func build(raws []rawSite) (*Catalog, error) {
	c := &Catalog{}
	seen := make(map[string]bool)

	for _, r := range raws {
		if r.Disabled {
			continue
		}
		if seen[r.Name] {
			c.Rejected = append(c.Rejected, &models.ConfigError{Site: r.Name, Reason: "duplicate site name"})
			continue
		}

		site, warnings, err := validate(r)
		c.Warnings = append(c.Warnings, warnings...)
		if err != nil {
			c.Rejected = append(c.Rejected, err)
			continue
		}
		seen[site.Name] = true
		c.Sites = append(c.Sites, site)
	}

	if len(c.Sites) == 0 {
		return c, models.ErrNoSites
	}
	return c, nil
}

// validate Checks one raw definition and converts it. Slot cardinality must agree across
// regex, reportstringforresult, sitefriendlyname and importantproperty.
func validate(r rawSite) (models.SiteDefinition, []string, error) {
	reject := func(format string, args ...any) (models.SiteDefinition, []string, error) {
		return models.SiteDefinition{}, nil, &models.ConfigError{Site: r.Name, Reason: fmt.Sprintf(format, args...)}
	}

	if r.Name == "" {
		return reject("missing name attribute")
	}

	method := models.Method(strings.ToUpper(r.Method))
	switch method {
	case "":
		method = models.MethodGet
	case models.MethodGet, models.MethodPost, models.MethodWhois, models.MethodVirusTotal, models.MethodShodan:
	default:
		return reject("unsupported method %q", r.Method)
	}

	if r.FullURL == "" && method.NeedsURL() {
		return reject("missing fullurl")
	}

	if len(r.SiteTypes) == 0 {
		return reject("no sitetype entries")
	}
	var types []models.TargetType
	for _, st := range r.SiteTypes {
		tt, ok := models.ParseTargetType(st)
		if !ok {
			return reject("unknown sitetype %q", st)
		}
		if method == models.MethodShodan && tt != models.TargetIP {
			return reject("shodan sites accept ip targets only, got %q", st)
		}
		types = append(types, tt)
	}

	n := len(r.Regex)
	if n == 0 {
		return reject("no regex entries")
	}
	if len(r.ReportStrings) != n || len(r.FriendlyNames) != n || len(r.ImportantProperty) != n {
		return reject("entry counts differ: regex=%d reportstringforresult=%d sitefriendlyname=%d importantproperty=%d",
			n, len(r.ReportStrings), len(r.FriendlyNames), len(r.ImportantProperty))
	}

	var warnings []string
	props := make([]models.ImportantProperty, n)
	for i, name := range r.ImportantProperty {
		p, ok := models.ParseImportantProperty(name)
		if !ok {
			warnings = append(warnings, fmt.Sprintf("site %s: unknown importantproperty %q, using Results", r.Name, name))
		}
		props[i] = p
	}

	return models.SiteDefinition{
		Name:                  r.Name,
		DomainURL:             r.DomainURL,
		FullURLTemplate:       r.FullURL,
		ApplicableTargetTypes: types,
		ReportLabels:          append([]string(nil), r.ReportStrings...),
		FriendlyNames:         append([]string(nil), r.FriendlyNames...),
		RegexPatterns:         append([]string(nil), r.Regex...),
		ImportantProperties:   props,
		Params:                copyMap(r.Params),
		Headers:               copyMap(r.Headers),
		PostData:              copyMap(r.PostData),
		Method:                method,
		APIKey:                r.APIKey,
		StripHTML:             r.StripHTML,
	}, warnings, nil
}

// ParseSources Splits a semicolon separated source filter.
// An empty filter or one naming allsources selects everything and yields nil.
func ParseSources(filter string) []string {
	var sources []string
	for _, part := range strings.Split(filter, ";") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		if strings.EqualFold(part, models.AllSources) {
			return nil
		}
		sources = append(sources, part)
	}
	return sources
}

// Filter Keeps the sites named in sources, in catalog order. A nil filter keeps all.
func Filter(sites []models.SiteDefinition, sources []string) []models.SiteDefinition {
	if len(sources) == 0 {
		return sites
	}
	wanted := make(map[string]bool, len(sources))
	for _, s := range sources {
		if strings.EqualFold(s, models.AllSources) {
			return sites
		}
		wanted[s] = true
	}

	var out []models.SiteDefinition
	for _, site := range sites {
		if wanted[site.Name] {
			out = append(out, site)
		}
	}
	return out
}

func copyMap(m map[string]string) map[string]string {
	if len(m) == 0 {
		return nil
	}
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func isTrue(s string) bool {
	b, err := strconv.ParseBool(strings.TrimSpace(s))
	return err == nil && b
}

func isFalse(s string) bool {
	b, err := strconv.ParseBool(strings.TrimSpace(s))
	return err == nil && !b
}
