package models

import "strings"

// TargetPlaceholder Literal replaced with the classified target when a request is built
const TargetPlaceholder = "%TARGET%"

// APIKeyPlaceholder Literal replaced with the site's API key when a request is built
const APIKeyPlaceholder = "%APIKEY%"

// AllSources Source filter value that selects every site in the catalog
const AllSources = "allsources"

// TargetType Classified kind of a target
type TargetType string

const (
	TargetIP       TargetType = "ip"
	TargetMD5      TargetType = "md5"
	TargetHostname TargetType = "hostname"
)

// ParseTargetType Parses a catalog sitetype entry
func ParseTargetType(s string) (TargetType, bool) {
	switch TargetType(strings.ToLower(strings.TrimSpace(s))) {
	case TargetIP:
		return TargetIP, true
	case TargetMD5:
		return TargetMD5, true
	case TargetHostname:
		return TargetHostname, true
	}
	return "", false
}

// ImportantProperty Accessor that supplies the reportable value of a slot
type ImportantProperty int

const (
	PropertyResults ImportantProperty = iota
	PropertyTarget
	PropertyFullURL
	PropertySourceURL
)

var propertyNames = map[ImportantProperty]string{
	PropertyResults:   "Results",
	PropertyTarget:    "Target",
	PropertyFullURL:   "FullURL",
	PropertySourceURL: "SourceURL",
}

func (p ImportantProperty) String() string {
	if name, ok := propertyNames[p]; ok {
		return name
	}
	return "Results"
}

// MarshalText Renders the accessor by its catalog name
func (p ImportantProperty) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// ParseImportantProperty Maps a catalog importantproperty entry onto the closed accessor set.
// The second return value is false for unknown names, which fall back to Results.
func ParseImportantProperty(s string) (ImportantProperty, bool) {
	name := strings.TrimSpace(s)
	for p, n := range propertyNames {
		if strings.EqualFold(n, name) {
			return p, true
		}
	}
	return PropertyResults, false
}

// Method Transport used to fetch the page a site's patterns run against
type Method string

const (
	MethodGet   Method = "GET"
	MethodPost  Method = "POST"
	MethodWhois Method = "WHOIS"

	// API transports, answered with the JSON document of the service
	MethodVirusTotal Method = "VIRUSTOTAL"
	MethodShodan     Method = "SHODAN"
)

// NeedsURL Reports whether the transport fetches the site's full URL
func (m Method) NeedsURL() bool {
	return m == MethodGet || m == MethodPost
}

// SiteKind Request strategy of a site
type SiteKind int

const (
	KindSingleSlot SiteKind = iota
	KindMultiSlot
	KindConditionalPost
	KindDirectPost
)

func (k SiteKind) String() string {
	switch k {
	case KindSingleSlot:
		return "single"
	case KindMultiSlot:
		return "multi"
	case KindConditionalPost:
		return "conditional-post"
	case KindDirectPost:
		return "direct-post"
	}
	return "unknown"
}

// SiteDefinition Declarative description of one external source.
// Loaded once per run and never modified afterwards.
type SiteDefinition struct {
	Name                  string              `json:"name"`
	DomainURL             string              `json:"domain_url"`
	FullURLTemplate       string              `json:"full_url"`
	ApplicableTargetTypes []TargetType        `json:"site_types"`
	ReportLabels          []string            `json:"report_labels"`
	FriendlyNames         []string            `json:"friendly_names"`
	RegexPatterns         []string            `json:"regex"`
	ImportantProperties   []ImportantProperty `json:"important_properties"`
	Params                map[string]string   `json:"params,omitempty"`
	Headers               map[string]string   `json:"headers,omitempty"`
	PostData              map[string]string   `json:"post_data,omitempty"`
	Method                Method              `json:"method"`
	APIKey                string              `json:"-"`
	StripHTML             bool                `json:"strip_html,omitempty"`
}

// Slots Number of extraction slots
func (s SiteDefinition) Slots() int {
	return len(s.RegexPatterns)
}

// Accepts Reports whether the site is applicable to the given target type
func (s SiteDefinition) Accepts(t TargetType) bool {
	for _, st := range s.ApplicableTargetTypes {
		if st == t {
			return true
		}
	}
	return false
}

// EffectiveMethod POST without post data degrades to GET
func (s SiteDefinition) EffectiveMethod() Method {
	switch s.Method {
	case MethodPost:
		if len(s.PostData) == 0 {
			return MethodGet
		}
		return MethodPost
	case MethodWhois, MethodVirusTotal, MethodShodan:
		return s.Method
	}
	return MethodGet
}

// RequiresConditionalPost The first pattern is a probe deciding whether a POST is needed
func (s SiteDefinition) RequiresConditionalPost(apiKey string) bool {
	return s.EffectiveMethod() == MethodPost && apiKey == "" && s.Slots() > 1
}

// Kind Derives the request strategy. apiKey is the resolved key for the site, which may
// come from the catalog or from configuration.
func (s SiteDefinition) Kind(apiKey string) SiteKind {
	if s.EffectiveMethod() == MethodPost {
		if s.RequiresConditionalPost(apiKey) {
			return KindConditionalPost
		}
		return KindDirectPost
	}
	if s.Slots() > 1 {
		return KindMultiSlot
	}
	return KindSingleSlot
}

// Request Fully resolved request for one (target, site) pair
type Request struct {
	Site       string
	Target     string
	TargetType TargetType
	Method     Method
	FullURL    string
	SourceURL  string
	Params     map[string]string
	Headers    map[string]string
	PostData   map[string]string
	APIKey     string
}
