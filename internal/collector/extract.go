package collector

import (
	"strings"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/dlclark/regexp2"
)

// defaultMatchTimeout Bounds a single pattern evaluation against one body
const defaultMatchTimeout = 5 * time.Second

// Extractor Compiles catalog patterns case-insensitively and caches them.
// Patterns use the backtracking dialect of the catalog (lookarounds, backreferences).
type Extractor struct {
	timeout time.Duration
	cache   sync.Map // pattern -> *regexp2.Regexp
}

// NewExtractor Creates an extractor; a zero timeout uses the default
func NewExtractor(timeout time.Duration) *Extractor {
	if timeout <= 0 {
		timeout = defaultMatchTimeout
	}
	return &Extractor{timeout: timeout}
}

func (x *Extractor) compile(pattern string) (*regexp2.Regexp, error) {
	if re, ok := x.cache.Load(pattern); ok {
		return re.(*regexp2.Regexp), nil
	}
	re, err := regexp2.Compile(pattern, regexp2.IgnoreCase)
	if err != nil {
		return nil, err
	}
	re.MatchTimeout = x.timeout
	x.cache.Store(pattern, re)
	return re, nil
}

// FindAll Returns every non-overlapping match in content.
// Without groups the whole match is returned, with one group that group, and with several
// groups their values joined by a space. Empty values are dropped.
func (x *Extractor) FindAll(pattern, content string) ([]string, error) {
	re, err := x.compile(pattern)
	if err != nil {
		return nil, err
	}

	var found []string
	m, err := re.FindStringMatch(content)
	for m != nil && err == nil {
		if v := matchValue(m); v != "" {
			found = append(found, v)
		}
		m, err = re.FindNextMatch(m)
	}
	if err != nil {
		return nil, err
	}
	return found, nil
}

func matchValue(m *regexp2.Match) string {
	groups := m.Groups()
	switch len(groups) {
	case 1:
		return m.String()
	case 2:
		return groups[1].String()
	}

	parts := make([]string, 0, len(groups)-1)
	for _, g := range groups[1:] {
		if s := g.String(); s != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, " ")
}

// htmlText Reduces an HTML body to its text content
func htmlText(body string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(body))
	if err != nil {
		return body
	}
	return doc.Text()
}

// pageTitle Title of an HTML error page, used in network diagnostics
func pageTitle(body string) string {
	if body == "" {
		return ""
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(body))
	if err != nil {
		return ""
	}
	return strings.Join(strings.Fields(doc.Find("title").First().Text()), " ")
}
