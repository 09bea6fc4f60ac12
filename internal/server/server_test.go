package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"osint-automater/internal/catalog"
	"osint-automater/internal/models"
	"osint-automater/internal/target"
)

// stubRunner Answers every applicable pair with a fixed value
type stubRunner struct {
	mu    sync.Mutex
	calls [][]string
}

func (r *stubRunner) ExecuteAll(_ context.Context, targets []string, sites []models.SiteDefinition) []models.QueryResult {
	r.mu.Lock()
	r.calls = append(r.calls, targets)
	r.mu.Unlock()

	var out []models.QueryResult
	for _, t := range targets {
		tt := target.Classify(t)
		for _, site := range sites {
			if !site.Accepts(tt) {
				continue
			}
			out = append(out, models.QueryResult{
				Target:     t,
				TargetType: tt,
				Site:       site.Name,
				Slots: []models.SlotResult{{
					FriendlyName: site.FriendlyNames[0],
					ReportLabel:  site.ReportLabels[0],
					Values:       []string{"Malicious Websites"},
				}},
			})
		}
	}
	return out
}

func testCatalog() *catalog.Catalog {
	site := func(name string, types ...models.TargetType) models.SiteDefinition {
		return models.SiteDefinition{
			Name:                  name,
			FullURLTemplate:       "https://" + name + ".example/%TARGET%",
			ApplicableTargetTypes: types,
			ReportLabels:          []string{"[+] " + name + ":"},
			FriendlyNames:         []string{name + " URL"},
			RegexPatterns:         []string{`.+`},
			ImportantProperties:   []models.ImportantProperty{models.PropertyResults},
		}
	}
	return &catalog.Catalog{Sites: []models.SiteDefinition{
		site("fortinet_classify", models.TargetHostname, models.TargetIP),
		site("vxvault", models.TargetMD5),
	}}
}

func newTestServer(t *testing.T) (*Server, *stubRunner) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	logger, _ := test.NewNullLogger()
	runner := &stubRunner{}
	return New(testCatalog(), runner, logger, Config{}), runner
}

func get(t *testing.T, s *Server, path string) *httptest.ResponseRecorder {
	t.Helper()
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	s.Handler().ServeHTTP(w, req)
	return w
}

func TestListSites(t *testing.T) {
	s, _ := newTestServer(t)

	w := get(t, s, "/sites")
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Sites []string `json:"sites"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, []string{"fortinet_classify", "vxvault", "allsources"}, body.Sites)
}

func TestQuerySingleSite(t *testing.T) {
	s, _ := newTestServer(t)

	w := get(t, s, "/fortinet_classify/masterdiskeurope.com")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t,
		`{"masterdiskeurope.com": {"fortinet_classify URL": [{"Type": "hostname", "Result": "Malicious Websites"}]}}`,
		w.Body.String())
}

func TestQueryAllSourcesFiltersByType(t *testing.T) {
	s, _ := newTestServer(t)

	w := get(t, s, "/allsources/d41d8cd98f00b204e9800998ecf8427e")
	require.Equal(t, http.StatusOK, w.Code)

	var body map[string]map[string][]models.SourceResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Contains(t, body, "d41d8cd98f00b204e9800998ecf8427e")
	assert.Contains(t, body["d41d8cd98f00b204e9800998ecf8427e"], "vxvault URL")
	assert.NotContains(t, body["d41d8cd98f00b204e9800998ecf8427e"], "fortinet_classify URL")
}

func TestQueryExpandsAndRefangsTarget(t *testing.T) {
	s, runner := newTestServer(t)

	w := get(t, s, "/fortinet_classify/10.0.0.1-3")
	require.Equal(t, http.StatusOK, w.Code)
	require.Len(t, runner.calls, 1)
	assert.Equal(t, []string{"10.0.0.1", "10.0.0.2", "10.0.0.3"}, runner.calls[0])

	w = get(t, s, "/fortinet_classify/example[.]com")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"example.com"`)
}

func TestQueryNoApplicableSiteKeepsTarget(t *testing.T) {
	s, _ := newTestServer(t)

	w := get(t, s, "/vxvault/example.com")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"example.com": {}}`, w.Body.String())
}

func TestQueryUnknownSite(t *testing.T) {
	s, runner := newTestServer(t)

	w := get(t, s, "/nosuchsite/example.com")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Empty(t, runner.calls)
}

func TestHealth(t *testing.T) {
	s, _ := newTestServer(t)

	w := get(t, s, "/health")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status": "ok", "sites": 2}`, w.Body.String())
}
