package collector

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"osint-automater/internal/models"
)

// recorder Collects events from concurrent workers
type recorder struct {
	mu     sync.Mutex
	events []models.Event
}

func (r *recorder) Emit(e models.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

func (r *recorder) kinds(kind models.EventKind) []models.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Event
	for _, e := range r.events {
		if e.Kind == kind {
			out = append(out, e)
		}
	}
	return out
}

func ipSite(name, url string, patterns ...string) models.SiteDefinition {
	site := models.SiteDefinition{
		Name:                  name,
		DomainURL:             url,
		FullURLTemplate:       url + "?ip=%TARGET%",
		ApplicableTargetTypes: []models.TargetType{models.TargetIP},
		Method:                models.MethodGet,
	}
	for i, p := range patterns {
		site.RegexPatterns = append(site.RegexPatterns, p)
		site.ReportLabels = append(site.ReportLabels, fmt.Sprintf("[+] %s %d:", name, i))
		site.FriendlyNames = append(site.FriendlyNames, fmt.Sprintf("%s %d", name, i))
		site.ImportantProperties = append(site.ImportantProperties, models.PropertyResults)
	}
	return site
}

func newEngine(t *testing.T, opts Options) *Engine {
	t.Helper()
	e, err := New(opts)
	require.NoError(t, err)
	return e
}

func TestExecuteAllSingleSlot(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("ip") != "199.116.248.115" || r.UserAgent() != "Automater-test" {
			http.NotFound(w, r)
			return
		}
		fmt.Fprint(w, "<html>Malicious ... Clean ... safe</html>")
	}))
	defer srv.Close()

	e := newEngine(t, Options{UserAgent: "Automater-test"})
	results := e.ExecuteAll(context.Background(), []string{"199.116.248.115"},
		[]models.SiteDefinition{ipSite("verdict", srv.URL, `Malicious|Clean`)})

	require.Len(t, results, 1)
	r := results[0]
	assert.NoError(t, r.Err)
	assert.Equal(t, "199.116.248.115", r.Target)
	assert.Equal(t, models.TargetIP, r.TargetType)
	assert.Equal(t, models.KindSingleSlot, r.Kind)
	assert.True(t, r.Single())
	assert.Equal(t, srv.URL+"?ip=199.116.248.115", r.FullURL)
	assert.Equal(t, []string{"Malicious", "Clean"}, r.Slots[0].Values)
}

func TestExecuteAllMultiSlot(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "country: US\nasn: AS15169\n")
	}))
	defer srv.Close()

	site := ipSite("geo", srv.URL, `country:\s(\w+)`, `asn:\s(\w+)`, `city:\s(\w+)`)
	results := newEngine(t, Options{}).ExecuteAll(context.Background(), []string{"8.8.8.8"}, []models.SiteDefinition{site})

	require.Len(t, results, 1)
	r := results[0]
	assert.Equal(t, models.KindMultiSlot, r.Kind)
	require.Len(t, r.Slots, 3)
	assert.Equal(t, []string{"US"}, r.Slots[0].Values)
	assert.Equal(t, []string{"AS15169"}, r.Slots[1].Values)
	assert.Nil(t, r.Slots[2].Values)
	assert.Equal(t, []string{"geo 0", "geo 1", "geo 2"}, r.SourceLabels())
}

func TestExecuteAllNetworkFailureIsolated(t *testing.T) {
	good := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "Clean")
	}))
	defer good.Close()

	failing := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		fmt.Fprint(w, "<html><head><title>Maintenance</title></head></html>")
	}))
	defer failing.Close()

	closed := httptest.NewServer(http.NotFoundHandler())
	closedURL := closed.URL
	closed.Close()

	sink := &recorder{}
	sites := []models.SiteDefinition{
		ipSite("down", failing.URL, `Clean`),
		ipSite("gone", closedURL, `Clean`),
		ipSite("up", good.URL, `Clean`),
	}
	results := newEngine(t, Options{Sink: sink, Timeout: 2 * time.Second}).
		ExecuteAll(context.Background(), []string{"1.2.3.4"}, sites)

	require.Len(t, results, 3)

	var netErr *models.NetworkError
	require.True(t, errors.As(results[0].Err, &netErr))
	assert.Equal(t, http.StatusServiceUnavailable, netErr.StatusCode)
	assert.Equal(t, "Maintenance", netErr.Title)
	assert.Nil(t, results[0].Slots[0].Values)

	assert.True(t, results[1].Failed())

	assert.NoError(t, results[2].Err)
	assert.Equal(t, []string{"Clean"}, results[2].Slots[0].Values)

	assert.Len(t, sink.kinds(models.EventNetworkError), 2)
	assert.Len(t, sink.kinds(models.EventChecking), 3)
	assert.Len(t, sink.kinds(models.EventDone), 1)
}

func TestExecuteAllOrderingAndTypeFilter(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// later sites answer first
		if r.URL.Path == "/a" {
			time.Sleep(30 * time.Millisecond)
		}
		fmt.Fprint(w, r.URL.Query().Get("ip"))
	}))
	defer srv.Close()

	hashSite := ipSite("hash", srv.URL+"/h", `\w+`)
	hashSite.ApplicableTargetTypes = []models.TargetType{models.TargetMD5}

	sites := []models.SiteDefinition{
		ipSite("a", srv.URL+"/a", `[\d.]+`),
		ipSite("b", srv.URL+"/b", `[\d.]+`),
		hashSite,
	}
	targets := []string{"10.0.0.1", "d41d8cd98f00b204e9800998ecf8427e", "10.0.0.2"}

	results := newEngine(t, Options{Workers: 8}).ExecuteAll(context.Background(), targets, sites)

	var order []string
	for _, r := range results {
		order = append(order, r.Target+"/"+r.Site)
	}
	assert.Equal(t, []string{
		"10.0.0.1/a", "10.0.0.1/b",
		"d41d8cd98f00b204e9800998ecf8427e/hash",
		"10.0.0.2/a", "10.0.0.2/b",
	}, order)
	assert.Equal(t, []string{"10.0.0.2"}, results[4].Slots[0].Values)
}

func TestExecuteAllSourceFilter(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		fmt.Fprint(w, "ok")
	}))
	defer srv.Close()

	sites := []models.SiteDefinition{ipSite("a", srv.URL, `ok`), ipSite("b", srv.URL, `ok`)}
	results := newEngine(t, Options{Sources: []string{"b"}}).
		ExecuteAll(context.Background(), []string{"1.1.1.1"}, sites)

	require.Len(t, results, 1)
	assert.Equal(t, "b", results[0].Site)
	assert.EqualValues(t, 1, hits.Load())
}

func TestExecuteAllNoApplicableSites(t *testing.T) {
	site := ipSite("a", "http://unused.invalid", `x`)
	results := newEngine(t, Options{}).ExecuteAll(context.Background(), []string{"example.com"}, []models.SiteDefinition{site})
	assert.Empty(t, results)
}

func conditionalServer(t *testing.T, posts *atomic.Int32) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			fmt.Fprint(w, "hash unknown, please submit")
		case http.MethodPost:
			posts.Add(1)
			assert.NoError(t, r.ParseForm())
			assert.Equal(t, "application/x-www-form-urlencoded", r.Header.Get("Content-Type"))
			fmt.Fprintf(w, "verdict: bad for %s", r.PostForm.Get("hash"))
		}
	}))
}

func conditionalSite(url string) models.SiteDefinition {
	site := ipSite("sandbox", url+"/submit", `please submit`, `verdict:\s(\w+)`)
	site.FullURLTemplate = url + "/lookup?h=%TARGET%"
	site.ApplicableTargetTypes = []models.TargetType{models.TargetMD5}
	site.Method = models.MethodPost
	site.PostData = map[string]string{"hash": "%TARGET%"}
	return site
}

func TestExecuteAllConditionalPost(t *testing.T) {
	var posts atomic.Int32
	srv := conditionalServer(t, &posts)
	defer srv.Close()

	sink := &recorder{}
	e := newEngine(t, Options{PostByDefault: true, Sink: sink})
	results := e.ExecuteAll(context.Background(), []string{"d41d8cd98f00b204e9800998ecf8427e"},
		[]models.SiteDefinition{conditionalSite(srv.URL)})

	require.Len(t, results, 1)
	r := results[0]
	assert.Equal(t, models.KindConditionalPost, r.Kind)
	assert.True(t, r.Posted)
	assert.Equal(t, srv.URL+"/submit", r.SourceURL)
	assert.Equal(t, []string{"please submit"}, r.Slots[0].Values)
	assert.Equal(t, []string{"bad"}, r.Slots[1].Values)
	assert.EqualValues(t, 1, posts.Load())
	assert.Len(t, sink.kinds(models.EventPostSubmit), 1)
}

func TestExecuteAllConditionalPostDisabled(t *testing.T) {
	var posts atomic.Int32
	srv := conditionalServer(t, &posts)
	defer srv.Close()

	results := newEngine(t, Options{}).ExecuteAll(context.Background(), []string{"d41d8cd98f00b204e9800998ecf8427e"},
		[]models.SiteDefinition{conditionalSite(srv.URL)})

	require.Len(t, results, 1)
	r := results[0]
	assert.False(t, r.Posted)
	assert.Equal(t, []string{"please submit"}, r.Slots[0].Values)
	assert.Nil(t, r.Slots[1].Values)
	assert.Zero(t, posts.Load())
}

func TestExecuteAllDirectPost(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.ParseForm() != nil || r.PostForm.Get("apikey") != "configured" {
			w.WriteHeader(http.StatusForbidden)
			return
		}
		fmt.Fprintf(w, "positives: 7 for %s", r.PostForm.Get("resource"))
	}))
	defer srv.Close()

	site := ipSite("vt", srv.URL, `positives:\s(\d+)`, `for\s(\w+)`)
	site.ApplicableTargetTypes = []models.TargetType{models.TargetMD5}
	site.FullURLTemplate = srv.URL + "/report"
	site.Method = models.MethodPost
	site.PostData = map[string]string{"resource": "%TARGET%", "apikey": "%APIKEY%"}
	site.APIKey = "catalog"

	e := newEngine(t, Options{APIKeys: map[string]string{"vt": "configured"}})
	results := e.ExecuteAll(context.Background(), []string{"D41D8CD98F00B204E9800998ECF8427E"}, []models.SiteDefinition{site})

	require.Len(t, results, 1)
	r := results[0]
	require.NoError(t, r.Err)
	assert.Equal(t, models.KindDirectPost, r.Kind)
	assert.Equal(t, []string{"7"}, r.Slots[0].Values)
	assert.Equal(t, []string{"D41D8CD98F00B204E9800998ECF8427E"}, r.Slots[1].Values)
}

func TestExecuteAllParamsAndHeaders(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, "q=%s h=%s", r.URL.Query().Get("query"), r.Header.Get("X-Target"))
	}))
	defer srv.Close()

	site := ipSite("echo", srv.URL, `q=(\S+)`, `h=(\S+)`)
	site.FullURLTemplate = srv.URL + "/search"
	site.Params = map[string]string{"query": "%TARGET%"}
	site.Headers = map[string]string{"X-Target": "%TARGET%"}

	results := newEngine(t, Options{}).ExecuteAll(context.Background(), []string{"9.9.9.9"}, []models.SiteDefinition{site})

	require.Len(t, results, 1)
	assert.Equal(t, []string{"9.9.9.9"}, results[0].Slots[0].Values)
	assert.Equal(t, []string{"9.9.9.9"}, results[0].Slots[1].Values)
}

func TestExecuteAllStripHTMLAndCharset(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=iso-8859-1")
		w.Write([]byte("<p>Verdict:</p><p>caf\xe9</p>"))
	}))
	defer srv.Close()

	raw := ipSite("raw", srv.URL, `Verdict:\s*(\w+)`)
	stripped := ipSite("stripped", srv.URL, `Verdict:\s*(\S+)`)
	stripped.StripHTML = true

	results := newEngine(t, Options{}).ExecuteAll(context.Background(), []string{"1.1.1.1"},
		[]models.SiteDefinition{raw, stripped})

	require.Len(t, results, 2)
	assert.Nil(t, results[0].Slots[0].Values)
	assert.Equal(t, []string{"café"}, results[1].Slots[0].Values)
}

func TestExecuteAllExtractionErrorIsNoMatch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "Clean")
	}))
	defer srv.Close()

	sink := &recorder{}
	site := ipSite("bad", srv.URL, `(unclosed`, `Clean`)
	results := newEngine(t, Options{Sink: sink}).ExecuteAll(context.Background(), []string{"1.1.1.1"}, []models.SiteDefinition{site})

	require.Len(t, results, 1)
	assert.NoError(t, results[0].Err)
	assert.Nil(t, results[0].Slots[0].Values)
	assert.Equal(t, []string{"Clean"}, results[0].Slots[1].Values)

	events := sink.kinds(models.EventExtractionError)
	require.Len(t, events, 1)
	var exErr *models.ExtractionError
	require.True(t, errors.As(events[0].Err, &exErr))
	assert.Equal(t, 0, exErr.Slot)
}

func TestExecuteAllHTTPProxy(t *testing.T) {
	var seen atomic.Value
	proxySrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen.Store(r.URL.String())
		fmt.Fprint(w, "Malicious")
	}))
	defer proxySrv.Close()

	site := ipSite("remote", "http://lookup.automater.invalid/check", `Malicious`)
	e := newEngine(t, Options{Proxy: proxySrv.Listener.Addr().String()})
	results := e.ExecuteAll(context.Background(), []string{"5.5.5.5"}, []models.SiteDefinition{site})

	require.Len(t, results, 1)
	require.NoError(t, results[0].Err)
	assert.Equal(t, []string{"Malicious"}, results[0].Slots[0].Values)
	assert.Equal(t, "http://lookup.automater.invalid/check?ip=5.5.5.5", seen.Load())
}

func TestExecuteAllDelaySpacesRequestsPerSite(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "ok")
	}))
	defer srv.Close()

	start := time.Now()
	results := newEngine(t, Options{Delay: 50 * time.Millisecond, Workers: 4}).
		ExecuteAll(context.Background(), []string{"1.1.1.1", "1.1.1.2", "1.1.1.3"}, []models.SiteDefinition{ipSite("a", srv.URL, `ok`)})

	assert.Len(t, results, 3)
	assert.GreaterOrEqual(t, time.Since(start), 90*time.Millisecond)
}

func TestExecuteAllCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	sink := &recorder{}
	site := ipSite("a", "http://unused.invalid", `x`)
	results := newEngine(t, Options{Sink: sink}).ExecuteAll(ctx, []string{"1.1.1.1", "1.1.1.2"}, []models.SiteDefinition{site})

	assert.Empty(t, results)
	assert.Len(t, sink.kinds(models.EventSkipped), 2)
}

// fakeFetcher Records the transport chosen for each call
type fakeFetcher struct {
	mu      sync.Mutex
	methods []models.Method
	body    string
}

func (f *fakeFetcher) Fetch(_ context.Context, method models.Method, _ string, _ models.Request) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.methods = append(f.methods, method)
	return f.body, nil
}

func TestExecuteAllWhoisUsesLookup(t *testing.T) {
	fetcher := &fakeFetcher{body: "Registrar: Example Registrar, Inc.\n"}
	site := models.SiteDefinition{
		Name:                  "whois",
		ApplicableTargetTypes: []models.TargetType{models.TargetHostname},
		ReportLabels:          []string{"[+] Registrar:"},
		FriendlyNames:         []string{"Registrar"},
		RegexPatterns:         []string{`Registrar:\s(.+)`},
		ImportantProperties:   []models.ImportantProperty{models.PropertyResults},
		Method:                models.MethodWhois,
	}

	results := newEngine(t, Options{Fetcher: fetcher}).
		ExecuteAll(context.Background(), []string{"example.com"}, []models.SiteDefinition{site})

	require.Len(t, results, 1)
	assert.Equal(t, []models.Method{models.MethodWhois}, fetcher.methods)
	assert.Equal(t, []string{"Example Registrar, Inc."}, results[0].Slots[0].Values)
}
