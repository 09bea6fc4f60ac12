package main

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"osint-automater/internal/config"
)

const catalogTemplate = `<?xml version="1.0"?>
<sites>
  <site name="reputation">
    <domainurl>%[1]s</domainurl>
    <fullurl>%[1]s/ip/%%TARGET%%</fullurl>
    <sitetype><entry>ip</entry></sitetype>
    <reportstringforresult><entry>[+] Reputation:</entry></reportstringforresult>
    <sitefriendlyname><entry>Reputation</entry></sitefriendlyname>
    <regex><entry>Reputation:\s([^&lt;]+)</entry></regex>
    <importantproperty><entry>Results</entry></importantproperty>
  </site>
  <site name="hashes">
    <domainurl>%[1]s</domainurl>
    <fullurl>%[1]s/md5/%%TARGET%%</fullurl>
    <sitetype><entry>md5</entry></sitetype>
    <reportstringforresult><entry>[+] Hash:</entry></reportstringforresult>
    <sitefriendlyname><entry>Hash</entry></sitefriendlyname>
    <regex><entry>Hash:\s(\w+)</entry></regex>
    <importantproperty><entry>Results</entry></importantproperty>
  </site>
</sites>`

// workspace Creates an isolated working directory holding a catalog pointed at srv
func workspace(t *testing.T, srv *httptest.Server) string {
	t.Helper()
	dir := t.TempDir()
	t.Chdir(dir)
	t.Setenv("HOME", dir)

	catalog := fmt.Sprintf(catalogTemplate, srv.URL)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "sites.xml"), []byte(catalog), 0o644))
	return dir
}

func reputationServer(t *testing.T) *httptest.Server {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/ip/8.8.8.8":
			fmt.Fprint(w, "<p>Reputation: Clean</p>")
		case "/ip/8.8.8.9":
			fmt.Fprint(w, "<p>Reputation: Malicious</p>")
		case "/ip/8.8.8.7":
			fmt.Fprint(w, "<p>Reputation: http://www.evil.example/payload</p>")
		default:
			fmt.Fprint(w, "<p>unknown</p>")
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	a := newApp()
	var out bytes.Buffer
	a.out = &out

	cmd := newRootCmd(a)
	cmd.SetArgs(args)
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestQueryWritesCSV(t *testing.T) {
	srv := reputationServer(t)
	dir := workspace(t, srv)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "targets.txt"), []byte("8.8.8.8-10\n"), 0o644))

	_, err := execute(t, "targets.txt", "-q", "-d", "0", "-c", "out.csv")
	require.NoError(t, err)

	f, err := os.Open(filepath.Join(dir, "out.csv"))
	require.NoError(t, err)
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	assert.Equal(t, [][]string{
		{"Target", "Type", "Source", "Result"},
		{"8.8.8.10", "ip", "Reputation", "No results found"},
		{"8.8.8.8", "ip", "Reputation", "Clean"},
		{"8.8.8.9", "ip", "Reputation", "Malicious"},
	}, rows)
}

func TestQueryConsoleDefangs(t *testing.T) {
	srv := reputationServer(t)
	dir := workspace(t, srv)

	out, err := execute(t, "8[.]8[.]8[.]7", "-d", "0", "-s", "reputation", "-c", "out.csv")
	require.NoError(t, err)
	assert.Contains(t, out, "8.8.8.7")
	assert.Contains(t, out, "hxxp://www[.]evil.example/payload")
	assert.NotContains(t, out, "http://www.evil.example")

	// files keep the value verbatim
	data, err := os.ReadFile(filepath.Join(dir, "out.csv"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "http://www.evil.example/payload")
}

func TestQueryGroupedJSON(t *testing.T) {
	srv := reputationServer(t)
	dir := workspace(t, srv)

	out, err := execute(t, "8.8.8.8-9", "-d", "0", "--format", "grouped-json", "-g", "grouped.json")
	require.NoError(t, err)

	want := map[string]map[string][]map[string]string{
		"8.8.8.8": {"Reputation": {{"Type": "ip", "Result": "Clean"}}},
		"8.8.8.9": {"Reputation": {{"Type": "ip", "Result": "Malicious"}}},
	}

	var printed map[string]map[string][]map[string]string
	require.NoError(t, json.Unmarshal([]byte(out), &printed))
	assert.Equal(t, want, printed)

	data, err := os.ReadFile(filepath.Join(dir, "grouped.json"))
	require.NoError(t, err)
	var written map[string]map[string][]map[string]string
	require.NoError(t, json.Unmarshal(data, &written))
	assert.Equal(t, want, written)
}

func TestQueryRejectsUnknownFormat(t *testing.T) {
	srv := reputationServer(t)
	workspace(t, srv)

	_, err := execute(t, "8.8.8.8", "--format", "pdf")
	assert.ErrorContains(t, err, "unsupported output format")
}

func TestQueryUnknownSourceReportsNothing(t *testing.T) {
	srv := reputationServer(t)
	dir := workspace(t, srv)

	_, err := execute(t, "8.8.8.8", "-q", "-d", "0", "-s", "nosuchsite", "-j", "out.json")
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(dir, "out.json"))
	require.NoError(t, err)
	assert.NotContains(t, string(data), "Clean")
}

func TestQueryMissingCatalog(t *testing.T) {
	srv := reputationServer(t)
	workspace(t, srv)

	_, err := execute(t, "8.8.8.8", "-q", "--catalog", "missing.xml")
	assert.Error(t, err)
}

func TestSitesCommand(t *testing.T) {
	srv := reputationServer(t)
	workspace(t, srv)

	out, err := execute(t, "sites")
	require.NoError(t, err)
	assert.Contains(t, out, "reputation")
	assert.Contains(t, out, "hashes")
	assert.Contains(t, out, "single")
}

func TestConfigInitAndShow(t *testing.T) {
	srv := reputationServer(t)
	dir := workspace(t, srv)

	_, err := execute(t, "config", "init", "--workers", "7")
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(dir, config.FileName))
	require.NoError(t, err)
	var saved config.Config
	require.NoError(t, yaml.Unmarshal(data, &saved))
	assert.Equal(t, 7, saved.Workers)

	// the written file is picked up from the working directory
	out, err := execute(t, "config", "show")
	require.NoError(t, err)
	assert.Contains(t, out, "workers: 7")
}

func TestRefreshCommand(t *testing.T) {
	srv := reputationServer(t)
	dir := workspace(t, srv)

	remote := strings.Replace(fmt.Sprintf(catalogTemplate, srv.URL), "reputation", "renamed", 1)
	catalogSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, remote)
	}))
	defer catalogSrv.Close()

	_, err := execute(t, "refresh", "--url", catalogSrv.URL)
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(dir, "sites.xml"))
	require.NoError(t, err)
	assert.Equal(t, remote, string(data))

	_, err = execute(t, "refresh")
	assert.Error(t, err)
}

func TestRootHelpQuotesSourceList(t *testing.T) {
	srv := reputationServer(t)
	workspace(t, srv)

	out, err := execute(t)
	require.NoError(t, err)
	assert.Contains(t, out, `automater -s "robtex;fortinet_classify" example.com`)
}
