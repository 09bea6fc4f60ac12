package collector

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	vt "github.com/VirusTotal/vt-go"
	"github.com/shadowscatcher/shodan"
	"github.com/shadowscatcher/shodan/search"

	"osint-automater/internal/models"
)

var errNoAPIKey = errors.New("no API key configured")

// virusTotalPaths VirusTotal v3 object path per target type
var virusTotalPaths = map[models.TargetType]string{
	models.TargetIP:       "ip_addresses/%s",
	models.TargetHostname: "domains/%s",
	models.TargetMD5:      "files/%s",
}

// virusTotal Fetches the target's VirusTotal object. The body is the JSON of the object so
// patterns can match attributes such as "malicious": 3. The client shares the fetcher's
// transport, so proxy and timeout apply.
func (f *HTTPFetcher) virusTotal(ctx context.Context, req models.Request) (string, error) {
	source := "virustotal://" + req.Target
	if req.APIKey == "" {
		return "", &models.NetworkError{URL: source, Err: errNoAPIKey}
	}
	path, ok := virusTotalPaths[req.TargetType]
	if !ok {
		return "", &models.NetworkError{URL: source, Err: fmt.Errorf("unsupported target type %q", req.TargetType)}
	}

	return await(ctx, source, func() (string, error) {
		client := vt.NewClient(req.APIKey, vt.WithHTTPClient(f.client))
		resp, err := client.Get(vt.URL(path, req.Target))
		if err != nil {
			return "", err
		}
		return string(resp.Data), nil
	})
}

// shodanHost Fetches the Shodan host document of an IP target
func (f *HTTPFetcher) shodanHost(ctx context.Context, req models.Request) (string, error) {
	source := "shodan://" + req.Target
	if req.APIKey == "" {
		return "", &models.NetworkError{URL: source, Err: errNoAPIKey}
	}
	if req.TargetType != models.TargetIP {
		return "", &models.NetworkError{URL: source, Err: fmt.Errorf("host lookup needs an ip target, got %q", req.TargetType)}
	}

	client, err := f.shodanClient(req.APIKey)
	if err != nil {
		return "", &models.NetworkError{URL: source, Err: err}
	}
	host, err := client.Host(ctx, search.HostParams{IP: req.Target})
	if err != nil {
		return "", &models.NetworkError{URL: source, Err: err}
	}
	data, err := json.Marshal(host)
	if err != nil {
		return "", &models.NetworkError{URL: source, Err: err}
	}
	return string(data), nil
}

// shodanClient One client per key, sharing the fetcher's transport and proxy
func (f *HTTPFetcher) shodanClient(key string) (*shodan.Client, error) {
	if c, ok := f.shodan.Load(key); ok {
		return c.(*shodan.Client), nil
	}
	c, err := shodan.GetClient(key, f.client, false)
	if err != nil {
		return nil, err
	}
	actual, _ := f.shodan.LoadOrStore(key, c)
	return actual.(*shodan.Client), nil
}

// await Runs a lookup whose client has no context support in its own goroutine. On
// cancellation the lookup is abandoned and its answer discarded.
func await(ctx context.Context, source string, lookup func() (string, error)) (string, error) {
	type answer struct {
		text string
		err  error
	}
	done := make(chan answer, 1)
	go func() {
		text, err := lookup()
		done <- answer{text, err}
	}()

	select {
	case <-ctx.Done():
		return "", &models.NetworkError{URL: source, Err: ctx.Err()}
	case a := <-done:
		if a.err != nil {
			return "", &models.NetworkError{URL: source, Err: a.err}
		}
		return a.text, nil
	}
}
