package collector

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/likexian/whois"
	"golang.org/x/net/html/charset"
	"golang.org/x/net/proxy"

	"osint-automater/internal/models"
)

const (
	// DefaultUserAgent Sent when no user agent is configured
	DefaultUserAgent = "Automater/2.1"
	// DefaultTimeout Per-request timeout
	DefaultTimeout = 10 * time.Second

	maxBodySize = 8 << 20
)

// Fetcher Retrieves the content a site's patterns run against.
// method is the transport for this call, which differs from req.Method for the probe of a
// conditional post.
type Fetcher interface {
	Fetch(ctx context.Context, method models.Method, target string, req models.Request) (string, error)
}

// FetcherOptions Transport settings shared by every request of a run
type FetcherOptions struct {
	Proxy     string
	UserAgent string
	Timeout   time.Duration
}

// HTTPFetcher Fetcher backed by net/http for GET and POST, a WHOIS client, and the
// VirusTotal and Shodan API clients
type HTTPFetcher struct {
	client    *http.Client
	whois     *whois.Client
	shodan    sync.Map // API key -> *shodan.Client
	userAgent string
}

// NewHTTPFetcher Builds the shared client. A socks5:// proxy is dialed through x/net/proxy,
// anything else is treated as an HTTP proxy.
func NewHTTPFetcher(opts FetcherOptions) (*HTTPFetcher, error) {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.UserAgent == "" {
		opts.UserAgent = DefaultUserAgent
	}

	transport := http.DefaultTransport.(*http.Transport).Clone()
	wc := whois.NewClient().SetTimeout(opts.Timeout)

	if opts.Proxy != "" {
		u, err := parseProxy(opts.Proxy)
		if err != nil {
			return nil, err
		}
		if strings.HasPrefix(u.Scheme, "socks5") {
			dialer, err := proxy.FromURL(u, proxy.Direct)
			if err != nil {
				return nil, fmt.Errorf("proxy %s: %w", opts.Proxy, err)
			}
			transport.Proxy = nil
			transport.DialContext = dialContext(dialer)
			wc.SetDialer(dialer)
		} else {
			transport.Proxy = http.ProxyURL(u)
		}
	}

	return &HTTPFetcher{
		client:    &http.Client{Timeout: opts.Timeout, Transport: transport},
		whois:     wc,
		userAgent: opts.UserAgent,
	}, nil
}

func parseProxy(raw string) (*url.URL, error) {
	if !strings.Contains(raw, "://") {
		raw = "http://" + raw
	}
	u, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("invalid proxy %q: %w", raw, err)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("invalid proxy %q: missing host", raw)
	}
	return u, nil
}

func dialContext(d proxy.Dialer) func(ctx context.Context, network, addr string) (net.Conn, error) {
	if cd, ok := d.(proxy.ContextDialer); ok {
		return cd.DialContext
	}
	return func(_ context.Context, network, addr string) (net.Conn, error) {
		return d.Dial(network, addr)
	}
}

// Fetch Performs one request and returns the decoded body
func (f *HTTPFetcher) Fetch(ctx context.Context, method models.Method, target string, req models.Request) (string, error) {
	switch method {
	case models.MethodWhois:
		return f.lookup(ctx, req.Target)
	case models.MethodVirusTotal:
		return f.virusTotal(ctx, req)
	case models.MethodShodan:
		return f.shodanHost(ctx, req)
	case models.MethodPost:
		return f.do(ctx, http.MethodPost, target, req)
	default:
		return f.do(ctx, http.MethodGet, target, req)
	}
}

func (f *HTTPFetcher) do(ctx context.Context, method, target string, req models.Request) (string, error) {
	u, err := withQuery(target, req.Params)
	if err != nil {
		return "", &models.NetworkError{URL: target, Err: err}
	}

	var body io.Reader
	if method == http.MethodPost {
		body = strings.NewReader(encodeForm(req.PostData))
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		return "", &models.NetworkError{URL: target, Err: err}
	}

	httpReq.Header.Set("User-Agent", f.userAgent)
	httpReq.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	if method == http.MethodPost {
		httpReq.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	for k, v := range req.Headers {
		httpReq.Header.Set(k, v)
	}

	resp, err := f.client.Do(httpReq)
	if err != nil {
		return "", &models.NetworkError{URL: target, Err: err}
	}
	defer resp.Body.Close()

	content, err := readBody(resp)
	if resp.StatusCode >= http.StatusBadRequest {
		return "", &models.NetworkError{
			URL:        target,
			StatusCode: resp.StatusCode,
			Title:      pageTitle(content),
		}
	}
	if err != nil {
		return "", &models.NetworkError{URL: target, Err: err}
	}

	return content, nil
}

// readBody Reads a bounded body and converts it to UTF-8 using the declared charset
func readBody(resp *http.Response) (string, error) {
	r, err := charset.NewReader(io.LimitReader(resp.Body, maxBodySize), resp.Header.Get("Content-Type"))
	if err != nil {
		return "", err
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// withQuery Appends params to the URL's query string
func withQuery(target string, params map[string]string) (string, error) {
	if len(params) == 0 {
		return target, nil
	}
	u, err := url.Parse(target)
	if err != nil {
		return "", err
	}
	q := u.Query()
	for k, v := range params {
		q.Set(k, v)
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}

func encodeForm(data map[string]string) string {
	form := url.Values{}
	for k, v := range data {
		form.Set(k, v)
	}
	return form.Encode()
}
