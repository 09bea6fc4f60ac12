package collector

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"osint-automater/internal/catalog"
	"osint-automater/internal/models"
	"osint-automater/internal/target"
)

// DefaultWorkers Concurrent (target, site) pairs when none is configured
const DefaultWorkers = 4

// Options Run-wide settings of the engine
type Options struct {
	Sources       []string          // Site names to query, empty for all
	Delay         time.Duration     // Minimum spacing between requests to the same site
	Proxy         string            // HTTP or socks5:// proxy
	UserAgent     string            // User-Agent header
	PostByDefault bool              // Allow conditional posts
	Workers       int               // Pool size
	Timeout       time.Duration     // Per-request timeout
	APIKeys       map[string]string // Per-site keys overriding the catalog
	Sink          models.EventSink  // Diagnostics, discarded when nil
	Fetcher       Fetcher           // Transport, an HTTPFetcher built from the options when nil
}

// Engine Schedules every applicable (target, site) pair and collects their results
type Engine struct {
	opts      Options
	fetcher   Fetcher
	extractor *Extractor
}

// New Creates an engine
func New(opts Options) (*Engine, error) {
	if opts.Workers <= 0 {
		opts.Workers = DefaultWorkers
	}
	if opts.Sink == nil {
		opts.Sink = models.DiscardSink
	}

	fetcher := opts.Fetcher
	if fetcher == nil {
		f, err := NewHTTPFetcher(FetcherOptions{
			Proxy:     opts.Proxy,
			UserAgent: opts.UserAgent,
			Timeout:   opts.Timeout,
		})
		if err != nil {
			return nil, err
		}
		fetcher = f
	}

	return &Engine{
		opts:      opts,
		fetcher:   fetcher,
		extractor: NewExtractor(0),
	}, nil
}

// ExecuteAll Queries every site applicable to each target.
// Results are ordered by target input order, then catalog order, regardless of completion
// order. A failing pair yields a result with Err set and never stops the others. On
// cancellation pairs that have not started are skipped.
func (e *Engine) ExecuteAll(ctx context.Context, targets []string, sites []models.SiteDefinition) []models.QueryResult {
	selected := catalog.Filter(sites, e.opts.Sources)
	jobs := e.plan(targets, selected)
	if len(jobs) == 0 {
		return nil
	}

	limiters := make(map[string]*rate.Limiter, len(selected))
	for _, site := range selected {
		limiters[site.Name] = newLimiter(e.opts.Delay)
	}

	results := make([]models.QueryResult, len(jobs))
	ran := make([]bool, len(jobs))

	var mutex sync.Mutex
	var wg sync.WaitGroup

	indexes := make(chan int, len(jobs))

	workers := min(e.opts.Workers, len(jobs))
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range indexes {
				j := jobs[i]
				if err := limiters[j.site.Name].Wait(ctx); err != nil {
					e.emit(models.Event{
						Kind:   models.EventSkipped,
						Site:   j.site.Name,
						Target: j.req.Target,
						Err:    err,
					})
					continue
				}

				result := e.execute(ctx, j)

				mutex.Lock()
				results[i] = result
				ran[i] = true
				mutex.Unlock()
			}
		}()
	}

	for i := range jobs {
		indexes <- i
	}
	close(indexes)

	wg.Wait()

	out := make([]models.QueryResult, 0, len(jobs))
	for i, r := range results {
		if ran[i] {
			out = append(out, r)
		}
	}

	e.emit(models.Event{
		Kind:    models.EventDone,
		Message: fmt.Sprintf("%d of %d queries completed", len(out), len(jobs)),
	})
	return out
}

// plan Builds one job per applicable pair in target-major order
func (e *Engine) plan(targets []string, sites []models.SiteDefinition) []job {
	var jobs []job
	for _, t := range targets {
		tt := target.Classify(t)
		for _, site := range sites {
			if !site.Accepts(tt) {
				continue
			}
			apiKey := resolveAPIKey(site, e.opts.APIKeys)
			jobs = append(jobs, job{
				site: site,
				req:  BuildRequest(site, t, tt, apiKey),
				kind: site.Kind(apiKey),
			})
		}
	}
	return jobs
}

func (e *Engine) emit(ev models.Event) {
	e.opts.Sink.Emit(ev)
}

// newLimiter Burst of one so the first request to a site goes out immediately
func newLimiter(delay time.Duration) *rate.Limiter {
	if delay <= 0 {
		return rate.NewLimiter(rate.Inf, 1)
	}
	return rate.NewLimiter(rate.Every(delay), 1)
}
