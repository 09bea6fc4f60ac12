package collector

import (
	"context"
	"fmt"

	"osint-automater/internal/models"
)

// job One (target, site) pair scheduled on the pool
type job struct {
	site models.SiteDefinition
	req  models.Request
	kind models.SiteKind
}

// execute Runs a job with the strategy selected by its kind
func (e *Engine) execute(ctx context.Context, j job) models.QueryResult {
	result := models.QueryResult{
		Target:     j.req.Target,
		TargetType: j.req.TargetType,
		Site:       j.site.Name,
		Kind:       j.kind,
		FullURL:    j.req.FullURL,
		SourceURL:  j.req.SourceURL,
		Slots:      emptySlots(j.site),
	}
	if result.SourceURL == "" {
		result.SourceURL = result.FullURL
	}

	e.emit(models.Event{
		Kind:    models.EventChecking,
		Site:    j.site.Name,
		Target:  j.req.Target,
		URL:     result.SourceURL,
		Message: fmt.Sprintf("checking %s for %s", j.site.Name, j.req.Target),
	})

	switch j.kind {
	case models.KindConditionalPost:
		e.conditionalPost(ctx, j, &result)
	case models.KindDirectPost:
		e.fetchAndExtract(ctx, j, models.MethodPost, j.req.FullURL, &result)
	default:
		// single and multi slot sites share a fetch, extraction fills however many slots exist
		e.fetchAndExtract(ctx, j, j.req.Method, j.req.FullURL, &result)
	}

	return result
}

// fetchAndExtract One request, every slot extracted from its body
func (e *Engine) fetchAndExtract(ctx context.Context, j job, method models.Method, target string, result *models.QueryResult) {
	body, err := e.fetch(ctx, j, method, target)
	if err != nil {
		result.Err = err
		return
	}
	content := e.prepare(j.site, body)
	for i := range result.Slots {
		result.Slots[i].Values = e.extract(j, i, content)
	}
}

// conditionalPost The first pattern probes the GET body. When it matches and posting is
// enabled the post data is submitted to the source URL and the remaining patterns run against
// the response; otherwise they run against the GET body.
func (e *Engine) conditionalPost(ctx context.Context, j job, result *models.QueryResult) {
	body, err := e.fetch(ctx, j, models.MethodGet, j.req.FullURL)
	if err != nil {
		result.Err = err
		return
	}

	content := e.prepare(j.site, body)
	probe := e.extract(j, 0, content)
	result.Slots[0].Values = probe

	if len(probe) > 0 && e.opts.PostByDefault {
		e.emit(models.Event{
			Kind:    models.EventPostSubmit,
			Site:    j.site.Name,
			Target:  j.req.Target,
			URL:     result.SourceURL,
			Message: fmt.Sprintf("submitting %s to %s", j.req.Target, result.SourceURL),
		})

		posted, err := e.fetch(ctx, j, models.MethodPost, result.SourceURL)
		if err != nil {
			result.Err = err
			return
		}
		result.Posted = true
		content = e.prepare(j.site, posted)
	}

	for i := 1; i < len(result.Slots); i++ {
		result.Slots[i].Values = e.extract(j, i, content)
	}
}

func (e *Engine) fetch(ctx context.Context, j job, method models.Method, target string) (string, error) {
	body, err := e.fetcher.Fetch(ctx, method, target, j.req)
	if err != nil {
		e.emit(models.Event{
			Kind:   models.EventNetworkError,
			Site:   j.site.Name,
			Target: j.req.Target,
			URL:    target,
			Err:    err,
		})
		return "", err
	}
	return body, nil
}

func (e *Engine) prepare(site models.SiteDefinition, body string) string {
	if site.StripHTML {
		return htmlText(body)
	}
	return body
}

// extract Matches for one slot. A failing pattern is reported and treated as no match.
func (e *Engine) extract(j job, slot int, content string) []string {
	pattern := j.site.RegexPatterns[slot]
	values, err := e.extractor.FindAll(pattern, content)
	if err != nil {
		e.emit(models.Event{
			Kind:   models.EventExtractionError,
			Site:   j.site.Name,
			Target: j.req.Target,
			Err:    &models.ExtractionError{Site: j.site.Name, Slot: slot, Pattern: pattern, Err: err},
		})
		return nil
	}
	return values
}

// emptySlots Slot skeleton with labels resolved and no values
func emptySlots(site models.SiteDefinition) []models.SlotResult {
	slots := make([]models.SlotResult, site.Slots())
	for i := range slots {
		slots[i] = models.SlotResult{
			ReportLabel:  at(site.ReportLabels, i),
			FriendlyName: at(site.FriendlyNames, i),
		}
		if i < len(site.ImportantProperties) {
			slots[i].Property = site.ImportantProperties[i]
		}
	}
	return slots
}

func at(list []string, i int) string {
	if i < len(list) {
		return list[i]
	}
	return ""
}
