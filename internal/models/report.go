package models

import "time"

// TargetReport Records collected for a single target
type TargetReport struct {
	Target     string             `json:"target"`
	TargetType TargetType         `json:"type"`
	Sources    []string           `json:"sources,omitempty"` // Sources in first-seen order
	Records    []NormalizedRecord `json:"records,omitempty"`
	Hits       int                `json:"hits"` // Records carrying an extracted value
}

// Report Aggregated run result handed to the renderers
type Report struct {
	Timestamp time.Time          `json:"timestamp"`
	UserAgent string             `json:"user_agent,omitempty"`
	Sites     []string           `json:"sites,omitempty"` // Sites that were queried
	Targets   []TargetReport     `json:"targets,omitempty"`
	Records   []NormalizedRecord `json:"records"` // Flattened records, the renderer contract
}

// NewReport Groups normalized records by target, preserving their order
func NewReport(records []NormalizedRecord, sites []string) *Report {
	report := &Report{
		Timestamp: time.Now(),
		Sites:     sites,
		Records:   records,
	}

	index := make(map[string]int)
	for _, rec := range records {
		i, ok := index[rec.Target]
		if !ok {
			i = len(report.Targets)
			index[rec.Target] = i
			report.Targets = append(report.Targets, TargetReport{
				Target:     rec.Target,
				TargetType: rec.TargetType,
			})
		}
		tr := &report.Targets[i]
		tr.Records = append(tr.Records, rec)
		if rec.HasResult() {
			tr.Hits++
		}
		if !containsString(tr.Sources, rec.Source) {
			tr.Sources = append(tr.Sources, rec.Source)
		}
	}

	return report
}

// BySource Groups a target's records by source name, matching the REST response shape
func (t TargetReport) BySource() map[string][]SourceResult {
	out := make(map[string][]SourceResult, len(t.Sources))
	for _, rec := range t.Records {
		out[rec.Source] = append(out[rec.Source], SourceResult{
			Type:   rec.TargetType,
			Result: rec.Result,
		})
	}
	return out
}

// SourceResult One result under a source in the grouped JSON shape
type SourceResult struct {
	Type   TargetType `json:"Type"`
	Result string     `json:"Result"`
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
