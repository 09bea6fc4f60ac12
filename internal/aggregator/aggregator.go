// Package aggregator flattens query results into the record stream consumed by the reporters.
package aggregator

import (
	"fmt"
	"slices"
	"strings"

	"osint-automater/internal/models"
)

// DedupMode Duplicate suppression applied while flattening
type DedupMode string

const (
	// DedupConsecutive Drops a record only when it repeats the record emitted just before it
	DedupConsecutive DedupMode = "consecutive"
	// DedupAll Drops every repeat of a (target, type, source, result) tuple
	DedupAll DedupMode = "all"
)

// ParseDedupMode Parses a configured mode; empty selects DedupConsecutive
func ParseDedupMode(s string) (DedupMode, error) {
	switch DedupMode(strings.ToLower(strings.TrimSpace(s))) {
	case "", DedupConsecutive:
		return DedupConsecutive, nil
	case DedupAll:
		return DedupAll, nil
	}
	return "", fmt.Errorf("unknown dedup mode %q (want %s or %s)", s, DedupConsecutive, DedupAll)
}

// Normalize Sorts results by target and fans every slot value out into its own record.
// The sort is stable, so results for the same target keep their query order. A slot with no
// value yields a single "No results found" record; sentinel records are never suppressed.
func Normalize(results []models.QueryResult, mode DedupMode) []models.NormalizedRecord {
	sorted := slices.Clone(results)
	slices.SortStableFunc(sorted, func(a, b models.QueryResult) int {
		return strings.Compare(a.Target, b.Target)
	})

	var records []models.NormalizedRecord
	seen := make(map[[4]string]bool)
	var last [4]string

	emit := func(rec models.NormalizedRecord) {
		if rec.HasResult() {
			key := rec.Key()
			switch mode {
			case DedupAll:
				if seen[key] {
					return
				}
				seen[key] = true
			default:
				if len(records) > 0 && last == key {
					return
				}
			}
		}
		records = append(records, rec)
		last = rec.Key()
	}

	for _, r := range sorted {
		for i, slot := range r.Slots {
			base := models.NormalizedRecord{
				Target:      r.Target,
				TargetType:  r.TargetType,
				Source:      slot.FriendlyName,
				ReportLabel: slot.ReportLabel,
			}

			values := r.Property(i)
			if len(values) == 0 {
				base.Result = models.NoResultsFound
				emit(base)
				continue
			}
			for _, v := range values {
				rec := base
				rec.Result = v
				emit(rec)
			}
		}
	}

	return records
}
