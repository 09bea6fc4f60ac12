package models

// NoResultsFound Sentinel result recorded for a slot that was queried but produced nothing
const NoResultsFound = "No results found"

// SlotResult Outcome of one extraction slot.
// A nil Values means the site was queried but the slot had nothing to report.
type SlotResult struct {
	ReportLabel  string            `json:"report_label"`
	FriendlyName string            `json:"friendly_name"`
	Property     ImportantProperty `json:"property"`
	Values       []string          `json:"values"`
}

// QueryResult Outcome of querying one site for one target.
// Built once all applicable patterns have been applied and never modified afterwards.
type QueryResult struct {
	Target     string       `json:"target"`
	TargetType TargetType   `json:"target_type"`
	Site       string       `json:"site"`
	Kind       SiteKind     `json:"-"`
	FullURL    string       `json:"full_url"`
	SourceURL  string       `json:"source_url"`
	Posted     bool         `json:"posted,omitempty"`
	Slots      []SlotResult `json:"slots"`
	Err        error        `json:"-"`
}

// Single Reports whether the originating site has exactly one slot
func (r QueryResult) Single() bool {
	return len(r.Slots) == 1
}

// Failed Reports whether the fetch for this pair failed
func (r QueryResult) Failed() bool {
	return r.Err != nil
}

// SourceLabels Friendly names parallel to the slots
func (r QueryResult) SourceLabels() []string {
	labels := make([]string, len(r.Slots))
	for i, s := range r.Slots {
		labels[i] = s.FriendlyName
	}
	return labels
}

// Property Resolves the reportable value of a slot through its important property.
// Scalar properties yield a single element so a string is never split into characters.
func (r QueryResult) Property(index int) []string {
	if index < 0 || index >= len(r.Slots) {
		return nil
	}
	slot := r.Slots[index]
	switch slot.Property {
	case PropertyTarget:
		return scalar(r.Target)
	case PropertyFullURL:
		return scalar(r.FullURL)
	case PropertySourceURL:
		return scalar(r.SourceURL)
	default:
		if len(slot.Values) == 0 {
			return nil
		}
		return slot.Values
	}
}

func scalar(v string) []string {
	if v == "" {
		return nil
	}
	return []string{v}
}

// NormalizedRecord Flattened (target, type, source, result) tuple consumed by every renderer
type NormalizedRecord struct {
	Target      string     `json:"target"`
	TargetType  TargetType `json:"type"`
	Source      string     `json:"source"`
	Result      string     `json:"result"`
	ReportLabel string     `json:"report_label,omitempty"`
}

// HasResult Reports whether the record carries an extracted value rather than the sentinel
func (r NormalizedRecord) HasResult() bool {
	return r.Result != NoResultsFound
}

// Key Tuple used for duplicate suppression
func (r NormalizedRecord) Key() [4]string {
	return [4]string{r.Target, string(r.TargetType), r.Source, r.Result}
}
