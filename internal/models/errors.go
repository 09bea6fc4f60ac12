package models

import (
	"errors"
	"fmt"
)

// ErrNoSites No usable site definition survived loading
var ErrNoSites = errors.New("no usable site definitions in catalog")

// ConfigError Malformed or inconsistent site definition. The definition is skipped.
type ConfigError struct {
	Site   string
	Reason string
}

func (e *ConfigError) Error() string {
	if e.Site == "" {
		return fmt.Sprintf("site definition rejected: %s", e.Reason)
	}
	return fmt.Sprintf("site definition %q rejected: %s", e.Site, e.Reason)
}

// NetworkError Connection, timeout or HTTP status failure for one request
type NetworkError struct {
	URL        string
	StatusCode int
	Title      string
	Err        error
}

func (e *NetworkError) Error() string {
	msg := "cannot connect to " + e.URL
	if e.StatusCode != 0 {
		msg = fmt.Sprintf("%s: status code %d", msg, e.StatusCode)
	}
	if e.Title != "" {
		msg = fmt.Sprintf("%s (%s)", msg, e.Title)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *NetworkError) Unwrap() error { return e.Err }

// ExtractionError Pattern compile or match failure. Treated as "no match".
type ExtractionError struct {
	Site    string
	Slot    int
	Pattern string
	Err     error
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("cannot scrape %s slot %d with %q: %v", e.Site, e.Slot, e.Pattern, e.Err)
}

func (e *ExtractionError) Unwrap() error { return e.Err }

// InputError Missing or unreadable target input. Fatal before any querying starts.
type InputError struct {
	Path string
	Err  error
}

func (e *InputError) Error() string {
	return fmt.Sprintf("there was an error reading from the target input %s: %v", e.Path, e.Err)
}

func (e *InputError) Unwrap() error { return e.Err }
