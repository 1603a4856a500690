package theme

import (
	"net/url"
	"slices"
	"strings"

	"github.com/matzehuels/themecheck/pkg/errors"
)

// Collection is the arena of all entries of a run, sorted by name.
type Collection struct {
	Entries []Entry
}

// NewCollection validates entries, sorts them by name and returns the arena.
//
// Names must be non-empty and unique, and every repository URL must be an
// absolute http(s) URL. Violations are CONTRACT_VIOLATION errors since they
// mean the catalog markup is not what the extractor expects.
func NewCollection(entries []Entry) (*Collection, error) {
	if len(entries) == 0 {
		return nil, errors.New(errors.ErrCodeContract, "catalog has no entries")
	}
	sorted := slices.Clone(entries)
	slices.SortStableFunc(sorted, func(a, b Entry) int {
		return strings.Compare(a.Name, b.Name)
	})
	for i := range sorted {
		e := &sorted[i]
		if e.Name == "" {
			return nil, errors.New(errors.ErrCodeContract, "catalog entry %d has no name", i)
		}
		if i > 0 && sorted[i-1].Name == e.Name {
			return nil, errors.New(errors.ErrCodeContract, "duplicate catalog entry %q", e.Name)
		}
		if _, err := errors.ValidateAbsoluteURL(e.RepositoryURL); err != nil {
			return nil, errors.Wrap(errors.ErrCodeContract, err, "catalog entry %q", e.Name)
		}
	}
	return &Collection{Entries: sorted}, nil
}

// Len returns the number of entries.
func (c *Collection) Len() int { return len(c.Entries) }

// Get returns the entry with the given name, or nil.
func (c *Collection) Get(name string) *Entry {
	i, found := slices.BinarySearchFunc(c.Entries, name, func(e Entry, name string) int {
		return strings.Compare(e.Name, name)
	})
	if !found {
		return nil
	}
	return &c.Entries[i]
}

// SelectTargets marks the first limit entries, in name order, whose
// repository is an https URL on host with no explicit port. It returns the
// number of entries marked.
func (c *Collection) SelectTargets(limit int, host string) (int, error) {
	if limit < 1 {
		return 0, errors.Invariantf("target limit must be positive, got %d", limit)
	}
	n := 0
	for i := range c.Entries {
		if n == limit {
			break
		}
		e := &c.Entries[i]
		if !onHost(e.RepositoryURL, host) {
			continue
		}
		e.IsTarget = true
		n++
	}
	return n, nil
}

// onHost reports whether rawURL is an https URL on host's default port.
func onHost(rawURL, host string) bool {
	u, err := url.Parse(rawURL)
	if err != nil || u.Scheme != "https" || u.Port() != "" {
		return false
	}
	return strings.EqualFold(u.Hostname(), host)
}

// Stats counts entries at each stage of enrichment.
type Stats struct {
	Discovered int `json:"discovered"`
	Targeted   int `json:"targeted"`
	Resolved   int `json:"resolved"`
	Downloaded int `json:"downloaded"`
	Parsed     int `json:"parsed"`
	Errored    int `json:"errored"`
	Skipped    int `json:"skipped"`

	// ErrorCodes counts errored entries by error code.
	ErrorCodes map[errors.Code]int `json:"error_codes,omitempty"`
}

// Stats summarizes the collection.
func (c *Collection) Stats() Stats {
	s := Stats{Discovered: len(c.Entries)}
	for i := range c.Entries {
		e := &c.Entries[i]
		if e.IsTarget {
			s.Targeted++
		}
		if e.ConfigRawURL != "" {
			s.Resolved++
		}
		if e.Downloaded {
			s.Downloaded++
		}
		switch e.Outcome() {
		case OutcomeParsed:
			s.Parsed++
		case OutcomeErrored:
			s.Errored++
			if s.ErrorCodes == nil {
				s.ErrorCodes = make(map[errors.Code]int)
			}
			s.ErrorCodes[e.Error.Code]++
		case OutcomeSkipped:
			s.Skipped++
		}
	}
	return s
}
