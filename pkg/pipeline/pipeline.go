// Package pipeline provides the crawl-and-check pipeline for themecheck.
//
// A run walks the whole theme catalog through four stages:
//
//  1. Catalog: fetch the catalog page and extract the sorted, unique theme list
//  2. Resolve: fetch each target's repository page and find its config link
//  3. Download: fetch each config file's raw content
//  4. Parse: decode each downloaded config
//
// The parsed configs are then checked by the rule engine. Every stage fans
// out one goroutine per entry and joins before the next stage starts; the
// shared [fetch.Fetcher] is the only throttle. The response cache is saved
// after each stage, so an interrupted run resumes without refetching.
//
// # Failure policy
//
// Problems with a single theme (missing page, no config file, invalid YAML)
// are recorded on its [theme.Entry] and never stop the run. An unreachable
// catalog, malformed markup, a JSON config or a cache failure ends the run
// with an error.
//
// # Usage
//
//	runner := pipeline.NewRunner(responses, fetcher, logger)
//	result, err := runner.Execute(ctx, pipeline.Options{Limit: 10})
//	if err != nil {
//	    return err
//	}
//	for _, r := range result.Rules {
//	    fmt.Println(r.Label, r.RatioString())
//	}
//
// [fetch.Fetcher]: github.com/matzehuels/themecheck/pkg/fetch.Fetcher
package pipeline

import (
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/themecheck/pkg/errors"
	"github.com/matzehuels/themecheck/pkg/rules"
	"github.com/matzehuels/themecheck/pkg/theme"
	"github.com/matzehuels/themecheck/pkg/themeconfig"
)

// =============================================================================
// Default Values
// =============================================================================

const (
	// DefaultCatalogURL is the theme catalog crawled by default.
	DefaultCatalogURL = "https://hexo.io/themes/"

	// DefaultLimit is the number of themes deep-crawled when no limit is given.
	DefaultLimit = 1

	// DefaultCatalogAttempts is the number of catalog fetch attempts.
	DefaultCatalogAttempts = 3

	// DefaultCatalogRetryDelay is the wait before the second catalog attempt.
	DefaultCatalogRetryDelay = time.Second
)

// =============================================================================
// Options
// =============================================================================

// Options configures one pipeline run.
type Options struct {
	CatalogURL string `json:"catalog_url"`

	// Limit bounds the number of themes whose repository is crawled.
	Limit int `json:"limit"`

	RepositoryHost string `json:"repository_host"`
	RawHost        string `json:"raw_host"`

	// DemoteMissingConfig clears IsTarget on themes whose repository page
	// has no config link. The NO_CONFIG error is recorded either way.
	DemoteMissingConfig bool `json:"demote_missing_config,omitempty"`

	CatalogAttempts   int           `json:"catalog_attempts"`
	CatalogRetryDelay time.Duration `json:"-"`

	// Rules defaults to [rules.Default].
	Rules []rules.Rule `json:"-"`

	Logger *log.Logger `json:"-"`
}

// WithDefaults returns a copy of o with zero values replaced by defaults.
func (o Options) WithDefaults() Options {
	if o.CatalogURL == "" {
		o.CatalogURL = DefaultCatalogURL
	}
	if o.Limit == 0 {
		o.Limit = DefaultLimit
	}
	if o.RepositoryHost == "" {
		o.RepositoryHost = themeconfig.DefaultRepositoryHost
	}
	if o.RawHost == "" {
		o.RawHost = themeconfig.DefaultRawHost
	}
	if o.CatalogAttempts <= 0 {
		o.CatalogAttempts = DefaultCatalogAttempts
	}
	if o.CatalogRetryDelay <= 0 {
		o.CatalogRetryDelay = DefaultCatalogRetryDelay
	}
	if o.Rules == nil {
		o.Rules = rules.Default
	}
	return o
}

// Validate checks options after defaults have been applied.
func (o Options) Validate() error {
	if o.Limit < 1 {
		return errors.New(errors.ErrCodeUsage, "limit must be a positive integer, got %d", o.Limit)
	}
	if _, err := errors.ValidateAbsoluteURL(o.CatalogURL); err != nil {
		return errors.Wrap(errors.ErrCodeUsage, err, "catalog url")
	}
	return nil
}

// =============================================================================
// Result
// =============================================================================

// Result is the outcome of a completed run.
type Result struct {
	// RunID identifies the run in logs and reports.
	RunID string

	StartedAt time.Time

	// Themes holds every catalog entry, including skipped and failed ones.
	Themes *theme.Collection

	// Rules holds one result per rule, in rule order.
	Rules []rules.Result

	Stats Stats
}

// Stats contains counts and timings for a run.
type Stats struct {
	theme.Stats

	// CachedResponses is the number of responses in the cache at the end.
	CachedResponses int `json:"cached_responses"`

	Stages   []StageTiming `json:"stages"`
	Duration time.Duration `json:"duration"`
}

// StageTiming records how long a stage took.
type StageTiming struct {
	Stage    theme.Stage   `json:"stage"`
	Duration time.Duration `json:"duration"`
}
