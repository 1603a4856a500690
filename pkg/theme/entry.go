// Package theme models the per-theme crawl state of a run.
//
// An [Entry] is created when the catalog is discovered and enriched by every
// later stage: the repository's config link, the downloaded text, and
// finally the parsed [Document]. Entries are never removed; failures are
// recorded on the entry itself so they can be reported at the end of a run.
//
// A [Collection] owns all entries of a run. Stages receive the collection,
// fan out one task per entry, and each task writes only to its own entry, so
// no per-entry locking is needed.
package theme

import (
	"github.com/matzehuels/themecheck/pkg/errors"
)

// Stage names the pipeline step that produced an error.
type Stage string

const (
	StageCatalog  Stage = "catalog"
	StageResolve  Stage = "resolve"
	StageDownload Stage = "download"
	StageParse    Stage = "parse"
)

// ErrorInfo is the first failure recorded on an entry.
type ErrorInfo struct {
	Stage   Stage       `json:"stage"`
	Code    errors.Code `json:"code"`
	Message string      `json:"message"`
}

// Outcome is the terminal state of an entry.
type Outcome int

const (
	// OutcomePending means the entry is a target that has neither been
	// parsed nor failed yet.
	OutcomePending Outcome = iota
	OutcomeSkipped
	OutcomeErrored
	OutcomeParsed
)

var outcomeNames = [...]string{"pending", "skipped", "errored", "parsed"}

func (o Outcome) String() string {
	if int(o) < len(outcomeNames) {
		return outcomeNames[o]
	}
	return "unknown"
}

// Entry is one catalog item and everything learned about it.
type Entry struct {
	Name          string `json:"name"`
	RepositoryURL string `json:"repository_url"`
	IsTarget      bool   `json:"is_target"`

	ConfigFilename string `json:"config_filename,omitempty"`
	ConfigPageURL  string `json:"config_page_url,omitempty"`
	ConfigRawURL   string `json:"config_raw_url,omitempty"`

	// Downloaded is set once ConfigText holds the fetched file. The text may
	// legitimately be empty.
	Downloaded bool   `json:"downloaded"`
	ConfigText string `json:"-"`

	Config *Document  `json:"-"`
	Error  *ErrorInfo `json:"error,omitempty"`
}

// Fail records err as the entry's error unless one is already set.
// It reports whether err was recorded.
func (e *Entry) Fail(stage Stage, err error) bool {
	if e.Error != nil || err == nil {
		return false
	}
	code := errors.GetCode(err)
	if code == "" {
		code = errors.ErrCodeInternal
	}
	e.Error = &ErrorInfo{Stage: stage, Code: code, Message: err.Error()}
	return true
}

// Active reports whether later stages should still work on the entry.
// Entries that are not targets, or that have failed, are pass-through.
func (e *Entry) Active() bool {
	return e.IsTarget && e.Error == nil
}

// Parsed reports whether the entry carries a parsed configuration.
func (e *Entry) Parsed() bool { return e.Config != nil }

// Outcome classifies the entry. Parsed takes precedence over errored, which
// takes precedence over skipped.
func (e *Entry) Outcome() Outcome {
	switch {
	case e.Config != nil:
		return OutcomeParsed
	case e.Error != nil:
		return OutcomeErrored
	case !e.IsTarget:
		return OutcomeSkipped
	default:
		return OutcomePending
	}
}
