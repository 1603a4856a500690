// Package themeconfig downloads and parses theme configuration files.
//
// The [Loader] works on one [theme.Entry] at a time and never fails the run
// for a problem with a single theme: unreachable files and malformed YAML are
// recorded on the entry. Only formats the loader does not implement yet
// (JSON) and broken caller contracts are returned as errors.
package themeconfig

import (
	"context"
	"path"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/matzehuels/themecheck/pkg/errors"
	"github.com/matzehuels/themecheck/pkg/theme"
)

// Fetcher retrieves the text behind a URL.
type Fetcher interface {
	Fetch(ctx context.Context, rawURL string) (string, error)
}

// Loader resolves, downloads and parses config files.
type Loader struct {
	fetcher  Fetcher
	resolver Resolver
}

// NewLoader creates a Loader that downloads through f.
func NewLoader(f Fetcher, r Resolver) *Loader {
	return &Loader{fetcher: f, resolver: r.withDefaults()}
}

// Attach records the config link found on the entry's repository page and
// derives its raw-content URL. A link that cannot be mapped is recorded as
// the entry's error.
func (l *Loader) Attach(e *theme.Entry, filename, pageURL string) {
	e.ConfigFilename = filename
	e.ConfigPageURL = pageURL

	raw, err := l.resolver.RawURL(pageURL)
	if err != nil {
		e.Fail(theme.StageResolve, err)
		return
	}
	e.ConfigRawURL = raw
}

// Load downloads the entry's config file. Entries without a raw URL, and
// entries that already failed, are left untouched. Every fetch failure is
// recorded on the entry; only cancellation is returned.
func (l *Loader) Load(ctx context.Context, e *theme.Entry) error {
	if !e.Active() || e.ConfigRawURL == "" {
		return nil
	}
	text, err := l.fetcher.Fetch(ctx, e.ConfigRawURL)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		e.Fail(theme.StageDownload, err)
		return nil
	}
	e.ConfigText = text
	e.Downloaded = true
	return nil
}

// Parse decodes the downloaded text according to the file extension.
//
// YAML errors are recorded on the entry. A JSON config returns an
// UNSUPPORTED error, and any other extension an INVARIANT error, since the
// extractor only ever yields these two.
func (l *Loader) Parse(e *theme.Entry) error {
	if !e.Downloaded || e.Error != nil {
		return nil
	}
	switch ext := strings.ToLower(path.Ext(e.ConfigFilename)); ext {
	case ".yml", ".yaml":
		doc, err := ParseYAML(e.ConfigText)
		if err != nil {
			e.Fail(theme.StageParse, errors.Wrap(errors.ErrCodeParse, err, "%s", e.ConfigRawURL))
			return nil
		}
		e.Config = doc
		return nil
	case ".json":
		return errors.New(errors.ErrCodeUnsupported, "theme %q: JSON config files are not supported (%s)", e.Name, e.ConfigRawURL)
	default:
		return errors.Invariantf("theme %q: unexpected config file %q", e.Name, e.ConfigFilename)
	}
}

// ParseYAML decodes the first document of text.
func ParseYAML(text string) (*theme.Document, error) {
	var root any
	if err := yaml.Unmarshal([]byte(text), &root); err != nil {
		return nil, err
	}
	return theme.NewDocument(root), nil
}
