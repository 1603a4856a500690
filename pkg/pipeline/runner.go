package pipeline

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/matzehuels/themecheck/pkg/cache"
	"github.com/matzehuels/themecheck/pkg/errors"
	"github.com/matzehuels/themecheck/pkg/extract"
	"github.com/matzehuels/themecheck/pkg/fetch"
	"github.com/matzehuels/themecheck/pkg/httputil"
	"github.com/matzehuels/themecheck/pkg/observability"
	"github.com/matzehuels/themecheck/pkg/rules"
	"github.com/matzehuels/themecheck/pkg/theme"
	"github.com/matzehuels/themecheck/pkg/themeconfig"
)

// Fetcher retrieves the text behind a URL. [*fetch.Fetcher] implements it.
type Fetcher interface {
	Fetch(ctx context.Context, rawURL string) (string, error)
}

// Runner executes pipeline runs against one response cache.
//
// The cache is written only through the Fetcher; the Runner saves it at
// stage boundaries.
type Runner struct {
	Cache   *cache.ResponseCache
	Fetcher Fetcher
	Logger  *log.Logger
}

// NewRunner creates a runner. A nil cache is replaced by an unpersisted one
// and a nil logger discards output.
func NewRunner(c *cache.ResponseCache, f Fetcher, logger *log.Logger) *Runner {
	if c == nil {
		c = cache.New(nil)
	}
	if logger == nil {
		logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	return &Runner{Cache: c, Fetcher: f, Logger: logger}
}

// Execute runs all stages and evaluates the rules.
func (r *Runner) Execute(ctx context.Context, opts Options) (*Result, error) {
	opts = opts.WithDefaults()
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	logger := r.Logger
	if opts.Logger != nil {
		logger = opts.Logger
	}

	result := &Result{RunID: uuid.NewString(), StartedAt: time.Now()}
	logger.Debug("starting run", "run", result.RunID, "catalog", opts.CatalogURL, "limit", opts.Limit)

	run := &run{
		runner: r,
		opts:   opts,
		logger: logger,
		loader: themeconfig.NewLoader(r.Fetcher, themeconfig.Resolver{
			RepositoryHost: opts.RepositoryHost,
			RawHost:        opts.RawHost,
		}),
		result: result,
	}
	if err := run.execute(ctx); err != nil {
		return nil, err
	}

	result.Rules = rules.Evaluate(result.Themes.Entries, opts.Rules)
	result.Stats.Stats = result.Themes.Stats()
	result.Stats.CachedResponses = r.Cache.Len()
	result.Stats.Duration = time.Since(result.StartedAt)
	return result, nil
}

// run holds the state of one Execute call.
type run struct {
	runner *Runner
	opts   Options
	logger *log.Logger
	loader *themeconfig.Loader
	result *Result
}

func (p *run) execute(ctx context.Context) error {
	themes, err := p.discover(ctx)
	if err != nil {
		return err
	}
	p.result.Themes = themes
	p.logger.Info("themes found in catalog", "count", themes.Len())

	n, err := themes.SelectTargets(p.opts.Limit, p.opts.RepositoryHost)
	if err != nil {
		return err
	}
	p.logger.Info("themes selected", "targets", n, "host", p.opts.RepositoryHost)

	if err := p.stage(ctx, theme.StageResolve, p.resolve); err != nil {
		return err
	}
	if err := p.stage(ctx, theme.StageDownload, p.loader.Load); err != nil {
		return err
	}
	return p.stage(ctx, theme.StageParse, func(_ context.Context, e *theme.Entry) error {
		return p.loader.Parse(e)
	})
}

// discover fetches and extracts the catalog. Every failure here is fatal.
func (p *run) discover(ctx context.Context) (*theme.Collection, error) {
	hooks := observability.Pipeline()
	hooks.OnStageStart(ctx, string(theme.StageCatalog), 0)
	start := time.Now()

	themes, err := p.catalog(ctx)

	n := 0
	if themes != nil {
		n = themes.Len()
	}
	elapsed := time.Since(start)
	hooks.OnStageComplete(ctx, string(theme.StageCatalog), n, elapsed, err)
	if err != nil {
		return nil, fmt.Errorf("catalog: %w", err)
	}
	p.timing(theme.StageCatalog, elapsed)
	if err := p.checkpoint(ctx, theme.StageCatalog); err != nil {
		return nil, err
	}
	return themes, nil
}

func (p *run) catalog(ctx context.Context) (*theme.Collection, error) {
	var html string
	backoff := httputil.Backoff{
		Attempts: p.opts.CatalogAttempts,
		Delay:    p.opts.CatalogRetryDelay,
		OnRetry: func(attempt int, err error) {
			p.logger.Warn("catalog fetch failed, retrying", "attempt", attempt, "err", err)
		},
	}
	err := backoff.Do(ctx, func() error {
		var err error
		html, err = p.runner.Fetcher.Fetch(ctx, p.opts.CatalogURL)
		return err
	})
	if err != nil {
		return nil, err
	}

	items, err := extract.Catalog(html, p.opts.CatalogURL)
	if err != nil {
		return nil, err
	}
	entries := make([]theme.Entry, len(items))
	for i, it := range items {
		entries[i] = theme.Entry{Name: it.Name, RepositoryURL: it.RepositoryURL}
	}
	themes, err := theme.NewCollection(entries)
	if err != nil {
		return nil, err
	}
	for _, e := range themes.Entries {
		p.logger.Debug("catalog entry", "theme", e.Name, "url", e.RepositoryURL)
	}
	return themes, nil
}

// resolve finds the config link on a target's repository page.
func (p *run) resolve(ctx context.Context, e *theme.Entry) error {
	if !e.Active() {
		return nil
	}
	html, err := p.runner.Fetcher.Fetch(ctx, e.RepositoryURL)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if !fetch.Recoverable(err) {
			return fmt.Errorf("theme %q: %w", e.Name, err)
		}
		e.Fail(theme.StageResolve, err)
		return nil
	}

	link, err := extract.ConfigLink(html, e.RepositoryURL)
	if err != nil {
		return fmt.Errorf("theme %q: %w", e.Name, err)
	}
	if link == nil {
		e.Fail(theme.StageResolve, errors.New(errors.ErrCodeNoConfig, "%s: no default config file", e.RepositoryURL))
		if p.opts.DemoteMissingConfig {
			e.IsTarget = false
		}
		return nil
	}

	p.loader.Attach(e, link.Filename, link.URL)
	p.logger.Debug("config link", "theme", e.Name, "file", link.Filename, "raw", e.ConfigRawURL)
	return nil
}

// stage applies fn to every entry concurrently and waits for all of them.
// A failing entry does not cancel its siblings. Recoverable failures
// recorded during the stage are logged once the stage has joined, in entry
// order.
func (p *run) stage(ctx context.Context, stage theme.Stage, fn func(context.Context, *theme.Entry) error) error {
	themes := p.result.Themes
	hooks := observability.Pipeline()
	hooks.OnStageStart(ctx, string(stage), themes.Len())
	start := time.Now()

	var g errgroup.Group
	for i := range themes.Entries {
		e := &themes.Entries[i]
		g.Go(func() error { return fn(ctx, e) })
	}
	err := g.Wait()

	elapsed := time.Since(start)
	hooks.OnStageComplete(ctx, string(stage), themes.Len(), elapsed, err)
	if err != nil {
		return fmt.Errorf("%s: %w", stage, err)
	}
	p.timing(stage, elapsed)

	failed := 0
	for i := range themes.Entries {
		e := &themes.Entries[i]
		if e.Error == nil || e.Error.Stage != stage {
			continue
		}
		failed++
		hooks.OnEntryError(ctx, string(stage), string(e.Error.Code))
		p.logger.Warn("theme skipped", "stage", stage, "theme", e.Name, "code", e.Error.Code, "err", e.Error.Message)
	}
	p.logger.Info(string(stage)+" complete", "failed", failed, "elapsed", elapsed.Round(time.Millisecond))

	return p.checkpoint(ctx, stage)
}

// checkpoint persists the response cache.
func (p *run) checkpoint(ctx context.Context, stage theme.Stage) error {
	n, err := p.runner.Cache.Save(ctx)
	if err != nil {
		return fmt.Errorf("checkpoint after %s: %w", stage, err)
	}
	p.logger.Debug("cache saved", "stage", stage, "entries", n, "path", p.runner.Cache.Backend().Location())
	return nil
}

func (p *run) timing(stage theme.Stage, d time.Duration) {
	p.result.Stats.Stages = append(p.result.Stats.Stages, StageTiming{Stage: stage, Duration: d})
}
