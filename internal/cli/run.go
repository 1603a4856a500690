package cli

import (
	stderrors "errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/matzehuels/themecheck/pkg/cache"
	"github.com/matzehuels/themecheck/pkg/errors"
	"github.com/matzehuels/themecheck/pkg/fetch"
	"github.com/matzehuels/themecheck/pkg/observability"
	"github.com/matzehuels/themecheck/pkg/pipeline"
)

// runFlags holds the flags of the run command.
type runFlags struct {
	catalogURL  string
	concurrency int
	rps         float64
	timeout     time.Duration
	demote      bool
	noCache     bool
	metricsFile string
	reportFile  string
}

// runCommand creates the run command.
func (c *CLI) runCommand() *cobra.Command {
	var flags runFlags

	cmd := &cobra.Command{
		Use:   "run [limit]",
		Short: "Crawl the catalog and check theme configs",
		Long: `Crawl the theme catalog and deep-crawl the first [limit] themes hosted on
GitHub (default 1), in name order. Responses are cached, so an interrupted or
repeated run only fetches what it has not seen before.`,
		Example: `  themecheck run
  themecheck run 50 --report report.json
  themecheck run 400 --redis-url redis://localhost:6379/0 --rps 5`,
		Args: limitArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			limit := pipeline.DefaultLimit
			if len(args) == 1 {
				limit, _ = errors.ValidateLimit(args[0])
			}
			cfg, err := c.config(cmd)
			if err != nil {
				return err
			}
			flags.apply(cmd, &cfg)
			if err := cfg.validate("flags"); err != nil {
				return err
			}
			return c.runCrawl(cmd, cfg, limit, flags.noCache)
		},
	}

	f := cmd.Flags()
	f.StringVar(&flags.catalogURL, "catalog-url", pipeline.DefaultCatalogURL, "theme catalog page")
	f.IntVar(&flags.concurrency, "concurrency", fetch.DefaultConcurrency, "maximum simultaneous requests")
	f.Float64Var(&flags.rps, "rps", 2, "maximum request starts per second (0 for unlimited)")
	f.DurationVar(&flags.timeout, "timeout", fetch.DefaultTimeout, "timeout for a single request")
	f.BoolVar(&flags.demote, "demote-missing-config", false, "stop targeting themes without a default config file")
	f.BoolVar(&flags.noCache, "no-cache", false, "neither read nor write the response cache")
	f.StringVar(&flags.metricsFile, "metrics-file", "", "write Prometheus metrics to this file after the run")
	f.StringVar(&flags.reportFile, "report", "", "write a JSON report of all themes to this file")

	return cmd
}

// limitArgs accepts an optional positive integer.
func limitArgs(_ *cobra.Command, args []string) error {
	switch len(args) {
	case 0:
		return nil
	case 1:
		_, err := errors.ValidateLimit(args[0])
		return err
	default:
		return errors.New(errors.ErrCodeUsage, "run accepts at most one argument, got %d", len(args))
	}
}

// apply copies explicitly set flags over cfg.
func (f *runFlags) apply(cmd *cobra.Command, cfg *Config) {
	set := cmd.Flags().Changed
	if set("catalog-url") {
		cfg.CatalogURL = f.catalogURL
	}
	if set("concurrency") {
		cfg.Concurrency = f.concurrency
	}
	if set("rps") {
		cfg.RequestsPerSecond = f.rps
	}
	if set("timeout") {
		cfg.Timeout = f.timeout
	}
	if set("demote-missing-config") {
		cfg.DemoteMissingConfig = f.demote
	}
	if set("metrics-file") {
		cfg.MetricsFile = f.metricsFile
	}
	if set("report") {
		cfg.ReportFile = f.reportFile
	}
}

func (c *CLI) runCrawl(cmd *cobra.Command, cfg Config, limit int, noCache bool) (err error) {
	ctx := cmd.Context()
	logger := loggerFromContext(ctx)

	var backend cache.Backend = cache.NullBackend{}
	if !noCache {
		var closeBackend func() error
		backend, closeBackend, err = cfg.backend()
		if err != nil {
			return err
		}
		defer func() { err = stderrors.Join(err, closeBackend()) }()
	}

	responses := cache.New(backend)
	n, err := responses.Load(ctx)
	if err != nil {
		return err
	}
	logger.Info("cache loaded", "entries", n, "path", backend.Location())

	if cfg.MetricsFile != "" {
		prom := observability.NewPrometheus(prometheus.NewRegistry())
		prom.Register()
		defer observability.Reset()
		defer func() {
			if werr := prom.WriteTextfile(cfg.MetricsFile); werr != nil {
				err = stderrors.Join(err, werr)
				return
			}
			logger.Debug("metrics written", "path", cfg.MetricsFile)
		}()
	}

	fetchOpts := cfg.fetchOptions()
	fetchOpts.Logger = logger
	fetcher := fetch.New(responses, fetchOpts)

	runner := pipeline.NewRunner(responses, fetcher, logger)
	prog := newProgress(logger)
	result, err := runner.Execute(ctx, cfg.pipelineOptions(limit))
	if err != nil {
		return err
	}
	prog.done("Completed")
	logger.Debug("run finished", "run", result.RunID, "requests", fetcher.Requests(), "cached", result.Stats.CachedResponses)

	printSummary(result)

	if cfg.ReportFile != "" {
		if err := writeReport(cfg.ReportFile, result); err != nil {
			return err
		}
		printFile(cfg.ReportFile)
	}
	return nil
}
