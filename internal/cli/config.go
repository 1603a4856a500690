package cli

import (
	"os"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/matzehuels/themecheck/pkg/buildinfo"
	"github.com/matzehuels/themecheck/pkg/cache"
	"github.com/matzehuels/themecheck/pkg/errors"
	"github.com/matzehuels/themecheck/pkg/fetch"
	"github.com/matzehuels/themecheck/pkg/pipeline"
	"github.com/matzehuels/themecheck/pkg/themeconfig"
)

// defaultConfigFile is read when present; --config makes it mandatory.
const defaultConfigFile = "themecheck.toml"

// Config is the file-level configuration. Flags override every field.
type Config struct {
	CatalogURL     string `toml:"catalog_url"`
	RepositoryHost string `toml:"repository_host"`
	RawHost        string `toml:"raw_host"`

	CacheFile string `toml:"cache_file"`
	RedisURL  string `toml:"redis_url"`
	RedisKey  string `toml:"redis_key"`

	Concurrency       int           `toml:"concurrency"`
	RequestsPerSecond float64       `toml:"requests_per_second"`
	Timeout           time.Duration `toml:"timeout"`
	UserAgent         string        `toml:"user_agent"`
	CatalogAttempts   int           `toml:"catalog_attempts"`

	DemoteMissingConfig bool `toml:"demote_missing_config"`

	MetricsFile string `toml:"metrics_file"`
	ReportFile  string `toml:"report_file"`
}

// DefaultConfig returns the configuration used when nothing is set.
func DefaultConfig() Config {
	return Config{
		CatalogURL:        pipeline.DefaultCatalogURL,
		RepositoryHost:    themeconfig.DefaultRepositoryHost,
		RawHost:           themeconfig.DefaultRawHost,
		CacheFile:         cache.DefaultFile,
		RedisKey:          cache.DefaultRedisKey,
		Concurrency:       fetch.DefaultConcurrency,
		RequestsPerSecond: 2,
		Timeout:           fetch.DefaultTimeout,
		UserAgent:         buildinfo.UserAgent(),
		CatalogAttempts:   pipeline.DefaultCatalogAttempts,
	}
}

// LoadConfig reads path on top of the defaults. A missing file is only an
// error when required is set. Unknown keys are rejected.
func LoadConfig(path string, required bool) (Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) && !required {
			return cfg, nil
		}
		return cfg, errors.Wrap(errors.ErrCodeUsage, err, "read config %s", path)
	}

	md, err := toml.Decode(string(data), &cfg)
	if err != nil {
		return cfg, errors.Wrap(errors.ErrCodeUsage, err, "parse config %s", path)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return cfg, errors.New(errors.ErrCodeUsage, "config %s: unknown key %q", path, undecoded[0].String())
	}
	return cfg, cfg.validate(path)
}

func (c Config) validate(source string) error {
	switch {
	case c.Concurrency < 1:
		return errors.New(errors.ErrCodeUsage, "%s: concurrency must be at least 1", source)
	case c.RequestsPerSecond < 0:
		return errors.New(errors.ErrCodeUsage, "%s: requests_per_second cannot be negative", source)
	case c.Timeout <= 0:
		return errors.New(errors.ErrCodeUsage, "%s: timeout must be positive", source)
	case c.CatalogAttempts < 1:
		return errors.New(errors.ErrCodeUsage, "%s: catalog_attempts must be at least 1", source)
	}
	if _, err := errors.ValidateAbsoluteURL(c.CatalogURL); err != nil {
		return errors.Wrap(errors.ErrCodeUsage, err, "%s: catalog_url", source)
	}
	return nil
}

// backend opens the persistence backend selected by the configuration.
// The returned close function is never nil.
func (c Config) backend() (cache.Backend, func() error, error) {
	if c.RedisURL == "" {
		return cache.NewFileBackend(c.CacheFile), func() error { return nil }, nil
	}
	b, err := cache.DialRedis(c.RedisURL, c.RedisKey)
	if err != nil {
		return nil, nil, err
	}
	return b, b.Close, nil
}

func (c Config) fetchOptions() fetch.Options {
	return fetch.Options{
		Concurrency:       c.Concurrency,
		RequestsPerSecond: c.RequestsPerSecond,
		Timeout:           c.Timeout,
		UserAgent:         c.UserAgent,
	}
}

func (c Config) pipelineOptions(limit int) pipeline.Options {
	return pipeline.Options{
		CatalogURL:          c.CatalogURL,
		Limit:               limit,
		RepositoryHost:      c.RepositoryHost,
		RawHost:             c.RawHost,
		DemoteMissingConfig: c.DemoteMissingConfig,
		CatalogAttempts:     c.CatalogAttempts,
	}
}
