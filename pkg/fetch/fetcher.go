package fetch

import (
	"context"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strings"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/time/rate"

	"github.com/matzehuels/themecheck/pkg/cache"
	"github.com/matzehuels/themecheck/pkg/errors"
	"github.com/matzehuels/themecheck/pkg/httputil"
	"github.com/matzehuels/themecheck/pkg/observability"
)

// Defaults applied by [Options.WithDefaults].
const (
	DefaultConcurrency  = 4
	DefaultTimeout      = 30 * time.Second
	DefaultMaxRedirects = 10
	DefaultUserAgent    = "themecheck (+https://github.com/matzehuels/themecheck)"

	// maxBodyBytes limits the size of a single response.
	maxBodyBytes = 10 << 20

	// maxDrainBytes bounds how much of a redirect body is read before the
	// connection is given back to the pool.
	maxDrainBytes = 64 << 10
)

// Options configures a Fetcher.
type Options struct {
	// Concurrency bounds simultaneous in-flight requests.
	Concurrency int

	// RequestsPerSecond paces request starts. Zero disables pacing.
	RequestsPerSecond float64

	// Timeout bounds one request, including reading the body.
	Timeout time.Duration

	// MaxRedirects bounds the length of a redirect chain.
	MaxRedirects int

	// UserAgent is sent with every request.
	UserAgent string

	// Client is the HTTP client to use. Its CheckRedirect is replaced.
	Client *http.Client

	// Logger receives debug lines for every network call.
	Logger *log.Logger
}

// WithDefaults returns a copy of o with zero values replaced by defaults.
func (o Options) WithDefaults() Options {
	if o.Concurrency <= 0 {
		o.Concurrency = DefaultConcurrency
	}
	if o.Timeout <= 0 {
		o.Timeout = DefaultTimeout
	}
	if o.MaxRedirects <= 0 {
		o.MaxRedirects = DefaultMaxRedirects
	}
	if o.UserAgent == "" {
		o.UserAgent = DefaultUserAgent
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	return o
}

// Fetcher issues cache-first GET requests with bounded concurrency.
// It is safe for concurrent use.
type Fetcher struct {
	cache        *cache.ResponseCache
	http         *http.Client
	slots        chan struct{}
	limiter      *rate.Limiter
	userAgent    string
	maxRedirects int
	logger       *log.Logger

	requests atomic.Int64
}

// New creates a Fetcher that reads and populates c.
func New(c *cache.ResponseCache, opts Options) *Fetcher {
	opts = opts.WithDefaults()

	var hc http.Client
	if opts.Client != nil {
		hc = *opts.Client
	}
	if hc.Timeout == 0 {
		hc.Timeout = opts.Timeout
	}
	hc.CheckRedirect = func(*http.Request, []*http.Request) error {
		return http.ErrUseLastResponse
	}

	limit := rate.Inf
	if opts.RequestsPerSecond > 0 {
		limit = rate.Limit(opts.RequestsPerSecond)
	}

	return &Fetcher{
		cache:        c,
		http:         &hc,
		slots:        make(chan struct{}, opts.Concurrency),
		limiter:      rate.NewLimiter(limit, 1),
		userAgent:    opts.UserAgent,
		maxRedirects: opts.MaxRedirects,
		logger:       opts.Logger,
	}
}

// Requests returns the number of network requests issued so far.
func (f *Fetcher) Requests() int64 { return f.requests.Load() }

// Fetch returns the body of rawURL, from the cache when possible.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) (string, error) {
	return f.fetch(ctx, rawURL, 0)
}

func (f *Fetcher) fetch(ctx context.Context, rawURL string, hops int) (string, error) {
	host := hostOf(rawURL)

	body, ok, err := f.cache.Query(rawURL)
	if err != nil {
		return "", err
	}
	if ok {
		observability.Cache().OnCacheHit(ctx, host)
		return body, nil
	}
	observability.Cache().OnCacheMiss(ctx, host)

	resp, err := f.get(ctx, rawURL)
	if err != nil {
		return "", err
	}

	if resp.location != "" {
		if hops >= f.maxRedirects {
			return "", errors.New(errors.ErrCodeTooManyRedirects, "GET %s: more than %d redirects", rawURL, f.maxRedirects)
		}
		f.logger.Debug("redirect", "from", rawURL, "to", resp.location, "status", resp.status)
		body, err = f.fetch(ctx, resp.location, hops+1)
		if err != nil {
			return "", err
		}
	} else {
		body = resp.body
	}

	if body != "" {
		if err := f.cache.Store(rawURL, body); err != nil {
			return "", err
		}
		observability.Cache().OnCacheStore(ctx, host, len(body))
	}
	return body, nil
}

type response struct {
	status   int
	location string
	body     string
}

// get performs one request while holding a slot. The slot is released
// before get returns, including for redirects.
func (f *Fetcher) get(ctx context.Context, rawURL string) (*response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeContract, err, "GET %s", rawURL)
	}
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "text/html, text/plain;q=0.9")

	select {
	case f.slots <- struct{}{}:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	defer func() { <-f.slots }()

	if err := f.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	hooks := observability.HTTP()
	host, path := req.URL.Host, req.URL.Path
	hooks.OnRequest(ctx, req.Method, host, path)
	f.requests.Add(1)

	start := time.Now()
	resp, err := f.http.Do(req)
	if err != nil {
		hooks.OnError(ctx, req.Method, host, path, err)
		return nil, httputil.Retryable(errors.Wrap(errors.ErrCodeTransport, err, "GET %s", rawURL))
	}
	defer resp.Body.Close()

	hooks.OnResponse(ctx, req.Method, host, path, resp.StatusCode, time.Since(start))
	f.logger.Debug("fetched", "url", rawURL, "status", resp.StatusCode)

	if isRedirect(resp.StatusCode) {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxDrainBytes))
		loc, err := resp.Location()
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeUnexpectedStatus, err, "GET %s: redirect %d without location", rawURL, resp.StatusCode)
		}
		return &response{status: resp.StatusCode, location: loc.String()}, nil
	}

	if err := checkStatus(resp.StatusCode); err != nil {
		return nil, fmt.Errorf("GET %s: %w", rawURL, err)
	}
	if err := checkContentType(resp.Header.Get("Content-Type")); err != nil {
		return nil, fmt.Errorf("GET %s: %w", rawURL, err)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes+1))
	if err != nil {
		return nil, httputil.Retryable(errors.Wrap(errors.ErrCodeTransport, err, "GET %s: read body", rawURL))
	}
	if len(data) > maxBodyBytes {
		return nil, errors.New(errors.ErrCodeUnexpectedStatus, "GET %s: body exceeds %d bytes", rawURL, maxBodyBytes)
	}
	return &response{status: resp.StatusCode, body: string(data)}, nil
}

func isRedirect(code int) bool {
	switch code {
	case http.StatusMovedPermanently, http.StatusFound, http.StatusSeeOther,
		http.StatusTemporaryRedirect, http.StatusPermanentRedirect:
		return true
	}
	return false
}

func checkStatus(code int) error {
	switch {
	case code == http.StatusOK:
		return nil
	case code == http.StatusNotFound:
		return errors.New(errors.ErrCodeNotFound, "status %d", code)
	case code >= 500:
		return httputil.Retryable(errors.New(errors.ErrCodeUnexpectedStatus, "status %d", code))
	default:
		return errors.New(errors.ErrCodeUnexpectedStatus, "status %d", code)
	}
}

// checkContentType accepts UTF-8 text/html and text/plain only.
func checkContentType(header string) error {
	mediaType, params, err := mime.ParseMediaType(header)
	if err != nil {
		return errors.Wrap(errors.ErrCodeUnexpectedContentType, err, "content type %q", header)
	}
	if mediaType != "text/html" && mediaType != "text/plain" {
		return errors.New(errors.ErrCodeUnexpectedContentType, "content type %q", header)
	}
	if !strings.EqualFold(params["charset"], "utf-8") {
		return errors.New(errors.ErrCodeUnexpectedContentType, "content type %q: charset is not utf-8", header)
	}
	return nil
}

func hostOf(rawURL string) string {
	if u, err := url.Parse(rawURL); err == nil {
		return u.Host
	}
	return ""
}

// IsNotFound reports whether err is a 404 outcome.
func IsNotFound(err error) bool { return errors.Is(err, errors.ErrCodeNotFound) }

// IsTransport reports whether err is a network-level failure.
func IsTransport(err error) bool { return errors.Is(err, errors.ErrCodeTransport) }

// Recoverable reports whether err is a fetch outcome that concerns only the
// requested resource. A stage working on one theme records such failures
// on the entry and carries on; anything else, including unexpected content
// types, means the origin no longer behaves as expected and ends the run.
func Recoverable(err error) bool {
	switch errors.GetCode(err) {
	case errors.ErrCodeNotFound, errors.ErrCodeTransport,
		errors.ErrCodeUnexpectedStatus, errors.ErrCodeTooManyRedirects:
		return true
	}
	return false
}
