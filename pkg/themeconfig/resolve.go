package themeconfig

import (
	"net/url"
	"strings"

	"github.com/matzehuels/themecheck/pkg/errors"
)

// Default hosts for repository browser pages and their raw file content.
const (
	DefaultRepositoryHost = "github.com"
	DefaultRawHost        = "raw.githubusercontent.com"
)

// blobSegment is the path segment a repository browser inserts between the
// repository name and the ref: /owner/repo/blob/ref/path.
const blobSegment = "blob"

// Resolver maps repository browser URLs to raw-content URLs.
// The zero value uses the default hosts.
type Resolver struct {
	RepositoryHost string
	RawHost        string
}

func (r Resolver) withDefaults() Resolver {
	if r.RepositoryHost == "" {
		r.RepositoryHost = DefaultRepositoryHost
	}
	if r.RawHost == "" {
		r.RawHost = DefaultRawHost
	}
	return r
}

// ResolveRawURL maps pageURL with the default hosts.
func ResolveRawURL(pageURL string) (string, error) {
	return Resolver{}.RawURL(pageURL)
}

// RawURL maps a file page such as
//
//	https://github.com/owner/repo/blob/master/_config.yml
//
// to its raw content
//
//	https://raw.githubusercontent.com/owner/repo/master/_config.yml
//
// A host-relative path is taken to be on the repository host. A URL already
// on the raw host is returned unchanged, so RawURL is idempotent. Query and
// fragment are dropped.
func (r Resolver) RawURL(pageURL string) (string, error) {
	r = r.withDefaults()

	u, err := url.Parse(strings.TrimSpace(pageURL))
	if err != nil {
		return "", errors.Wrap(errors.ErrCodeContract, err, "config page url %q", pageURL)
	}
	host := u.Host
	if !u.IsAbs() {
		if !strings.HasPrefix(u.Path, "/") || host != "" {
			return "", errors.New(errors.ErrCodeContract, "config page url %q is not host-relative", pageURL)
		}
		host = r.RepositoryHost
	}

	segs := strings.Split(strings.TrimPrefix(u.Path, "/"), "/")

	switch {
	case strings.EqualFold(host, r.RawHost):
		if len(segs) < 4 {
			return "", errors.New(errors.ErrCodeContract, "raw url %q: want /owner/repo/ref/path", pageURL)
		}
	case strings.EqualFold(host, r.RepositoryHost):
		if len(segs) < 5 || segs[2] != blobSegment {
			return "", errors.New(errors.ErrCodeContract, "config page url %q: want /owner/repo/%s/ref/path", pageURL, blobSegment)
		}
		segs = append(segs[:2:2], segs[3:]...)
	default:
		return "", errors.New(errors.ErrCodeContract, "config page url %q: unsupported host %q", pageURL, host)
	}

	for _, s := range segs {
		if s == "" {
			return "", errors.New(errors.ErrCodeContract, "config page url %q has an empty path segment", pageURL)
		}
	}

	raw := url.URL{Scheme: "https", Host: r.RawHost, Path: "/" + strings.Join(segs, "/")}
	return raw.String(), nil
}
